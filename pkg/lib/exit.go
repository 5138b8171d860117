package lib

import (
	"errors"
	"fmt"
	"os"
)

// ErrShown marks an error whose message the user has already seen.
var ErrShown = errors.New("already reported")

// Shown wraps err so that Exit does not print it again.
func Shown(err error) error {
	return fmt.Errorf("%w: %w", ErrShown, err)
}

// Exit prints the error and exits the program with code 1
func Exit(err error) {
	if !errors.Is(err, ErrShown) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(1)
}
