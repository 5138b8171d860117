package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"go-dice/cmd/diceserv/expr"
)

var flagInteractive bool

var functionsCmd = &cobra.Command{
	Use:   "functions [filter]",
	Short: "List the functions and constants expressions can use",
	Long: "List the functions and constants expressions can use. A filter keeps\n" +
		"the names that fuzzily match it, best match first. With -i, pick a\n" +
		"function interactively and print its usage.",
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, f := range expr.Functions() {
			if strings.HasPrefix(f.Name, toComplete) {
				names = append(names, f.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fns := expr.Functions()
		if len(args) == 1 {
			fns = filterFunctions(fns, args[0])
		}
		if flagInteractive {
			f, err := pickFunction(fns)
			if errors.Is(err, fuzzyfinder.ErrAbort) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Usage)
			return nil
		}
		printFunctions(cmd.OutOrStdout(), fns, len(args) == 0)
		return nil
	},
}

func init() {
	functionsCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "pick a function with a fuzzy finder")
}

// filterFunctions keeps the functions whose name fuzzily matches query,
// closest first.
func filterFunctions(fns []expr.FunctionInfo, query string) []expr.FunctionInfo {
	byName := make(map[string]expr.FunctionInfo, len(fns))
	names := make([]string, len(fns))
	for i, f := range fns {
		byName[f.Name] = f
		names[i] = f.Name
	}
	ranks := fuzzy.RankFindFold(query, names)
	sort.Sort(ranks)
	out := make([]expr.FunctionInfo, len(ranks))
	for i, r := range ranks {
		out[i] = byName[r.Target]
	}
	return out
}

func printFunctions(w io.Writer, fns []expr.FunctionInfo, constants bool) {
	width := 0
	for _, f := range fns {
		width = max(width, len(f.Usage))
	}
	for _, f := range fns {
		fmt.Fprintf(w, "%-*s  %s\n", width, f.Usage, f.Description)
	}
	if !constants {
		return
	}
	consts := expr.Constants()
	names := make([]string, 0, len(consts))
	for name := range consts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "%-*s  %.15g\n", width, name, consts[name])
	}
}

func describeFunction(f expr.FunctionInfo) string {
	args := fmt.Sprintf("%d", f.MinArgs)
	switch {
	case f.MaxArgs < 0:
		args = fmt.Sprintf("%d or more", f.MinArgs)
	case f.MaxArgs != f.MinArgs:
		args = fmt.Sprintf("%d to %d", f.MinArgs, f.MaxArgs)
	}
	return fmt.Sprintf("%s\n\n%s\n\narguments: %s", f.Usage, f.Description, args)
}

// pickFunction opens a fuzzy finder over fns with a description preview.
func pickFunction(fns []expr.FunctionInfo) (expr.FunctionInfo, error) {
	if len(fns) == 0 {
		return expr.FunctionInfo{}, errors.New("no function matches")
	}
	idx, err := fuzzyfinder.Find(
		fns,
		func(i int) string {
			return fns[i].Name
		},
		fuzzyfinder.WithPromptString("Function: "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 {
				return ""
			}
			return describeFunction(fns[i])
		}),
	)
	if err != nil {
		return expr.FunctionInfo{}, err
	}
	return fns[idx], nil
}
