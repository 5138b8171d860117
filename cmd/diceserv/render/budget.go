package render

import "errors"

// DefaultMaxLength is the longest line an IRC server relays, without CRLF.
const DefaultMaxLength = 510

// ErrBufferOverflow means the reply cannot fit the line limit at any tier.
var ErrBufferOverflow = errors.New("result buffer overflow")

// Budget bounds reply length the way a chat server bounds a line: the
// sender's prefix and the command framing come out of MaxLength before the
// reply text does. A zero MaxLength disables every check.
type Budget struct {
	MaxLength int
	BotNick   string
	BotIdent  string
	BotHost   string
	// Privmsg is set when channel replies are sent as PRIVMSG rather than
	// NOTICE.
	Privmsg bool
}

func (b Budget) enabled() bool { return b.MaxLength > 0 }

// Limit is the space left for the reply text itself.
func (b Budget) Limit(req Request) int {
	n := b.MaxLength - len(b.BotNick) - len(b.BotIdent) - len(b.BotHost)
	n -= 7 // ":", "!", "@" and the separating spaces and colon
	if req.Channel != "" && b.Privmsg {
		n -= len("PRIVMSG")
	} else {
		n -= len("NOTICE")
	}
	if req.Channel != "" {
		n -= len(req.Channel)
	} else {
		n -= len(req.Nick)
	}
	return n
}

// Check fails with ErrBufferOverflow when the fixed parts of the reply
// already use up the limit, before anything is rolled.
func (b Budget) Check(req Request) error {
	if !b.enabled() {
		return nil
	}
	rest := b.Limit(req) - 7 // "<", " [", "]", ": " and ">"
	rest -= len(req.Prefix) + len(req.DicePrefix) + len(req.Expression) + len(req.DiceSuffix)
	if req.Channel != "" {
		rest -= len("for ") + len(req.Nick)
	}
	if req.Comment != "" {
		rest -= len(req.Comment) + 1
	}
	if rest <= 0 {
		return ErrBufferOverflow
	}
	return nil
}

// Fits reports whether output can be sent for req.
func (b Budget) Fits(req Request, output string) bool {
	return !b.enabled() || b.Limit(req)-len(output) > 0
}
