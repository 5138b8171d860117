// Package render turns evaluation outcomes into chat-style reply lines.
package render

import (
	"fmt"
	"strings"

	"go-dice/cmd/diceserv/expr"
)

// Tier selects how much of the trace a reply shows.
type Tier int

const (
	// TierLong shows every face of every throw.
	TierLong Tier = iota
	// TierShort shows one sum per throw.
	TierShort
	// TierNone shows results only.
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierLong:
		return "long"
	case TierShort:
		return "short"
	case TierNone:
		return "none"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier accepts a tier name or its number, 0 being the longest.
func ParseTier(s string) (Tier, error) {
	for _, t := range []Tier{TierLong, TierShort, TierNone} {
		if strings.EqualFold(s, t.String()) || s == fmt.Sprint(int(t)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown verbosity %q (want long, short or none)", s)
}

// Cap drops the tiers more verbose than limit.
func Cap(tiers []Tier, limit Tier) []Tier {
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t >= limit {
			out = append(out, t)
		}
	}
	return out
}

// FaceLoc addresses one die face in an outcome. Group is -1 for the repeat
// count group.
type FaceLoc struct {
	Group  int
	Record int
	Index  int
}

// FaceFunc rewrites the text of a single face in long output.
type FaceFunc func(loc FaceLoc, text string) string

// Request is everything about a reply that is not the outcome itself.
type Request struct {
	Prefix     string
	DicePrefix string
	Expression string
	DiceSuffix string

	Channel string
	Nick    string
	Comment string

	// Extended enables the braces section for TierLong and TierShort.
	Extended bool
	// PlainPrefix replaces Prefix when falling back to TierNone.
	PlainPrefix string

	Face FaceFunc
}

// IsExtended reports whether an expression earns a trace section: the
// percentile shorthand, any dice operator, or a rand call.
func IsExtended(expression string) bool {
	lower := strings.ToLower(expression)
	return expression == "%" || strings.Contains(lower, "d") || strings.Contains(lower, "rand(")
}

// Number formats a value with 15 significant digits.
func Number(v float64) string {
	return fmt.Sprintf("%.15g", v)
}

// Format renders out at the given tier.
func Format(req Request, out *expr.Outcome, tier Tier) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(req.Prefix)
	if req.Channel != "" && req.Nick != "" {
		b.WriteString(" for ")
		b.WriteString(req.Nick)
	}
	b.WriteString(" [")
	b.WriteString(req.DicePrefix)
	b.WriteString(req.Expression)
	b.WriteString(req.DiceSuffix)
	b.WriteString("]: ")

	var repeat []expr.Record
	if out.Repeat != nil {
		repeat = out.Repeat.Records
	}
	if req.Extended && tier != TierNone && (len(repeat) > 0 || len(out.Groups) > 0) {
		b.WriteString("{")
		if len(repeat) > 0 {
			writeRecords(&b, req, repeat, -1, tier)
			b.WriteString(" ~ ")
		}
		for i, g := range out.Groups {
			if i > 0 {
				b.WriteString(" | ")
			}
			writeRecords(&b, req, g.Records, i, tier)
		}
		b.WriteString("} ")
	}

	for i, v := range out.Results {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(Number(v))
	}
	b.WriteString(">")
	if req.Comment != "" {
		b.WriteString(" ")
		b.WriteString(req.Comment)
	}
	return b.String()
}

func writeRecords(b *strings.Builder, req Request, recs []expr.Record, group int, tier Tier) {
	for i, r := range recs {
		if i > 0 {
			b.WriteString(" ")
		}
		switch rec := r.(type) {
		case *expr.DiceThrow:
			fmt.Fprintf(b, "%dd%d=(", rec.Count, rec.Sides)
			if tier == TierShort {
				fmt.Fprintf(b, "%d", rec.Sum())
			} else {
				for j, f := range rec.Faces {
					if j > 0 {
						b.WriteString(" ")
					}
					text := fmt.Sprintf("%d", f)
					if req.Face != nil {
						text = req.Face(FaceLoc{Group: group, Record: i, Index: j}, text)
					}
					b.WriteString(text)
				}
			}
			b.WriteString(")")
		case *expr.FunctionCall:
			args := make([]string, len(rec.Args))
			for j, a := range rec.Args {
				args[j] = Number(a)
			}
			fmt.Fprintf(b, "%s(%s)=%s", rec.Name, strings.Join(args, ","), Number(rec.Result))
		}
	}
}

// Fit formats out with the first tier whose output fits the budget.
func Fit(req Request, out *expr.Outcome, budget Budget, tiers ...Tier) (string, error) {
	for _, t := range tiers {
		r := req
		if t == TierNone && r.PlainPrefix != "" {
			r.Prefix = r.PlainPrefix
		}
		s := Format(r, out, t)
		if budget.Fits(r, s) {
			return s, nil
		}
	}
	return "", ErrBufferOverflow
}
