package expr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var ignorePos = cmpopts.IgnoreFields(Instruction{}, "Pos")

func mustCompile(t *testing.T, raw string) *Program {
	t.Helper()
	p, err := Compile(raw)
	if err != nil {
		t.Fatalf("Compile(%q): %v", raw, err)
	}
	return p
}

func TestCompilePostfix(t *testing.T) {
	cases := []struct {
		raw, want string
	}{
		{"3d6+5", "3 6 d 5 +"},
		{"3+4*2", "3 4 2 * +"},
		{"2*3+1", "2 3 * 1 +"},
		{"2^3^2", "2 3 2 ^ ^"},
		{"2d6^2", "2 6 d 2 ^"},
		{"2^2d6", "2 2 6 d ^"},
		{"2d6*3", "2 6 d 3 *"},
		{"8/4/2", "8 4 / 2 /"},
		{"1d2d3", "1 2 d 3 d"},
		{"(1+2)*3", "1 2 + 3 *"},
		{"max(3,7,2)", "3 7 2 max_3"},
		{"max(1,2)d6", "1 2 max_2 6 d"},
		{"sqrt(max(1,2))", "1 2 max_2 sqrt"},
		{"max(1+2,min(3,4,5))", "1 2 + 3 4 5 min_3 max_2"},
		{"atan2(1,2)", "1 2 atan2"},
		{"sqrt(4)+1", "4 sqrt 1 +"},
		{"-3+2", "-3 2 +"},
		{"-(3)", "0 3 -"},
		{"%", "1 100 d"},
		{"SQRT(4)", "4 sqrt"},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			if got := mustCompile(t, c.raw).String(); got != c.want {
				t.Fatalf("Compile(%q) = %q, want %q", c.raw, got, c.want)
			}
		})
	}
}

func TestCompileImplicitMultiplication(t *testing.T) {
	implicit := mustCompile(t, "2(3)")
	explicit := mustCompile(t, "2*3")
	if diff := cmp.Diff(explicit.Instructions, implicit.Instructions); diff != "" {
		t.Fatalf("2(3) and 2*3 differ (-explicit +implicit):\n%s", diff)
	}
}

func TestCompilePercentShorthand(t *testing.T) {
	short := mustCompile(t, "%")
	long := mustCompile(t, "1d100")
	if diff := cmp.Diff(long.Instructions, short.Instructions, ignorePos); diff != "" {
		t.Fatalf("%% and 1d100 differ:\n%s", diff)
	}
}

func TestCompileConstants(t *testing.T) {
	p := mustCompile(t, "-pi*e")
	want := []Instruction{
		{Kind: InstrLiteral, Value: -3.141592653589793},
		{Kind: InstrLiteral, Value: 2.718281828459045},
		{Kind: InstrOperator, Op: '*'},
	}
	if diff := cmp.Diff(want, p.Instructions, ignorePos); diff != "" {
		t.Fatalf("unexpected program (-want +got):\n%s", diff)
	}
}

func TestCompileVariadicArity(t *testing.T) {
	p := mustCompile(t, "min(1,2,3,4)")
	want := []Instruction{
		{Kind: InstrLiteral, Value: 1},
		{Kind: InstrLiteral, Value: 2},
		{Kind: InstrLiteral, Value: 3},
		{Kind: InstrLiteral, Value: 4},
		{Kind: InstrFunction, Name: "min", Arity: 4},
	}
	if diff := cmp.Diff(want, p.Instructions, ignorePos); diff != "" {
		t.Fatalf("unexpected program (-want +got):\n%s", diff)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		raw     string
		kind    Kind
		pos     int
		message string
	}{
		{"", KindParse, 0, "An empty dice expression was found."},
		{"3)", KindParse, 1, "A close parenthesis was found but not enough open parentheses were found before it."},
		{"(3", KindParse, 0, "There are more open parentheses than close parentheses."},
		{"sqrt(4", KindParse, 4, "There are more open parentheses than close parentheses."},
		{"1,2", KindParse, 1, "A comma was encountered outside of a function."},
		{"(1,2)", KindParse, 2, "A comma was encountered outside of a function."},
		{"1.2.3", KindParse, 0, "An invalid number was encountered."},
		{"3+*2", KindParse, 1, "No number or open parenthesis after operator."},
	}
	for _, c := range cases {
		t.Run(c.raw, func(t *testing.T) {
			_, err := Compile(c.raw)
			if err == nil {
				t.Fatalf("expected error for %q", c.raw)
			}
			e, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %T", err)
			}
			if e.Kind != c.kind || e.Pos != c.pos || e.Message != c.message {
				t.Fatalf("got kind=%v pos=%d msg=%q, want kind=%v pos=%d msg=%q",
					e.Kind, e.Pos, e.Message, c.kind, c.pos, c.message)
			}
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected errors.Is(err, ErrParse)")
			}
			mustContain(t, err.Error(), "phase=parse", "pos=")
		})
	}
}

func TestCompileHugeLiteralOverflows(t *testing.T) {
	huge := "1"
	for i := 0; i < 400; i++ {
		huge += "0"
	}
	_, err := Compile(huge)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestWouldPop(t *testing.T) {
	cases := []struct {
		adding, top string
		want        bool
	}{
		{"+", "", false},
		{"+", "(", false},
		{"sqrt", "+", false},
		{"+", "sqrt", true},
		{"d", "d", true},
		{"d", "*", false},
		{"^", "^", false},
		{"^", "d", true},
		{"^", "*", false},
		{"*", "^", true},
		{"*", "d", true},
		{"*", "/", true},
		{"*", "+", false},
		{"+", "-", true},
		{"-", "d", true},
		{")", "+", true},
		{",", "*", true},
		{"", "^", true},
	}
	for _, c := range cases {
		if got := wouldPop(c.adding, c.top); got != c.want {
			t.Errorf("wouldPop(%q, %q) = %v, want %v", c.adding, c.top, got, c.want)
		}
	}
}

func TestWouldPopPanicsOnUnknownToken(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	wouldPop("?", "+")
}
