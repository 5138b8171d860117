package expr

import (
	"math"
	"sort"
	"strings"
)

const (
	minNameLen = 3
	maxNameLen = 5
)

// function is a built-in callable. A negative arity means "at least -arity"
// arguments; the compiler then records the call's actual count.
type function struct {
	name  string
	arity int
	usage string
	desc  string
	// call receives arguments in call order. It may rewrite args in place
	// when the recorded arguments differ from the raw operands.
	call func(args []float64, r Rand) (float64, Kind)
}

func (f function) variadic() bool { return f.arity < 0 }

func (f function) minArgs() int {
	if f.arity < 0 {
		return -f.arity
	}
	return f.arity
}

type constant struct {
	name  string
	value float64
}

// constants is ordered longest name first for prefix matching.
var constants = []constant{
	{name: "pi", value: math.Pi},
	{name: "e", value: math.E},
}

func constantValue(name string) (float64, bool) {
	for _, c := range constants {
		if strings.EqualFold(c.name, name) {
			return c.value, true
		}
	}
	return 0, false
}

func unary(fn func(float64) float64) func([]float64, Rand) (float64, Kind) {
	return func(a []float64, _ Rand) (float64, Kind) { return fn(a[0]), 0 }
}

var functions = map[string]function{}

func register(fs ...function) {
	for _, f := range fs {
		functions[f.name] = f
	}
}

func init() {
	register(
		function{name: "abs", arity: 1, usage: "abs(x)", desc: "absolute value", call: unary(math.Abs)},
		function{name: "acos", arity: 1, usage: "acos(x)", desc: "arc cosine, |x| <= 1", call: func(a []float64, _ Rand) (float64, Kind) {
			if math.Abs(a[0]) > 1 {
				return 0, KindUndefined
			}
			return math.Acos(a[0]), 0
		}},
		function{name: "acosh", arity: 1, usage: "acosh(x)", desc: "inverse hyperbolic cosine, x >= 1", call: func(a []float64, _ Rand) (float64, Kind) {
			if a[0] < 1 {
				return 0, KindUndefined
			}
			return math.Acosh(a[0]), 0
		}},
		function{name: "asin", arity: 1, usage: "asin(x)", desc: "arc sine, |x| <= 1", call: func(a []float64, _ Rand) (float64, Kind) {
			if math.Abs(a[0]) > 1 {
				return 0, KindUndefined
			}
			return math.Asin(a[0]), 0
		}},
		function{name: "asinh", arity: 1, usage: "asinh(x)", desc: "inverse hyperbolic sine", call: unary(math.Asinh)},
		function{name: "atan", arity: 1, usage: "atan(x)", desc: "arc tangent", call: unary(math.Atan)},
		function{name: "atan2", arity: 2, usage: "atan2(y,x)", desc: "arc tangent of y/x using the signs of both", call: func(a []float64, _ Rand) (float64, Kind) {
			return math.Atan2(a[0], a[1]), 0
		}},
		function{name: "atanh", arity: 1, usage: "atanh(x)", desc: "inverse hyperbolic tangent, |x| < 1", call: func(a []float64, _ Rand) (float64, Kind) {
			switch x := math.Abs(a[0]); {
			case x == 1:
				return 0, KindDivisionByZero
			case x > 1:
				return 0, KindUndefined
			}
			return math.Atanh(a[0]), 0
		}},
		function{name: "cbrt", arity: 1, usage: "cbrt(x)", desc: "cube root", call: unary(math.Cbrt)},
		function{name: "ceil", arity: 1, usage: "ceil(x)", desc: "round up", call: unary(math.Ceil)},
		function{name: "cos", arity: 1, usage: "cos(x)", desc: "cosine, radians", call: unary(math.Cos)},
		function{name: "cosh", arity: 1, usage: "cosh(x)", desc: "hyperbolic cosine", call: unary(math.Cosh)},
		function{name: "deg", arity: 1, usage: "deg(x)", desc: "radians to degrees", call: func(a []float64, _ Rand) (float64, Kind) {
			return a[0] * 180 / math.Pi, 0
		}},
		function{name: "exp", arity: 1, usage: "exp(x)", desc: "e raised to x", call: unary(math.Exp)},
		function{name: "fac", arity: 1, usage: "fac(x)", desc: "factorial of the integer part, 0 <= x <= 12", call: func(a []float64, _ Rand) (float64, Kind) {
			a[0] = math.Trunc(a[0])
			if a[0] == 0 {
				a[0] = 0 // no -0 in the trace
			}
			switch {
			case a[0] < 0:
				return 0, KindUndefined
			case a[0] > 12:
				return 0, KindOverflow
			}
			r := 1
			for i := 2; i <= int(a[0]); i++ {
				r *= i
			}
			return float64(r), 0
		}},
		function{name: "floor", arity: 1, usage: "floor(x)", desc: "round down", call: unary(math.Floor)},
		function{name: "log", arity: 1, usage: "log(x)", desc: "natural logarithm, x > 0", call: logarithm(math.Log)},
		function{name: "log10", arity: 1, usage: "log10(x)", desc: "base 10 logarithm, x > 0", call: logarithm(math.Log10)},
		function{name: "max", arity: -2, usage: "max(x,y,...)", desc: "largest argument", call: fold(math.Max)},
		function{name: "min", arity: -2, usage: "min(x,y,...)", desc: "smallest argument", call: fold(math.Min)},
		function{name: "rad", arity: 1, usage: "rad(x)", desc: "degrees to radians", call: func(a []float64, _ Rand) (float64, Kind) {
			return a[0] * math.Pi / 180, 0
		}},
		function{name: "rand", arity: 2, usage: "rand(x,y)", desc: "random integer between x and y inclusive", call: func(a []float64, r Rand) (float64, Kind) {
			for i := range a {
				if a[i] > math.MaxInt32 || a[i] < math.MinInt32 {
					return 0, KindOverflow
				}
				a[i] = math.Trunc(a[i])
			}
			lo, hi := int(a[0]), int(a[1])
			if lo > hi {
				lo, hi = hi, lo
			}
			return float64(r.Range(lo, hi)), 0
		}},
		function{name: "round", arity: 1, usage: "round(x)", desc: "round half away from zero", call: unary(math.Round)},
		function{name: "sin", arity: 1, usage: "sin(x)", desc: "sine, radians", call: unary(math.Sin)},
		function{name: "sinh", arity: 1, usage: "sinh(x)", desc: "hyperbolic sine", call: unary(math.Sinh)},
		function{name: "sqrt", arity: 1, usage: "sqrt(x)", desc: "square root, x >= 0", call: func(a []float64, _ Rand) (float64, Kind) {
			if a[0] < 0 {
				return 0, KindUndefined
			}
			return math.Sqrt(a[0]), 0
		}},
		function{name: "tan", arity: 1, usage: "tan(x)", desc: "tangent, radians", call: func(a []float64, _ Rand) (float64, Kind) {
			if math.Mod(a[0]+math.Pi/2, math.Pi) == 0 {
				return 0, KindUndefined
			}
			return math.Tan(a[0]), 0
		}},
		function{name: "tanh", arity: 1, usage: "tanh(x)", desc: "hyperbolic tangent", call: unary(math.Tanh)},
		function{name: "trunc", arity: 1, usage: "trunc(x)", desc: "integer part", call: unary(math.Trunc)},
	)
}

// logarithm rejects x == 0 as a pole and x < 0 as outside the domain.
func logarithm(fn func(float64) float64) func([]float64, Rand) (float64, Kind) {
	return func(a []float64, _ Rand) (float64, Kind) {
		switch {
		case a[0] == 0:
			return 0, KindDivisionByZero
		case a[0] < 0:
			return 0, KindUndefined
		}
		return fn(a[0]), 0
	}
}

func fold(pick func(x, y float64) float64) func([]float64, Rand) (float64, Kind) {
	return func(a []float64, _ Rand) (float64, Kind) {
		v := a[0]
		for _, x := range a[1:] {
			v = pick(v, x)
		}
		return v, 0
	}
}

// FunctionInfo describes a built-in function for help screens.
type FunctionInfo struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
	MinArgs     int    `json:"min_args"`
	// MaxArgs is -1 for functions taking any number of arguments.
	MaxArgs int `json:"max_args"`
}

// Functions returns the built-in functions sorted by name.
func Functions() []FunctionInfo {
	out := make([]FunctionInfo, 0, len(functions))
	for _, f := range functions {
		info := FunctionInfo{Name: f.name, Usage: f.usage, Description: f.desc, MinArgs: f.minArgs(), MaxArgs: f.arity}
		if f.variadic() {
			info.MaxArgs = -1
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Constants returns the named constants accepted in expressions.
func Constants() map[string]float64 {
	out := make(map[string]float64, len(constants))
	for _, c := range constants {
		out[c.name] = c.value
	}
	return out
}

func lookupFunction(name string) (function, bool) {
	f, ok := functions[strings.ToLower(name)]
	return f, ok
}
