package expr

// Record is one traced step of an evaluation: either a *DiceThrow or a
// *FunctionCall.
type Record interface {
	isRecord()
	Value() float64
}

// DiceThrow records one use of the d operator.
type DiceThrow struct {
	Count int   `json:"count"`
	Sides int   `json:"sides"`
	Faces []int `json:"faces"`
}

// FunctionCall records one function call, arguments in call order.
type FunctionCall struct {
	Name   string    `json:"name"`
	Args   []float64 `json:"args"`
	Result float64   `json:"result"`
}

func (*DiceThrow) isRecord()    {}
func (*FunctionCall) isRecord() {}

func (d *DiceThrow) Sum() int {
	total := 0
	for _, f := range d.Faces {
		total += f
	}
	return total
}

func (d *DiceThrow) Value() float64    { return float64(d.Sum()) }
func (f *FunctionCall) Value() float64 { return f.Result }

func AsDiceThrow(r Record) (*DiceThrow, bool) {
	d, ok := r.(*DiceThrow)
	return d, ok
}

func AsFunctionCall(r Record) (*FunctionCall, bool) {
	f, ok := r.(*FunctionCall)
	return f, ok
}

// TraceGroup holds the records of one evaluation pass, in order.
type TraceGroup struct {
	Records []Record
}

// Dice returns the dice throws of the group, in order.
func (g TraceGroup) Dice() []*DiceThrow {
	var out []*DiceThrow
	for _, r := range g.Records {
		if d, ok := AsDiceThrow(r); ok {
			out = append(out, d)
		}
	}
	return out
}

// Outcome is what a successful (or partially successful) roll produced.
// Repeat is nil when no repeat count was given.
type Outcome struct {
	Results []float64
	Repeat  *TraceGroup
	Groups  []TraceGroup
}
