package grading

// Boundaries are the minimum percentages for letter grades A, B and C.
// Anything below C is an F.
type Boundaries struct {
	A int `json:"A" validate:"min=0,max=100"`
	B int `json:"B" validate:"min=0,max=100"`
	C int `json:"C" validate:"min=0,max=100"`
}

// DefaultBoundaries are used whenever no boundaries have been configured.
func DefaultBoundaries() Boundaries {
	return Boundaries{A: 80, B: 60, C: 40}
}

// Ordered reports whether the thresholds descend A >= B >= C, which keeps
// letter assignment monotonic in the percentage.
func (b Boundaries) Ordered() bool {
	return b.A >= b.B && b.B >= b.C
}

// Letter assigns a grade by descending threshold comparison.
func (b Boundaries) Letter(percentage float64) string {
	switch {
	case percentage >= float64(b.A):
		return "A"
	case percentage >= float64(b.B):
		return "B"
	case percentage >= float64(b.C):
		return "C"
	default:
		return "F"
	}
}
