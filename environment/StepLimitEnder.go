package environment

import "github.com/wangmol66/ReCoCo/timestep"

// StepLimit implements the Ender interface to end traces after a fixed
// number of steps, regardless of how much of the trace remains
type StepLimit struct {
	traceSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(traceSteps int) StepLimit {
	return StepLimit{traceSteps}
}

// Steps returns the step limit
func (s StepLimit) Steps() int {
	return s.traceSteps
}

// End determines whether or not the current trace should be ended,
// returning a boolean to indicate trace temrination. A limit of 0 or
// less never ends a trace. If the trace should be ended End() will
// modify the timestep so that its StepType field is timestep.Last
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if s.traceSteps > 0 && t.Number >= s.traceSteps {
		t.StepType = timestep.Last
		return true
	}
	return false
}
