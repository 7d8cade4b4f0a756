// Package environment outlines the interfaces and sturcts needed to implement
// concrete environments
package environment

import (
	"github.com/wangmol66/ReCoCo/timestep"
	"gonum.org/v1/gonum/mat"
)

// Environment implements a simulated environment in which an agent
// sends media over a single network trace at a time.
//
// Reset starts a new trace and returns its first TimeStep. The training
// argument determines how the next trace is chosen: randomly when
// training and in order otherwise. Step advances the current trace by
// one interval using the argument action and returns the resulting
// TimeStep along with whether the trace has ended.
//
// Environments keep a log of the trajectory through the current trace.
// ClearTrajectoryLog discards this log and should be called whenever
// the trace is left, whether it finished or was abandoned.
type Environment interface {
	Reset(training bool) (timestep.TimeStep, error)
	Step(action mat.Vector) (timestep.TimeStep, bool, error)
	ClearTrajectoryLog()
	ObservationSpec() Spec
	ActionSpec() Spec
}

// Ender determines when a trace should end before the environment
// itself ends it
type Ender interface {
	End(*timestep.TimeStep) bool
}
