// Package agent defines an agent interface
package agent

import (
	"github.com/wangmol66/ReCoCo/buffer/rollout"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
	Saver
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Value returns the state value estimate of an observation
	Value(obs mat.Vector) (float64, error)

	// Update performs a single learning update using the full rollout
	// window stored in the buffer. The buffer's returns must have been
	// computed before calling Update. The last argument is the last
	// observation seen in the window. Update returns the policy and
	// value losses of the update.
	Update(b *rollout.Buffer, last mat.Vector) (policyLoss,
		valueLoss float64, err error)
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should have pointers to the same weights so that
// any changes the learner makes to the weights are reflected in the
// actions the Policy chooses
type Policy interface {
	// SelectAction selects an action in the state described by obs. If
	// r is non-nil, exactly one rollout.Record describing the
	// selection is stored in r.
	SelectAction(obs mat.Vector, r rollout.Recorder) (*mat.VecDense, error)
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Saver is an agent whose model can be saved to disk
type Saver interface {
	// Save saves the agent's model into the directory dir
	Save(dir string) error
}

// Loader is an agent whose model can be loaded from disk
type Loader interface {
	// Load loads the agent's model from the directory dir
	Load(dir string) error
}
