// Package rollout implements a buffer which stores a single rollout
// window of on-policy experience for a policy gradient learner
package rollout

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Record is the data an agent stores when it selects an action: the
// observation it acted in, the action selected, the log probability
// of that action under the behaviour policy, and the state value
// estimate of the observation.
type Record struct {
	Observation []float64
	Action      []float64
	LogProb     float64
	Value       float64
}

// Recorder stores the Records produced by an agent's action selection.
// Exactly one Record should be stored for each selected action.
type Recorder interface {
	Record(Record) error
}

// Buffer implements a rollout buffer for a fixed-size window of
// interaction. The agent stores its own Records through the Recorder
// interface while the training loop stores rewards and terminal flags.
// Once the window is full, ComputeReturns bootstraps discounted
// returns from the value of the last observed state, after which the
// learner reads the window with Get. Clear readies the Buffer for the
// next window.
//
// The window does not need to line up with trace boundaries: terminal
// flags cut the discounted return wherever a trace ended inside the
// window, and the bootstrap value covers the trace that was still
// running when the window filled.
type Buffer struct {
	obsSize    int // Size of state observations
	actionSize int // Number of action dimensions
	maxSize    int // Max buffer size

	// Buffers for storing data
	obsBuffer     []float64
	actBuffer     []float64
	logProbBuffer []float64
	valBuffer     []float64
	rewBuffer     []float64
	termBuffer    []bool

	// Filled by ComputeReturns
	retBuffer []float64
	advBuffer []float64
	computed  bool
}

// New creates and returns a new rollout Buffer which holds at most
// size transitions.
func New(obsDim, actDim, size int) (*Buffer, error) {
	if obsDim <= 0 || actDim <= 0 {
		return nil, fmt.Errorf("new: observation and action dimensions "+
			"must be positive \n\thave(%v, %v)", obsDim, actDim)
	}
	if size <= 0 {
		return nil, fmt.Errorf("new: buffer size must be positive "+
			"\n\thave(%v)", size)
	}

	return &Buffer{
		obsSize:       obsDim,
		actionSize:    actDim,
		maxSize:       size,
		obsBuffer:     make([]float64, 0, size*obsDim),
		actBuffer:     make([]float64, 0, size*actDim),
		logProbBuffer: make([]float64, 0, size),
		valBuffer:     make([]float64, 0, size),
		rewBuffer:     make([]float64, 0, size),
		termBuffer:    make([]bool, 0, size),
		retBuffer:     make([]float64, size),
		advBuffer:     make([]float64, size),
	}, nil
}

// Record stores the agent's data for a single action selection.
func (b *Buffer) Record(r Record) error {
	if len(b.logProbBuffer) >= b.maxSize {
		return &BufferError{Op: "record", Err: errFull}
	}
	if len(r.Observation) != b.obsSize {
		return fmt.Errorf("record: illegal obs length \n\twant(%v)"+
			"\n\thave(%v)", b.obsSize, len(r.Observation))
	}
	if len(r.Action) != b.actionSize {
		return fmt.Errorf("record: illegal act length \n\twant(%v)"+
			"\n\thave(%v)", b.actionSize, len(r.Action))
	}

	b.obsBuffer = append(b.obsBuffer, r.Observation...)
	b.actBuffer = append(b.actBuffer, r.Action...)
	b.logProbBuffer = append(b.logProbBuffer, r.LogProb)
	b.valBuffer = append(b.valBuffer, r.Value)
	b.computed = false

	return nil
}

// AppendReward stores the reward received after the most recent
// action.
func (b *Buffer) AppendReward(r float64) {
	b.rewBuffer = append(b.rewBuffer, r)
	b.computed = false
}

// AppendTerminal stores whether the most recent action ended the
// trace.
func (b *Buffer) AppendTerminal(done bool) {
	b.termBuffer = append(b.termBuffer, done)
	b.computed = false
}

// Len returns the number of rewards stored in the buffer, which is the
// number of environment steps taken in the current window.
func (b *Buffer) Len() int {
	return len(b.rewBuffer)
}

// Records returns the number of agent Records stored in the buffer
func (b *Buffer) Records() int {
	return len(b.logProbBuffer)
}

// Cap returns the maximum number of transitions the buffer can hold
func (b *Buffer) Cap() int {
	return b.maxSize
}

// ComputeReturns computes the discounted return of each stored
// transition. Returns are accumulated backwards from bootstrap, the
// value estimate of the state observed after the last stored
// transition:
//
//	G_{n-1} = r_{n-1} + ℽ (1 - done_{n-1}) bootstrap
//	G_t     = r_t     + ℽ (1 - done_t) G_{t+1}
//
// so the bootstrap only contributes when the last trace in the window
// was truncated. Advantages are computed as G_t - v(s_t).
func (b *Buffer) ComputeReturns(bootstrap, gamma float64) error {
	if !(gamma > 0 && gamma <= 1) {
		return fmt.Errorf("computeReturns: discount must be in (0, 1] "+
			"\n\thave(%v)", gamma)
	}

	n := len(b.rewBuffer)
	if n == 0 {
		return &BufferError{Op: "computeReturns", Err: errEmpty}
	}
	if len(b.termBuffer) != n || len(b.logProbBuffer) != n {
		return &BufferError{
			Op: "computeReturns",
			Err: fmt.Errorf("%w: records(%v) rewards(%v) terminals(%v)",
				errInconsistent, len(b.logProbBuffer), n, len(b.termBuffer)),
		}
	}

	ret := b.retBuffer[:n]
	next := bootstrap
	for t := n - 1; t >= 0; t-- {
		if b.termBuffer[t] {
			next = 0
		}
		next = b.rewBuffer[t] + gamma*next
		ret[t] = next
	}

	floats.SubTo(b.advBuffer[:n], ret, b.valBuffer)
	b.computed = true

	return nil
}

// Returns returns the discounted returns computed by the last call to
// ComputeReturns.
func (b *Buffer) Returns() ([]float64, error) {
	if !b.computed {
		return nil, &BufferError{Op: "returns", Err: errNotComputed}
	}
	return b.retBuffer[:len(b.rewBuffer)], nil
}

// Get returns the observations, actions, log probabilities of the
// actions under the behaviour policy, advantages, and returns stored in
// the buffer. Observations and actions are flattened in row major
// order. Advantages are first standardized to mean 0 and standard
// deviation 1.
//
// The returned slices are only valid until the next call to Clear.
func (b *Buffer) Get() (obs, act, logProb, adv, ret []float64, err error) {
	if !b.computed {
		err = &BufferError{Op: "get", Err: errNotComputed}
		return
	}

	n := len(b.rewBuffer)
	adv = make([]float64, n)
	copy(adv, b.advBuffer[:n])

	// Advantage normalization
	mean, std := stat.MeanStdDev(adv, nil)
	if n == 1 {
		std = 0
	}
	floats.AddConst(-mean, adv)
	floats.Scale(1/(std+1e-8), adv)

	return b.obsBuffer, b.actBuffer, b.logProbBuffer, adv, b.retBuffer[:n], nil
}

// Clear removes all data from the buffer
func (b *Buffer) Clear() {
	b.obsBuffer = b.obsBuffer[:0]
	b.actBuffer = b.actBuffer[:0]
	b.logProbBuffer = b.logProbBuffer[:0]
	b.valBuffer = b.valBuffer[:0]
	b.rewBuffer = b.rewBuffer[:0]
	b.termBuffer = b.termBuffer[:0]
	b.computed = false
}
