package trace

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler chooses which Trace an environment should run next. In
// training mode Traces are sampled uniformly at random. Otherwise,
// Traces are returned in order, cycling back to the first Trace after
// the last.
type Sampler struct {
	traces []*Trace
	rand   distuv.Categorical
	next   int
}

// NewSampler returns a new Sampler over traces
func NewSampler(traces []*Trace, seed uint64) (*Sampler, error) {
	if len(traces) == 0 {
		return nil, fmt.Errorf("newSampler: at least one trace is required")
	}

	// Create the weights for the uniform categorical distribution
	weights := make([]float64, len(traces))
	for i := range weights {
		weights[i] = 1.0 / float64(len(weights))
	}
	source := rand.NewSource(seed)

	return &Sampler{
		traces: traces,
		rand:   distuv.NewCategorical(weights, source),
	}, nil
}

// Sample returns the next Trace
func (s *Sampler) Sample(training bool) *Trace {
	if training {
		return s.traces[int(s.rand.Rand())]
	}

	t := s.traces[s.next]
	s.next = (s.next + 1) % len(s.traces)
	return t
}

// Len returns the number of Traces the Sampler samples from
func (s *Sampler) Len() int {
	return len(s.traces)
}
