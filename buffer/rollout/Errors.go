package rollout

import "errors"

// BufferError implements errors unique to a rollout Buffer.
type BufferError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *BufferError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *BufferError) Unwrap() error {
	return e.Err
}

var errEmpty = errors.New("buffer empty")

var errFull = errors.New("buffer at maximum capacity")

var errInconsistent = errors.New("number of records, rewards, and " +
	"terminals differ")

var errNotComputed = errors.New("returns not computed")

// IsEmpty returns whether or not an error reports that a rollout
// buffer holds no transitions.
func IsEmpty(err error) bool {
	return errors.Is(err, errEmpty)
}

// IsFull returns whether or not an error reports that a rollout buffer
// cannot store another transition.
func IsFull(err error) bool {
	return errors.Is(err, errFull)
}

// IsInconsistent returns whether or not an error reports that the
// agent's records and the environment's rewards and terminal flags
// stored in a buffer are not aligned.
//
// Each call to SelectAction must be matched by exactly one reward and
// one terminal flag before returns can be computed.
func IsInconsistent(err error) bool {
	return errors.Is(err, errInconsistent)
}

// IsNotComputed returns whether or not an error reports that data was
// requested from a buffer before ComputeReturns was called.
func IsNotComputed(err error) bool {
	return errors.Is(err, errNotComputed)
}
