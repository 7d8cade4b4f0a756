// Package checkpointer implements the periodic saving of a training
// run: the learned model, the reward history and the reward curve.
package checkpointer

// Saver is an object that can be saved to a directory
type Saver interface {
	Save(dir string) error
}

// Checkpointer checkpoints a training run after an episode given the
// averaged reward history so far
type Checkpointer interface {
	Checkpoint(episode int, history []float64) error
}

// Func adapts an ordinary function to a Checkpointer
type Func func(episode int, history []float64) error

// Checkpoint calls f(episode, history)
func (f Func) Checkpoint(episode int, history []float64) error {
	return f(episode, history)
}
