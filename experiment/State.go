package experiment

// State holds the accumulators of a training run between episodes
type State struct {
	// Index of the next episode to run
	Episode int

	// Environment steps taken in the current rollout window
	TimeStep int

	// Cumulative reward of the current episode
	EpisodeReward float64

	// Averaged reward of each finished episode
	History []float64

	// Number of learning updates performed
	Updates int
}

// reset resets the per-episode accumulators
func (s *State) reset() {
	s.TimeStep = 0
	s.EpisodeReward = 0
}

// EpisodeResult describes a finished episode
type EpisodeResult struct {
	Episode    int
	PolicyLoss float64
	ValueLoss  float64

	// Averaged reward of the episode
	Reward float64

	// Number of traces started during the episode
	Traces int
}
