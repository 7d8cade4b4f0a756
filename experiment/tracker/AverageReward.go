package tracker

// AverageReward tracks and saves the averaged reward of each episode
// of a training run, that is the cumulative reward of the episode
// divided by the number of environment steps taken in it.
type AverageReward struct {
	rewards  []float64
	filename string
}

// NewAverageReward creates and returns a new *AverageReward Tracker
// which saves its data to filename
func NewAverageReward(filename string) *AverageReward {
	return &AverageReward{filename: filename}
}

// Track caches the averaged reward of an episode
func (a *AverageReward) Track(_ int, reward float64) {
	a.rewards = append(a.rewards, reward)
}

// History returns a copy of the tracked rewards in the order they were
// tracked
func (a *AverageReward) History() []float64 {
	return append([]float64(nil), a.rewards...)
}

// Save saves the tracked rewards to disk with gob encoding
func (a *AverageReward) Save() error {
	return SaveData(a.filename, a.rewards)
}

// Plot plots the tracked rewards to path with PlotRewardCurve
func (a *AverageReward) Plot(path string) error {
	return PlotRewardCurve(a.rewards, path)
}
