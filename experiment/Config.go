// Package experiment implements the training controller which drives
// an agent through environment traces, collects fixed-size rollout
// windows and triggers one learning update per window.
package experiment

import "fmt"

// Config represents a configuration of a training run
type Config struct {
	// Number of episodes to run. Each episode collects exactly
	// UpdateInterval environment steps and performs one update.
	NumEpisodes int

	// Number of environment steps in each rollout window
	UpdateInterval int

	// A checkpoint is saved after every SaveInterval episodes, never
	// after the first
	SaveInterval int

	Gamma    float64
	DataPath string
}

// DefaultConfig returns the default training configuration
func DefaultConfig() Config {
	return Config{
		NumEpisodes:    100,
		UpdateInterval: 4000,
		SaveInterval:   5,
		Gamma:          0.99,
		DataPath:       "./data/",
	}
}

// Validate checks a Config for errors
func (c Config) Validate() error {
	if c.NumEpisodes < 0 {
		return fmt.Errorf("validate: number of episodes must be "+
			"non-negative, got %v", c.NumEpisodes)
	}
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("validate: update interval must be positive, "+
			"got %v", c.UpdateInterval)
	}
	if c.SaveInterval <= 0 {
		return fmt.Errorf("validate: save interval must be positive, "+
			"got %v", c.SaveInterval)
	}
	if !(c.Gamma > 0 && c.Gamma <= 1) {
		return fmt.Errorf("validate: gamma must be in (0, 1], got %v",
			c.Gamma)
	}
	return nil
}
