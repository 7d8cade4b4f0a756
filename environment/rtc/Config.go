package rtc

import "fmt"

// Config describes the simulated network link of an RTC environment
type Config struct {
	// StepMs is the amount of simulated time, in milliseconds, that
	// passes between two consecutive actions
	StepMs float64

	// QueueMs is the size of the bottleneck queue, expressed as the
	// number of milliseconds of link capacity it can hold. Data which
	// overflows the queue is lost.
	QueueMs float64

	// PacketBytes is the size of a single media packet, used to sample
	// random loss on a per-packet basis
	PacketBytes float64

	// MaxSteps ends a trace after a fixed number of steps. If 0, traces
	// only end once their full duration has been simulated.
	MaxSteps int

	// Discount is the discount factor reported in each TimeStep
	Discount float64
}

// DefaultConfig returns the default RTC environment configuration
func DefaultConfig() Config {
	return Config{
		StepMs:      100,
		QueueMs:     500,
		PacketBytes: 1200,
		MaxSteps:    0,
		Discount:    0.99,
	}
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c Config) Validate() error {
	if c.StepMs <= 0 {
		return fmt.Errorf("validate: step size must be positive "+
			"\n\thave(%v)", c.StepMs)
	}
	if c.QueueMs <= 0 {
		return fmt.Errorf("validate: queue size must be positive "+
			"\n\thave(%v)", c.QueueMs)
	}
	if c.PacketBytes <= 0 {
		return fmt.Errorf("validate: packet size must be positive "+
			"\n\thave(%v)", c.PacketBytes)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("validate: step limit must be non-negative "+
			"\n\thave(%v)", c.MaxSteps)
	}
	if c.Discount <= 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in (0, 1] "+
			"\n\thave(%v)", c.Discount)
	}
	return nil
}
