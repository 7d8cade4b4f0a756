package ppo

import (
	"fmt"

	"github.com/wangmol66/ReCoCo/agent"
	"github.com/wangmol66/ReCoCo/environment"
	"github.com/wangmol66/ReCoCo/initwfn"
	"github.com/wangmol66/ReCoCo/network"
	"github.com/wangmol66/ReCoCo/solver"
)

func init() {
	// Register Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(agent.GaussianPPOMLP, Config{})
}

// Config implements a configuration of a PPO agent with a Gaussian
// policy of fixed standard deviation. The mean of the policy and the
// state value function are each parameterized by an MLP.
type Config struct {
	// Policy mean neural net. An additional output layer followed by
	// a tanh is always added to bound the mean to [-1, 1].
	PolicyLayers      []int
	PolicyBiases      []bool
	PolicyActivations []*network.Activation

	// State value function neural net
	ValueLayers      []int
	ValueBiases      []bool
	ValueActivations []*network.Activation

	// Weight init function for all neural nets
	InitWFn *initwfn.InitWFn

	PolicySolver *solver.Solver
	ValueSolver  *solver.Solver

	// ExplorationParam is the standard deviation of the Gaussian policy
	ExplorationParam float64

	// Epochs is the number of gradient steps taken on each rollout
	// window
	Epochs int

	// Clip is the ε of the clipped surrogate objective, the ratio of
	// action probabilities is clipped to [1 - ε, 1 + ε]
	Clip float64

	// BatchSize is the number of transitions in each rollout window
	BatchSize int
}

// DefaultConfig returns the default PPO configuration for rollout
// windows of batchSize transitions
func DefaultConfig(batchSize int) (Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("defaultConfig: %v", err)
	}
	policySolver, err := solver.NewAdam(3e-5, 1e-8, 0.9, 0.999, 1, 0)
	if err != nil {
		return Config{}, fmt.Errorf("defaultConfig: %v", err)
	}
	valueSolver, err := solver.NewAdam(3e-5, 1e-8, 0.9, 0.999, 1, 0)
	if err != nil {
		return Config{}, fmt.Errorf("defaultConfig: %v", err)
	}

	return Config{
		PolicyLayers:      []int{64, 32},
		PolicyBiases:      []bool{true, true},
		PolicyActivations: []*network.Activation{network.TanH(), network.TanH()},

		ValueLayers:      []int{64, 32},
		ValueBiases:      []bool{true, true},
		ValueActivations: []*network.Activation{network.TanH(), network.TanH()},

		InitWFn:      init,
		PolicySolver: policySolver,
		ValueSolver:  valueSolver,

		ExplorationParam: 0.05,
		Epochs:           37,
		Clip:             0.2,
		BatchSize:        batchSize,
	}, nil
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return New(env, c, seed)
}

// Type returns the type of agent the Config creates
func (c Config) Type() agent.Type {
	return agent.GaussianPPOMLP
}

// Validate checks a Config to ensure it is a valid configuration
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.PolicyBiases) ||
		len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("validate: policy layers, biases, and activations "+
			"must have the same length \n\thave(%v, %v, %v)",
			len(c.PolicyLayers), len(c.PolicyBiases),
			len(c.PolicyActivations))
	}
	if len(c.ValueLayers) != len(c.ValueBiases) ||
		len(c.ValueLayers) != len(c.ValueActivations) {
		return fmt.Errorf("validate: value layers, biases, and activations "+
			"must have the same length \n\thave(%v, %v, %v)",
			len(c.ValueLayers), len(c.ValueBiases), len(c.ValueActivations))
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: a weight initializer is required")
	}
	if c.PolicySolver == nil || c.ValueSolver == nil {
		return fmt.Errorf("validate: policy and value solvers are required")
	}
	if c.ExplorationParam <= 0 {
		return fmt.Errorf("validate: exploration parameter must be "+
			"positive \n\thave(%v)", c.ExplorationParam)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("validate: epochs must be positive \n\thave(%v)",
			c.Epochs)
	}
	if c.Clip <= 0 || c.Clip >= 1 {
		return fmt.Errorf("validate: clip must be in (0, 1) \n\thave(%v)",
			c.Clip)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("validate: batch size must be positive "+
			"\n\thave(%v)", c.BatchSize)
	}
	return nil
}
