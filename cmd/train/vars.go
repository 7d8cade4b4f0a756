package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wangmol66/ReCoCo/agent"
	"github.com/wangmol66/ReCoCo/solver"
)

var (
	configFile string

	seed         uint64
	traceDir     string
	logFile      string
	logLevel     string
	plotFile     string
	responseFile string
	retrain      bool
	snapshots    bool

	numEpisodes    int
	updateInterval int
	saveInterval   int
	gamma          float64
	dataPath       string

	stepMs float64

	learningRate     float64
	beta1            float64
	beta2            float64
	explorationParam float64
	epochs           int
	clip             float64
)

// AddFlags adds the command line flags of a training run to cmd, with
// defaults taken from flags
func AddFlags(cmd *cobra.Command, flags *Flags) {
	f := cmd.PersistentFlags()
	c, _ := flags.PPO()
	adam, _ := c.PolicySolver.Config.(solver.AdamConfig)

	f.StringVar(&configFile, "config", "", "JSON configuration file, flags set explicitly take precedence")

	f.Uint64Var(&seed, "seed", flags.Seed, "Random seed")
	f.StringVar(&traceDir, "trace-dir", flags.TraceDir, "Directory of JSON network traces")
	f.StringVar(&logFile, "log-file", flags.LogFile, "Log file, overwritten on start")
	f.StringVar(&logLevel, "log-level", flags.LogLevel, "Log level")
	f.StringVar(&plotFile, "plot-file", flags.PlotFile, "Reward curve file in the data directory")
	f.StringVar(&responseFile, "response-file", flags.ResponseFile, "Policy response drawing in the data directory, empty to skip")
	f.BoolVar(&retrain, "retrain", flags.Retrain, "Load the model in the data directory before training")
	f.BoolVar(&snapshots, "snapshots", flags.Snapshots, "Save each checkpoint into a numbered directory")

	f.IntVar(&numEpisodes, "episodes", flags.Experiment.NumEpisodes, "Number of episodes")
	f.IntVar(&updateInterval, "update-interval", flags.Experiment.UpdateInterval, "Environment steps per policy update")
	f.IntVar(&saveInterval, "save-interval", flags.Experiment.SaveInterval, "Episodes between checkpoints")
	f.Float64Var(&gamma, "gamma", flags.Experiment.Gamma, "Discount factor")
	f.StringVar(&dataPath, "data-path", flags.Experiment.DataPath, "Directory for models and reward curves")

	f.Float64Var(&stepMs, "step-ms", flags.Env.StepMs, "Milliseconds per environment step")

	f.Float64Var(&learningRate, "lr", adam.StepSize, "Adam learning rate")
	f.Float64Var(&beta1, "beta1", adam.Beta1, "Adam first moment decay")
	f.Float64Var(&beta2, "beta2", adam.Beta2, "Adam second moment decay")
	f.Float64Var(&explorationParam, "exploration", c.ExplorationParam, "Standard deviation of the Gaussian policy")
	f.IntVar(&epochs, "epochs", c.Epochs, "PPO epochs per update")
	f.Float64Var(&clip, "clip", c.Clip, "PPO clip parameter")
}

// UpdateFlags copies each flag explicitly set on the command line into
// flags
func UpdateFlags(cmd *cobra.Command, flags *Flags) error {
	set := cmd.Flags().Changed

	if set("seed") {
		flags.Seed = seed
	}
	if set("trace-dir") {
		flags.TraceDir = traceDir
	}
	if set("log-file") {
		flags.LogFile = logFile
	}
	if set("log-level") {
		flags.LogLevel = logLevel
	}
	if set("plot-file") {
		flags.PlotFile = plotFile
	}
	if set("response-file") {
		flags.ResponseFile = responseFile
	}
	if set("retrain") {
		flags.Retrain = retrain
	}
	if set("snapshots") {
		flags.Snapshots = snapshots
	}

	if set("episodes") {
		flags.Experiment.NumEpisodes = numEpisodes
	}
	if set("update-interval") {
		flags.Experiment.UpdateInterval = updateInterval
	}
	if set("save-interval") {
		flags.Experiment.SaveInterval = saveInterval
	}
	if set("gamma") {
		flags.Experiment.Gamma = gamma
	}
	if set("data-path") {
		flags.Experiment.DataPath = dataPath
	}
	if set("step-ms") {
		flags.Env.StepMs = stepMs
	}

	c, err := flags.PPO()
	if err != nil {
		return fmt.Errorf("updateFlags: %v", err)
	}
	if set("exploration") {
		c.ExplorationParam = explorationParam
	}
	if set("epochs") {
		c.Epochs = epochs
	}
	if set("clip") {
		c.Clip = clip
	}
	if set("lr") || set("beta1") || set("beta2") {
		adam, ok := c.PolicySolver.Config.(solver.AdamConfig)
		if !ok {
			return fmt.Errorf("updateFlags: learning rate flags require " +
				"an Adam solver")
		}
		if set("lr") {
			adam.StepSize = learningRate
		}
		if set("beta1") {
			adam.Beta1 = beta1
		}
		if set("beta2") {
			adam.Beta2 = beta2
		}

		policySolver, err := solver.NewAdam(adam.StepSize, adam.Epsilon,
			adam.Beta1, adam.Beta2, adam.Batch, adam.Clip)
		if err != nil {
			return fmt.Errorf("updateFlags: %v", err)
		}
		valueSolver := policySolver.Clone()
		c.PolicySolver, c.ValueSolver = policySolver, valueSolver
	}
	flags.Agent = agent.NewTypedConfig(c)

	return nil
}
