package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/wangmol66/ReCoCo/agent"
	"github.com/wangmol66/ReCoCo/agent/ppo"
	"github.com/wangmol66/ReCoCo/environment/rtc"
	"github.com/wangmol66/ReCoCo/experiment"
)

// Flags holds the full configuration of a training run
type Flags struct {
	RunID string
	Seed  uint64

	TraceDir string
	LogFile  string
	LogLevel string

	// Files written into the data directory
	PlotFile     string
	ResponseFile string

	// Load the model in the data directory before training
	Retrain bool

	// Save each checkpoint into its own numbered directory
	Snapshots bool

	Experiment experiment.Config
	Env        rtc.Config
	Agent      agent.TypedConfig
}

// DefaultFlags returns the default configuration of a training run
func DefaultFlags() (*Flags, error) {
	e := experiment.DefaultConfig()
	a, err := ppo.DefaultConfig(e.UpdateInterval)
	if err != nil {
		return nil, fmt.Errorf("defaultFlags: %v", err)
	}

	return &Flags{
		RunID:        uuid.NewString(),
		Seed:         1,
		TraceDir:     "./traces/",
		LogFile:      "logs/main_train.log",
		LogLevel:     "info",
		PlotFile:     "reward_record.jpg",
		ResponseFile: "policy_response.jpg",
		Retrain:      false,
		Snapshots:    false,
		Experiment:   e,
		Env:          rtc.DefaultConfig(),
		Agent:        agent.NewTypedConfig(a),
	}, nil
}

// PPO returns the PPO configuration of the run with its batch size
// matching the update interval
func (f *Flags) PPO() (ppo.Config, error) {
	c, ok := f.Agent.Config.(ppo.Config)
	if !ok {
		return ppo.Config{}, fmt.Errorf("ppo: agent type %v is not %v",
			f.Agent.Type, agent.GaussianPPOMLP)
	}
	c.BatchSize = f.Experiment.UpdateInterval
	return c, nil
}

// Validate checks the Flags for errors
func (f *Flags) Validate() error {
	if err := f.Experiment.Validate(); err != nil {
		return fmt.Errorf("validate: experiment: %v", err)
	}
	if err := f.Env.Validate(); err != nil {
		return fmt.Errorf("validate: environment: %v", err)
	}
	c, err := f.PPO()
	if err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate: agent: %v", err)
	}
	return nil
}

// Load overwrites the Flags with the JSON configuration in file.
// Fields not present in file are left unchanged.
func (f *Flags) Load(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := json.Unmarshal(data, f); err != nil {
		return fmt.Errorf("load: could not decode %v: %v", file, err)
	}
	return nil
}

// Record saves the Flags as config.json in the data directory
func (f *Flags) Record() error {
	dir := f.Experiment.DataPath
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("record: could not create data directory: %v", err)
	}

	data, err := json.MarshalIndent(f, "", "\t")
	if err != nil {
		return fmt.Errorf("record: %v", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}
