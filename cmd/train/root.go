package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wangmol66/ReCoCo/agent/ppo"
	"github.com/wangmol66/ReCoCo/buffer/rollout"
	"github.com/wangmol66/ReCoCo/draw"
	"github.com/wangmol66/ReCoCo/environment/rtc"
	"github.com/wangmol66/ReCoCo/environment/trace"
	"github.com/wangmol66/ReCoCo/experiment"
	"github.com/wangmol66/ReCoCo/experiment/checkpointer"
	"github.com/wangmol66/ReCoCo/experiment/tracker"
	"github.com/wangmol66/ReCoCo/utils/logging"
)

// RootCommand returns the command which trains a PPO bitrate
// controller on a directory of network traces
func RootCommand() *cobra.Command {
	flags, err := DefaultFlags()
	if err != nil {
		panic(err)
	}

	cmd := &cobra.Command{
		Use:           "train",
		Short:         "Train a PPO bitrate controller on network traces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := flags.Load(configFile); err != nil {
					return err
				}
				flags.RunID = uuid.NewString()
			}
			if err := UpdateFlags(cmd, flags); err != nil {
				return err
			}
			if err := flags.Validate(); err != nil {
				return err
			}
			return flags.Record()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}
	AddFlags(cmd, flags)

	return cmd
}

// run trains an agent as configured by flags
func run(flags *Flags) error {
	level, err := logging.ParseLevel(flags.LogLevel)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(flags.LogFile, level)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With().Str("run", flags.RunID).Logger()
	logger.Info().Msg("started main")

	traces, err := trace.LoadDir(flags.TraceDir)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	sampler, err := trace.NewSampler(traces, flags.Seed)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	env, err := rtc.New(flags.Env, sampler, flags.Seed)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	logger.Info().Int("traces", len(traces)).Str("env", env.String()).
		Msg("environment created")

	c, err := flags.PPO()
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	agent, err := ppo.New(env, c, flags.Seed)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}
	defer agent.Close()

	dataPath := flags.Experiment.DataPath
	if flags.Retrain {
		if err := agent.Load(dataPath); err != nil {
			return fmt.Errorf("run: could not load model: %v", err)
		}
		logger.Info().Str("dir", dataPath).Msg("model loaded")
	}

	buffer, err := rollout.New(rtc.ObservationDims, rtc.ActionDims,
		flags.Experiment.UpdateInterval)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	dir := checkpointer.Fixed(dataPath)
	if flags.Snapshots {
		dir = checkpointer.FilenameEnumerator(0,
			filepath.Join(dataPath, "checkpoint"), "")
	}
	check := checkpointer.NewModel(agent, dir,
		filepath.Join(dataPath, flags.PlotFile), logger)

	rewards := tracker.NewAverageReward(filepath.Join(dataPath,
		checkpointer.HistoryFile))
	trainer, err := experiment.NewTrainer(env, agent, buffer,
		flags.Experiment, check, logger, rewards)
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	bar := newProgress(flags.Experiment.NumEpisodes)
	trainer.OnEpisode(bar.episode)

	if err := trainer.Run(); err != nil {
		logger.Error().Err(err).Msg("training stopped")
		return err
	}

	if err := rewards.Save(); err != nil {
		logger.Warn().Err(err).Msg("could not save reward history")
	}
	if len(rewards.History()) > 0 {
		plot := filepath.Join(dataPath, flags.PlotFile)
		if err := rewards.Plot(plot); err != nil {
			logger.Warn().Err(err).Msg("could not plot rewards")
		}
	}

	if flags.ResponseFile != "" {
		path := filepath.Join(dataPath, flags.ResponseFile)
		if err := draw.PolicyResponse(env, agent, path); err != nil {
			logger.Warn().Err(err).Msg("could not draw policy response")
		}
	}

	logger.Info().Msg("finished main")
	return nil
}

func main() {
	if err := RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
