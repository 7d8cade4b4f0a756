package experiment

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wangmol66/ReCoCo/agent"
	"github.com/wangmol66/ReCoCo/buffer/rollout"
	env "github.com/wangmol66/ReCoCo/environment"
	"github.com/wangmol66/ReCoCo/experiment/checkpointer"
	"github.com/wangmol66/ReCoCo/experiment/tracker"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateEpisode is returned when an episode finishes without
// taking a single environment step
var ErrDegenerateEpisode = errors.New("degenerate episode: no steps taken")

// Trainer runs an agent online on an environment. Each episode fills a
// rollout window of exactly UpdateInterval environment steps, possibly
// spanning many traces, and then performs a single learning update.
// A trace still running when the window is full is abandoned and its
// transitions kept.
//
// Trainer is not safe for concurrent use.
type Trainer struct {
	env.Environment
	agent.Agent
	buffer *rollout.Buffer
	config Config

	checkpointer checkpointer.Checkpointer
	trackers     []tracker.Tracker
	hooks        []func(EpisodeResult)
	logger       zerolog.Logger

	state State
}

// NewTrainer creates and returns a new Trainer. The checkpointer is
// called every SaveInterval episodes and may be nil; a nil pointer
// stored in the interface is not treated as nil. The buffer must
// be able to hold a full rollout window.
func NewTrainer(e env.Environment, a agent.Agent, b *rollout.Buffer,
	c Config, check checkpointer.Checkpointer, logger zerolog.Logger,
	t ...tracker.Tracker) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newTrainer: %v", err)
	}
	if b.Cap() < c.UpdateInterval {
		return nil, fmt.Errorf("newTrainer: buffer capacity %v smaller "+
			"than update interval %v", b.Cap(), c.UpdateInterval)
	}

	return &Trainer{
		Environment:  e,
		Agent:        a,
		buffer:       b,
		config:       c,
		checkpointer: check,
		trackers:     t,
		logger:       logger.With().Str("component", "trainer").Logger(),
	}, nil
}

// Register registers a tracker.Tracker with the Trainer so that the
// averaged reward of each episode is tracked
func (t *Trainer) Register(tr tracker.Tracker) {
	t.trackers = append(t.trackers, tr)
}

// OnEpisode registers a function which Run calls with the result of
// each finished episode
func (t *Trainer) OnEpisode(f func(EpisodeResult)) {
	t.hooks = append(t.hooks, f)
}

// State returns a copy of the current accumulators of the Trainer
func (t *Trainer) State() State {
	s := t.state
	s.History = append([]float64(nil), t.state.History...)
	return s
}

// Run runs episodes until NumEpisodes episodes have finished, or until
// the environment or agent returns an error.
func (t *Trainer) Run() error {
	for t.state.Episode < t.config.NumEpisodes {
		state, result, err := t.RunEpisode(t.state)
		if err != nil {
			return fmt.Errorf("run: episode %v: %w", t.state.Episode, err)
		}
		t.state = state

		for _, tr := range t.trackers {
			tr.Track(result.Episode, result.Reward)
		}
		for _, f := range t.hooks {
			f(result)
		}
	}
	return nil
}

// RunEpisode runs a single episode starting from the accumulators in s
// and returns the accumulators after the episode together with a
// summary of it. If an error is returned, the rollout buffer is
// cleared so that the next episode starts from an empty window.
func (t *Trainer) RunEpisode(s State) (_ State, _ EpisodeResult, err error) {
	defer func() {
		if err != nil {
			t.buffer.Clear()
		}
	}()

	s.reset()
	result := EpisodeResult{Episode: s.Episode}

	var obs mat.Vector
	for s.TimeStep < t.config.UpdateInterval {
		step, err := t.Reset(true)
		if err != nil {
			return s, result, fmt.Errorf("runEpisode: could not reset "+
				"environment: %v", err)
		}
		obs = step.Observation
		result.Traces++

		done := false
		for !done && s.TimeStep < t.config.UpdateInterval {
			action, err := t.SelectAction(obs, t.buffer)
			if err != nil {
				return s, result, fmt.Errorf("runEpisode: could not select "+
					"action: %v", err)
			}

			step, done, err = t.Step(action)
			if err != nil {
				return s, result, fmt.Errorf("runEpisode: could not step "+
					"environment: %v", err)
			}
			t.buffer.AppendReward(step.Reward)
			t.buffer.AppendTerminal(done)

			obs = step.Observation
			s.TimeStep++
			s.EpisodeReward += step.Reward
		}

		t.ClearTrajectoryLog()
		t.logger.Debug().Int("episode", s.Episode).Int("trace", result.Traces).
			Bool("done", done).Int("time_step", s.TimeStep).Msg("trace ended")
	}

	if s.TimeStep == 0 {
		return s, result, ErrDegenerateEpisode
	}

	// Bootstrap from the last observation of the window, terminal or not
	nextValue, err := t.Value(obs)
	if err != nil {
		return s, result, fmt.Errorf("runEpisode: could not estimate "+
			"value: %v", err)
	}
	if err := t.buffer.ComputeReturns(nextValue, t.config.Gamma); err != nil {
		return s, result, fmt.Errorf("runEpisode: %w", err)
	}

	result.PolicyLoss, result.ValueLoss, err = t.Update(t.buffer, obs)
	t.buffer.Clear()
	if err != nil {
		return s, result, fmt.Errorf("runEpisode: could not update: %v", err)
	}
	s.Updates++

	result.Reward = s.EpisodeReward / float64(s.TimeStep)
	s.History = append(s.History, result.Reward)

	t.logger.Info().Int("episode", s.Episode).
		Float64("policy_loss", result.PolicyLoss).
		Float64("value_loss", result.ValueLoss).
		Float64("reward", result.Reward).
		Int("traces", result.Traces).Msg("episode finished")

	if t.checkpointer != nil && s.Episode > 0 &&
		s.Episode%t.config.SaveInterval == 0 {
		if err := t.checkpointer.Checkpoint(s.Episode, s.History); err != nil {
			t.logger.Warn().Err(err).Int("episode", s.Episode).
				Msg("could not checkpoint")
		}
	}

	s.reset()
	s.Episode++
	return s, result, nil
}
