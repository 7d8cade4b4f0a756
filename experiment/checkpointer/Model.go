package checkpointer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wangmol66/ReCoCo/experiment/tracker"
)

const (
	// HistoryFile is the file the reward history is saved to within a
	// checkpoint directory
	HistoryFile = "reward_history.gob"
)

// model checkpoints a model, the reward history and the reward curve
type model struct {
	object Saver

	// dir returns the directory to save the model and the reward
	// history in. Use Fixed to overwrite the same checkpoint each
	// time, or FilenameEnumerator to keep numbered snapshots:
	//
	// m := NewModel(agent, FilenameEnumerator(0, "data/ckpt", ""), plot, log)
	dir      func() string
	plotPath string
	logger   zerolog.Logger
}

// NewModel returns a Checkpointer that saves object to the directory
// returned by dir, gob-encodes the reward history into the same
// directory and plots the reward curve to plotPath. If plotPath is
// empty, no plot is drawn.
func NewModel(object Saver, dir func() string, plotPath string,
	logger zerolog.Logger) Checkpointer {
	return &model{
		object:   object,
		dir:      dir,
		plotPath: plotPath,
		logger:   logger.With().Str("component", "checkpointer").Logger(),
	}
}

// Checkpoint saves the model, the reward history and the reward curve.
// All three are attempted even if one fails; the returned error joins
// each failure.
func (m *model) Checkpoint(episode int, history []float64) error {
	dir := m.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: could not create directory: %v", err)
	}

	var errs []error
	if err := m.object.Save(dir); err != nil {
		errs = append(errs, fmt.Errorf("checkpoint: could not save "+
			"model: %w", err))
	}

	if err := tracker.SaveData(filepath.Join(dir, HistoryFile),
		history); err != nil {
		errs = append(errs, fmt.Errorf("checkpoint: %v", err))
	}

	if m.plotPath != "" && len(history) > 0 {
		if err := tracker.PlotRewardCurve(history, m.plotPath); err != nil {
			errs = append(errs, fmt.Errorf("checkpoint: %v", err))
		}
	}

	if len(errs) == 0 {
		m.logger.Info().Int("episode", episode).Str("dir", dir).
			Msg("checkpoint saved")
	}
	return errors.Join(errs...)
}
