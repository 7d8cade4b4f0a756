// Package logging creates the structured loggers used during training
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger writing to the file at path as well as
// to any extra writers given. The file is truncated if it exists and
// its parent directories are created if needed. The returned
// io.Closer closes the log file.
func New(path string, level zerolog.Level, extra ...io.Writer) (zerolog.Logger,
	io.Closer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("new: could not create "+
				"log directory: %v", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("new: could not create log "+
			"file: %v", err)
	}

	var out io.Writer = file
	if len(extra) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{file}, extra...)...)
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, file, nil
}

// ParseLevel returns the zerolog.Level named by level
func ParseLevel(level string) (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parseLevel: %v", err)
	}
	return l, nil
}
