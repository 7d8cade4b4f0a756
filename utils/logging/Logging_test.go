package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "main_train.log")

	// Existing log files are overwritten
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var extra bytes.Buffer
	logger, closer, err := New(path, zerolog.InfoLevel, &extra)
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Int("episode", 3).Msg("visible")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if strings.Contains(content, "stale") {
		t.Error("log file not truncated")
	}
	if strings.Contains(content, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(content, `"episode":3`) {
		t.Errorf("missing structured field in log: %q", content)
	}
	if extra.String() != content {
		t.Errorf("extra writer \n\twant(%q) \n\thave(%q)", content,
			extra.String())
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("warn"); err != nil || l != zerolog.WarnLevel {
		t.Errorf("parse level \n\twant(%v) \n\thave(%v, %v)",
			zerolog.WarnLevel, l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
