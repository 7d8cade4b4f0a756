package tracker

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestAverageReward(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "data", "reward_history.gob")

	tr := NewAverageReward(filename)
	want := []float64{0.5, -1.25, 3}
	for i, r := range want {
		tr.Track(i, r)
	}

	if have := tr.History(); !floats.Equal(want, have) {
		t.Errorf("history \n\twant(%v) \n\thave(%v)", want, have)
	}

	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}
	have, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(want, have) {
		t.Errorf("loaded data \n\twant(%v) \n\thave(%v)", want, have)
	}
}

func TestLoadDataMissing(t *testing.T) {
	if _, err := LoadData(filepath.Join(t.TempDir(), "none.gob")); err == nil {
		t.Error("expected error loading missing file")
	}
}

func TestPlotRewardCurve(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"reward_record.jpg", "reward_record.png"} {
		path := filepath.Join(dir, name)
		rewards := []float64{math.Sin(0), math.Sin(1), math.Sin(2)}

		if err := PlotRewardCurve(rewards, path); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("%v: empty plot", name)
		}
	}

	if err := PlotRewardCurve(nil, filepath.Join(dir, "empty.jpg")); err == nil {
		t.Error("expected error plotting no rewards")
	}
}
