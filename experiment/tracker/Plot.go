package tracker

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	xLabel = "Episode"
	yLabel = "Averaged episode reward"
)

// PlotRewardCurve draws the averaged reward of each episode against the
// episode index and saves the figure to path. The image format is taken
// from the file extension of path (e.g. .jpg or .png).
func PlotRewardCurve(rewards []float64, path string) error {
	if len(rewards) == 0 {
		return fmt.Errorf("plotRewardCurve: no rewards to plot")
	}

	p := plot.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	points := make(plotter.XYs, len(rewards))
	for i, r := range rewards {
		points[i] = plotter.XY{
			X: float64(i),
			Y: r,
		}
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("plotRewardCurve: %v", err)
	}
	p.Add(line)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("plotRewardCurve: could not create "+
				"directory: %v", err)
		}
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plotRewardCurve: %v", err)
	}
	return nil
}
