package main

import (
	"fmt"

	"github.com/gosuri/uilive"
	"github.com/wangmol66/ReCoCo/experiment"
	"github.com/wangmol66/ReCoCo/utils/progressbar"
)

// progress prints a line for each episode and redraws a progress bar
// below the printed lines
type progress struct {
	writer *uilive.Writer
	bar    *progressbar.ManualProgressBar
}

func newProgress(episodes int) *progress {
	w := uilive.New()
	return &progress{
		writer: w,
		bar:    progressbar.NewManualProgressBar(w, 50, episodes),
	}
}

// episode prints the summary of an episode and advances the bar
func (p *progress) episode(r experiment.EpisodeResult) {
	fmt.Fprintf(p.writer.Bypass(), "Episode %d \t Average policy loss %v, "+
		"value loss %v, reward %v\n", r.Episode, r.PolicyLoss, r.ValueLoss,
		r.Reward)

	p.bar.Increment()
	p.bar.SetStatus("reward: %.4f", r.Reward)
	p.bar.Display()
	p.writer.Flush()
}
