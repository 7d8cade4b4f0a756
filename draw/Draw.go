// Package draw renders how a trained policy responds to a network
// trace
package draw

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/wangmol66/ReCoCo/agent"
	"github.com/wangmol66/ReCoCo/environment"
	"github.com/wangmol66/ReCoCo/environment/rtc"
	"github.com/wangmol66/ReCoCo/utils/floatutils"
)

// Image layout in pixels
const (
	Width  = 1000
	Height = 500
	margin = 50.0
)

var (
	background   = color.White
	axisColour   = color.Black
	capacityLine = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	sendLine     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	receiveLine  = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// Simulator is an environment which logs the packets sent during each
// trace
type Simulator interface {
	environment.Environment
	TrajectoryLog() []rtc.PacketRecord
}

// PolicyResponse runs a single evaluation trace of env using the mean
// actions of policy and saves a drawing of the link capacity, the
// sending rate chosen by the policy and the receiving rate to path.
// The policy is returned to its previous mode afterwards.
func PolicyResponse(env Simulator, policy agent.Policy, path string) error {
	if !policy.IsEval() {
		policy.Eval()
		defer policy.Train()
	}

	step, err := env.Reset(false)
	if err != nil {
		return fmt.Errorf("policyResponse: could not reset: %v", err)
	}

	done := false
	for !done {
		action, err := policy.SelectAction(step.Observation, nil)
		if err != nil {
			return fmt.Errorf("policyResponse: %v", err)
		}
		step, done, err = env.Step(action)
		if err != nil {
			return fmt.Errorf("policyResponse: could not step: %v", err)
		}
	}

	log := append([]rtc.PacketRecord(nil), env.TrajectoryLog()...)
	env.ClearTrajectoryLog()

	return Render(log, path)
}

// Render draws the capacity, sending rate and receiving rate of log
// over time and saves the image to path. The image is saved as a JPEG
// if path ends in .jpg or .jpeg and as a PNG otherwise.
func Render(log []rtc.PacketRecord, path string) error {
	if len(log) == 0 {
		return fmt.Errorf("render: empty trajectory log")
	}

	rates := make([]float64, 0, 3*len(log))
	for _, p := range log {
		rates = append(rates, p.Capacity, p.SendRate, p.ReceiveRate)
	}
	yRange := floatutils.Range(rates...)
	yMax := yRange.Max * 1.1
	if yMax <= 0 {
		yMax = 1
	}
	tMax := log[len(log)-1].TimeMs
	if tMax <= 0 {
		tMax = 1
	}

	toPixel := func(t, kbps float64) (float64, float64) {
		x := margin + t/tMax*(Width-2*margin)
		y := Height - margin - kbps/yMax*(Height-2*margin)
		return x, y
	}

	dc := gg.NewContext(Width, Height)
	dc.SetColor(background)
	dc.Clear()

	// Axes
	dc.SetColor(axisColour)
	dc.SetLineWidth(2)
	dc.DrawLine(margin, margin, margin, Height-margin)
	dc.DrawLine(margin, Height-margin, Width-margin, Height-margin)
	dc.Stroke()
	dc.DrawStringAnchored("time (ms)", Width/2, Height-margin/3, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.0f kbps", yMax), margin, margin/2,
		0, 0.5)

	series := []struct {
		colour color.Color
		value  func(rtc.PacketRecord) float64
	}{
		{capacityLine, func(p rtc.PacketRecord) float64 { return p.Capacity }},
		{sendLine, func(p rtc.PacketRecord) float64 { return p.SendRate }},
		{receiveLine, func(p rtc.PacketRecord) float64 { return p.ReceiveRate }},
	}
	for _, s := range series {
		dc.ClearPath()
		for i, p := range log {
			x, y := toPixel(p.TimeMs, s.value(p))
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.SetColor(s.colour)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err := gg.SaveJPG(path, dc.Image(), 90)
		if err != nil {
			return fmt.Errorf("render: %v", err)
		}
	default:
		if err := dc.SavePNG(path); err != nil {
			return fmt.Errorf("render: %v", err)
		}
	}
	return nil
}
