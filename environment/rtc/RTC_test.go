package rtc

import (
	"math"
	"testing"

	"github.com/wangmol66/ReCoCo/environment/trace"
	"gonum.org/v1/gonum/mat"
)

func newEnv(t *testing.T, c Config, patterns ...trace.Pattern) *RTC {
	t.Helper()
	tr, err := trace.New("test", patterns)
	if err != nil {
		t.Fatal(err)
	}
	sampler, err := trace.NewSampler([]*trace.Trace{tr}, 1)
	if err != nil {
		t.Fatal(err)
	}
	env, err := New(c, sampler, 1)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func TestBandwidthMapping(t *testing.T) {
	if bw := ActionToBandwidth(-1); math.Abs(bw-MinBandwidth) > 1e-9 {
		t.Errorf("action -1 \n\twant(%v) \n\thave(%v)", MinBandwidth, bw)
	}
	if bw := ActionToBandwidth(1); math.Abs(bw-MaxBandwidth) > 1e-6 {
		t.Errorf("action 1 \n\twant(%v) \n\thave(%v)", MaxBandwidth, bw)
	}
	if bw := ActionToBandwidth(5); math.Abs(bw-MaxBandwidth) > 1e-6 {
		t.Errorf("clipped action \n\twant(%v) \n\thave(%v)", MaxBandwidth, bw)
	}

	for _, a := range []float64{-0.9, -0.3, 0, 0.4, 0.99} {
		if back := BandwidthToAction(ActionToBandwidth(a)); math.Abs(back-a) > 1e-9 {
			t.Errorf("round trip of action %v \n\thave(%v)", a, back)
		}
	}
}

func TestTraceEndsAfterDuration(t *testing.T) {
	env := newEnv(t, DefaultConfig(),
		trace.Pattern{Duration: 400, Capacity: 1000, RTT: 40})

	step, err := env.Reset(true)
	if err != nil {
		t.Fatal(err)
	}
	if !step.First() {
		t.Errorf("reset did not return a first step: %v", step)
	}

	action := mat.NewVecDense(1, []float64{0})
	for i := 1; i <= 4; i++ {
		step, done, err := env.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		if step.Number != i {
			t.Errorf("step number \n\twant(%v) \n\thave(%v)", i, step.Number)
		}
		if done != (i == 4) {
			t.Errorf("step %v: done \n\twant(%v) \n\thave(%v)", i, i == 4, done)
		}
	}

	if _, _, err := env.Step(action); err == nil {
		t.Error("expected error stepping an ended trace")
	}
	if len(env.TrajectoryLog()) != 4 {
		t.Errorf("trajectory log \n\twant(4) \n\thave(%v)",
			len(env.TrajectoryLog()))
	}

	env.ClearTrajectoryLog()
	if len(env.TrajectoryLog()) != 0 {
		t.Errorf("trajectory log not cleared: %v", len(env.TrajectoryLog()))
	}
}

func TestStepLimit(t *testing.T) {
	c := DefaultConfig()
	c.MaxSteps = 2
	env := newEnv(t, c, trace.Pattern{Duration: 10000, Capacity: 1000})

	env.Reset(false)
	action := mat.NewVecDense(1, []float64{0})
	if _, done, _ := env.Step(action); done {
		t.Error("trace ended before the step limit")
	}
	if _, done, _ := env.Step(action); !done {
		t.Error("trace did not end at the step limit")
	}
}

func TestUnderUtilisedLink(t *testing.T) {
	env := newEnv(t, DefaultConfig(),
		trace.Pattern{Duration: 1000, Capacity: 4000, RTT: 100})
	env.Reset(true)

	// 300 kbps on a 4 Mbps link should not queue or lose anything
	action := mat.NewVecDense(1, []float64{BandwidthToAction(300)})
	step, _, err := env.Step(action)
	if err != nil {
		t.Fatal(err)
	}

	obs := step.Observation
	if math.Abs(obs.AtVec(0)-NormaliseBandwidth(300)) > 1e-9 {
		t.Errorf("receive rate \n\twant(%v) \n\thave(%v)",
			NormaliseBandwidth(300), obs.AtVec(0))
	}
	if math.Abs(obs.AtVec(1)-0.05) > 1e-9 {
		t.Errorf("delay \n\twant(0.05) \n\thave(%v)", obs.AtVec(1))
	}
	if obs.AtVec(2) != 0 {
		t.Errorf("loss \n\twant(0) \n\thave(%v)", obs.AtVec(2))
	}
	want := obs.AtVec(0) - obs.AtVec(1) - obs.AtVec(2)
	if math.Abs(step.Reward-want) > 1e-12 {
		t.Errorf("reward \n\twant(%v) \n\thave(%v)", want, step.Reward)
	}
}

func TestOverUtilisedLink(t *testing.T) {
	env := newEnv(t, DefaultConfig(),
		trace.Pattern{Duration: 10000, Capacity: 500, RTT: 20})
	env.Reset(true)

	// Sending at the maximum rate on a 500 kbps link fills the queue
	// and then overflows it
	action := mat.NewVecDense(1, []float64{1})
	var step, prev float64
	for i := 0; i < 10; i++ {
		ts, _, err := env.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		prev, step = step, ts.Observation.AtVec(1)
		if step < prev {
			t.Errorf("delay decreased while over sending: %v -> %v", prev, step)
		}
	}

	last := env.TrajectoryLog()[len(env.TrajectoryLog())-1]
	if last.LossRatio <= 0 {
		t.Errorf("expected overflow loss, got %v", last.LossRatio)
	}
	if math.Abs(last.ReceiveRate-500) > 1e-6 {
		t.Errorf("receive rate \n\twant(500) \n\thave(%v)", last.ReceiveRate)
	}
	if last.DelayMs > 10+DefaultConfig().QueueMs+1e-6 {
		t.Errorf("delay exceeds the bottleneck queue: %v", last.DelayMs)
	}
}

func TestResetClearsSimulation(t *testing.T) {
	env := newEnv(t, DefaultConfig(),
		trace.Pattern{Duration: 10000, Capacity: 500, RTT: 20})
	env.Reset(true)
	action := mat.NewVecDense(1, []float64{1})
	for i := 0; i < 5; i++ {
		env.Step(action)
	}

	env.Reset(true)
	action = mat.NewVecDense(1, []float64{BandwidthToAction(100)})
	step, _, _ := env.Step(action)
	if math.Abs(step.Observation.AtVec(1)-0.01) > 1e-9 {
		t.Errorf("queue carried over reset: delay %v", step.Observation.AtVec(1))
	}
	if step.Number != 1 {
		t.Errorf("step number after reset \n\twant(1) \n\thave(%v)",
			step.Number)
	}
}

func TestIllegalConfig(t *testing.T) {
	c := DefaultConfig()
	c.StepMs = 0
	tr, _ := trace.New("test", []trace.Pattern{{Duration: 100, Capacity: 1}})
	sampler, _ := trace.NewSampler([]*trace.Trace{tr}, 1)
	if _, err := New(c, sampler, 1); err == nil {
		t.Error("expected error for illegal step size")
	}
	if _, err := New(DefaultConfig(), nil, 1); err == nil {
		t.Error("expected error for missing sampler")
	}
}
