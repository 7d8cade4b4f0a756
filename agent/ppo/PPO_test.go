package ppo

import (
	"math"
	"testing"

	"github.com/wangmol66/ReCoCo/buffer/rollout"
	"github.com/wangmol66/ReCoCo/environment/rtc"
	"github.com/wangmol66/ReCoCo/environment/trace"
	"github.com/wangmol66/ReCoCo/solver"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func newEnv(t *testing.T) *rtc.RTC {
	t.Helper()
	tr, err := trace.New("test", []trace.Pattern{
		{Duration: 10000, Capacity: 1000, RTT: 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	sampler, err := trace.NewSampler([]*trace.Trace{tr}, 1)
	if err != nil {
		t.Fatal(err)
	}
	env, err := rtc.New(rtc.DefaultConfig(), sampler, 1)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func newAgent(t *testing.T, batch int) *PPO {
	t.Helper()
	c, err := DefaultConfig(batch)
	if err != nil {
		t.Fatal(err)
	}
	c.Epochs = 3
	c.PolicySolver, _ = solver.NewAdam(1e-2, 1e-8, 0.9, 0.999, 1, 0)
	c.ValueSolver, _ = solver.NewAdam(1e-2, 1e-8, 0.9, 0.999, 1, 0)

	p, err := New(newEnv(t), c, 1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// rollout fills b with batch transitions of constant reward
func rolloutWindow(t *testing.T, p *PPO, b *rollout.Buffer, batch int) {
	t.Helper()
	for i := 0; i < batch; i++ {
		obs := mat.NewVecDense(4, []float64{0.5, 0.05, 0, float64(i) / 10})
		if _, err := p.SelectAction(obs, b); err != nil {
			t.Fatal(err)
		}
		b.AppendReward(1)
		b.AppendTerminal(i == batch-1)
	}
	if err := b.ComputeReturns(0, 0.99); err != nil {
		t.Fatal(err)
	}
}

func TestSelectActionRecordsOnce(t *testing.T) {
	p := newAgent(t, 4)
	b, _ := rollout.New(4, 1, 4)

	obs := mat.NewVecDense(4, []float64{0.1, 0.2, 0.3, 0.4})
	action, err := p.SelectAction(obs, b)
	if err != nil {
		t.Fatal(err)
	}
	if action.Len() != 1 {
		t.Errorf("action dimensions \n\twant(1) \n\thave(%v)", action.Len())
	}
	if b.Records() != 1 {
		t.Errorf("records \n\twant(1) \n\thave(%v)", b.Records())
	}

	// No recorder means nothing is recorded
	if _, err := p.SelectAction(obs, nil); err != nil {
		t.Fatal(err)
	}
	if b.Records() != 1 {
		t.Errorf("records after unrecorded selection \n\twant(1) "+
			"\n\thave(%v)", b.Records())
	}
}

func TestEvalIsDeterministic(t *testing.T) {
	p := newAgent(t, 4)
	p.Eval()
	if !p.IsEval() {
		t.Fatal("agent not in evaluation mode")
	}

	obs := mat.NewVecDense(4, []float64{0.1, 0.2, 0.3, 0.4})
	a1, _ := p.SelectAction(obs, nil)
	a2, _ := p.SelectAction(obs, nil)
	if !mat.Equal(a1, a2) {
		t.Errorf("evaluation actions differ: %v != %v", a1.AtVec(0),
			a2.AtVec(0))
	}
	if math.Abs(a1.AtVec(0)) > 1 {
		t.Errorf("mean action outside of [-1, 1]: %v", a1.AtVec(0))
	}

	b, _ := rollout.New(4, 1, 4)
	if _, _, err := p.Update(b, obs); err == nil {
		t.Error("expected error updating in evaluation mode")
	}
}

func TestLogPdfOf(t *testing.T) {
	p := newAgent(t, 1)
	mean := []float64{0.2}
	action := []float64{0.25}

	z := (0.25 - 0.2) / p.std
	want := -0.5*z*z - math.Log(p.std*math.Sqrt(2*math.Pi))
	if have := p.logPdfOf(mean, action); math.Abs(have-want) > 1e-12 {
		t.Errorf("log pdf \n\twant(%v) \n\thave(%v)", want, have)
	}
}

func TestUpdate(t *testing.T) {
	batch := 8
	p := newAgent(t, batch)
	b, _ := rollout.New(4, 1, batch)

	obs := mat.NewVecDense(4, []float64{0.5, 0.05, 0, 0})
	before, _ := p.Value(obs)

	var first, last float64
	for i := 0; i < 20; i++ {
		rolloutWindow(t, p, b, batch)
		policyLoss, valueLoss, err := p.Update(b, obs)
		if err != nil {
			t.Fatal(err)
		}
		if math.IsNaN(policyLoss) || math.IsNaN(valueLoss) {
			t.Fatalf("update %v: NaN loss (%v, %v)", i, policyLoss, valueLoss)
		}
		if i == 0 {
			first = valueLoss
		}
		last = valueLoss
		b.Clear()
	}

	if last >= first {
		t.Errorf("value loss did not decrease: %v -> %v", first, last)
	}
	if after, _ := p.Value(obs); after == before {
		t.Error("behaviour value function not updated")
	}
}

func TestUpdateIllegalWindow(t *testing.T) {
	p := newAgent(t, 8)
	b, _ := rollout.New(4, 1, 8)
	rolloutWindow(t, p, b, 4)

	if _, _, err := p.Update(b, nil); err == nil {
		t.Error("expected error for short rollout window")
	}
}

func TestSaveLoad(t *testing.T) {
	p := newAgent(t, 4)
	b, _ := rollout.New(4, 1, 4)
	rolloutWindow(t, p, b, 4)
	if _, _, err := p.Update(b, nil); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := p.Save(dir); err != nil {
		t.Fatal(err)
	}

	loaded := newAgent(t, 4)
	if err := loaded.Load(dir); err != nil {
		t.Fatal(err)
	}

	obs := []float64{0.3, 0.1, 0.0, 0.7}
	want, _ := p.policyMean(obs)
	have, _ := loaded.policyMean(obs)
	if !floats.EqualApprox(want, have, 1e-12) {
		t.Errorf("loaded policy mean \n\twant(%v) \n\thave(%v)", want, have)
	}

	wantV, _ := p.Value(mat.NewVecDense(4, obs))
	haveV, _ := loaded.Value(mat.NewVecDense(4, obs))
	if math.Abs(wantV-haveV) > 1e-12 {
		t.Errorf("loaded value \n\twant(%v) \n\thave(%v)", wantV, haveV)
	}
}

func TestIllegalConfig(t *testing.T) {
	c, err := DefaultConfig(4)
	if err != nil {
		t.Fatal(err)
	}

	illegal := []func(c Config) Config{
		func(c Config) Config { c.Clip = 0; return c },
		func(c Config) Config { c.Epochs = 0; return c },
		func(c Config) Config { c.ExplorationParam = 0; return c },
		func(c Config) Config { c.BatchSize = 0; return c },
		func(c Config) Config { c.PolicyBiases = nil; return c },
		func(c Config) Config { c.ValueSolver = nil; return c },
	}
	for i, modify := range illegal {
		if err := modify(c).Validate(); err == nil {
			t.Errorf("expected error for illegal config %v", i)
		}
	}
}

func TestClippedSurrogate(t *testing.T) {
	obs := []float64{0.5, 0.05, 0, 0.2, 0.1, 0.3, 0.02, 0.9}

	tests := []struct {
		ratio []float64
		adv   []float64
		want  float64
	}{
		// min(1.5, 1.2) and min(0.5 * 2, 0.8 * 2)
		{[]float64{1.5, 0.5}, []float64{1, 2}, -(1.2 + 1.0) / 2},

		// min(-1.5, -1.2) and min(0.5 * -2, 0.8 * -2)
		{[]float64{1.5, 0.5}, []float64{-1, -2}, -(-1.5 - 1.6) / 2},

		// Ratios within [1 - ε, 1 + ε] are not clipped
		{[]float64{1.1, 0.9}, []float64{1, -1}, -(1.1 - 0.9) / 2},
	}

	for i, test := range tests {
		p := newAgent(t, 2)

		// Take actions equal to the policy mean, then choose the old log
		// probabilities so that the probability ratios are test.ratio
		act := make([]float64, 0, 2)
		logProb := make([]float64, 0, 2)
		for j := 0; j < 2; j++ {
			mean, err := p.policyMean(obs[4*j : 4*(j+1)])
			if err != nil {
				t.Fatal(err)
			}
			act = append(act, mean...)
			logp := p.logPdfOf(mean, mean)
			logProb = append(logProb, logp-math.Log(test.ratio[j]))
		}

		have, err := p.policyStep(obs, act, logProb, test.adv)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(have-test.want) > 1e-9 {
			t.Errorf("case %v: surrogate loss \n\twant(%v) \n\thave(%v)", i,
				test.want, have)
		}
	}
}
