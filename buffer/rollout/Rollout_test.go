package rollout

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func fill(t *testing.T, b *Buffer, rewards []float64, terminals []bool,
	values []float64) {
	t.Helper()
	for i := range rewards {
		err := b.Record(Record{
			Observation: []float64{float64(i), 0},
			Action:      []float64{0.1},
			LogProb:     -1,
			Value:       values[i],
		})
		if err != nil {
			t.Fatalf("could not record: %v", err)
		}
		b.AppendReward(rewards[i])
		b.AppendTerminal(terminals[i])
	}
}

func TestComputeReturnsBootstrapsTruncatedTrace(t *testing.T) {
	b, err := New(2, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	fill(t, b, []float64{1, 1, 1, 1}, []bool{false, true, false, false},
		[]float64{0, 0, 0, 0})

	gamma := 0.5
	bootstrap := 10.0
	if err := b.ComputeReturns(bootstrap, gamma); err != nil {
		t.Fatal(err)
	}

	ret, err := b.Returns()
	if err != nil {
		t.Fatal(err)
	}

	// Trace 1 ends at index 1, trace 2 is cut off at index 3
	want := []float64{
		1 + gamma*1,
		1,
		1 + gamma*(1+gamma*bootstrap),
		1 + gamma*bootstrap,
	}
	if !floats.EqualApprox(ret, want, 1e-12) {
		t.Errorf("returns \n\twant(%v) \n\thave(%v)", want, ret)
	}
}

func TestComputeReturnsIgnoresBootstrapAfterTerminal(t *testing.T) {
	b, _ := New(2, 1, 3)
	fill(t, b, []float64{1, 2, 3}, []bool{false, false, true},
		[]float64{0, 0, 0})

	if err := b.ComputeReturns(100, 1); err != nil {
		t.Fatal(err)
	}
	ret, _ := b.Returns()
	want := []float64{6, 5, 3}
	if !floats.Equal(ret, want) {
		t.Errorf("returns \n\twant(%v) \n\thave(%v)", want, ret)
	}
}

func TestComputeReturnsInconsistent(t *testing.T) {
	b, _ := New(2, 1, 3)
	fill(t, b, []float64{1, 2}, []bool{false, false}, []float64{0, 0})
	b.AppendReward(3)

	err := b.ComputeReturns(0, 0.99)
	if !IsInconsistent(err) {
		t.Errorf("expected inconsistent buffer error, got %v", err)
	}
}

func TestComputeReturnsEmpty(t *testing.T) {
	b, _ := New(2, 1, 3)
	if err := b.ComputeReturns(0, 0.99); !IsEmpty(err) {
		t.Errorf("expected empty buffer error, got %v", err)
	}
}

func TestComputeReturnsIllegalDiscount(t *testing.T) {
	b, _ := New(2, 1, 3)
	fill(t, b, []float64{1}, []bool{false}, []float64{0})
	for _, gamma := range []float64{0, -0.1, 1.5} {
		if err := b.ComputeReturns(0, gamma); err == nil {
			t.Errorf("expected error for discount %v", gamma)
		}
	}
}

func TestRecordFull(t *testing.T) {
	b, _ := New(2, 1, 1)
	fill(t, b, []float64{1}, []bool{false}, []float64{0})

	err := b.Record(Record{Observation: []float64{0, 0}, Action: []float64{0}})
	if !IsFull(err) {
		t.Errorf("expected full buffer error, got %v", err)
	}
}

func TestRecordIllegalShape(t *testing.T) {
	b, _ := New(2, 1, 2)
	if err := b.Record(Record{Observation: []float64{0}, Action: []float64{0}}); err == nil {
		t.Error("expected error for short observation")
	}
	if err := b.Record(Record{Observation: []float64{0, 0}}); err == nil {
		t.Error("expected error for missing action")
	}
}

func TestGetNormalisesAdvantages(t *testing.T) {
	b, _ := New(2, 1, 4)
	fill(t, b, []float64{1, 2, 3, 4}, []bool{false, false, false, true},
		[]float64{0.5, 0.5, 0.5, 0.5})
	if _, _, _, _, _, err := b.Get(); !IsNotComputed(err) {
		t.Errorf("expected not computed error, got %v", err)
	}

	if err := b.ComputeReturns(0, 0.9); err != nil {
		t.Fatal(err)
	}
	obs, act, logProb, adv, ret, err := b.Get()
	if err != nil {
		t.Fatal(err)
	}

	if len(obs) != 8 || len(act) != 4 || len(logProb) != 4 || len(ret) != 4 {
		t.Fatalf("illegal lengths: obs(%v) act(%v) logProb(%v) ret(%v)",
			len(obs), len(act), len(logProb), len(ret))
	}

	mean, std := stat.MeanStdDev(adv, nil)
	if math.Abs(mean) > 1e-9 {
		t.Errorf("advantage mean \n\twant(0) \n\thave(%v)", mean)
	}
	if math.Abs(std-1) > 1e-6 {
		t.Errorf("advantage std \n\twant(1) \n\thave(%v)", std)
	}
}

func TestClear(t *testing.T) {
	b, _ := New(2, 1, 3)
	fill(t, b, []float64{1, 2, 3}, []bool{false, false, true},
		[]float64{0, 0, 0})
	if err := b.ComputeReturns(0, 0.99); err != nil {
		t.Fatal(err)
	}

	b.Clear()
	if b.Len() != 0 || b.Records() != 0 {
		t.Errorf("buffer not empty after clear: len(%v) records(%v)",
			b.Len(), b.Records())
	}
	if _, err := b.Returns(); !IsNotComputed(err) {
		t.Errorf("expected not computed error after clear, got %v", err)
	}

	// The buffer is reusable after clearing
	fill(t, b, []float64{1, 2, 3}, []bool{false, false, false},
		[]float64{0, 0, 0})
	if b.Len() != 3 {
		t.Errorf("length after refill \n\twant(3) \n\thave(%v)", b.Len())
	}
}

func BenchmarkComputeReturns(b *testing.B) {
	size := 4000
	buf, _ := New(4, 1, size)
	for i := 0; i < size; i++ {
		buf.Record(Record{Observation: make([]float64, 4),
			Action: make([]float64, 1)})
		buf.AppendReward(1)
		buf.AppendTerminal(i%500 == 499)
	}

	for i := 0; i < b.N; i++ {
		buf.ComputeReturns(0.5, 0.99)
	}
}
