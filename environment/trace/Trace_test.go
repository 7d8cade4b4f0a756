package trace

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const traceJSON = `{
	"type": "video",
	"uplink": {
		"trace_pattern": [
			{"duration": 1000, "capacity": 300, "loss": 0, "rtt": 80, "jitter": 0},
			{"duration": 500, "capacity": 1200, "loss": 0.1, "rtt": 40, "jitter": 5}
		]
	},
	"downlink": {}
}`

func TestParse(t *testing.T) {
	tr, err := Parse("4G", strings.NewReader(traceJSON))
	if err != nil {
		t.Fatal(err)
	}

	if len(tr.Patterns) != 2 {
		t.Fatalf("patterns \n\twant(2) \n\thave(%v)", len(tr.Patterns))
	}
	if tr.Duration() != 1500 {
		t.Errorf("duration \n\twant(1500) \n\thave(%v)", tr.Duration())
	}

	want := (300.0*1000 + 1200*500) / 1500
	if math.Abs(tr.MeanCapacity()-want) > 1e-9 {
		t.Errorf("mean capacity \n\twant(%v) \n\thave(%v)", want,
			tr.MeanCapacity())
	}
}

func TestAt(t *testing.T) {
	tr, err := Parse("4G", strings.NewReader(traceJSON))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		ms       float64
		capacity float64
	}{
		{0, 300},
		{999, 300},
		{1000, 1200},
		{1499, 1200},
		{5000, 1200},
	}
	for _, test := range tests {
		if c := tr.At(test.ms).Capacity; c != test.capacity {
			t.Errorf("capacity at %vms \n\twant(%v) \n\thave(%v)", test.ms,
				test.capacity, c)
		}
	}
}

func TestNewIllegalPatterns(t *testing.T) {
	illegal := [][]Pattern{
		nil,
		{{Duration: 0, Capacity: 100}},
		{{Duration: 100, Capacity: -1}},
		{{Duration: 100, Capacity: 100, Loss: 1.5}},
		{{Duration: 100, Capacity: 100, RTT: -1}},
	}
	for i, patterns := range illegal {
		if _, err := New("illegal", patterns); err == nil {
			t.Errorf("expected error for patterns %v", i)
		}
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json"} {
		err := os.WriteFile(filepath.Join(dir, name), []byte(traceJSON), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	traces, err := LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(traces) != 2 || traces[0].Name != "a" || traces[1].Name != "b" {
		t.Errorf("illegal traces loaded: %v", traces)
	}

	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("expected error loading empty directory")
	}
}

func TestSaveLoad(t *testing.T) {
	tr, err := New("saved", []Pattern{{Duration: 200, Capacity: 500, RTT: 20}})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "saved.json")
	if err := tr.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "saved" || loaded.Duration() != 200 ||
		loaded.Patterns[0] != tr.Patterns[0] {
		t.Errorf("loaded trace differs from saved trace: %v", loaded)
	}
}

func TestSampler(t *testing.T) {
	traces := make([]*Trace, 3)
	for i := range traces {
		traces[i], _ = New(string(rune('a'+i)),
			[]Pattern{{Duration: 100, Capacity: 100}})
	}

	s, err := NewSampler(traces, 1)
	if err != nil {
		t.Fatal(err)
	}

	// Evaluation cycles through traces in order
	for i := 0; i < 6; i++ {
		if tr := s.Sample(false); tr != traces[i%3] {
			t.Errorf("evaluation sample %v \n\twant(%v) \n\thave(%v)", i,
				traces[i%3].Name, tr.Name)
		}
	}

	// Training samples every trace eventually
	seen := make(map[*Trace]bool)
	for i := 0; i < 300; i++ {
		seen[s.Sample(true)] = true
	}
	if len(seen) != 3 {
		t.Errorf("training samples covered %v of 3 traces", len(seen))
	}

	if _, err := NewSampler(nil, 1); err == nil {
		t.Error("expected error for empty sampler")
	}
}
