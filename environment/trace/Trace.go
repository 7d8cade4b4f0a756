// Package trace implements network traces which describe how the
// capacity, loss, and latency of a network link vary over time.
//
// Traces are stored in JSON files of the form:
//
//	{
//		"type": "video",
//		"uplink": {
//			"trace_pattern": [
//				{
//					"duration": 60000,
//					"capacity": 300,
//					"loss": 0,
//					"rtt": 85,
//					"jitter": 0
//				}
//			]
//		}
//	}
//
// where durations, round trip times, and jitter are in milliseconds,
// capacities are in kbps, and loss is a ratio in [0, 1].
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Pattern describes a network link which stays constant for some
// duration of time
type Pattern struct {
	Duration float64 `json:"duration"` // ms
	Capacity float64 `json:"capacity"` // kbps
	Loss     float64 `json:"loss"`
	RTT      float64 `json:"rtt"`    // ms
	Jitter   float64 `json:"jitter"` // ms
}

type link struct {
	TracePattern []Pattern `json:"trace_pattern"`
}

type file struct {
	Type   string `json:"type,omitempty"`
	Uplink link   `json:"uplink"`
}

// Trace is a sequence of Patterns describing the uplink of a sender
// over time
type Trace struct {
	Name     string
	Patterns []Pattern

	// ends[i] is the time in ms at which Patterns[i] stops
	ends []float64
}

// New returns a new Trace made up of the argument Patterns
func New(name string, patterns []Pattern) (*Trace, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("new: trace %v has no patterns", name)
	}

	ends := make([]float64, len(patterns))
	var total float64
	for i, p := range patterns {
		if p.Duration <= 0 {
			return nil, fmt.Errorf("new: trace %v pattern %v: duration must "+
				"be positive \n\thave(%v)", name, i, p.Duration)
		}
		if p.Capacity < 0 {
			return nil, fmt.Errorf("new: trace %v pattern %v: capacity must "+
				"be non-negative \n\thave(%v)", name, i, p.Capacity)
		}
		if p.Loss < 0 || p.Loss > 1 {
			return nil, fmt.Errorf("new: trace %v pattern %v: loss must be "+
				"in [0, 1] \n\thave(%v)", name, i, p.Loss)
		}
		if p.RTT < 0 || p.Jitter < 0 {
			return nil, fmt.Errorf("new: trace %v pattern %v: rtt and jitter "+
				"must be non-negative", name, i)
		}
		total += p.Duration
		ends[i] = total
	}

	return &Trace{Name: name, Patterns: patterns, ends: ends}, nil
}

// Parse reads a Trace in JSON format from r
func Parse(name string, r io.Reader) (*Trace, error) {
	var f file
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("parse: could not decode trace %v: %v", name,
			err)
	}
	return New(name, f.Uplink.TracePattern)
}

// Load loads the Trace stored in the JSON file at path
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, f)
}

// LoadDir loads all Traces stored in JSON files in the directory dir.
// Traces are returned in lexical order of their filenames.
func LoadDir(dir string) ([]*Trace, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("loadDir: %v", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("loadDir: no traces found in %v", dir)
	}
	sort.Strings(paths)

	traces := make([]*Trace, 0, len(paths))
	for _, path := range paths {
		t, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("loadDir: %v", err)
		}
		traces = append(traces, t)
	}
	return traces, nil
}

// Save writes the Trace to path in JSON format
func (t *Trace) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "\t")
	if err := enc.Encode(file{Type: "video",
		Uplink: link{TracePattern: t.Patterns}}); err != nil {
		return fmt.Errorf("save: could not encode trace %v: %v", t.Name, err)
	}
	return nil
}

// Duration returns the total duration of the Trace in ms
func (t *Trace) Duration() float64 {
	return t.ends[len(t.ends)-1]
}

// At returns the Pattern active at time ms. Times past the end of the
// Trace return the last Pattern.
func (t *Trace) At(ms float64) Pattern {
	i := sort.SearchFloat64s(t.ends, ms)
	for i < len(t.ends) && t.ends[i] == ms {
		i++
	}
	if i >= len(t.Patterns) {
		i = len(t.Patterns) - 1
	}
	return t.Patterns[i]
}

// MeanCapacity returns the time-weighted mean capacity of the Trace in
// kbps
func (t *Trace) MeanCapacity() float64 {
	caps := make([]float64, len(t.Patterns))
	durations := make([]float64, len(t.Patterns))
	for i, p := range t.Patterns {
		caps[i] = p.Capacity
		durations[i] = p.Duration
	}
	return stat.Mean(caps, durations)
}

// String implements the fmt.Stringer interface
func (t *Trace) String() string {
	return fmt.Sprintf("Trace %v | Patterns: %v | Duration: %vms | "+
		"Mean Capacity: %.2fkbps", t.Name, len(t.Patterns), t.Duration(),
		t.MeanCapacity())
}
