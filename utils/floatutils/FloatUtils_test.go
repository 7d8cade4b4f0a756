package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-2, -1, 1, -1},
		{3, -1, 1, 1},
		{1, 1, 1, 1},
	}

	for _, test := range tests {
		if have := Clip(test.value, test.min, test.max); have != test.want {
			t.Errorf("clip(%v, %v, %v) \n\twant(%v) \n\thave(%v)",
				test.value, test.min, test.max, test.want, have)
		}
		interval := r1.Interval{Min: test.min, Max: test.max}
		if have := ClipInterval(test.value, interval); have != test.want {
			t.Errorf("clipInterval(%v, %v) \n\twant(%v) \n\thave(%v)",
				test.value, interval, test.want, have)
		}
	}
}

func TestRange(t *testing.T) {
	want := r1.Interval{Min: -3, Max: 7}
	if have := Range(2, -3, math.NaN(), 7, 0); have != want {
		t.Errorf("range \n\twant(%v) \n\thave(%v)", want, have)
	}

	if have := Range(); have != (r1.Interval{}) {
		t.Errorf("empty range \n\twant(%v) \n\thave(%v)", r1.Interval{},
			have)
	}
}
