package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewManualProgressBar(&out, 10, 4)

	bar.Increment()
	bar.SetStatus("reward: %.1f", 2.5)
	if err := bar.Display(); err != nil {
		t.Fatal(err)
	}

	have := out.String()
	if !strings.Contains(have, "25.00%") {
		t.Errorf("progress not displayed: %q", have)
	}
	if !strings.Contains(have, "reward: 2.5") {
		t.Errorf("status not displayed: %q", have)
	}
	if n := strings.Count(have, "█"); n != 3 {
		t.Errorf("filled cells \n\twant(3) \n\thave(%v)", n)
	}

	// Progress saturates at the maximum
	for i := 0; i < 10; i++ {
		bar.Increment()
	}
	if p := bar.Progress(); p != 1 {
		t.Errorf("progress \n\twant(1) \n\thave(%v)", p)
	}
}
