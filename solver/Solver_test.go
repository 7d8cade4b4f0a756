package solver

import (
	"encoding/json"
	"testing"
)

func TestJSON(t *testing.T) {
	adam, err := NewAdam(3e-5, 1e-8, 0.9, 0.999, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	vanilla, err := NewVanilla(0.01, 32, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []*Solver{adam, vanilla} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}

		var decoded Solver
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("could not unmarshal %s: %v", data, err)
		}
		if decoded.Type != s.Type || decoded.Config != s.Config {
			t.Errorf("decoded \n\twant(%v, %v) \n\thave(%v, %v)", s.Type,
				s.Config, decoded.Type, decoded.Config)
		}
		if decoded.Solver == nil {
			t.Errorf("decoded %v solver has no Gorgonia Solver", s.Type)
		}
	}
}

func TestIllegal(t *testing.T) {
	if _, err := NewAdam(0, 1e-8, 0.9, 0.999, 1, 0); err == nil {
		t.Error("expected error for zero step size")
	}
	if _, err := NewAdam(1e-3, 1e-8, 1.0, 0.999, 1, 0); err == nil {
		t.Error("expected error for beta of 1")
	}
	if _, err := NewVanilla(1e-3, 0, 0); err == nil {
		t.Error("expected error for zero batch size")
	}

	var s Solver
	data := []byte(`{"Type": "Vanilla", "Config": {"StepSize": 0.1, "Batch": 1, "Beta1": 0.9}}`)
	if err := json.Unmarshal(data, &s); err != nil {
		t.Errorf("could not unmarshal vanilla config: %v", err)
	}
	data = []byte(`{"Type": "RMSProp", "Config": {}}`)
	if err := json.Unmarshal(data, &s); err == nil {
		t.Error("expected error for unknown solver type")
	}
}

func TestClone(t *testing.T) {
	adam, _ := NewDefaultAdam(1e-3, 1)
	clone := adam.Clone()
	if clone.Solver == adam.Solver {
		t.Error("clone shares Gorgonia Solver")
	}
	if clone.Config != adam.Config {
		t.Errorf("clone config \n\twant(%v) \n\thave(%v)", adam.Config,
			clone.Config)
	}
}
