package phase

import (
	"encoding/json"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name                    string
		stress, burnout, danger int
		crisis                  bool
		want                    Phase
	}{
		{"high stress", 70, 0, 0, false, Hurt},
		{"danger spike", 0, 0, 85, false, Crisis},
		{"all zero", 0, 0, 0, false, Stable},
		{"crisis flag", 0, 0, 0, true, Crisis},
		{"burnout at risk", 0, 45, 0, false, AtRisk},
		{"danger hurt", 0, 0, 70, false, Hurt},
		{"danger at risk", 0, 0, 40, false, AtRisk},
		{"boundary", 39, 39, 39, false, Stable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.stress, tt.burnout, tt.danger, tt.crisis)
			if got != tt.want {
				t.Errorf("Classify(%d,%d,%d,%v) = %s, want %s", tt.stress, tt.burnout, tt.danger, tt.crisis, got, tt.want)
			}
		})
	}
}

func TestClassify_WithoutDanger(t *testing.T) {
	th := DefaultThresholds()
	th.IncludeDanger = false
	if got := th.Classify(0, 0, 70, false); got != Stable {
		t.Errorf("expected STABLE when danger is excluded, got %s", got)
	}
	if got := th.Classify(0, 0, 80, false); got != Crisis {
		t.Errorf("danger>=80 must still be CRISIS, got %s", got)
	}
}

func TestPhaseOrdering(t *testing.T) {
	if !(Stable < AtRisk && AtRisk < Hurt && Hurt < Crisis) {
		t.Fatal("phases must be ordered")
	}
}

func TestPhaseText(t *testing.T) {
	b, err := json.Marshal(map[string]Phase{"p": AtRisk})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"p":"AT_RISK"}` {
		t.Errorf("unexpected json %s", b)
	}
	var out map[string]Phase
	if err := json.Unmarshal([]byte(`{"p":"crisis"}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["p"] != Crisis {
		t.Errorf("expected CRISIS, got %s", out["p"])
	}
	if _, err := Parse("panic"); err == nil {
		t.Error("expected error for unknown phase")
	}
}
