package phase

import (
	"fmt"
	"strings"
)

// #region phase
// Phase is the ordered risk classification: Stable < AtRisk < Hurt < Crisis.
type Phase int

const (
	Stable Phase = iota
	AtRisk
	Hurt
	Crisis
)

var names = [...]string{"STABLE", "AT_RISK", "HURT", "CRISIS"}

func (p Phase) String() string {
	if p < Stable || p > Crisis {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return names[p]
}

// MarshalText encodes the phase as its upper-case name.
func (p Phase) MarshalText() ([]byte, error) {
	if p < Stable || p > Crisis {
		return nil, fmt.Errorf("phase: invalid value %d", int(p))
	}
	return []byte(names[p]), nil
}

// UnmarshalText accepts the upper- or lower-case name.
func (p *Phase) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Parse maps a phase name to its value.
func Parse(s string) (Phase, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == want {
			return Phase(i), nil
		}
	}
	return Stable, fmt.Errorf("phase: unknown phase %q", s)
}

// #endregion phase

// #region thresholds
// Thresholds holds the score cut-offs for each phase.
type Thresholds struct {
	Crisis int `yaml:"crisis" mapstructure:"crisis"`
	Hurt   int `yaml:"hurt" mapstructure:"hurt"`
	AtRisk int `yaml:"at_risk" mapstructure:"at_risk"`
	// IncludeDanger makes danger count toward Hurt and AtRisk as well as Crisis.
	IncludeDanger bool `yaml:"include_danger" mapstructure:"include_danger"`
}

// DefaultThresholds returns 80/60/40 with danger included.
func DefaultThresholds() Thresholds {
	return Thresholds{Crisis: 80, Hurt: 60, AtRisk: 40, IncludeDanger: true}
}

// #endregion thresholds

// #region classify
// Classify maps scores and the crisis flag to a phase. It is a pure function of its inputs.
func (t Thresholds) Classify(stress, burnout, danger int, crisis bool) Phase {
	if crisis || danger >= t.Crisis {
		return Crisis
	}
	if stress >= t.Hurt || burnout >= t.Hurt || (t.IncludeDanger && danger >= t.Hurt) {
		return Hurt
	}
	if stress >= t.AtRisk || burnout >= t.AtRisk || (t.IncludeDanger && danger >= t.AtRisk) {
		return AtRisk
	}
	return Stable
}

// Classify uses DefaultThresholds.
func Classify(stress, burnout, danger int, crisis bool) Phase {
	return DefaultThresholds().Classify(stress, burnout, danger, crisis)
}

// #endregion classify
