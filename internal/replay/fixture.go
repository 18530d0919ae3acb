package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/companion-core/internal/emotion"
	"github.com/danielpatrickdp/companion-core/internal/profile"
)

// #region fixture-types

// Fixture is the top-level structure of a replay fixture (YAML or JSON).
type Fixture struct {
	Description     string                  `yaml:"description" json:"description"`
	UserID          string                  `yaml:"user_id" json:"user_id"`
	Profile         FixtureProfile          `yaml:"profile" json:"profile"`
	Entries         []FixtureEntry          `yaml:"entries" json:"entries"`
	ExpectedResults []FixtureExpectedResult `yaml:"expected_results" json:"expected_results"`
}

// FixtureProfile carries the profile fields scoring reads.
type FixtureProfile struct {
	Name          string `yaml:"name" json:"name"`
	PersonalNotes string `yaml:"personal_notes" json:"personal_notes"`
}

// FixtureEntry is one logged emotion entry.
type FixtureEntry struct {
	ID        string    `yaml:"id" json:"id"`
	At        time.Time `yaml:"at" json:"at"`
	Text      string    `yaml:"text" json:"text"`
	Tags      []string  `yaml:"tags" json:"tags"`
	Severity  float64   `yaml:"severity" json:"severity"`
	Stability float64   `yaml:"stability" json:"stability"`
	Summary   string    `yaml:"summary" json:"summary"`
}

// FixtureExpectedResult captures the expected phase per entry.
type FixtureExpectedResult struct {
	ID        string `yaml:"id" json:"id"`
	Phase     string `yaml:"phase" json:"phase"`
	Retracted bool   `yaml:"retracted" json:"retracted"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads a fixture file; .json is parsed as JSON, anything else as YAML.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("fixture %s: no entries", path)
	}
	for i, e := range f.Entries {
		if e.At.IsZero() {
			return nil, fmt.Errorf("fixture %s: entry %d has no timestamp", path, i)
		}
	}
	return &f, nil
}

// ToProfile converts the fixture profile to a domain profile.
func (p FixtureProfile) ToProfile() *profile.Profile {
	return &profile.Profile{Name: p.Name, PersonalNotes: p.PersonalNotes}
}

// ToEntry converts a FixtureEntry to a domain emotion entry.
func (fe FixtureEntry) ToEntry() emotion.Entry {
	tags := fe.Tags
	if tags == nil {
		tags = []string{}
	}
	return emotion.Entry{
		Timestamp: fe.At.UTC(),
		RawText:   fe.Text,
		Tags:      tags,
		Severity:  fe.Severity,
		Stability: fe.Stability,
		Summary:   fe.Summary,
	}
}

// Steps converts every entry, keeping fixture ids.
func (f *Fixture) Steps() []Step {
	steps := make([]Step, len(f.Entries))
	for i, e := range f.Entries {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("entry-%d", i+1)
		}
		steps[i] = Step{ID: id, Entry: e.ToEntry()}
	}
	return steps
}

// #endregion fixture-loader
