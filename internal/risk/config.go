package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region config
// Config holds every weight, threshold and keyword list used by the predictor.
type Config struct {
	ShortWindowDays int           `yaml:"short_window_days"`
	LongWindowDays  int           `yaml:"long_window_days"`
	Stress          StressConfig  `yaml:"stress"`
	Burnout         BurnoutConfig `yaml:"burnout"`
	Danger          DangerConfig  `yaml:"danger"`
	TrendDelta      float64       `yaml:"trend_delta"` // mean-severity change that counts as a trend
	CrisisSuffix    string        `yaml:"crisis_suffix"`
}

// StressConfig scores the short window.
type StressConfig struct {
	NoDataScore          int      `yaml:"no_data_score"`
	BaseScale            float64  `yaml:"base_scale"`
	VolatilityWeight     float64  `yaml:"volatility_weight"`
	TagPenalty           float64  `yaml:"tag_penalty"`
	ConsecutiveThreshold float64  `yaml:"consecutive_threshold"`
	ConsecutiveRun       int      `yaml:"consecutive_run"`
	ConsecutivePenalty   float64  `yaml:"consecutive_penalty"`
	Tags                 []string `yaml:"tags"`
}

// BurnoutConfig scores the long window plus profile notes.
type BurnoutConfig struct {
	NoDataScore      int      `yaml:"no_data_score"`
	TagRatioWeight   float64  `yaml:"tag_ratio_weight"`
	TrendPenalty     float64  `yaml:"trend_penalty"`
	WorkloadPenalty  float64  `yaml:"workload_penalty"`
	Tags             []string `yaml:"tags"`
	WorkloadKeywords []string `yaml:"workload_keywords"`
}

// DangerConfig scores the long window for acute risk.
type DangerConfig struct {
	SpikeThreshold     float64  `yaml:"spike_threshold"`
	SpikeWeight        float64  `yaml:"spike_weight"`
	HopelessWeight     float64  `yaml:"hopeless_weight"`
	CrisisScore        int      `yaml:"crisis_score"`
	RetractedScore     int      `yaml:"retracted_score"`
	CrisisKeywords     []string `yaml:"crisis_keywords"`
	CrisisExclusions   []string `yaml:"crisis_exclusions"` // benign words that embed a crisis keyword
	HopelessTags       []string `yaml:"hopeless_tags"`
	RetractionKeywords []string `yaml:"retraction_keywords"`
}

// DefaultConfig returns the built-in scoring profile.
func DefaultConfig() Config {
	return Config{
		ShortWindowDays: 7,
		LongWindowDays:  30,
		Stress: StressConfig{
			NoDataScore:          20,
			BaseScale:            9.0,
			VolatilityWeight:     10.0,
			TagPenalty:           5,
			ConsecutiveThreshold: 6.0,
			ConsecutiveRun:       3,
			ConsecutivePenalty:   15,
			Tags:                 []string{"anxious", "stressed", "overwhelmed", "panic", "worry"},
		},
		Burnout: BurnoutConfig{
			NoDataScore:      10,
			TagRatioWeight:   50,
			TrendPenalty:     20,
			WorkloadPenalty:  15,
			Tags:             []string{"tired", "exhausted", "drained", "burnout", "fatigue", "empty"},
			WorkloadKeywords: []string{"work", "job", "deadline", "busy", "overworked", "study", "school"},
		},
		Danger: DangerConfig{
			SpikeThreshold: 8.0,
			SpikeWeight:    20,
			HopelessWeight: 15,
			CrisisScore:    80,
			RetractedScore: 20,
			CrisisKeywords: []string{
				"suicide", "suicidal", "kill myself", "hurt myself", "end it", "die", "death",
				"self-harm", "drugs", "overdose", "substance abuse", "pills",
			},
			CrisisExclusions: []string{
				"studied", "studies", "diet", "diesel", "soldier", "audience", "ingredient",
				"obedient", "expedient", "buddies", "bodies", "ladies", "candies", "indie", "remedies",
				"blend it", "send it", "spend it", "lend it", "attend it", "extend it", "append it",
			},
			HopelessTags:       []string{"hopeless", "despair", "worthless", "trapped"},
			RetractionKeywords: []string{"joke", "joking", "kidding", "prank", "false alarm", "didn't mean it"},
		},
		TrendDelta:   1.5,
		CrisisSuffix: " CRITICAL: Consider contacting a trusted person or a local crisis hotline; I am not a therapist.",
	}
}

// LoadConfig reads a YAML scoring profile. Keys absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read scoring profile: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse scoring profile %s: %w", path, err)
	}
	if cfg.ShortWindowDays <= 0 || cfg.LongWindowDays < cfg.ShortWindowDays {
		return cfg, fmt.Errorf("scoring profile %s: invalid windows %d/%d", path, cfg.ShortWindowDays, cfg.LongWindowDays)
	}
	return cfg, nil
}

// #endregion config
