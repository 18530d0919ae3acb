// Package config loads runtime configuration from defaults, an optional YAML file and
// COMPANION_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danielpatrickdp/companion-core/internal/chaos"
	"github.com/danielpatrickdp/companion-core/internal/consolidate"
	"github.com/danielpatrickdp/companion-core/internal/llm"
	"github.com/danielpatrickdp/companion-core/internal/logging"
	"github.com/danielpatrickdp/companion-core/internal/orchestrator"
	"github.com/danielpatrickdp/companion-core/internal/phase"
	"github.com/danielpatrickdp/companion-core/internal/risk"
	"github.com/danielpatrickdp/companion-core/internal/session"
)

// #region types
// Config is the full runtime configuration.
type Config struct {
	DBPath      string             `mapstructure:"db_path"`
	ScoringFile string             `mapstructure:"scoring_file"`
	LLM         LLMConfig          `mapstructure:"llm"`
	Session     session.Config     `mapstructure:"session"`
	Chat        ChatConfig         `mapstructure:"chat"`
	Chaos       ChaosConfig        `mapstructure:"chaos"`
	Phase       phase.Thresholds   `mapstructure:"phase"`
	Consolidate consolidate.Config `mapstructure:"consolidate"`
	Log         logging.Config     `mapstructure:"log"`
	Server      ServerConfig       `mapstructure:"server"`
}

// LLMConfig selects the text generation provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	SidecarAddr string        `mapstructure:"sidecar_addr"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

// ChatConfig tunes the conversation pipeline.
type ChatConfig struct {
	Persona       string `mapstructure:"persona"`
	EfficientMode bool   `mapstructure:"efficient_mode"`
	ChaosEvery    int    `mapstructure:"chaos_every"`
	HistoryLimit  int    `mapstructure:"history_limit"`
	PromptHistory int    `mapstructure:"prompt_history"`
}

// ChaosConfig picks the chaos scoring strategy.
type ChaosConfig struct {
	Mode string `mapstructure:"mode"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// #endregion types

// #region defaults
func setDefaults(v *viper.Viper) {
	l := llm.DefaultConfig()
	s := session.DefaultConfig()
	o := orchestrator.DefaultConfig()
	p := phase.DefaultThresholds()
	c := consolidate.DefaultConfig()
	lg := logging.DefaultConfig()

	v.SetDefault("db_path", "companion.db")
	v.SetDefault("scoring_file", "")

	v.SetDefault("llm.provider", l.Provider)
	v.SetDefault("llm.model", l.Model)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.sidecar_addr", "localhost:50051")
	v.SetDefault("llm.timeout", l.Timeout)
	v.SetDefault("llm.max_attempts", l.Retry.MaxAttempts)
	v.SetDefault("llm.base_delay", l.Retry.BaseDelay)

	v.SetDefault("session.backend", s.Backend)
	v.SetDefault("session.ttl", s.TTL)
	v.SetDefault("session.max_users", s.MaxUsers)
	v.SetDefault("session.redis_addr", s.RedisAddr)
	v.SetDefault("session.redis_db", s.RedisDB)
	v.SetDefault("session.update_every", s.UpdateEvery)

	v.SetDefault("chat.persona", o.Persona)
	v.SetDefault("chat.efficient_mode", o.EfficientMode)
	v.SetDefault("chat.chaos_every", o.ChaosEvery)
	v.SetDefault("chat.history_limit", o.HistoryLimit)
	v.SetDefault("chat.prompt_history", o.PromptHistory)

	v.SetDefault("chaos.mode", string(chaos.ModeHeuristic))

	v.SetDefault("phase.crisis", p.Crisis)
	v.SetDefault("phase.hurt", p.Hurt)
	v.SetDefault("phase.at_risk", p.AtRisk)
	v.SetDefault("phase.include_danger", p.IncludeDanger)

	v.SetDefault("consolidate.min_confidence", c.MinConfidence)
	v.SetDefault("consolidate.max_text_len", c.MaxTextLen)

	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.file", lg.File)
	v.SetDefault("log.max_size_mb", lg.MaxSizeMB)
	v.SetDefault("log.max_backups", lg.MaxBackups)
	v.SetDefault("log.max_age_days", lg.MaxAgeDays)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
}

// #endregion defaults

// #region load
// Load reads configuration. path may be empty, in which case ./companion.yaml is used when present.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COMPANION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider keys are commonly exported under their vendor names.
	if err := v.BindEnv("llm.api_key", "COMPANION_LLM_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "DEEPSEEK_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("companion")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	switch chaos.Mode(c.Chaos.Mode) {
	case chaos.ModeHeuristic, chaos.ModeHybrid:
	default:
		return fmt.Errorf("config: chaos.mode %q must be heuristic or hybrid", c.Chaos.Mode)
	}
	switch c.Session.Backend {
	case session.BackendMemory, session.BackendRedis:
	default:
		return fmt.Errorf("config: session.backend %q must be memory or redis", c.Session.Backend)
	}
	if c.Chat.ChaosEvery < 1 {
		return errors.New("config: chat.chaos_every must be at least 1")
	}
	if c.Consolidate.MinConfidence < 0 || c.Consolidate.MinConfidence > 1 {
		return errors.New("config: consolidate.min_confidence must be within [0, 1]")
	}
	if !(c.Phase.AtRisk <= c.Phase.Hurt && c.Phase.Hurt <= c.Phase.Crisis) {
		return errors.New("config: phase thresholds must satisfy at_risk <= hurt <= crisis")
	}
	if c.DBPath == "" {
		return errors.New("config: db_path is required")
	}
	return nil
}

// #endregion load

// #region component-configs
// LLMProvider converts to the provider factory configuration.
func (c Config) LLMProvider() llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Provider = c.LLM.Provider
	cfg.Model = c.LLM.Model
	cfg.APIKey = c.LLM.APIKey
	cfg.BaseURL = c.LLM.BaseURL
	cfg.SidecarAddr = c.LLM.SidecarAddr
	cfg.Timeout = c.LLM.Timeout
	if c.LLM.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = c.LLM.MaxAttempts
	}
	if c.LLM.BaseDelay > 0 {
		cfg.Retry.BaseDelay = c.LLM.BaseDelay
	}
	return cfg
}

// Orchestrator returns the conversation pipeline configuration.
func (c Config) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		Persona:       c.Chat.Persona,
		EfficientMode: c.Chat.EfficientMode,
		ChaosEvery:    c.Chat.ChaosEvery,
		HistoryLimit:  c.Chat.HistoryLimit,
		PromptHistory: c.Chat.PromptHistory,
		UpdateEvery:   c.Session.UpdateEvery,
	}
}

// ChaosScoring returns the chaos configuration with the selected mode.
func (c Config) ChaosScoring() chaos.Config {
	cfg := chaos.DefaultConfig()
	cfg.Mode = chaos.Mode(c.Chaos.Mode)
	return cfg
}

// Risk returns the scoring profile, read from ScoringFile when set.
func (c Config) Risk() (risk.Config, error) {
	if c.ScoringFile == "" {
		return risk.DefaultConfig(), nil
	}
	return risk.LoadConfig(c.ScoringFile)
}

// #endregion component-configs
