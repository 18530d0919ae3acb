package risk

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_OverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	body := "stress:\n  base_scale: 5\n  tags: [nervous]\ndanger:\n  crisis_score: 70\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Stress.BaseScale != 5 || cfg.Danger.CrisisScore != 70 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Stress.Tags) != 1 || cfg.Stress.Tags[0] != "nervous" {
		t.Errorf("expected tag list replaced, got %v", cfg.Stress.Tags)
	}
	if cfg.Burnout.TagRatioWeight != 50 || cfg.LongWindowDays != 30 {
		t.Errorf("defaults lost: %+v", cfg.Burnout)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("short_window_days: 40\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error when short window exceeds long window")
	}
}
