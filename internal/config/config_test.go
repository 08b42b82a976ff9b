package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GapSize != DefaultConfig().GapSize {
		t.Fatalf("expected default gap_size, got %d", cfg.GapSize)
	}
}

func TestLoadFromPath_OverridesGapSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("gap_size: 10\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GapSize != 10 {
		t.Fatalf("expected gap_size 10, got %d", cfg.GapSize)
	}
	// Fields not present in the file keep their defaults.
	if cfg.EdgeInset != DefaultConfig().EdgeInset {
		t.Fatalf("expected default edge_inset, got %d", cfg.EdgeInset)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("unknown_key: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromPath_HotkeyOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "hotkeys:\n  focus_left: \"Mod1-h\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hotkeys.FocusLeft != "Mod1-h" {
		t.Fatalf("expected overridden focus_left, got %q", cfg.Hotkeys.FocusLeft)
	}
	if cfg.Hotkeys.FocusRight != DefaultConfig().Hotkeys.FocusRight {
		t.Fatalf("expected default focus_right to survive, got %q", cfg.Hotkeys.FocusRight)
	}
}

func TestValidate_RatioBoundsRejected(t *testing.T) {
	cases := []struct {
		name string
		fn   func(*Config)
	}{
		{"min_ratio_too_low", func(c *Config) { c.MinRatio = 0 }},
		{"max_ratio_too_high", func(c *Config) { c.MaxRatio = 1 }},
		{"min_exceeds_max", func(c *Config) { c.MinRatio, c.MaxRatio = 0.6, 0.4 }},
		{"default_outside_bounds", func(c *Config) { c.DefaultRatio = 0.95 }},
		{"tick_interval_too_small", func(c *Config) { c.TickInterval = 50 }},
		{"bad_log_level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.fn(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestExtraBlacklistSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtraBlacklist = []string{"SomeLauncher"}
	set := cfg.ExtraBlacklistSet()
	if !set["SomeLauncher"] {
		t.Fatalf("expected SomeLauncher in extra blacklist set")
	}
	if DefaultConfig().ExtraBlacklistSet() != nil {
		t.Fatalf("expected nil set when ExtraBlacklist is empty")
	}
}
