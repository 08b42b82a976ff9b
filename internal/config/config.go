// Package config holds the daemon's YAML-backed configuration: tiling
// geometry defaults, hotkey bindings per action, hotplug/tick timing, and
// window-class blacklist additions. It is grounded on the predecessor's
// internal/config package (Config struct, ValidationError, Save/Load
// shape, gopkg.in/yaml.v3 usage) with the include-file, project-workspace
// overlay, and source-tracking machinery dropped — this daemon has a
// single global config file and no per-project overlays.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ValidationError reports a single invalid field, identified by its
// YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Hotkeys maps each dispatchable action to its X keybinding string, in
// the xgbutil/keybind modifier-dash-key syntax (e.g. "Mod4-h").
type Hotkeys struct {
	FocusLeft           string `yaml:"focus_left"`
	FocusRight          string `yaml:"focus_right"`
	FocusUp             string `yaml:"focus_up"`
	FocusDown           string `yaml:"focus_down"`
	SwapLeft            string `yaml:"swap_left"`
	SwapRight           string `yaml:"swap_right"`
	SwapUp              string `yaml:"swap_up"`
	SwapDown            string `yaml:"swap_down"`
	SwitchWorkspacePre  string `yaml:"switch_workspace_prefix"` // + "1".."9"
	MoveToWorkspacePre  string `yaml:"move_to_workspace_prefix"`
	Close               string `yaml:"close"`
	ToggleFloat         string `yaml:"toggle_float"`
	ToggleFullscreen    string `yaml:"toggle_fullscreen"`
	ToggleStatusBar     string `yaml:"toggle_status_bar"`
	FlipNode            string `yaml:"flip_node"`
	ResizeHorizGrow     string `yaml:"resize_horiz_grow"`
	ResizeHorizShrink   string `yaml:"resize_horiz_shrink"`
	ResizeVertGrow      string `yaml:"resize_vert_grow"`
	ResizeVertShrink    string `yaml:"resize_vert_shrink"`
	MoveMonitorLeft     string `yaml:"move_monitor_left"`
	MoveMonitorRight    string `yaml:"move_monitor_right"`
	Exit                string `yaml:"exit"`
}

// Config holds the daemon's effective configuration.
type Config struct {
	Display    string `yaml:"display,omitempty"`
	XAuthority string `yaml:"xauthority,omitempty"`

	GapSize      int     `yaml:"gap_size"`
	EdgeInset    int     `yaml:"edge_inset"`
	DefaultRatio float64 `yaml:"default_ratio"`
	MinRatio     float64 `yaml:"min_ratio"`
	MaxRatio     float64 `yaml:"max_ratio"`
	ResizeStep   float64 `yaml:"resize_step"`

	StatusBarEnabled bool `yaml:"status_bar_enabled"`
	StatusBarHeight  int  `yaml:"status_bar_height"`

	TickInterval     int `yaml:"tick_interval_ms"`     // >= 250
	HotplugDebounce  int `yaml:"hotplug_debounce_ms"`  // >= 0

	Hotkeys Hotkeys `yaml:"hotkeys"`

	// ExtraBlacklist supplements the built-in window-class blacklist
	// (spec.md §4.1) without replacing it.
	ExtraBlacklist []string `yaml:"extra_blacklist,omitempty"`

	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		GapSize:      4,
		EdgeInset:    2,
		DefaultRatio: 0.5,
		MinRatio:     0.1,
		MaxRatio:     0.9,
		ResizeStep:   0.05,

		StatusBarEnabled: true,
		StatusBarHeight:  24,

		TickInterval:    250,
		HotplugDebounce: 500,

		Hotkeys: Hotkeys{
			FocusLeft:          "Mod4-h",
			FocusRight:         "Mod4-l",
			FocusUp:            "Mod4-k",
			FocusDown:          "Mod4-j",
			SwapLeft:           "Mod4-Shift-h",
			SwapRight:          "Mod4-Shift-l",
			SwapUp:             "Mod4-Shift-k",
			SwapDown:           "Mod4-Shift-j",
			SwitchWorkspacePre: "Mod4",
			MoveToWorkspacePre: "Mod4-Shift",
			Close:              "Mod4-q",
			ToggleFloat:        "Mod4-space",
			ToggleFullscreen:   "Mod4-f",
			ToggleStatusBar:    "Mod4-b",
			FlipNode:           "Mod4-r",
			ResizeHorizGrow:    "Mod4-Control-l",
			ResizeHorizShrink:  "Mod4-Control-h",
			ResizeVertGrow:     "Mod4-Control-j",
			ResizeVertShrink:   "Mod4-Control-k",
			MoveMonitorLeft:    "Mod4-Control-Shift-h",
			MoveMonitorRight:   "Mod4-Control-Shift-l",
			Exit:               "Mod4-Shift-e",
		},

		LogLevel: "info",
	}
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.GapSize < 0 {
		return &ValidationError{Path: "gap_size", Err: fmt.Errorf("gap_size must be >= 0")}
	}
	if c.EdgeInset < 0 {
		return &ValidationError{Path: "edge_inset", Err: fmt.Errorf("edge_inset must be >= 0")}
	}
	if c.MinRatio <= 0 || c.MinRatio >= 1 {
		return &ValidationError{Path: "min_ratio", Err: fmt.Errorf("min_ratio must be in (0, 1)")}
	}
	if c.MaxRatio <= 0 || c.MaxRatio >= 1 {
		return &ValidationError{Path: "max_ratio", Err: fmt.Errorf("max_ratio must be in (0, 1)")}
	}
	if c.MinRatio >= c.MaxRatio {
		return &ValidationError{Path: "min_ratio", Err: fmt.Errorf("min_ratio must be less than max_ratio")}
	}
	if c.DefaultRatio < c.MinRatio || c.DefaultRatio > c.MaxRatio {
		return &ValidationError{Path: "default_ratio", Err: fmt.Errorf("default_ratio must be within [min_ratio, max_ratio]")}
	}
	if c.ResizeStep <= 0 {
		return &ValidationError{Path: "resize_step", Err: fmt.Errorf("resize_step must be > 0")}
	}
	if c.StatusBarHeight < 0 {
		return &ValidationError{Path: "status_bar_height", Err: fmt.Errorf("status_bar_height must be >= 0")}
	}
	if c.TickInterval < 250 {
		return &ValidationError{Path: "tick_interval_ms", Err: fmt.Errorf("tick_interval_ms must be >= 250")}
	}
	if c.HotplugDebounce < 0 {
		return &ValidationError{Path: "hotplug_debounce_ms", Err: fmt.Errorf("hotplug_debounce_ms must be >= 0")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	return nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExtraBlacklistSet returns ExtraBlacklist as a lookup set, for
// filter.Admit's extraBlacklist parameter.
func (c *Config) ExtraBlacklistSet() map[string]bool {
	if len(c.ExtraBlacklist) == 0 {
		return nil
	}
	out := make(map[string]bool, len(c.ExtraBlacklist))
	for _, class := range c.ExtraBlacklist {
		out[class] = true
	}
	return out
}
