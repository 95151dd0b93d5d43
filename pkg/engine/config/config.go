// Package config provides Viper-based configuration loading for the engine.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"duskwalk/pkg/engine/logging"
)

// WindowConfig holds display window settings.
type WindowConfig struct {
	// Size is the window size as [width, height] in pixels.
	Size []int `mapstructure:"size"`
}

// Width returns the configured window width.
func (w WindowConfig) Width() int { return w.Size[0] }

// Height returns the configured window height.
func (w WindowConfig) Height() int { return w.Size[1] }

// NavigationConfig holds the fractional margins that shape the on-screen
// navigation regions, and the indicator icon placement settings.
type NavigationConfig struct {
	// EdgeMarginWidth is the fraction of the window kept clear at each edge
	// before an edge band starts matching along its long side.
	EdgeMarginWidth float64 `mapstructure:"edge_margin_width"`
	// EdgeRegionBreadth is the fraction of the window each edge band extends
	// inward from its screen edge.
	EdgeRegionBreadth float64 `mapstructure:"edge_region_breadth"`
	// ForwardRegionWidth is the fraction of the window covered by the
	// centered forward/backward band.
	ForwardRegionWidth float64 `mapstructure:"forward_region_width"`
	// IndicatorPadding is the pixel gap between an indicator and its edge.
	IndicatorPadding int `mapstructure:"indicator_padding"`
	// IndicatorSize is the size indicator icons are scaled to, [w, h].
	IndicatorSize []int `mapstructure:"indicator_size"`
}

// GUIConfig holds text dialog placement settings.
type GUIConfig struct {
	TextboxHeight       int `mapstructure:"textbox_height"`
	TextboxMarginBottom int `mapstructure:"textbox_margin_bottom"`
	TextboxMarginSides  int `mapstructure:"textbox_margin_sides"`
}

// AudioConfig holds default mixer volumes.
type AudioConfig struct {
	MusicVolume float64 `mapstructure:"music_volume"`
	SFXVolume   float64 `mapstructure:"sfx_volume"`
}

// RedisConfig holds connection settings for the redis session store backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig selects and configures the session store backend.
type DatabaseConfig struct {
	// Driver is the session store backend: "file" or "redis".
	Driver string `mapstructure:"driver"`
	// Path is the session database file, used by the file driver.
	Path string `mapstructure:"path"`
	// Redis configures the redis driver.
	Redis RedisConfig `mapstructure:"redis"`
}

// Config is the top-level engine configuration.
type Config struct {
	Window     WindowConfig     `mapstructure:"window"`
	World      string           `mapstructure:"world"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	GUI        GUIConfig        `mapstructure:"gui"`
	Audio      AudioConfig      `mapstructure:"audio"`
	Log        logging.Config   `mapstructure:"log"`
}

// Load reads and validates the engine configuration from a JSON file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.driver", "file")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateWindow(c.Window); err != nil {
		errs = append(errs, err.Error())
	}
	if c.World == "" {
		errs = append(errs, "world must not be empty")
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateNavigation(c.Navigation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGUI(c.GUI); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAudio(c.Audio); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLog(c.Log); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateWindow(w WindowConfig) error {
	if len(w.Size) != 2 {
		return errors.New("window.size must be [width, height]")
	}
	if w.Size[0] < 1 || w.Size[1] < 1 {
		return fmt.Errorf("window.size must be positive, got %dx%d", w.Size[0], w.Size[1])
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	switch d.Driver {
	case "file":
		if d.Path == "" {
			errs = append(errs, "database.path must not be empty for the file driver")
		}
	case "redis":
		if d.Redis.Addr == "" {
			errs = append(errs, "database.redis.addr must not be empty for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be one of [file, redis], got %q", d.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateNavigation(n NavigationConfig) error {
	var errs []string
	if n.EdgeMarginWidth <= 0 || n.EdgeMarginWidth >= 1 {
		errs = append(errs, fmt.Sprintf("navigation.edge_margin_width must be in (0, 1), got %v", n.EdgeMarginWidth))
	}
	if n.EdgeRegionBreadth <= 0 || n.EdgeRegionBreadth >= 1 {
		errs = append(errs, fmt.Sprintf("navigation.edge_region_breadth must be in (0, 1), got %v", n.EdgeRegionBreadth))
	}
	if n.ForwardRegionWidth <= 0 || n.ForwardRegionWidth >= 1 {
		errs = append(errs, fmt.Sprintf("navigation.forward_region_width must be in (0, 1), got %v", n.ForwardRegionWidth))
	}
	if n.IndicatorPadding < 0 {
		errs = append(errs, "navigation.indicator_padding must not be negative")
	}
	if len(n.IndicatorSize) != 2 || n.IndicatorSize[0] < 1 || n.IndicatorSize[1] < 1 {
		errs = append(errs, "navigation.indicator_size must be a positive [width, height]")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGUI(g GUIConfig) error {
	var errs []string
	if g.TextboxHeight < 1 {
		errs = append(errs, "gui.textbox_height must be positive")
	}
	if g.TextboxMarginBottom < 0 {
		errs = append(errs, "gui.textbox_margin_bottom must not be negative")
	}
	if g.TextboxMarginSides < 0 {
		errs = append(errs, "gui.textbox_margin_sides must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAudio(a AudioConfig) error {
	var errs []string
	if a.MusicVolume < 0 || a.MusicVolume > 1 {
		errs = append(errs, fmt.Sprintf("audio.music_volume must be in [0, 1], got %v", a.MusicVolume))
	}
	if a.SFXVolume < 0 || a.SFXVolume > 1 {
		errs = append(errs, fmt.Sprintf("audio.sfx_volume must be in [0, 1], got %v", a.SFXVolume))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLog(l logging.Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("log.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	if l.Format != "json" && l.Format != "console" {
		return fmt.Errorf("log.format must be \"json\" or \"console\", got %q", l.Format)
	}
	return nil
}
