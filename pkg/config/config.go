// Package config merges defaults, the litgraph.toml file, LITGRAPH_
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/litgraph/pkg/catalog"
	"github.com/ritzau/litgraph/pkg/model"
)

// DefaultFile is the optional configuration file read from the working
// directory
const DefaultFile = "litgraph.toml"

// EnvPrefix prefixes environment overrides, e.g. LITGRAPH_PORT=9090
const EnvPrefix = "LITGRAPH_"

// Config holds all configuration for the application
type Config struct {
	Data   string `koanf:"data"`
	Themes string `koanf:"themes"`

	WebMode     bool `koanf:"web"`
	Port        int  `koanf:"port"`
	Watch       bool `koanf:"watch"`
	OpenBrowser bool `koanf:"open"`

	Arrangement string  `koanf:"arrangement"`
	Focus       string  `koanf:"focus"`
	Style       string  `koanf:"style"`
	Width       float64 `koanf:"width"`
	Height      float64 `koanf:"height"`

	Ticks        int           `koanf:"ticks"`
	TickInterval time.Duration `koanf:"tick-interval"`
	FPS          float64       `koanf:"fps"`
	SVG          string        `koanf:"svg"`

	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	LogJSON    bool   `koanf:"log-json"`
}

func defaults() map[string]interface{} {
	paths := catalog.PathsIn("data")
	return map[string]interface{}{
		"data":          paths.Data,
		"themes":        paths.Theme,
		"web":           false,
		"port":          8080,
		"watch":         false,
		"open":          true,
		"arrangement":   model.ArrangementForce.String(),
		"focus":         model.FocusLiterary.String(),
		"style":         model.StyleDetailed.String(),
		"width":         1200.0,
		"height":        800.0,
		"ticks":         1000,
		"tick-interval": "16ms",
		"fps":           30.0,
		"svg":           "",
		"verbosity":     "",
		"verbose":       0,
		"log-json":      false,
	}
}

// RegisterFlags adds the command line flags that Load reads
func RegisterFlags(f *pflag.FlagSet) {
	d := defaults()
	f.String("data", d["data"].(string), "Path to the works data file")
	f.String("themes", d["themes"].(string), "Path to the theme configuration file")
	f.Bool("web", false, "Start the web server instead of printing a report")
	f.Int("port", d["port"].(int), "Port for the web server")
	f.Bool("watch", false, "Reload the catalog when its files change (web mode)")
	f.Bool("open", d["open"].(bool), "Open the browser (web mode)")
	f.String("arrangement", d["arrangement"].(string), "Arrangement: force, chronological or thematic")
	f.String("focus", d["focus"].(string), "Focus: historical, literary or thematic")
	f.String("style", d["style"].(string), "Style: detailed, minimal or animated")
	f.Float64("width", d["width"].(float64), "Viewport width")
	f.Float64("height", d["height"].(float64), "Viewport height")
	f.Int("ticks", d["ticks"].(int), "Maximum simulation steps in report mode")
	f.Duration("tick-interval", 16*time.Millisecond, "Simulation step period (web mode)")
	f.Float64("fps", d["fps"].(float64), "Maximum published frames per second (web mode)")
	f.String("svg", "", "Write an SVG snapshot of the settled layout to this file")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.Bool("log-json", false, "Log in JSON format")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(DefaultFile, f)
}

// LoadFile is Load with an explicit configuration file path. A missing file
// is not an error.
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	// 3. Environment variables: LITGRAPH_TICK_INTERVAL sets tick-interval
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := cfg.Preferences(); err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid viewport %vx%v", cfg.Width, cfg.Height)
	}

	return &cfg, nil
}

// Preferences parses the configured arrangement, focus and style
func (c *Config) Preferences() (model.Preferences, error) {
	return model.ParsePreferences(c.Arrangement, c.Focus, c.Style)
}

// Paths returns the catalog file locations
func (c *Config) Paths() catalog.Paths {
	return catalog.Paths{Data: c.Data, Theme: c.Themes}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
