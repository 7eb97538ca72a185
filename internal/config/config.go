// Package config loads the TOML configuration shared by the CLI and the
// server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pdrpinto/astar"
)

// ErrInvalid is returned for configuration that fails validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the whole configuration file.
type Config struct {
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Search  SearchConfig  `toml:"search" yaml:"search"`
	Grid    GridConfig    `toml:"grid" yaml:"grid"`
	Transit TransitConfig `toml:"transit" yaml:"transit"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr        string        `toml:"addr" yaml:"addr" validate:"required,hostname_port"`
	MaxSessions int           `toml:"max_sessions" yaml:"max_sessions" validate:"min=1"`
	SessionTTL  time.Duration `toml:"session_ttl" yaml:"session_ttl"`
	// RateLimit caps API requests per second across all clients, 0 disables it.
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `toml:"burst" yaml:"burst" validate:"min=0"`
}

type SearchConfig struct {
	Workers int    `toml:"workers" yaml:"workers" validate:"min=0"`
	OpenSet string `toml:"open_set" yaml:"open_set" validate:"openset"`
}

// GridConfig sizes the random grids served to the visualizer and the mazes
// generated by the CLI.
type GridConfig struct {
	Width      int     `toml:"width" yaml:"width" validate:"min=5,max=500"`
	Height     int     `toml:"height" yaml:"height" validate:"min=5,max=500"`
	Clusters   int     `toml:"clusters" yaml:"clusters" validate:"min=0"`
	Steps      int     `toml:"steps" yaml:"steps" validate:"min=0"`
	Density    float64 `toml:"density" yaml:"density" validate:"gte=0,lte=1"`
	MazeWidth  int     `toml:"maze_width" yaml:"maze_width" validate:"min=1,max=200"`
	MazeHeight int     `toml:"maze_height" yaml:"maze_height" validate:"min=1,max=200"`
}

// TransitConfig points at the network served by the route endpoint.
type TransitConfig struct {
	Stations string `toml:"stations" yaml:"stations" validate:"required_with=Routes"`
	Routes   string `toml:"routes" yaml:"routes" validate:"required_with=Stations"`
}

type CacheConfig struct {
	Backend  string        `toml:"backend" yaml:"backend" validate:"oneof=none memory redis"`
	Addr     string        `toml:"addr" yaml:"addr" validate:"required_if=Backend redis"`
	Password string        `toml:"password" yaml:"password"`
	DB       int           `toml:"db" yaml:"db" validate:"min=0"`
	Prefix   string        `toml:"prefix" yaml:"prefix"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        "localhost:8080",
			MaxSessions: 64,
			SessionTTL:  30 * time.Minute,
			Burst:       20,
		},
		Search: SearchConfig{
			Workers: runtime.NumCPU(),
			OpenSet: astar.OpenSetAuto.String(),
		},
		Grid: GridConfig{
			Width:      40,
			Height:     24,
			Clusters:   8,
			Steps:      200,
			Density:    0.25,
			MazeWidth:  12,
			MazeHeight: 8,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Prefix:  "astar:",
			TTL:     time.Hour,
		},
		Log: LogConfig{Level: "info"},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("openset", func(fl validator.FieldLevel) bool {
		_, ok := astar.ParseOpenSetKind(fl.Field().String())
		return ok
	})
	return v
}

// Load decodes the file at path on top of Default and validates the result.
// Files ending in .yaml or .yml are read as YAML, anything else as TOML.
// Unknown keys are rejected. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		err = decodeTOML(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			problems := make([]string, len(fieldErrors))
			for i, fieldError := range fieldErrors {
				problems[i] = fmt.Sprintf("%s fails %q", fieldError.Namespace(), fieldError.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Cache.TTL < 0 || c.Server.SessionTTL < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalid)
	}
	return nil
}

// Options turns the search section into astar options.
func (s SearchConfig) Options() []astar.Option {
	kind, _ := astar.ParseOpenSetKind(s.OpenSet)
	options := []astar.Option{astar.WithOpenSet(kind)}
	if s.Workers > 0 {
		options = append(options, astar.WithWorkers(s.Workers))
	}
	return options
}
