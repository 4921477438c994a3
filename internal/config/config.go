// Package config loads sprite-mcp settings from an optional YAML file and
// SPRITE_MCP_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ironsheep/sprite-tools-mcp/internal/detection"
)

// EnvPrefix prefixes every environment override, e.g.
// SPRITE_MCP_DETECTION_MERGE_THRESHOLD=0.
const EnvPrefix = "SPRITE_MCP"

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Detection DetectionConfig `mapstructure:"detection"`
	Grid      GridConfig      `mapstructure:"grid"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Store     StoreConfig     `mapstructure:"store"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	Mode  string `mapstructure:"mode"`  // development or production
}

type DetectionConfig struct {
	MinSpriteSize            int  `mapstructure:"min_sprite_size"`
	AlphaThreshold           int  `mapstructure:"alpha_threshold"`
	MergeThreshold           int  `mapstructure:"merge_threshold"`
	ColorKey                 bool `mapstructure:"color_key"`
	KeepIrregularCollections bool `mapstructure:"keep_irregular_collections"`
}

type GridConfig struct {
	MaxFrameSize int `mapstructure:"max_frame_size"`
	MaxOffset    int `mapstructure:"max_offset"`
	MaxSpacing   int `mapstructure:"max_spacing"`

	// AutoAlphaThreshold separates content from empty margins and gaps
	// during grid auto-detection.
	AutoAlphaThreshold int `mapstructure:"auto_alpha_threshold"`
}

type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"`
	Mode           string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type StoreConfig struct {
	Backend  string        `mapstructure:"backend"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Load reads configuration from configPath (YAML) layered over defaults and
// environment variables. An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without consulting files or the
// environment.
func Default() *Config {
	defaults := detection.DefaultOptions()
	limits := detection.DefaultGridLimits()
	return &Config{
		Log: LogConfig{
			Level: "info",
			Mode:  "development",
		},
		Detection: DetectionConfig{
			MinSpriteSize:  defaults.MinSpriteSize,
			AlphaThreshold: defaults.AlphaThreshold,
			MergeThreshold: defaults.MergeThreshold,
		},
		Grid: GridConfig{
			MaxFrameSize: limits.MaxFrameSize,
			MaxOffset:    limits.MaxOffset,
			MaxSpacing:   limits.MaxSpacing,

			AutoAlphaThreshold: detection.DefaultAutoGridAlphaThreshold,
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			Mode:           "release",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxUploadBytes: 20 * 1024 * 1024,
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			Addr:    "localhost:6379",
			TTL:     24 * time.Hour,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.mode", d.Log.Mode)

	v.SetDefault("detection.min_sprite_size", d.Detection.MinSpriteSize)
	v.SetDefault("detection.alpha_threshold", d.Detection.AlphaThreshold)
	v.SetDefault("detection.merge_threshold", d.Detection.MergeThreshold)
	v.SetDefault("detection.color_key", d.Detection.ColorKey)
	v.SetDefault("detection.keep_irregular_collections", d.Detection.KeepIrregularCollections)

	v.SetDefault("grid.max_frame_size", d.Grid.MaxFrameSize)
	v.SetDefault("grid.max_offset", d.Grid.MaxOffset)
	v.SetDefault("grid.max_spacing", d.Grid.MaxSpacing)
	v.SetDefault("grid.auto_alpha_threshold", d.Grid.AutoAlphaThreshold)

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.mode", d.HTTP.Mode)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.max_upload_bytes", d.HTTP.MaxUploadBytes)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.addr", d.Store.Addr)
	v.SetDefault("store.password", d.Store.Password)
	v.SetDefault("store.db", d.Store.DB)
	v.SetDefault("store.ttl", d.Store.TTL)
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if err := c.Detection.Options().Validate(); err != nil {
		return fmt.Errorf("invalid detection config: %w", err)
	}
	if c.Grid.MaxFrameSize < 0 || c.Grid.MaxOffset < 0 || c.Grid.MaxSpacing < 0 {
		return fmt.Errorf("invalid grid config: limits cannot be negative")
	}
	if c.Grid.AutoAlphaThreshold < 0 || c.Grid.AutoAlphaThreshold > 255 {
		return fmt.Errorf("invalid grid config: auto_alpha_threshold must be between 0 and 255")
	}
	switch c.Store.Backend {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid store backend %q: must be %q or %q", c.Store.Backend, StoreMemory, StoreRedis)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid http config: max_upload_bytes must be positive")
	}
	return nil
}

// Options converts the detection section into pipeline options.
func (d DetectionConfig) Options() detection.Options {
	return detection.Options{
		MinSpriteSize:            d.MinSpriteSize,
		AlphaThreshold:           d.AlphaThreshold,
		MergeThreshold:           d.MergeThreshold,
		ColorKey:                 d.ColorKey,
		KeepIrregularCollections: d.KeepIrregularCollections,
	}
}

// Limits converts the grid section into slicing limits.
func (g GridConfig) Limits() detection.GridLimits {
	return detection.GridLimits{
		MaxFrameSize: g.MaxFrameSize,
		MaxOffset:    g.MaxOffset,
		MaxSpacing:   g.MaxSpacing,
	}
}
