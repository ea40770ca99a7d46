package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Duration is a JSON and YAML friendly wrapper around time.Duration that
// accepts human readable strings such as "500ms" in configuration files while
// still allowing numeric representations when necessary.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes the duration using the canonical string representation.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON decodes a duration from either a string (e.g. "250ms") or a
// numeric value representing nanoseconds. Empty strings and null values decode
// to zero.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("duration: empty value")
	}
	if string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("duration: decode string: %w", err)
		}
		return d.parse(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*d = Duration(time.Duration(f))
		return nil
	}
	return fmt.Errorf("duration: invalid value %s", string(b))
}

// MarshalYAML encodes the duration using the canonical string representation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode int: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration: decode string: %w", err)
	}
	return d.parse(s)
}

// UnmarshalText lets environment variables carry durations.
func (d *Duration) UnmarshalText(b []byte) error {
	return d.parse(string(b))
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures the tunable parameters of a map store.
type Config struct {
	World     WorldConfig     `json:"world" yaml:"world"`
	Retention RetentionConfig `json:"retention" yaml:"retention"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Save      SaveConfig      `json:"save" yaml:"save"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

type WorldConfig struct {
	Root               string `json:"root" yaml:"root" env:"MAPSTORE_WORLD_ROOT"`
	GenerationDisabled bool   `json:"generationDisabled" yaml:"generationDisabled" env:"MAPSTORE_DISABLE_GENERATION"`
	ZLevels            bool   `json:"zLevels" yaml:"zLevels"`         // vertical levels stay linked while saving
	ActiveLevel        int    `json:"activeLevel" yaml:"activeLevel"` // level kept in memory without z-levels
}

type RetentionConfig struct {
	Origin      QuadIndex `json:"origin" yaml:"origin"`           // north-west quad of the active map
	HalfMapSize int       `json:"halfMapSize" yaml:"halfMapSize"` // extent of the active map in quads
}

type QuadIndex struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

type StorageConfig struct {
	Compression  string `json:"compression" yaml:"compression" env:"MAPSTORE_COMPRESSION"` // "none" or "zstd"
	DirCacheSize int    `json:"dirCacheSize" yaml:"dirCacheSize"`                          // segment directories remembered as existing
	FileMode     string `json:"fileMode" yaml:"fileMode" env:"MAPSTORE_FILE_MODE"`         // octal permissions of quad files, e.g. "0644"
}

// Mode returns FileMode as permission bits. It is only meaningful after Validate.
func (s StorageConfig) Mode() fs.FileMode {
	mode, _ := parseFileMode(s.FileMode)
	return mode
}

func parseFileMode(s string) (fs.FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	if n > 0o777 || n&0o600 != 0o600 {
		return 0, fmt.Errorf("permissions %#o out of range", n)
	}
	return fs.FileMode(n), nil
}

type SaveConfig struct {
	ProgressInterval Duration `json:"progressInterval" yaml:"progressInterval"` // e.g. "500ms"
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level" env:"MAPSTORE_LOG_LEVEL"`
	Development bool   `json:"development" yaml:"development"`
}

// Load reads configuration from a JSON or YAML file if provided, then applies
// environment overrides. An empty path starts from defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			Root:        "save/world",
			ZLevels:     true,
			ActiveLevel: 0,
		},
		Retention: RetentionConfig{
			Origin:      QuadIndex{X: 0, Y: 0},
			HalfMapSize: 5,
		},
		Storage: StorageConfig{
			Compression:  "none",
			DirCacheSize: 256,
			FileMode:     "0644",
		},
		Save: SaveConfig{
			ProgressInterval: Duration(500 * time.Millisecond),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	if c.World.Root == "" {
		return errors.New("world.root must be set")
	}
	if c.Retention.HalfMapSize < 0 {
		return errors.New("retention.halfMapSize cannot be negative")
	}
	switch c.Storage.Compression {
	case "none", "zstd":
	default:
		return fmt.Errorf("storage.compression must be none or zstd, got %q", c.Storage.Compression)
	}
	if c.Storage.DirCacheSize <= 0 {
		return errors.New("storage.dirCacheSize must be positive")
	}
	if _, err := parseFileMode(c.Storage.FileMode); err != nil {
		return fmt.Errorf("storage.fileMode must be octal permissions readable and writable by the owner, got %q", c.Storage.FileMode)
	}
	if c.Save.ProgressInterval < 0 {
		return errors.New("save.progressInterval cannot be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}
