// Package config loads the iconpane configuration: defaults, then an optional
// TOML file, then ICONPANE_* environment variables.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "iconpane"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// EnvPrefix prefixes the environment overrides.
	EnvPrefix = "ICONPANE"
)

// Config is the complete application configuration.
type Config struct {
	ManifestsDir string        `mapstructure:"manifests_dir" toml:"manifests_dir"`
	AssetsDir    string        `mapstructure:"assets_dir" toml:"assets_dir"`
	Cache        CacheConfig   `mapstructure:"cache" toml:"cache"`
	Preload      PreloadConfig `mapstructure:"preload" toml:"preload"`
	Packages     PackageConfig `mapstructure:"packages" toml:"packages"`
	Render       RenderConfig  `mapstructure:"render" toml:"render"`
	Insert       InsertConfig  `mapstructure:"insert" toml:"insert"`
	HTTP         HTTPConfig    `mapstructure:"http" toml:"http"`
	Log          LogConfig     `mapstructure:"log" toml:"log"`
}

// CacheConfig selects the session cache backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend" toml:"backend"`
	Path    string `mapstructure:"path" toml:"path"`
	// MaxAge drops persisted entries older than this duration when the cache opens.
	// Empty keeps everything.
	MaxAge string `mapstructure:"max_age" toml:"max_age"`
}

// PackageConfig declares how bundled icon packages are compressed.
type PackageConfig struct {
	// Scheme applies to libraries without an entry in Schemes. Empty detects the scheme.
	Scheme  string            `mapstructure:"scheme" toml:"scheme"`
	Schemes map[string]string `mapstructure:"schemes" toml:"schemes,omitempty"`
}

// PreloadConfig bounds cross-library manifest loading.
type PreloadConfig struct {
	BatchSize int `mapstructure:"batch_size" toml:"batch_size"`
}

// RenderConfig holds the default render style.
type RenderConfig struct {
	Size       int    `mapstructure:"size" toml:"size"`
	Color      string `mapstructure:"color" toml:"color"`
	Background string `mapstructure:"background" toml:"background"`
	Format     string `mapstructure:"format" toml:"format"`
}

// InsertConfig holds the placement of inserted images.
type InsertConfig struct {
	Left float64 `mapstructure:"left" toml:"left"`
	Top  float64 `mapstructure:"top" toml:"top"`
}

// HTTPConfig configures CDN requests.
type HTTPConfig struct {
	UserAgent string `mapstructure:"user_agent" toml:"user_agent"`
	// ManifestsURL, when set, is used instead of ManifestsDir.
	ManifestsURL string `mapstructure:"manifests_url" toml:"manifests_url"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ManifestsDir: "manifests",
		AssetsDir:    "assets",
		Cache:        CacheConfig{Backend: "memory", MaxAge: "720h"},
		Preload:      PreloadConfig{BatchSize: 4},
		Render:       RenderConfig{Size: 96, Color: "#000000", Format: "png"},
		Insert:       InsertConfig{Left: 100, Top: 100},
		HTTP:         HTTPConfig{UserAgent: AppName},
		Log:          LogConfig{Level: "info"},
	}
}

// Dir returns the configuration directory: $XDG_CONFIG_HOME/iconpane, or
// ~/.config/iconpane when XDG_CONFIG_HOME is unset.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultPath returns the location of the config file inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads the configuration. An explicit path must exist; without one the
// default location is used when a file is present there. It returns the path
// of the file that was read, if any.
func Load(ctx context.Context, path string) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolved := ""
	if path != "" {
		if !fileExists(path) {
			return nil, "", fmt.Errorf("config file not found: %s", path)
		}
		resolved = path
	} else if p, err := DefaultPath(); err == nil && fileExists(p) {
		resolved = p
	}
	if resolved != "" {
		v.SetConfigFile(resolved)
		v.SetConfigType(ConfigFileExt)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", resolved, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("manifests_dir", d.ManifestsDir)
	v.SetDefault("assets_dir", d.AssetsDir)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.max_age", d.Cache.MaxAge)
	v.SetDefault("preload.batch_size", d.Preload.BatchSize)
	v.SetDefault("packages.scheme", d.Packages.Scheme)
	v.SetDefault("render.size", d.Render.Size)
	v.SetDefault("render.color", d.Render.Color)
	v.SetDefault("render.background", d.Render.Background)
	v.SetDefault("render.format", d.Render.Format)
	v.SetDefault("insert.left", d.Insert.Left)
	v.SetDefault("insert.top", d.Insert.Top)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.manifests_url", d.HTTP.ManifestsURL)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks the values that cannot be fixed up silently.
func (c *Config) Validate() error {
	var errs []error
	switch c.Cache.Backend {
	case "memory", "none":
	case "sqlite":
		if c.Cache.Path == "" {
			errs = append(errs, errors.New("cache.path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of memory, sqlite, none", c.Cache.Backend))
	}
	if c.Cache.MaxAge != "" {
		if _, err := c.CacheMaxAge(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Render.Size <= 0 {
		errs = append(errs, fmt.Errorf("render.size must be positive, got %d", c.Render.Size))
	}
	if c.Preload.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("preload.batch_size must be positive, got %d", c.Preload.BatchSize))
	}
	return errors.Join(errs...)
}

// CacheMaxAge parses cache.max_age. Zero means entries never expire.
func (c *Config) CacheMaxAge() (time.Duration, error) {
	if c.Cache.MaxAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.MaxAge)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("cache.max_age %q is not a positive duration", c.Cache.MaxAge)
	}
	return d, nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path, creating its directory.
// An existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if fileExists(path) && !force {
		return fmt.Errorf("config file already exists: %s", path)
	}
	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
