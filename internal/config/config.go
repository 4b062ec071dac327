// Package config loads phpreflect.toml.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jward/phpreflect/internal/errs"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "phpreflect.toml"

type Config struct {
	Source Source `toml:"source"`
	Cache  Cache  `toml:"cache"`
	Log    Log    `toml:"log"`
	Watch  Watch  `toml:"watch"`
}

type Source struct {
	// Paths are scanned for PHP files.
	Paths   []string `toml:"paths"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	// Composer is a project root whose composer.json autoload section is
	// honoured.
	Composer string `toml:"composer"`
	// Psr4 maps namespace prefixes to directories.
	Psr4 map[string][]string `toml:"psr4"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

// Default is the configuration used without a file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the TOML file at path. An empty path loads DefaultFile when it
// exists and the defaults otherwise.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errs.Wrap(err, errs.CodeInvalidConfig, "read "+path)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errs.Wrap(err, errs.CodeInvalidConfig, "decode "+path)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Source.Paths) == 0 {
		cfg.Source.Paths = []string{"."}
	}
	if len(cfg.Source.Include) == 0 {
		cfg.Source.Include = []string{"**.php"}
	}
	if len(cfg.Source.Exclude) == 0 {
		cfg.Source.Exclude = []string{".git", "**/.git"}
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = filepath.Join(".phpreflect", "cache.db")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func validate(cfg *Config) error {
	if err := validateLog(cfg.Log); err != nil {
		return err
	}
	if cfg.Watch.Debounce < 0 {
		return errs.Newf(errs.CodeInvalidConfig, "watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	for prefix, dirs := range cfg.Source.Psr4 {
		if len(dirs) == 0 {
			return errs.Newf(errs.CodeInvalidConfig, "source.psr4: prefix %q has no directories", prefix)
		}
	}
	return nil
}

func validateLog(l Log) error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errs.Newf(errs.CodeInvalidConfig, "log.level must be debug, info, warn or error, got %q", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "text", "json":
	default:
		return errs.Newf(errs.CodeInvalidConfig, "log.format must be text or json, got %q", l.Format)
	}
	return nil
}
