// ABOUTME: Configuration loading with storage backend and reading list selection
// ABOUTME: Merges config.json, .env and READLIST_* environment variables via viper

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/harper/readlist/internal/charm"
	"github.com/harper/readlist/internal/fetch"
	"github.com/harper/readlist/internal/logger"
	"github.com/harper/readlist/internal/readinglist"
	"github.com/harper/readlist/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment override, e.g. READLIST_BACKEND.
const EnvPrefix = "READLIST"

// Config stores readlist configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "charm".
	Backend string `mapstructure:"backend" default:"sqlite"`

	// DataDir is the root directory for local data. Supports ~ expansion.
	// Defaults to ~/.local/share/readlist.
	DataDir string `mapstructure:"data_dir" default:""`

	Source SourceConfig `mapstructure:"source"`

	SyncInterval   time.Duration `mapstructure:"sync_interval" default:"15m"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"30s"`

	// ExtractOnSync enriches new entries after each reconciliation.
	ExtractOnSync bool `mapstructure:"extract_on_sync" default:"false"`

	Log logger.Config `mapstructure:"log"`
}

// SourceConfig selects the reading list mirrored by readlist.
type SourceConfig struct {
	// Kind is "file" (default), "memory" or "feed".
	Kind string `mapstructure:"kind" default:"file"`
	// Path is the reading list file for the file kind.
	Path string `mapstructure:"path" default:""`
	// URL is the feed address for the feed kind.
	URL string `mapstructure:"url" default:""`
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "readlist", "config.json")
}

// Load reads the config at path, or at GetConfigPath when path is empty.
// A missing file yields the defaults, which are written out for next time.
// Values from .env and the environment override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	// Real environment variables win over .env.
	_ = godotenv.Load()

	v := viper.New()
	bindValues(v, Config{}, "")
	v.SetConfigFile(path)
	v.SetConfigType("json")

	firstRun := false
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		firstRun = true
	} else {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if firstRun {
		if err := Default().Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", err)
		}
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend:        "sqlite",
		Source:         SourceConfig{Kind: "file"},
		SyncInterval:   DefaultSyncInterval,
		RequestTimeout: DefaultHTTPTimeout,
		Log:            logger.Config{Level: "info", Format: "console"},
	}
}

// Validate checks enumerated values and durations.
func (c *Config) Validate() error {
	switch c.Backend {
	case "sqlite", "charm":
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	switch c.Source.Kind {
	case "file", "memory":
	case "feed":
		if c.Source.URL == "" {
			return errors.New("source.url is required for a feed reading list")
		}
	default:
		return fmt.Errorf("unknown reading list kind: %q", c.Source.Kind)
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive, got %s", c.SyncInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Save writes the config as JSON to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPerms); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.Set("backend", c.Backend)
	if c.DataDir != "" {
		v.Set("data_dir", c.DataDir)
	}
	v.Set("source.kind", c.Source.Kind)
	if c.Source.Path != "" {
		v.Set("source.path", c.Source.Path)
	}
	if c.Source.URL != "" {
		v.Set("source.url", c.Source.URL)
	}
	v.Set("sync_interval", c.SyncInterval.String())
	v.Set("request_timeout", c.RequestTimeout.String())
	v.Set("extract_on_sync", c.ExtractOnSync)
	v.Set("log.level", c.Log.Level)
	v.Set("log.format", c.Log.Format)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetSourcePath returns the reading list file used by the file kind.
func (c *Config) GetSourcePath() string {
	if c.Source.Path == "" {
		return filepath.Join(c.GetDataDir(), DefaultSourceFilename)
	}
	return ExpandPath(c.Source.Path)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Store implementation based on the configured backend.
func (c *Config) OpenStorage(log *zap.Logger) (storage.Store, error) {
	switch c.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStore(filepath.Join(c.GetDataDir(), DefaultDBFilename), storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "charm":
		store, err := storage.NewCharmStore(charm.NewClient(), storage.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", c.Backend)
	}
}

// OpenSource creates the configured reading list.
func (c *Config) OpenSource(log *zap.Logger) (readinglist.Source, error) {
	switch c.Source.Kind {
	case "file":
		return readinglist.NewFileSource(c.GetSourcePath(), log), nil
	case "memory":
		return readinglist.NewMemorySource(log), nil
	case "feed":
		return readinglist.NewFeedSource(c.Source.URL, fetch.New(c.RequestTimeout), log), nil
	default:
		return nil, fmt.Errorf("unknown reading list kind: %q", c.Source.Kind)
	}
}

// defaultDataDir returns the standard XDG data directory for readlist.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "readlist")
}

// bindValues registers every mapstructure key with its default tag value so
// AutomaticEnv can see it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}
