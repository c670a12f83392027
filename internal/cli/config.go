package cli

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/isalabel/pkg/bender"
	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
)

// configFile is the name looked up in the working directory and in the
// user config directory.
const configFile = appName + ".toml"

// Store backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendMongo = "mongo"
	backendNone  = "none"
)

// Config is the content of isalabel.toml.
type Config struct {
	// Slack is the slack factor of the labeler, in [1, 2].
	Slack float64 `toml:"slack"`
	// Universe is the post of every root label.
	Universe int `toml:"universe"`

	Store StoreConfig `toml:"store"`
}

// StoreConfig selects and configures the label store.
type StoreConfig struct {
	Backend     string        `toml:"backend"`
	Dir         string        `toml:"dir"`
	Prefix      string        `toml:"prefix"`
	LockTimeout time.Duration `toml:"lock_timeout"`

	Redis struct {
		Addr string `toml:"addr"`
	} `toml:"redis"`
	Mongo struct {
		URI      string `toml:"uri"`
		Database string `toml:"database"`
	} `toml:"mongo"`
}

// defaultConfig returns the configuration used when no file is found.
func defaultConfig() Config {
	cfg := Config{
		Slack:    bender.DefaultSlack,
		Universe: hierarchy.DefaultUniversePost,
	}
	cfg.Store.Backend = backendFile
	cfg.Store.LockTimeout = 30 * time.Second
	cfg.Store.Redis.Addr = "localhost:6379"
	cfg.Store.Mongo.URI = "mongodb://localhost:27017"
	cfg.Store.Mongo.Database = appName
	return cfg
}

// loadConfig reads path on top of the defaults. An empty path searches the
// working directory, then the user config directory; finding nothing there
// is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
			}
		case explicit || !stderrors.Is(err, fs.ErrNotExist):
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
	}
	return cfg, cfg.validate()
}

func findConfig() string {
	if _, err := os.Stat(configFile); err == nil {
		return configFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, configFile)
}

func (c Config) validate() error {
	if err := errors.ValidateSlack(c.Slack); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "slack")
	}
	if c.Universe < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "universe must be positive, got %d", c.Universe)
	}
	switch c.Store.Backend {
	case backendFile, backendRedis, backendMongo, backendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	if c.Store.LockTimeout <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "lock_timeout must be positive")
	}
	return nil
}
