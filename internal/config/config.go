package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env      string   `mapstructure:"env"` // local or production
	API      API      `mapstructure:"api"`
	Audio    Audio    `mapstructure:"audio"`
	Search   Search   `mapstructure:"search"`
	Log      Log      `mapstructure:"log"`
	Cache    Cache    `mapstructure:"cache"`
	Download Download `mapstructure:"download"`
}

type API struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Audio struct {
	Player  string `mapstructure:"player"`  // command line, the URL is appended
	Reciter string `mapstructure:"reciter"` // default reciter key, e.g. "01"
}

type Search struct {
	Debounce  time.Duration `mapstructure:"debounce"`
	MinLength int           `mapstructure:"min_length"`
	Limit     int           `mapstructure:"limit"`
}

type Log struct {
	File string `mapstructure:"file"` // empty disables logging in the TUI
}

type Cache struct {
	Offline bool   `mapstructure:"offline"` // read chapters from the offline cache first
	Dir     string `mapstructure:"dir"`
}

type Download struct {
	Concurrency int     `mapstructure:"concurrency"`
	RPS         float64 `mapstructure:"rps"`
}

// Load reads configuration from a config file and environment variables.
// An explicit path must exist; otherwise config.yaml is looked up in ./config
// and the user config directory, and a missing file is not an error.
func Load(path string) (*Config, error) {
	// A .env file only seeds variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "quran-tui"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("quran")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("api.base_url", "https://equran.id/api/v2")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("audio.player", "mpv --no-video --really-quiet")
	v.SetDefault("audio.reciter", "01")
	v.SetDefault("search.debounce", "300ms")
	v.SetDefault("search.min_length", 1)
	v.SetDefault("search.limit", 20)
	v.SetDefault("log.file", "")
	v.SetDefault("cache.offline", false)
	v.SetDefault("cache.dir", "")
	v.SetDefault("download.concurrency", 4)
	v.SetDefault("download.rps", 5.0)
}

// Validate rejects values the components cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	case c.API.Timeout <= 0:
		return fmt.Errorf("%w: api.timeout must be positive", ErrInvalidConfig)
	case c.Search.Debounce < 0:
		return fmt.Errorf("%w: search.debounce must not be negative", ErrInvalidConfig)
	case c.Search.MinLength < 0:
		return fmt.Errorf("%w: search.min_length must not be negative", ErrInvalidConfig)
	case c.Download.Concurrency < 1:
		return fmt.Errorf("%w: download.concurrency must be at least 1", ErrInvalidConfig)
	case c.Download.RPS <= 0:
		return fmt.Errorf("%w: download.rps must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
