package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendBolt   = "bolt"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	DataDir  string        `mapstructure:"data_dir"`
	Timezone string        `mapstructure:"timezone"`
	Storage  StorageConfig `mapstructure:"storage"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Stats    StatsConfig   `mapstructure:"stats"`
	UI       UIConfig      `mapstructure:"ui"`
}

type StorageConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StatsConfig struct {
	StreakMinHours float64 `mapstructure:"streak_min_hours"`
}

type UIConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// Options carries command-line overrides. Empty fields keep the value from
// the config file, the environment or the defaults.
type Options struct {
	DataDir    string
	ConfigFile string
	Backend    string
}

// Load resolves configuration from defaults, an optional YAML file and
// FASTFLOW_* environment variables, in increasing priority, then applies opts.
func Load(opts Options) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FASTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		candidate := filepath.Join(v.GetString("data_dir"), "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if opts.DataDir != "" {
			v.Set("data_dir", opts.DataDir)
		}
	}
	if opts.Backend != "" {
		v.Set("storage.backend", opts.Backend)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("timezone", "")

	v.SetDefault("storage.backend", BackendBolt)
	v.SetDefault("storage.redis.addr", "127.0.0.1:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key_prefix", "fastflow:")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("stats.streak_min_hours", 16)
	v.SetDefault("ui.refresh_interval", time.Second)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".fastflow"
	}
	return filepath.Join(home, ".fastflow")
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("data dir is required")
	}
	switch cfg.Storage.Backend {
	case BackendBolt, BackendFile, BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == BackendRedis && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return fmt.Errorf("storage.redis.addr is required for the redis backend")
	}
	if cfg.Stats.StreakMinHours <= 0 {
		return fmt.Errorf("stats.streak_min_hours must be positive")
	}
	if cfg.UI.RefreshInterval <= 0 {
		return fmt.Errorf("ui.refresh_interval must be positive")
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}
	return nil
}

// Location returns the configured zone, or time.Local when unset.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) BoltPath() string   { return filepath.Join(c.DataDir, "fastflow.db") }
func (c Config) SQLitePath() string { return filepath.Join(c.DataDir, "fastflow.sqlite") }
func (c Config) SlotDir() string    { return filepath.Join(c.DataDir, "slots") }
func (c Config) LogPath() string    { return filepath.Join(c.DataDir, "fastflow.log") }
