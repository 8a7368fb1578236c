// Package config loads dockwise settings from flags, environment variables
// and an optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DOCKWISE_NLU_URL.
const EnvPrefix = "DOCKWISE"

// Store drivers.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config is the resolved configuration of one dockwise invocation.
type Config struct {
	Flows  string `mapstructure:"flows"`
	Entry  string `mapstructure:"entry"`
	Global string `mapstructure:"global"`

	NLU     NLUConfig     `mapstructure:"nlu"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Docker  DockerConfig  `mapstructure:"docker"`
	Slots   SlotsConfig   `mapstructure:"slots"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`

	Purge    string            `mapstructure:"purge"`
	Seed     uint64            `mapstructure:"seed"`
	Debug    bool              `mapstructure:"debug"`
	JSON     bool              `mapstructure:"json"`
	// Confirm lists actions that ask the user before running.
	Confirm  []string          `mapstructure:"confirm"`
	// Matchers maps matcher names to expressions. Viper lowercases keys and
	// splits them on dots, so names use underscores.
	Matchers map[string]string `mapstructure:"matchers"`
}

type NLUConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Threshold float64       `mapstructure:"threshold"`
	CacheTTL  time.Duration `mapstructure:"cache-ttl"`
	Offline   bool          `mapstructure:"offline"`
}

type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	Dir           string `mapstructure:"dir"`
	EncryptionKey string `mapstructure:"encryption-key"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type DockerConfig struct {
	Binary string `mapstructure:"binary"`
	Detach bool   `mapstructure:"detach"`
}

type SlotsConfig struct {
	MaxAttempts int `mapstructure:"max-attempts"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default value of every key on v. Keys without
// a default are invisible to environment lookups during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("flows", "")
	v.SetDefault("entry", "main")
	v.SetDefault("global", "")
	v.SetDefault("nlu.url", "http://localhost:5005")
	v.SetDefault("nlu.timeout", 10*time.Second)
	v.SetDefault("nlu.threshold", 0.6)
	v.SetDefault("nlu.cache-ttl", 5*time.Minute)
	v.SetDefault("nlu.offline", false)
	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.dir", defaultStoreDir())
	v.SetDefault("store.encryption-key", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "dockwise:settings:")
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("docker.binary", "docker")
	v.SetDefault("docker.detach", true)
	v.SetDefault("slots.max-attempts", 0)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("purge", "skip-jumps")
	v.SetDefault("seed", 0)
	v.SetDefault("debug", false)
	v.SetDefault("json", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("confirm", []string{})
}

func defaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "dockwise"
	}
	return ".dockwise"
}

// BindFlags registers the persistent flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("config", "", "Path to a YAML config file")
	fs.String("flows", "", "Directory containing flow files (embedded flows when empty)")
	fs.String("entry", "main", "Reference of the root flow")
	fs.String("global", "", "Reference of the global stack flow")
	fs.String("nlu-url", "http://localhost:5005", "Base URL of the NLU server")
	fs.Bool("offline", false, "Use the built-in keyword classifier instead of the NLU server")
	fs.Float64("threshold", 0.6, "Root intent confidence threshold")
	fs.String("store", DriverFile, "Settings store driver (file, redis, memory)")
	fs.String("redis-addr", "localhost:6379", "Redis address for the redis store")
	fs.String("docker-binary", "docker", "Container CLI binary")
	fs.String("metrics-addr", "", "Serve metrics and the inspection API on this address")
	fs.Bool("debug", false, "Enable debug logging")
	fs.Bool("json", false, "Exchange JSON lines on stdin/stdout")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "text", "Log format (text, json)")

	bindings := map[string]string{
		"flows":         "flows",
		"entry":         "entry",
		"global":        "global",
		"nlu.url":       "nlu-url",
		"nlu.offline":   "offline",
		"nlu.threshold": "threshold",
		"store.driver":  "store",
		"redis.addr":    "redis-addr",
		"docker.binary": "docker-binary",
		"metrics.addr":  "metrics-addr",
		"debug":         "debug",
		"json":          "json",
		"log.level":     "log-level",
		"log.format":    "log-format",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes v into a Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverFile, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.NLU.Threshold < 0 || c.NLU.Threshold > 1 {
		return fmt.Errorf("nlu threshold %v out of range [0, 1]", c.NLU.Threshold)
	}
	if c.Slots.MaxAttempts < 0 {
		return fmt.Errorf("slots max-attempts must not be negative")
	}
	if k := c.Store.EncryptionKey; k != "" && len(k) != 32 {
		return fmt.Errorf("store encryption-key must be 32 bytes, got %d", len(k))
	}
	return nil
}
