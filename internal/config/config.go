// Package config loads the service configuration from an optional YAML file
// and PIPELINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration. It is built once in main and
// passed down; components never read the environment themselves.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Model    ModelConfig    `mapstructure:"model"`
	Skills   SkillsConfig   `mapstructure:"skills"`
	Matching MatchingConfig `mapstructure:"matching"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	// APIKeys authenticate scrapers; AdminKeys authenticate operators.
	APIKeys   []string `mapstructure:"api-keys"`
	AdminKeys []string `mapstructure:"admin-keys"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	URL       string `mapstructure:"url"`
	KeyPrefix string `mapstructure:"key-prefix"`
}

type PipelineConfig struct {
	BatchSize      int           `mapstructure:"batch-size"`
	Concurrency    int           `mapstructure:"concurrency"`
	ExtractTimeout time.Duration `mapstructure:"extract-timeout"`
	RatePerSecond  float64       `mapstructure:"rate-per-second"`
	Burst          int           `mapstructure:"burst"`
	Workers        int           `mapstructure:"workers"`
	// StaleAfter is how long a claimed job may run before the reaper
	// returns it to the queue.
	StaleAfter time.Duration `mapstructure:"stale-after"`
}

type ModelConfig struct {
	Dir string `mapstructure:"dir"`
	// Models is the escalation ladder; the next entry is tried when the
	// prompt does not fit the current one.
	Models      []string `mapstructure:"models"`
	APIKeyFile  string   `mapstructure:"api-key-file"`
	APIKey      string   `mapstructure:"api-key"`
	Temperature float32  `mapstructure:"temperature"`
	MaxRetries  int      `mapstructure:"max-retries"`
	MaxDemos    int      `mapstructure:"max-demos"`
	// CacheTTL bounds how long extraction results are reused per artifact
	// version and input hash.
	CacheTTL time.Duration `mapstructure:"cache-ttl"`
}

type SkillsConfig struct {
	AliasesFile string `mapstructure:"aliases-file"`
}

type MatchingConfig struct {
	CacheTTL       time.Duration `mapstructure:"cache-ttl"`
	CandidateLimit int           `mapstructure:"candidate-limit"`
}

type ScheduleConfig struct {
	Process string `mapstructure:"process"`
	Train   string `mapstructure:"train"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.api-keys", []string{})
	v.SetDefault("http.admin-keys", []string{})
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("http.read-timeout", 10*time.Second)
	v.SetDefault("http.write-timeout", 30*time.Second)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.key-prefix", "pipeline")
	v.SetDefault("pipeline.batch-size", 5000)
	v.SetDefault("pipeline.concurrency", 100)
	v.SetDefault("pipeline.extract-timeout", 60*time.Second)
	v.SetDefault("pipeline.rate-per-second", 10.0)
	v.SetDefault("pipeline.burst", 10)
	v.SetDefault("pipeline.workers", 2)
	v.SetDefault("pipeline.stale-after", 2*time.Hour)
	v.SetDefault("model.dir", "models")
	v.SetDefault("model.models", []string{"gemini-2.5-flash", "gemini-2.5-pro"})
	v.SetDefault("model.api-key-file", "")
	v.SetDefault("model.api-key", "")
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.max-retries", 3)
	v.SetDefault("model.max-demos", 8)
	v.SetDefault("model.cache-ttl", 7*24*time.Hour)
	v.SetDefault("matching.cache-ttl", 10*time.Minute)
	v.SetDefault("matching.candidate-limit", 5000)
	v.SetDefault("skills.aliases-file", "")
	v.SetDefault("schedule.process", "")
	v.SetDefault("schedule.train", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load reads the optional config file and the environment into a Config.
// An empty path falls back to pipeline.yaml in the working directory; a
// missing default file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pipeline")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first configuration value the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Pipeline.BatchSize <= 0 {
		return fmt.Errorf("pipeline.batch-size must be > 0, got %d", c.Pipeline.BatchSize)
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0, got %d", c.Pipeline.Concurrency)
	}
	if c.Pipeline.ExtractTimeout <= 0 {
		return fmt.Errorf("pipeline.extract-timeout must be > 0, got %s", c.Pipeline.ExtractTimeout)
	}
	if c.Pipeline.RatePerSecond < 0 {
		return fmt.Errorf("pipeline.rate-per-second must be >= 0, got %g", c.Pipeline.RatePerSecond)
	}
	if c.Pipeline.RatePerSecond > 0 {
		if c.Pipeline.Burst < 1 {
			return fmt.Errorf("pipeline.burst must be >= 1 when rate-per-second is set, got %d", c.Pipeline.Burst)
		}
		// The last worker of a full pool waits this long for its first model call,
		// and that wait counts against its extract-timeout.
		queued := time.Duration(float64(c.Pipeline.Concurrency) / c.Pipeline.RatePerSecond * float64(time.Second))
		if queued >= c.Pipeline.ExtractTimeout {
			return fmt.Errorf("pipeline.concurrency %d at %g calls/s needs %s of rate limit wait, more than extract-timeout %s",
				c.Pipeline.Concurrency, c.Pipeline.RatePerSecond, queued, c.Pipeline.ExtractTimeout)
		}
	}
	if len(c.Model.Models) == 0 {
		return errors.New("model.models must name at least one model")
	}
	return nil
}
