package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the mentoring service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Stages    StagesConfig    `mapstructure:"stages"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
	// AccessKey, when set, gates the API behind a shared key exchanged for a JWT.
	AccessKey string `mapstructure:"access_key"`
}

// LLMConfig selects and tunes the text-generation provider
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if l.Provider == "" {
		return fmt.Errorf("llm.provider must be set")
	}
	if l.APIKey == "" {
		return fmt.Errorf("llm.api_key must be set (or PROJECTFLOW_LLM_API_KEY)")
	}
	return nil
}

// StorageConfig selects the session record backend
type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // file or redis
	DataDir string      `mapstructure:"data_dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (s StorageConfig) Validate() error {
	switch strings.ToLower(s.Backend) {
	case "", "file":
		if s.DataDir == "" {
			return fmt.Errorf("storage.data_dir must be set for the file backend")
		}
	case "redis":
		if s.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr must be set for the redis backend")
		}
		if s.DataDir == "" {
			return fmt.Errorf("storage.data_dir must be set (group directory lives there)")
		}
	default:
		return fmt.Errorf("storage.backend must be file or redis, got %q", s.Backend)
	}
	return nil
}

// StagesConfig points at the curriculum catalog
type StagesConfig struct {
	File string `mapstructure:"file"`
}

func (s StagesConfig) Validate() error {
	if s.File == "" {
		return fmt.Errorf("stages.file must point at the stage catalog")
	}
	return nil
}

// PipelineConfig sizes the background recompute pool
type PipelineConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// TelemetryConfig contains monitoring and cost tracking settings
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	CostPer1KUSD   float64 `mapstructure:"cost_per_1k_usd"`
	MetricsEnabled bool    `mapstructure:"metrics_enabled"`
}

// LoadConfig loads config from file, environment (PROJECTFLOW_*) and defaults.
// A missing config file is fine as long as env and defaults cover validation.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.data_dir", "./groups_data")
	v.SetDefault("stages.file", "./config/stages.yaml")
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.queue_size", 16)
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.cost_per_1k_usd", 0.002)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("PROJECTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Stages.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
