// Package config defines the planner's runtime configuration and loads
// it from a YAML file with environment overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Configuration holds all configuration for the planner.
type Configuration struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Advisory AdvisoryConfig `yaml:"advisory,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Redis    RedisConfig    `yaml:"redis,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// AdvisoryConfig holds the advisory service connection settings.
type AdvisoryConfig struct {
	URL            string        `yaml:"url,omitempty"`
	APIKey         string        `yaml:"apiKey,omitempty"`
	Model          string        `yaml:"model,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	AttemptDelay   time.Duration `yaml:"attemptDelay,omitempty"`
	AttemptTimeout time.Duration `yaml:"attemptTimeout,omitempty"`
	MaxTokens      int           `yaml:"maxTokens,omitempty"`
}

// CacheConfig tunes the compiled plan cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl,omitempty"`
}

// RedisConfig selects the Redis-backed debt store. An empty Addr keeps
// the in-memory store.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the
// YAML-formatted configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	return &configuration, nil
}

func (conf *Configuration) applyDefaults() {
	if conf.Cache.TTL <= 0 {
		conf.Cache.TTL = 300 * time.Second
	}
	if conf.Advisory.Timeout <= 0 {
		conf.Advisory.Timeout = 30 * time.Second
	}
	if conf.Advisory.AttemptTimeout <= 0 {
		conf.Advisory.AttemptTimeout = conf.Advisory.Timeout
	}
	if conf.Advisory.AttemptDelay < 0 {
		conf.Advisory.AttemptDelay = 0
	}
}
