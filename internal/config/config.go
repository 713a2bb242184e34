// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr   string `mapstructure:"listen_addr"`
	PostgresURL  string `mapstructure:"postgres_url"`
	MemoryStore  bool   `mapstructure:"memory_store"`
	TradeRetries int    `mapstructure:"trade_retries"`
	EventBuffer  int    `mapstructure:"event_buffer"`
	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

const (
	DefaultListenAddr   = ":8080"
	DefaultTradeRetries = 3
	DefaultEventBuffer  = 256
	DefaultLogFile      = "launchpad.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"listen_addr":   DefaultListenAddr,
		"trade_retries": DefaultTradeRetries,
		"event_buffer":  DefaultEventBuffer,
		"log_file":      DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return errors.New("missing listen_addr in configuration")
	}
	if !cfg.MemoryStore && cfg.PostgresURL == "" {
		return errors.New("postgres_url is required unless memory_store is set")
	}
	if cfg.TradeRetries < 0 {
		return errors.New("invalid trade_retries count")
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer size")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envPostgres := v.GetString("POSTGRES_URL")
	if envPostgres != "" {
		cfg.PostgresURL = envPostgres
	}

	envListen := v.GetString("LISTEN_ADDR")
	if envListen != "" {
		cfg.ListenAddr = envListen
	}
	return nil
}
