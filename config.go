package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ServerConfig defines the identity and keys of this instance
type ServerConfig struct {
	Scheme     string
	Hostname   string
	PublicKey  string `toml:"public_key"`
	PrivateKey string `toml:"private_key"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Backend     string
	PostgresDSN string `toml:"postgres_dsn"`
}

// RedisConfig configures the applied-id store and the notification channel
type RedisConfig struct {
	Addr           string
	NotifyChannel  string `toml:"notify_channel"`
	RetentionHours int    `toml:"retention_hours"`
}

// DeliveryConfig bounds outbound delivery retries
type DeliveryConfig struct {
	MaxAttempts int `toml:"max_attempts"`
	BackoffMS   int `toml:"backoff_ms"`
	TimeoutMS   int `toml:"timeout_ms"`
}

// FederationConfig bounds inbound processing
type FederationConfig struct {
	LookupLimit    int `toml:"lookup_limit"`
	FetchTimeoutMS int `toml:"fetch_timeout_ms"`
}

// Config is the config object
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Delivery   DeliveryConfig
	Federation FederationConfig
}

// LoadConfig loads a config at configPath
func LoadConfig(configPath string) (*Config, error) {
	var conf Config
	md, err := toml.DecodeFile(configPath, &conf)
	if err != nil {
		return nil, err
	}

	undecoded := md.Undecoded()
	if len(undecoded) != 0 {
		return nil, fmt.Errorf("these config fields are unused: %q", undecoded)
	}

	applyDefaults(&conf)

	if err := ValidateConfig(conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func applyDefaults(conf *Config) {
	if conf.Storage.Backend == "" {
		conf.Storage.Backend = "memory"
	}
	if conf.Redis.NotifyChannel == "" {
		conf.Redis.NotifyChannel = "chorus:events"
	}
	if conf.Redis.RetentionHours == 0 {
		conf.Redis.RetentionHours = 24 * 7
	}
	if conf.Delivery.MaxAttempts == 0 {
		conf.Delivery.MaxAttempts = 5
	}
	if conf.Delivery.BackoffMS == 0 {
		conf.Delivery.BackoffMS = 1000
	}
	if conf.Delivery.TimeoutMS == 0 {
		conf.Delivery.TimeoutMS = 10000
	}
	if conf.Federation.LookupLimit == 0 {
		conf.Federation.LookupLimit = 10
	}
	if conf.Federation.FetchTimeoutMS == 0 {
		conf.Federation.FetchTimeoutMS = 10000
	}
}

// ValidateConfig validates a Config
func ValidateConfig(conf Config) error {
	if conf.Server.Hostname == "" {
		return fmt.Errorf("no hostname given")
	}

	if conf.Server.Scheme == "" {
		return fmt.Errorf("no scheme given")
	}

	if conf.Server.PublicKey == "" {
		return fmt.Errorf("no public key path given")
	}

	if conf.Server.PrivateKey == "" {
		return fmt.Errorf("no private key path given")
	}

	if conf.Storage.Backend != "memory" && conf.Storage.Backend != "postgres" {
		return fmt.Errorf("unknown storage backend %q", conf.Storage.Backend)
	}

	if conf.Storage.Backend == "postgres" && conf.Storage.PostgresDSN == "" {
		return fmt.Errorf("postgres backend selected but no postgres_dsn given")
	}

	return nil
}
