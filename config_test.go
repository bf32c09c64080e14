package main

import (
	"testing"

	"github.com/BurntSushi/toml"
)

func TestLoadConfig(t *testing.T) {
	configData := `
        [server]
        scheme = "https"
        hostname = "example.com"
        public_key = "example.key"
        private_key = "example.pem"

        [storage]
        backend = "postgres"
        postgres_dsn = "postgres://chorus@localhost/chorus"

        [redis]
        addr = "localhost:6379"

        [delivery]
        max_attempts = 3

        [federation]
        lookup_limit = 5
        `

	var config Config
	_, err := toml.Decode(configData, &config)
	if err != nil {
		t.Errorf("could not parse example config properly")
	}

	applyDefaults(&config)
	err = ValidateConfig(config)

	if err != nil {
		t.Errorf("could not validate config: %v", err)
	}

	if config.Server.Hostname != "example.com" {
		t.Errorf(
			"config hostname expected example.com got: %s", config.Server.Hostname,
		)
	}

	if config.Storage.Backend != "postgres" {
		t.Errorf(
			"config backend expected postgres got: %s", config.Storage.Backend,
		)
	}

	if config.Delivery.MaxAttempts != 3 {
		t.Errorf(
			"config max_attempts expected 3 got: %d", config.Delivery.MaxAttempts,
		)
	}

	if config.Delivery.BackoffMS != 1000 {
		t.Errorf(
			"config backoff_ms default expected 1000 got: %d", config.Delivery.BackoffMS,
		)
	}

	if config.Federation.LookupLimit != 5 {
		t.Errorf(
			"config lookup_limit expected 5 got: %d", config.Federation.LookupLimit,
		)
	}
}

func TestValidateConfigRejectsUnknownBackend(t *testing.T) {
	config := Config{
		Server: ServerConfig{
			Scheme:     "https",
			Hostname:   "example.com",
			PublicKey:  "example.key",
			PrivateKey: "example.pem",
		},
		Storage: StorageConfig{Backend: "etcd"},
	}

	if err := ValidateConfig(config); err == nil {
		t.Errorf("expected unknown backend to be rejected")
	}
}

func TestValidateConfigRequiresPostgresDSN(t *testing.T) {
	config := Config{
		Server: ServerConfig{
			Scheme:     "https",
			Hostname:   "example.com",
			PublicKey:  "example.key",
			PrivateKey: "example.pem",
		},
		Storage: StorageConfig{Backend: "postgres"},
	}

	if err := ValidateConfig(config); err == nil {
		t.Errorf("expected postgres backend without a DSN to be rejected")
	}
}
