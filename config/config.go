// Package config loads and validates the YAML configuration file a wsforge
// host process is started with. spec.md's external interfaces are all
// programmatic builder calls; a deployable service still needs a file
// format for the values an operator tunes per environment, grounded on the
// same validator stack the teacher pulls in transitively through gin.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wsforge-go/wsforge"
)

// QueuePolicy selects the outbound-queue overflow behavior once a bounded
// capacity is configured.
type QueuePolicy string

const (
	QueuePolicyUnbounded     QueuePolicy = "unbounded"
	QueuePolicyDropOldest    QueuePolicy = "drop_oldest"
	QueuePolicyCloseOnBacklog QueuePolicy = "close_connection"
)

// Config is the top-level shape of a wsforge host's config file.
type Config struct {
	Listen string `yaml:"listen" validate:"required,hostname_port"`

	StaticRoot  string `yaml:"static_root"`
	StaticIndex string `yaml:"static_index"`

	PeekTimeoutSeconds int `yaml:"peek_timeout_seconds" validate:"gte=0"`

	Queue struct {
		Policy   QueuePolicy `yaml:"policy" validate:"required,oneof=unbounded drop_oldest close_connection"`
		Capacity int         `yaml:"capacity" validate:"gte=0"`
	} `yaml:"queue"`

	Log struct {
		Level  string `yaml:"level" validate:"required,oneof=debug info warn error fatal"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Admin struct {
		Enabled bool   `yaml:"enabled"`
		Listen  string `yaml:"listen" validate:"required_if=Enabled true"`
	} `yaml:"admin"`

	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url" validate:"required_if=Enabled true"`
	} `yaml:"nats"`

	Audit struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn" validate:"required_if=Enabled true"`
	} `yaml:"audit"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with the same baseline values NewRouter applies
// programmatically (unbounded queue, info-level JSON logging, admin off).
func Default() *Config {
	cfg := &Config{
		Listen:             "0.0.0.0:8080",
		StaticIndex:        "index.html",
		PeekTimeoutSeconds: 5,
	}
	cfg.Queue.Policy = QueuePolicyUnbounded
	cfg.Log.Level = "info"
	return cfg
}

var validate = validator.New()

// Validate runs struct-tag validation over cfg.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// QueueOverflowPolicy translates the YAML policy string into the core's
// OverflowPolicy enum. Only meaningful when Capacity > 0.
func (c *Config) QueueOverflowPolicy() wsforge.OverflowPolicy {
	if c.Queue.Policy == QueuePolicyCloseOnBacklog {
		return wsforge.OverflowCloseConnection
	}
	return wsforge.OverflowDropOldest
}
