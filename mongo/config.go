package mongo

import (
	"time"

	"github.com/kbukum/ingestkit/validation"
)

// Config configures the MongoDB connection.
type Config struct {
	Enabled    bool          `mapstructure:"enabled"`
	URI        string        `mapstructure:"uri" validate:"required_if=Enabled true"`
	Database   string        `mapstructure:"database" validate:"required_if=Enabled true"`
	Collection string        `mapstructure:"collection"`
	State      string        `mapstructure:"state_collection"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "documents"
	}
	if c.State == "" {
		c.State = "ingest_state"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
