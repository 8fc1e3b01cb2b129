package badger

import (
	"time"

	"github.com/kbukum/ingestkit/validation"
)

// Config configures a BadgerDB instance.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string `mapstructure:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `mapstructure:"in_memory"`
	// SyncWrites fsyncs every write.
	SyncWrites bool `mapstructure:"sync_writes"`
	// SeenTTL expires dedup keys after the given age. Zero keeps them forever.
	SeenTTL time.Duration `mapstructure:"seen_ttl" validate:"gte=0"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
