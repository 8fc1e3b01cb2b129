package main

import (
	"fmt"
	"time"

	"github.com/kbukum/ingestkit/badger"
	"github.com/kbukum/ingestkit/config"
	"github.com/kbukum/ingestkit/fetch"
	"github.com/kbukum/ingestkit/mongo"
	"github.com/kbukum/ingestkit/observability"
	"github.com/kbukum/ingestkit/redis"
	"github.com/kbukum/ingestkit/validation"
	"github.com/kbukum/ingestkit/version"
	"github.com/kbukum/ingestkit/web"
	"github.com/kbukum/ingestkit/workflow"
)

const serviceName = "ingest"

// StorageConfig selects where dedup keys and cursors live.
type StorageConfig struct {
	// Backend is one of badger, redis or memory.
	Backend string `mapstructure:"backend" validate:"oneof=badger redis memory"`
	// CursorBucket, when set, is a gocloud blob URL (file:///..., mem://)
	// that holds cursors instead of Backend.
	CursorBucket string `mapstructure:"cursor_bucket"`
	// SeenTTL expires dedup keys after the given age. Zero keeps them forever.
	SeenTTL time.Duration `mapstructure:"seen_ttl" validate:"gte=0"`
}

// AppConfig is the full configuration of the ingest command.
type AppConfig struct {
	config.ServiceConfig `mapstructure:",squash"`

	Fetch    fetch.Config               `mapstructure:"fetch"`
	Storage  StorageConfig              `mapstructure:"storage"`
	Badger   badger.Config              `mapstructure:"badger"`
	Redis    redis.Config               `mapstructure:"redis"`
	Mongo    mongo.Config               `mapstructure:"mongo"`
	Workflow workflow.GroupConfig       `mapstructure:"workflow"`
	Metrics  observability.MeterConfig  `mapstructure:"metrics"`
	Tracing  observability.TracerConfig `mapstructure:"tracing"`
	Sources  []web.Config               `mapstructure:"sources"`
}

// ApplyDefaults fills unset fields of every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Fetch.ApplyDefaults()
	if c.Storage.Backend == "" {
		c.Storage.Backend = "badger"
	}
	if c.Badger.Path == "" && !c.Badger.InMemory {
		c.Badger.Path = "./data/ingest"
	}
	if c.Badger.SeenTTL == 0 {
		c.Badger.SeenTTL = c.Storage.SeenTTL
	}
	if c.Storage.Backend == "redis" {
		c.Redis.Enabled = true
	}
	c.Redis.ApplyDefaults()
	c.Mongo.ApplyDefaults()
	c.Workflow.ApplyDefaults()
	for i := range c.Sources {
		c.Sources[i].ApplyDefaults()
	}

	meter := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.ServiceVersion == "" {
		c.Metrics.ServiceVersion = c.Version
	}
	if c.Metrics.Environment == "" {
		c.Metrics.Environment = c.Environment
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = meter.ServiceName
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = meter.Interval
	}
	tracer := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Version
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = tracer.ServiceName
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = tracer.SampleRate
	}
}

// Validate checks every section in use.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(&c.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Fetch.Validate(); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if c.Storage.Backend == "badger" {
		if err := c.Badger.Validate(); err != nil {
			return fmt.Errorf("badger: %w", err)
		}
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Mongo.Validate(); err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	if err := c.Workflow.Validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("sources: at least one source is required")
	}
	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		src := &c.Sources[i]
		if err := src.Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		if seen[src.Source] {
			return fmt.Errorf("sources[%d]: duplicate source %q", i, src.Source)
		}
		seen[src.Source] = true
	}
	return nil
}

// loadConfig reads, defaults and validates the configuration.
func loadConfig(path, envFile string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &AppConfig{Fetch: fetch.DefaultConfig()}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
