package fetch

import (
	"time"

	"github.com/kbukum/ingestkit/validation"
)

// Config configures the HTTP Client.
type Config struct {
	// MinInterval is the minimum spacing between outbound requests. Zero
	// disables pacing.
	MinInterval time.Duration `mapstructure:"min_interval" validate:"gte=0"`
	// MaxRetries is the number of retries after the first attempt. Zero
	// means a single attempt.
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,max=10"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" validate:"gte=0"`
	// RateLimitBackoff is used when a rate-limit response has no Retry-After.
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff" validate:"gte=0"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gte=0"`
	UserAgent        string        `mapstructure:"user_agent"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes" validate:"gte=0"`
	// RequestsPerSecond enables a token bucket on top of MinInterval when > 0.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
	// CacheTTL is how long Cached keeps content.
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`

	Breaker BreakerConfig `mapstructure:"circuit_breaker"`
}

// BreakerConfig enables a circuit breaker around outbound requests.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures int           `mapstructure:"max_failures" validate:"gte=0"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// DefaultConfig returns the recommended configuration: one request per
// second and three retries. Load file or env values on top of it.
func DefaultConfig() Config {
	c := Config{MinInterval: time.Second, MaxRetries: 3}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields. MinInterval and MaxRetries are left
// alone since zero is meaningful for both: no pacing and a single attempt.
func (c *Config) ApplyDefaults() {
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.RateLimitBackoff == 0 {
		c.RateLimitBackoff = time.Minute
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "ingestkit/1.0"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 10 << 20
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 5
	}
	if c.Breaker.Timeout == 0 {
		c.Breaker.Timeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
