package web

import "github.com/kbukum/ingestkit/validation"

// Config configures the web adapters of one source.
type Config struct {
	// Source names the site; it is copied onto every item.
	Source string `mapstructure:"source" validate:"required"`
	// Seeds are the pages whose links are collected each run.
	Seeds []string `mapstructure:"seeds" validate:"required,min=1,dive,http_url"`
	// UserAgent is matched against robots.txt groups.
	UserAgent string `mapstructure:"user_agent"`
	// RespectRobots drops URLs disallowed by the host's robots.txt.
	RespectRobots bool `mapstructure:"respect_robots"`
	// SameHost keeps only links on the host of the page they were found on.
	SameHost bool `mapstructure:"same_host"`
	// Follow, when set, keeps only links matching one of these patterns.
	Follow []string `mapstructure:"follow"`
	// Exclude drops links matching any of these patterns.
	Exclude []string `mapstructure:"exclude"`
	// MinTextLength drops articles with less text.
	MinTextLength int `mapstructure:"min_text_length" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "ingestkit"
	}
	if c.MinTextLength == 0 {
		c.MinTextLength = 100
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
