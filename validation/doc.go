// Package validation validates configuration structs and ad-hoc inputs.
//
// Struct tag validation uses go-playground/validator and reports field names
// the way they appear in config files:
//
//	type Config struct {
//	    MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects several failures before reporting:
//
//	v := validation.New()
//	v.Required("name", name).URL("seed", seed)
//	err := v.Validate()
package validation
