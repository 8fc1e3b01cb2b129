package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/ingestkit/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"John", false},
		{"", true},
		{"   ", true},
	}
	for _, tt := range tests {
		v := New().Required("name", tt.value)
		if v.HasErrors() != tt.wantErr {
			t.Errorf("Required(%q) errors=%v, want %v", tt.value, v.HasErrors(), tt.wantErr)
		}
	}
}

func TestValidatorURL(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"https://example.com/a", false},
		{"http://example.com", false},
		{"//example.com/a", false},
		{"ftp://example.com", true},
		{"/relative", true},
		{"", true},
	}
	for _, tt := range tests {
		v := New().URL("seed", tt.value)
		if v.HasErrors() != tt.wantErr {
			t.Errorf("URL(%q) errors=%v, want %v", tt.value, v.HasErrors(), tt.wantErr)
		}
	}
}

func TestValidatorNonNegativeAndRange(t *testing.T) {
	v := New().NonNegative("ttl", -time.Second).Range("retries", 11, 0, 10)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors()))
	}
	if New().NonNegative("ttl", 0).Range("retries", 3, 0, 10).Custom(true, "x", "y").HasErrors() {
		t.Error("expected no errors")
	}
}

func TestValidatorOneOf(t *testing.T) {
	if New().OneOf("format", "json", []string{"json", "console"}).HasErrors() {
		t.Error("json should be allowed")
	}
	if !New().OneOf("format", "xml", []string{"json", "console"}).HasErrors() {
		t.Error("xml should not be allowed")
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	err := New().Required("name", "").Custom(false, "age", "too young").Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(err.Error(), "name: is required; age: too young") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

type sampleConfig struct {
	Name       string        `mapstructure:"name" validate:"required"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,max=10"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Format     string        `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Nested     nestedConfig  `mapstructure:"nested"`
}

type nestedConfig struct {
	SeedURL string `mapstructure:"seed_url" validate:"omitempty,url"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := sampleConfig{Name: "ingest", MaxRetries: 3, Timeout: time.Second, Format: "json"}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	cfg := sampleConfig{MaxRetries: 20, Format: "xml", Nested: nestedConfig{SeedURL: "not a url"}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	want := map[string]string{
		"name":            "is required",
		"max_retries":     "must be at most 10",
		"timeout":         "must be greater than 0",
		"format":          "must be one of: json console",
		"nested.seed_url": "must be a valid URL",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s: got %q, want %q", k, got[k], v)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("MaxRetries"); got != "max_retries" {
		t.Errorf("got %q", got)
	}
}
