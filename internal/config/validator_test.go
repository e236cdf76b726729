package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name:     "with field",
			err:      ValidationError{Field: "rootUrl", Message: "root URL is required"},
			expected: "validation error on field 'rootUrl': root URL is required",
		},
		{
			name:     "without field",
			err:      ValidationError{Message: "something broke"},
			expected: "validation error: something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	if got := errs.Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}

	errs.Add("rootUrl", "root URL is required")
	if got := errs.Error(); !strings.Contains(got, "rootUrl") {
		t.Errorf("single Error() = %q, want the field name", got)
	}

	errs.Add("interval", "tick interval must be positive")
	got := errs.Error()
	if !strings.HasPrefix(got, "2 validation errors:") {
		t.Errorf("multi Error() = %q, want a count prefix", got)
	}
	if !strings.Contains(got, "1.") || !strings.Contains(got, "2.") {
		t.Errorf("multi Error() = %q, want numbered entries", got)
	}
}

// validConfig returns a configuration that passes validation.
func validConfig() *Config {
	return &Config{
		Name:            "probe",
		RootURL:         "https://www.example.com",
		Interval:        Duration(time.Second),
		OperationsLimit: 5,
		CheckBackoff:    Duration(100 * time.Millisecond),
		LogLevel:        "info",
		Operator: OperatorConfig{
			BaseURL: "https://cms.example.com",
			Timeout: Duration(30 * time.Second),
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:      "missing root url",
			mutate:    func(c *Config) { c.RootURL = "" },
			wantField: "rootUrl",
		},
		{
			name:      "root url without scheme",
			mutate:    func(c *Config) { c.RootURL = "www.example.com" },
			wantField: "rootUrl",
		},
		{
			name:      "root url with wrong scheme",
			mutate:    func(c *Config) { c.RootURL = "ftp://files.example.com" },
			wantField: "rootUrl",
		},
		{
			name:      "missing operator base url",
			mutate:    func(c *Config) { c.Operator.BaseURL = "" },
			wantField: "operator.baseUrl",
		},
		{
			name:      "zero interval",
			mutate:    func(c *Config) { c.Interval = 0 },
			wantField: "interval",
		},
		{
			name:      "zero operations limit",
			mutate:    func(c *Config) { c.OperationsLimit = 0 },
			wantField: "operationsLimit",
		},
		{
			name:      "negative check backoff",
			mutate:    func(c *Config) { c.CheckBackoff = Duration(-time.Second) },
			wantField: "checkBackoff",
		},
		{
			name:      "negative max checks",
			mutate:    func(c *Config) { c.MaxChecks = -1 },
			wantField: "maxChecks",
		},
		{
			name:      "negative operator timeout",
			mutate:    func(c *Config) { c.Operator.Timeout = Duration(-time.Second) },
			wantField: "operator.timeout",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.LogLevel = "verbose" },
			wantField: "logLevel",
		},
		{
			name: "pool node without id",
			mutate: func(c *Config) {
				c.NodePool = []PoolNode{{PagePath: "/p.html", Selector: "#c"}}
			},
			wantField: "nodePool[0].id",
		},
		{
			name: "duplicate pool node ids",
			mutate: func(c *Config) {
				c.NodePool = []PoolNode{
					{ID: "n1", PagePath: "/a.html", Selector: "#c"},
					{ID: "n1", PagePath: "/b.html", Selector: "#c"},
				}
			},
			wantField: "nodePool[1].id",
		},
		{
			name: "pool node without page path",
			mutate: func(c *Config) {
				c.NodePool = []PoolNode{{ID: "n1", Selector: "#c"}}
			},
			wantField: "nodePool[0].pagePath",
		},
		{
			name: "pool node without selector",
			mutate: func(c *Config) {
				c.NodePool = []PoolNode{{ID: "n1", PagePath: "/p.html"}}
			},
			wantField: "nodePool[0].selector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verrs *ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want *ValidationErrors", err)
			}
			for _, ve := range verrs.Errors {
				if ve.Field == tt.wantField {
					return
				}
			}
			t.Errorf("no error on field %q, got %v", tt.wantField, err)
		})
	}
}

func TestConfigValidate_CollectsEverything(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Validate() = %v, want *ValidationErrors", err)
	}
	// An empty config is missing both URLs, the interval and the limit at
	// minimum.
	if len(verrs.Errors) < 4 {
		t.Errorf("got %d errors, want at least 4: %v", len(verrs.Errors), err)
	}
}
