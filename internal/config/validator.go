package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the whole configuration.
//
// Returns nil if valid, or a ValidationErrors containing every problem
// found.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.RootURL == "" {
		errs.Add("rootUrl", "root URL is required")
	} else if !isValidURL(c.RootURL) {
		errs.Add("rootUrl", fmt.Sprintf("invalid URL: %s", c.RootURL))
	}

	if c.Operator.BaseURL == "" {
		errs.Add("operator.baseUrl", "operator base URL is required")
	} else if !isValidURL(c.Operator.BaseURL) {
		errs.Add("operator.baseUrl", fmt.Sprintf("invalid URL: %s", c.Operator.BaseURL))
	}

	if c.Interval <= 0 {
		errs.Add("interval", "tick interval must be positive")
	}
	if c.OperationsLimit <= 0 {
		errs.Add("operationsLimit", "operations limit must be positive")
	}
	if c.CheckBackoff < 0 {
		errs.Add("checkBackoff", "check backoff cannot be negative")
	}
	if c.MaxChecks < 0 {
		errs.Add("maxChecks", "max checks cannot be negative")
	}
	if c.Operator.Timeout < 0 {
		errs.Add("operator.timeout", "timeout cannot be negative")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs.Add("logLevel", fmt.Sprintf("unknown log level %q", c.LogLevel))
	}

	validatePool(c.NodePool, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validatePool checks the seed pool entries.
func validatePool(pool []PoolNode, errs *ValidationErrors) {
	seen := make(map[string]bool, len(pool))
	for i, n := range pool {
		field := fmt.Sprintf("nodePool[%d]", i)
		switch {
		case n.ID == "":
			errs.Add(field+".id", "node id is required")
		case seen[n.ID]:
			errs.Add(field+".id", fmt.Sprintf("duplicate node id %q", n.ID))
		default:
			seen[n.ID] = true
		}
		if n.PagePath == "" {
			errs.Add(field+".pagePath", "page path is required")
		}
		if n.Selector == "" {
			errs.Add(field+".selector", "selector is required")
		}
	}
}

// isValidURL checks if a string is a valid http or https URL.
func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
