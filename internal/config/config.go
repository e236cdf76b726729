// Package config defines the probe's run configuration, its file loader
// and its validation.
package config

import (
	"os"
	"time"
)

// EnvLogLevel overrides the default log level when neither the config file
// nor a flag sets one.
const EnvLogLevel = "PUBPULSE_LOG_LEVEL"

// Defaults applied by ApplyDefaults.
const (
	DefaultName            = "pubpulse"
	DefaultInterval        = time.Second
	DefaultCheckBackoff    = 100 * time.Millisecond
	DefaultOperatorTimeout = 30 * time.Second
	DefaultLogLevel        = "info"
)

// Config is the full configuration for one probe run.
type Config struct {
	// Name labels the run in reports and logs.
	Name string `yaml:"name" json:"name"`

	// RootURL is the delivery-surface base checked for published content.
	RootURL string `yaml:"rootUrl" json:"rootUrl"`

	// Interval is the scheduler tick period. Bare numbers mean seconds.
	Interval Duration `yaml:"interval" json:"interval"`

	// OperationsLimit caps the operations spawned for the run.
	OperationsLimit int `yaml:"operationsLimit" json:"operationsLimit"`

	// CheckBackoff is the wait between unconverged content checks.
	CheckBackoff Duration `yaml:"checkBackoff" json:"checkBackoff"`

	// MaxChecks caps content checks per operation. Zero means unbounded.
	MaxChecks int `yaml:"maxChecks" json:"maxChecks"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel" json:"logLevel"`

	// StatusAddr, when set, serves the status and metrics endpoints on
	// this address, e.g. ":8611".
	StatusAddr string `yaml:"statusAddr" json:"statusAddr"`

	// Operator configures the CMS authoring-API adapter.
	Operator OperatorConfig `yaml:"operator" json:"operator"`

	// NodePool seeds the run with existing nodes to update in place.
	// Empty means the run creates and deletes its own nodes.
	NodePool []PoolNode `yaml:"nodePool" json:"nodePool"`
}

// OperatorConfig configures how the probe reaches the CMS.
type OperatorConfig struct {
	// BaseURL is the authoring API root.
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`

	// Timeout bounds each authoring and delivery request.
	Timeout Duration `yaml:"timeout" json:"timeout"`

	// Headers are added to every request, typically authentication.
	Headers map[string]string `yaml:"headers" json:"headers"`

	// InsecureSkipVerify skips TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecureSkipVerify" json:"insecureSkipVerify"`
}

// PoolNode describes one pre-existing CMS node in the seed pool.
type PoolNode struct {
	ID       string `yaml:"id" json:"id"`
	PagePath string `yaml:"pagePath" json:"pagePath"`
	Selector string `yaml:"selector" json:"selector"`
	Value    string `yaml:"value" json:"value"`
	Context  string `yaml:"context,omitempty" json:"context,omitempty"`
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Interval == 0 {
		c.Interval = Duration(DefaultInterval)
	}
	if c.CheckBackoff == 0 {
		c.CheckBackoff = Duration(DefaultCheckBackoff)
	}
	if c.Operator.Timeout == 0 {
		c.Operator.Timeout = Duration(DefaultOperatorTimeout)
	}
	if c.LogLevel == "" {
		c.LogLevel = os.Getenv(EnvLogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}
