// Package config provides configuration loading and validation for
// pulsehammer.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Config is the fully resolved run configuration. It is validated once,
// before any worker process is spawned; a validation failure aborts the run
// without starting anything.
type Config struct {
	TargetURL string            `mapstructure:"target"`
	Method    string            `mapstructure:"method"`
	Headers   map[string]string `mapstructure:"headers"`
	Body      string            `mapstructure:"body"`
	BodyFile  string            `mapstructure:"body_file"`
	JSONBody  string            `mapstructure:"json_body"`

	Duration    time.Duration `mapstructure:"duration"`
	Rate        int           `mapstructure:"rate"`         // target aggregate requests per second
	Workers     int           `mapstructure:"workers"`      // 0 = auto sizing
	AutoWorkers bool          `mapstructure:"auto_workers"` // heuristic sizing when Workers == 0
	Concurrency int           `mapstructure:"concurrency"`  // per-worker in-flight cap
	Timeout     time.Duration `mapstructure:"timeout"`      // per-request timeout
	Warmup      int           `mapstructure:"warmup"`       // untimed warmup requests per worker
	Insecure    bool          `mapstructure:"insecure"`     // disable TLS verification
	HTTP2       bool          `mapstructure:"http2"`        // attempt HTTP/2 upgrades

	LogErrors  bool     `mapstructure:"log_errors"`
	JSONOutput bool     `mapstructure:"json_output"`
	Progress   bool     `mapstructure:"progress"`
	CSVOutput  string   `mapstructure:"csv_output"`
	HTMLOutput string   `mapstructure:"html_output"`
	Thresholds []string `mapstructure:"thresholds"`

	Tracing TracingConfig `mapstructure:"tracing"`

	ConfigFile string `mapstructure:"-"`
}

// TracingConfig configures the optional OTLP trace export inside workers.
// Resolved once at startup and passed explicitly into each worker spec.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint" json:"endpoint,omitempty"`
	Protocol    string  `mapstructure:"protocol" json:"protocol,omitempty"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name" json:"service_name,omitempty"`
	Insecure    bool    `mapstructure:"insecure" json:"insecure,omitempty"`
	SampleRate  float64 `mapstructure:"sample_rate" json:"sample_rate,omitempty"`
}

// ValidationError reports one or more configuration problems. It is fatal:
// the orchestrator refuses to launch any worker when validation fails.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required")
	}
	if c.Rate < 1 {
		issues = append(issues, "rate must be >= 1")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Workers < 0 {
		issues = append(issues, "workers must be >= 0 (0 means auto)")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Warmup < 0 {
		issues = append(issues, "warmup must be >= 0")
	}

	bodies := 0
	if strings.TrimSpace(c.Body) != "" {
		bodies++
	}
	if strings.TrimSpace(c.BodyFile) != "" {
		bodies++
	}
	if strings.TrimSpace(c.JSONBody) != "" {
		bodies++
	}
	if bodies > 1 {
		issues = append(issues, "body, body-file and json are mutually exclusive")
	}
	if c.JSONBody != "" && !gjson.Valid(c.JSONBody) {
		issues = append(issues, "json body is not valid JSON")
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		issues = append(issues, "tracing sample_rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// EffectiveBody resolves the inline body; the JSON body takes precedence
// over the plain one. The Content-Type default for JSON bodies is applied
// by Loader.Load.
func (c *Config) EffectiveBody() string {
	if c.JSONBody != "" {
		return c.JSONBody
	}
	return c.Body
}
