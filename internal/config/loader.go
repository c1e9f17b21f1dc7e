package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help.
var ErrHelpRequested = errors.New("help requested")

func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and an optional config file into a
// Config. Flags that were explicitly set override file values.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flags := cmd.Flags()
	if wantsHelp, err := flags.GetBool("help"); err == nil && wantsHelp {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	configPath, _ := flags.GetString("config")
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := &Config{
		Method:      "GET",
		Headers:     map[string]string{},
		Duration:    30 * time.Second,
		AutoWorkers: true,
		Concurrency: 256,
		Timeout:     10 * time.Second,
		HTTP2:       true,
		ConfigFile:  configPath,
	}

	if configPath != "" {
		v := viper.New()
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		// viper lowercases map keys on the way in; restore canonical header
		// form so file and flag headers merge consistently.
		if len(cfg.Headers) > 0 {
			canonical := make(map[string]string, len(cfg.Headers))
			for key, value := range cfg.Headers {
				canonical[http.CanonicalHeaderKey(key)] = value
			}
			cfg.Headers = canonical
		}
	}

	if err := applyFlagOverrides(cfg, flags); err != nil {
		return nil, err
	}

	// The first positional argument is the target URL, as in
	// `pulsehammer https://host/path --rps 1000`.
	if rest := flags.Args(); len(rest) > 0 && strings.TrimSpace(rest[0]) != "" {
		cfg.TargetURL = strings.TrimSpace(rest[0])
	}

	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	cfg.BodyFile = strings.TrimSpace(cfg.BodyFile)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	if cfg.JSONBody != "" {
		if _, ok := cfg.Headers["Content-Type"]; !ok {
			cfg.Headers["Content-Type"] = "application/json"
		}
	}

	return cfg, nil
}

func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var headerErr error
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "target":
			cfg.TargetURL, _ = flags.GetString("target")
		case "method":
			cfg.Method, _ = flags.GetString("method")
		case "header":
			values, _ := flags.GetStringArray("header")
			parsed, err := ParseHeaders(values)
			if err != nil {
				headerErr = err
				return
			}
			for k, v := range parsed {
				cfg.Headers[http.CanonicalHeaderKey(k)] = v
			}
		case "body":
			cfg.Body, _ = flags.GetString("body")
		case "body-file":
			cfg.BodyFile, _ = flags.GetString("body-file")
		case "json":
			cfg.JSONBody, _ = flags.GetString("json")
		case "duration":
			cfg.Duration, _ = flags.GetDuration("duration")
		case "rps":
			cfg.Rate, _ = flags.GetInt("rps")
		case "workers":
			cfg.Workers, _ = flags.GetInt("workers")
		case "auto-workers":
			cfg.AutoWorkers, _ = flags.GetBool("auto-workers")
		case "concurrency":
			cfg.Concurrency, _ = flags.GetInt("concurrency")
		case "timeout":
			cfg.Timeout, _ = flags.GetDuration("timeout")
		case "warmup":
			cfg.Warmup, _ = flags.GetInt("warmup")
		case "insecure":
			cfg.Insecure, _ = flags.GetBool("insecure")
		case "http2":
			cfg.HTTP2, _ = flags.GetBool("http2")
		case "log-errors":
			cfg.LogErrors, _ = flags.GetBool("log-errors")
		case "json-output":
			cfg.JSONOutput, _ = flags.GetBool("json-output")
		case "progress":
			cfg.Progress, _ = flags.GetBool("progress")
		case "csv":
			cfg.CSVOutput, _ = flags.GetString("csv")
		case "html":
			cfg.HTMLOutput, _ = flags.GetString("html")
		case "threshold":
			cfg.Thresholds, _ = flags.GetStringArray("threshold")
		case "trace-endpoint":
			cfg.Tracing.Endpoint, _ = flags.GetString("trace-endpoint")
		case "trace-protocol":
			cfg.Tracing.Protocol, _ = flags.GetString("trace-protocol")
		case "trace-service-name":
			cfg.Tracing.ServiceName, _ = flags.GetString("trace-service-name")
		case "trace-insecure":
			cfg.Tracing.Insecure, _ = flags.GetBool("trace-insecure")
		case "trace-sample-rate":
			cfg.Tracing.SampleRate, _ = flags.GetFloat64("trace-sample-rate")
		}
	})
	return headerErr
}

// ParseHeaders parses repeated "Key: Value" header arguments.
func ParseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, item := range values {
		key, value, found := strings.Cut(item, ":")
		if !found {
			return nil, fmt.Errorf("invalid header %q, expected 'Key: Value'", item)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid header %q, empty key", item)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pulsehammer [target-url]",
		Short:         "Open-loop multi-process HTTP load generator",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Request shape
	flags.String("target", "", "Target URL (or pass it as the first argument)")
	flags.StringP("method", "X", "GET", "HTTP method to use")
	flags.StringArrayP("header", "H", nil, `Request header as "Key: Value" (repeatable)`)
	flags.String("body", "", "Inline request body payload")
	flags.String("body-file", "", "Path to file containing the request body")
	flags.String("json", "", "JSON request body (sets Content-Type)")

	// Load shape
	flags.DurationP("duration", "D", 30*time.Second, "How long to run the test (e.g. 30s, 1m)")
	flags.Int("rps", 0, "Target aggregate requests per second (open-loop)")
	flags.IntP("workers", "w", 0, "Worker processes (0 = auto sizing)")
	flags.Bool("auto-workers", true, "Enable auto worker sizing when --workers is 0")
	flags.IntP("concurrency", "c", 256, "Per-worker in-flight request cap")
	flags.DurationP("timeout", "t", 10*time.Second, "Per-request timeout")
	flags.Int("warmup", 0, "Untimed warmup requests per worker (excluded from stats)")
	flags.Bool("insecure", false, "Disable TLS certificate verification")
	flags.Bool("http2", true, "Attempt HTTP/2 upgrades")

	// Output
	flags.Bool("log-errors", false, "Log each failed request to stderr")
	flags.Bool("json-output", false, "Emit the final report as JSON")
	flags.Bool("progress", false, "Show elapsed/remaining progress while running")
	flags.String("csv", "", "Export the report to a CSV file")
	flags.String("html", "", "Export a standalone HTML report")
	flags.StringArray("threshold", nil, `Assertion such as "http_req_duration:p99 < 250" (repeatable)`)

	// Tracing
	flags.String("trace-endpoint", "", "OTLP endpoint for per-request traces")
	flags.String("trace-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("trace-service-name", "", "Service name reported on spans")
	flags.Bool("trace-insecure", false, "Disable TLS for OTLP export")
	flags.Float64("trace-sample-rate", 1.0, "Trace sampling ratio in [0,1]")

	flags.String("config", "", "Path to configuration file (JSON or YAML)")
	flags.BoolP("help", "h", false, "Show help")
}

func displayHelp(cmd *cobra.Command) {
	_ = cmd.Help()
}
