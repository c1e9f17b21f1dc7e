package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoadFromFlags(t *testing.T) {
	cfg, err := NewLoader().Load([]string{
		"http://localhost:9000/ping",
		"--rps", "5000",
		"-D", "45s",
		"-w", "4",
		"-c", "128",
		"-t", "2s",
		"-X", "post",
		"-H", "X-Api-Key: secret",
		"-H", "Accept: application/json",
		"--warmup", "10",
		"--insecure",
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TargetURL != "http://localhost:9000/ping" {
		t.Fatalf("target = %q", cfg.TargetURL)
	}
	if cfg.Rate != 5000 || cfg.Workers != 4 || cfg.Concurrency != 128 {
		t.Fatalf("load shape = rate %d workers %d concurrency %d", cfg.Rate, cfg.Workers, cfg.Concurrency)
	}
	if cfg.Duration != 45*time.Second || cfg.Timeout != 2*time.Second {
		t.Fatalf("durations = %s / %s", cfg.Duration, cfg.Timeout)
	}
	if cfg.Method != "POST" {
		t.Fatalf("method = %q", cfg.Method)
	}
	if cfg.Headers["X-Api-Key"] != "secret" || cfg.Headers["Accept"] != "application/json" {
		t.Fatalf("headers = %v", cfg.Headers)
	}
	if cfg.Warmup != 10 || !cfg.Insecure {
		t.Fatalf("warmup = %d insecure = %v", cfg.Warmup, cfg.Insecure)
	}
	if !cfg.AutoWorkers || !cfg.HTTP2 {
		t.Fatal("defaults lost")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load([]string{"http://localhost:1/"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Concurrency != 256 {
		t.Fatalf("default concurrency = %d", cfg.Concurrency)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("default timeout = %s", cfg.Timeout)
	}
	if cfg.Duration != 30*time.Second {
		t.Fatalf("default duration = %s", cfg.Duration)
	}
	if cfg.Workers != 0 || !cfg.AutoWorkers {
		t.Fatal("default sizing should be auto")
	}
}

func TestLoadFromYAMLFileWithFlagOverride(t *testing.T) {
	fileCfg := map[string]interface{}{
		"target":      "http://from-file:8080/",
		"rate":        1000,
		"duration":    "20s",
		"concurrency": 64,
		"headers":     map[string]string{"X-From": "file"},
		"tracing": map[string]interface{}{
			"endpoint":    "collector:4317",
			"sample_rate": 0.25,
		},
	}
	raw, err := yaml.Marshal(fileCfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := NewLoader().Load([]string{"--config", path, "--rps", "2000"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TargetURL != "http://from-file:8080/" {
		t.Fatalf("target = %q", cfg.TargetURL)
	}
	// The explicit flag wins over the file value.
	if cfg.Rate != 2000 {
		t.Fatalf("rate = %d, want flag override 2000", cfg.Rate)
	}
	if cfg.Duration != 20*time.Second || cfg.Concurrency != 64 {
		t.Fatalf("file values lost: %s / %d", cfg.Duration, cfg.Concurrency)
	}
	if cfg.Headers["X-From"] != "file" {
		t.Fatalf("headers = %v", cfg.Headers)
	}
	if cfg.Tracing.Endpoint != "collector:4317" || cfg.Tracing.SampleRate != 0.25 {
		t.Fatalf("tracing = %+v", cfg.Tracing)
	}
}

func TestLoadJSONBodySetsContentType(t *testing.T) {
	cfg, err := NewLoader().Load([]string{"http://localhost/", "--json", `{"k":"v"}`})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JSONBody != `{"k":"v"}` {
		t.Fatalf("json body = %q", cfg.JSONBody)
	}
	if cfg.Headers["Content-Type"] != "application/json" {
		t.Fatalf("headers = %v", cfg.Headers)
	}
}

func TestLoadNoArgsShowsHelp(t *testing.T) {
	_, err := NewLoader().Load(nil)
	if !errors.Is(err, ErrHelpRequested) {
		t.Fatalf("err = %v, want ErrHelpRequested", err)
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := ParseHeaders([]string{"Authorization: Bearer abc", "X-Empty:"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if headers["Authorization"] != "Bearer abc" {
		t.Fatalf("headers = %v", headers)
	}
	if headers["X-Empty"] != "" {
		t.Fatalf("headers = %v", headers)
	}

	if _, err := ParseHeaders([]string{"no-colon-here"}); err == nil {
		t.Fatal("missing colon must be rejected")
	}
	if _, err := ParseHeaders([]string{": value"}); err == nil {
		t.Fatal("empty key must be rejected")
	}
}
