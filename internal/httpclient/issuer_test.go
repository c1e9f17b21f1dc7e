package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/torosent/pulsehammer/internal/metrics"
)

func newIssuerFor(t *testing.T, targetURL string, timeout time.Duration) *Issuer {
	t.Helper()
	builder, err := NewRequestBuilder(RequestOptions{TargetURL: targetURL})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	return NewIssuer(NewClient(timeout, false, true), builder)
}

func TestIssueSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	out := newIssuerFor(t, srv.URL, 5*time.Second).Issue(context.Background())

	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", out.StatusCode)
	}
	if out.ResponseBytes != int64(len("hello world")) {
		t.Fatalf("bytes = %d", out.ResponseBytes)
	}
	if out.ErrorKind != "" {
		t.Fatalf("unexpected error kind %q", out.ErrorKind)
	}
	if out.End.Before(out.Start) {
		t.Fatal("end precedes start")
	}
}

func TestIssueServerErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	out := newIssuerFor(t, srv.URL, 5*time.Second).Issue(context.Background())

	// A received 5xx is unsuccessful but is not a transport error: the status
	// is kept and no error kind is assigned.
	if out.Success {
		t.Fatal("500 must not be a success")
	}
	if out.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", out.StatusCode)
	}
	if out.ErrorKind != "" {
		t.Fatalf("unexpected error kind %q", out.ErrorKind)
	}
}

func TestIssueTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	out := newIssuerFor(t, srv.URL, 50*time.Millisecond).Issue(context.Background())

	if out.Success || out.StatusCode != 0 {
		t.Fatalf("expected timeout failure, got %+v", out)
	}
	if out.ErrorKind != metrics.ErrorKindTimeout {
		t.Fatalf("error kind = %q, want Timeout", out.ErrorKind)
	}
	if out.Latency() < 40*time.Millisecond {
		t.Fatalf("failed attempt latency not observable: %s", out.Latency())
	}
}

func TestIssueConnectionError(t *testing.T) {
	// Grab a port that is guaranteed closed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	out := newIssuerFor(t, target, time.Second).Issue(context.Background())

	if out.ErrorKind != metrics.ErrorKindConnection {
		t.Fatalf("error kind = %q, want ConnectionError", out.ErrorKind)
	}
	if out.StatusCode != 0 {
		t.Fatalf("status = %d, want none", out.StatusCode)
	}
}

func TestRequestBuilderValidation(t *testing.T) {
	if _, err := NewRequestBuilder(RequestOptions{}); err == nil {
		t.Fatal("empty target must be rejected")
	}
	if _, err := NewRequestBuilder(RequestOptions{TargetURL: "not a url"}); err == nil {
		t.Fatal("unparseable target must be rejected")
	}
	if _, err := NewRequestBuilder(RequestOptions{TargetURL: "ftp://example.com/file"}); err == nil {
		t.Fatal("non-http scheme must be rejected")
	}
	if _, err := NewRequestBuilder(RequestOptions{TargetURL: "http://"}); err == nil {
		t.Fatal("target without host must be rejected")
	}
	if _, err := NewRequestBuilder(RequestOptions{
		TargetURL: "http://example.com",
		Headers:   map[string]string{"X-Bad\r\n": "v"},
	}); err == nil {
		t.Fatal("header key with CRLF must be rejected")
	}
	if _, err := NewRequestBuilder(RequestOptions{
		TargetURL: "http://example.com",
		Body:      "a",
		BodyFile:  "b.txt",
	}); err == nil {
		t.Fatal("body and body file are mutually exclusive")
	}
}

func TestRequestBuilderDefaultsMethod(t *testing.T) {
	builder, err := NewRequestBuilder(RequestOptions{TargetURL: "http://example.com", Method: "post"})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Method != http.MethodPost {
		t.Fatalf("method = %q", req.Method)
	}

	builder, err = NewRequestBuilder(RequestOptions{TargetURL: "http://example.com"})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	req, err = builder.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Method != http.MethodGet {
		t.Fatalf("default method = %q", req.Method)
	}
}

func TestInlineBodyContentLength(t *testing.T) {
	builder, err := NewRequestBuilder(RequestOptions{
		TargetURL: "http://example.com",
		Method:    "POST",
		Body:      `{"k":"v"}`,
	})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.ContentLength != int64(len(`{"k":"v"}`)) {
		t.Fatalf("content length = %d", req.ContentLength)
	}
}
