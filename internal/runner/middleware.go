package runner

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/pulsehammer/internal/metrics"
	"github.com/torosent/pulsehammer/internal/tracing"
)

// FailureLogger logs failed request attempts.
type FailureLogger interface {
	LogFailure(out metrics.Outcome)
}

type loggingIssuer struct {
	inner  Issuer
	logger FailureLogger
}

// WithLogging wraps an Issuer so every unsuccessful attempt is reported to
// the logger. The outcome itself is passed through unchanged.
func WithLogging(issuer Issuer, logger FailureLogger) Issuer {
	if logger == nil {
		return issuer
	}
	return &loggingIssuer{inner: issuer, logger: logger}
}

func (l *loggingIssuer) Issue(ctx context.Context) metrics.Outcome {
	out := l.inner.Issue(ctx)
	if !out.Success {
		l.logger.LogFailure(out)
	}
	return out
}

type tracingIssuer struct {
	inner  Issuer
	tracer trace.Tracer
	method string
	target string
}

// WithTracing wraps an Issuer so every attempt runs inside a client span.
func WithTracing(issuer Issuer, tracer trace.Tracer, method, target string) Issuer {
	if tracer == nil {
		return issuer
	}
	return &tracingIssuer{inner: issuer, tracer: tracer, method: method, target: target}
}

func (t *tracingIssuer) Issue(ctx context.Context) metrics.Outcome {
	ctx, span := tracing.StartRequestSpan(ctx, t.tracer, t.method, t.target)
	out := t.inner.Issue(ctx)
	tracing.EndRequestSpan(span, out.StatusCode, string(out.ErrorKind))
	return out
}
