package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/torosent/pulsehammer/internal/metrics"
)

// Issuer performs exactly one HTTP attempt per call and classifies the
// outcome. It never retries; failed attempts are rate-neutral and the caller
// decides what to do with them.
type Issuer struct {
	client  *http.Client
	builder *RequestBuilder
}

func NewIssuer(client *http.Client, builder *RequestBuilder) *Issuer {
	return &Issuer{client: client, builder: builder}
}

// Issue fires one request. The start timestamp is taken immediately before
// the call is initiated and the end timestamp after the response body has
// been fully consumed, so latency covers the complete transfer. The body is
// always drained to keep the underlying connection reusable.
func (i *Issuer) Issue(ctx context.Context) metrics.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()

	req, err := i.builder.Build(ctx)
	if err != nil {
		return failureOutcome(start, time.Now(), ClassifyError(err))
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return failureOutcome(start, time.Now(), ClassifyError(err))
	}

	n, readErr := io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	end := time.Now()

	if readErr != nil {
		out := failureOutcome(start, end, ClassifyError(readErr))
		out.ResponseBytes = n
		return out
	}

	return metrics.Outcome{
		Start:         start,
		End:           end,
		StatusCode:    resp.StatusCode,
		Success:       resp.StatusCode >= 200 && resp.StatusCode < 400,
		ResponseBytes: n,
	}
}

func failureOutcome(start, end time.Time, kind metrics.ErrorKind) metrics.Outcome {
	return metrics.Outcome{
		Start:     start,
		End:       end,
		ErrorKind: kind,
	}
}

// ClassifyError maps a transport-level failure onto the error taxonomy:
// elapsed deadlines are timeouts, dial failures are connection errors, other
// URL/protocol failures are client errors, anything else is unknown.
func ClassifyError(err error) metrics.ErrorKind {
	if err == nil {
		return metrics.ErrorKindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metrics.ErrorKindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return metrics.ErrorKindConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return metrics.ErrorKindClient
	}

	return metrics.ErrorKindUnknown
}
