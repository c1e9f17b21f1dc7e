package metrics

import (
	"strconv"
	"time"
)

// ErrorKind categorizes a request attempt that did not receive a response.
type ErrorKind string

const (
	ErrorKindTimeout    ErrorKind = "Timeout"
	ErrorKindConnection ErrorKind = "ConnectionError"
	ErrorKindClient     ErrorKind = "ClientError"
	ErrorKindUnknown    ErrorKind = "UnknownError"
)

// Outcome captures one completed (or failed) request attempt.
//
// Exactly one of the two shapes holds: a response was received and StatusCode
// is set (ErrorKind empty, Success reflects the status class), or no response
// was received and ErrorKind is set (StatusCode zero, Success false).
type Outcome struct {
	Start         time.Time
	End           time.Time
	StatusCode    int   // 0 when no response was received
	Success       bool  // true iff status in [200, 400)
	ResponseBytes int64 // bytes read from the response body
	ErrorKind     ErrorKind
}

// Latency returns the end-to-end duration of the attempt, including the full
// body transfer. Never negative.
func (o Outcome) Latency() time.Duration {
	d := o.End.Sub(o.Start)
	if d < 0 {
		return 0
	}
	return d
}

// HasStatus reports whether a response status was received.
func (o Outcome) HasStatus() bool {
	return o.StatusCode != 0
}

// StatusLabel returns the bucket key for status counting: the numeric status
// code, or "ERR" when no response was received.
func (o Outcome) StatusLabel() string {
	if o.StatusCode == 0 {
		return "ERR"
	}
	return strconv.Itoa(o.StatusCode)
}
