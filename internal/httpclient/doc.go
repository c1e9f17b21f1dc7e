// Package httpclient builds and fires the HTTP requests of a load test.
//
// [NewClient] creates a client with a connection pool tuned for sustained
// request volume; each worker process owns its own client. [RequestBuilder]
// constructs identical requests from validated options, with bodies supplied
// by a [BodySource] (inline, file-backed, or empty).
//
// [Issuer] is the measurement primitive: one call, one attempt, one
// classified [github.com/torosent/pulsehammer/internal/metrics.Outcome].
// Latency spans request initiation through full body drain.
package httpclient
