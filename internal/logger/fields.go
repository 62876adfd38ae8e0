package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so the aggregated
// output stays queryable.
const (
	// Request correlation
	KeyRequestID = "request_id" // Per-request correlation ID
	KeyClientIP  = "client_ip"  // Client IP address
	KeyMethod    = "method"     // HTTP method
	KeyRoute     = "route"      // Matched route pattern
	KeyStatus    = "status"     // HTTP status code

	// Identity
	KeyUsername = "username" // Platform username
	KeyProvider = "provider" // Authentication provider name
	KeyRole     = "role"     // Platform role
	KeyDomain   = "domain"   // Directory domain (UPN suffix)

	// Monitoring domain
	KeyEndpoint = "endpoint" // Monitored endpoint hostname
	KeyMetric   = "metric"   // Metric sample name
	KeySamples  = "samples"  // Number of samples in a batch
	KeyAction   = "action"   // Audit action identifier

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyCount      = "count"       // Generic item count
)

// Err returns a slog.Attr for an error message.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Username returns a slog.Attr for the platform username.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Provider returns a slog.Attr for the authentication provider name.
func Provider(name string) slog.Attr {
	return slog.String(KeyProvider, name)
}

// Endpoint returns a slog.Attr for the monitored endpoint hostname.
func Endpoint(hostname string) slog.Attr {
	return slog.String(KeyEndpoint, hostname)
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
