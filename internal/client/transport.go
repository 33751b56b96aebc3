package client

import (
	"log/slog"
	"net/http"
	"time"
)

// maxQueryLogLen is the maximum length for logged query strings before truncation.
const maxQueryLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
const slowRequestThreshold = 2 * time.Second

// LoggingTransport logs every request with timing.
// Failed round trips are logged at ERROR, 5xx and slow requests at WARN,
// everything else at DEBUG. Headers are never logged.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger

	// SlowThreshold overrides slowRequestThreshold when non-zero.
	SlowThreshold time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	slow := t.SlowThreshold
	if slow == 0 {
		slow = slowRequestThreshold
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", duration.Milliseconds(),
	}
	if q := req.URL.RawQuery; q != "" {
		attrs = append(attrs, "query", truncate(q, maxQueryLogLen))
	}

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		t.Logger.Error("request failed", attrs...)
	case resp.StatusCode >= 500:
		attrs = append(attrs, "status", resp.StatusCode)
		t.Logger.Warn("server error", attrs...)
	case duration > slow:
		attrs = append(attrs, "status", resp.StatusCode)
		t.Logger.Warn("slow request", attrs...)
	default:
		attrs = append(attrs, "status", resp.StatusCode)
		t.Logger.Debug("request completed", attrs...)
	}

	return resp, err
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
