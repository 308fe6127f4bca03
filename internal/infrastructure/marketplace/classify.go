package marketplace

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sellerops/backend/internal/domain/integration"
)

// This file is the only place free-text error matching happens. Marketplace
// error strings are uncontrolled third-party output; the heuristics stay
// quarantined here so the rest of the core pattern-matches on the closed
// FailureCategory taxonomy instead.

var authBodyHints = []string{
	"unauthorized",
	"invalid signature",
	"invalid token",
	"token expired",
	"access denied",
	"authentication",
	"hmac",
}

var rateLimitBodyHints = []string{
	"rate limit",
	"too many requests",
	"throttl",
	"quota",
}

var networkErrHints = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"broken pipe",
	"eof",
}

// ClassifyHTTP classifies a non-2xx HTTP response into a failure category.
func ClassifyHTTP(statusCode int, body string) integration.FailureCategory {
	lower := strings.ToLower(body)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return integration.FailureAuth
	case statusCode == http.StatusTooManyRequests:
		return integration.FailureRateLimit
	case statusCode >= 500:
		return integration.FailureServer
	case statusCode >= 400:
		if containsAny(lower, authBodyHints) {
			return integration.FailureAuth
		}
		if containsAny(lower, rateLimitBodyHints) {
			return integration.FailureRateLimit
		}
		return integration.FailureInvalid
	default:
		return integration.FailureUnknown
	}
}

// ClassifyErr classifies a request-level error (no HTTP response at all).
func ClassifyErr(err error) integration.FailureCategory {
	if err == nil {
		return integration.FailureUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return integration.FailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return integration.FailureNetwork
	}
	if containsAny(strings.ToLower(err.Error()), networkErrHints) {
		return integration.FailureNetwork
	}
	return integration.FailureUnknown
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}
