package marketplace

import (
	"context"

	"github.com/sellerops/backend/internal/domain/integration"
)

// ShapeRequest is one candidate payload shape for a semantic write.
// Marketplace write APIs vary in undocumented ways; the same logical request
// may need to be array-wrapped, object-wrapped, or nested under a named
// field depending on API revision.
type ShapeRequest struct {
	// Name identifies the shape in log output.
	Name string
	// Do issues the request with this shape.
	Do RequestFunc
}

// TryShapes runs one bounded-retry chain per shape, in order, stopping at
// the first success. A SERVER or RATE_LIMIT terminal failure escalates
// immediately — that class of failure is not a schema mismatch, so further
// shapes would only add load. Otherwise the next shape is tried and the
// last failure is authoritative. The returned outcome's attempt count is
// the total across all chains.
func TryShapes(ctx context.Context, exec *Executor, shapes []ShapeRequest) (integration.RetryOutcome, *Response) {
	var (
		last     integration.RetryOutcome
		lastResp *Response
		attempts int
	)

	for _, shape := range shapes {
		outcome, resp := exec.Do(ctx, shape.Do)
		attempts += outcome.Attempts
		outcome.Attempts = attempts

		if outcome.OK {
			return outcome, resp
		}
		last = outcome
		lastResp = resp

		if outcome.Category == integration.FailureServer || outcome.Category == integration.FailureRateLimit {
			break
		}
	}
	return last, lastResp
}
