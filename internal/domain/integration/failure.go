package integration

// ---------------------------------------------------------------------------
// FailureCategory is the closed taxonomy for marketplace failures
// ---------------------------------------------------------------------------

// FailureCategory classifies why a marketplace operation failed. The
// classification is best-effort text/status matching performed at the HTTP
// boundary; callers treat the taxonomy as authoritative and exhaustive.
type FailureCategory string

const (
	// FailureAuth indicates rejected credentials or signatures (HTTP 401/403).
	FailureAuth FailureCategory = "AUTH"
	// FailureRateLimit indicates request throttling by the marketplace (HTTP 429).
	FailureRateLimit FailureCategory = "RATE_LIMIT"
	// FailureServer indicates a marketplace-side fault (HTTP 5xx).
	FailureServer FailureCategory = "SERVER"
	// FailureInvalid indicates the request was rejected as malformed (other 4xx).
	FailureInvalid FailureCategory = "INVALID"
	// FailureNetwork indicates a transport-level failure (timeout, DNS, reset).
	FailureNetwork FailureCategory = "NETWORK"
	// FailureConfig indicates missing or unusable local configuration
	// (absent credentials, undecryptable keys, missing vendor id).
	FailureConfig FailureCategory = "CONFIG"
	// FailureCategoryMismatch indicates a listing-category validation failure
	// reported by publish-style flows.
	FailureCategoryMismatch FailureCategory = "CATEGORY"
	// FailureImage indicates an image validation failure in publish-style flows.
	FailureImage FailureCategory = "IMAGE"
	// FailurePrice indicates a price validation failure in publish-style flows.
	FailurePrice FailureCategory = "PRICE"
	// FailureUnknown is the default fallback when no other category matches.
	FailureUnknown FailureCategory = "UNKNOWN"
)

// IsValid returns true if the category is part of the taxonomy.
func (c FailureCategory) IsValid() bool {
	switch c {
	case FailureAuth, FailureRateLimit, FailureServer, FailureInvalid,
		FailureNetwork, FailureConfig, FailureCategoryMismatch,
		FailureImage, FailurePrice, FailureUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of FailureCategory.
func (c FailureCategory) String() string {
	return string(c)
}

// ShouldRetry returns true if another in-process attempt can plausibly
// succeed. AUTH and INVALID are terminal: the same request will fail the
// same way. CONFIG never reaches the retry loop at all.
func (c FailureCategory) ShouldRetry() bool {
	switch c {
	case FailureRateLimit, FailureServer, FailureNetwork:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// RetryOutcome
// ---------------------------------------------------------------------------

// RetryOutcome is the terminal result of one bounded-retry attempt chain.
// It is never persisted directly; push clients fold the terminal outcome
// into a PushAuditLogEntry.
type RetryOutcome struct {
	// OK is true if any attempt succeeded.
	OK bool
	// StatusCode is the HTTP status of the last attempt (0 if no response).
	StatusCode int
	// Category classifies the last failure; unset when OK.
	Category FailureCategory
	// Message is the human-readable failure description of the last attempt.
	Message string
	// Attempts is the number of HTTP attempts actually issued.
	Attempts int
}
