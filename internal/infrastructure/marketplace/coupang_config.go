package marketplace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// CoupangConfig holds configuration for the Coupang WING open API.
// Per-seller credentials (access key, secret key, vendor id) arrive at
// request time from the credential vault; this struct carries only the
// deployment-level settings.
type CoupangConfig struct {
	// APIBaseURL is the base URL for the Coupang API.
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
	// PageSize is the page size used for order and inquiry pulls.
	PageSize int
}

const (
	// CoupangProductionAPIURL is the production API endpoint.
	CoupangProductionAPIURL = "https://api-gateway.coupang.com"
	// coupangSignedDateLayout is the UTC timestamp layout the signature embeds.
	coupangSignedDateLayout = "060102T150405Z"
)

// ErrCoupangConfigMissingBaseURL indicates an empty API base URL.
var ErrCoupangConfigMissingBaseURL = errors.New("coupang: API base URL is required")

// NewCoupangConfig creates a new Coupang configuration with defaults.
func NewCoupangConfig() *CoupangConfig {
	return &CoupangConfig{
		APIBaseURL:     CoupangProductionAPIURL,
		TimeoutSeconds: 15,
		PageSize:       50,
	}
}

// Validate validates the Coupang configuration.
func (c *CoupangConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrCoupangConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	return nil
}

// SignCoupangAuthorization builds the CEA Authorization header value for one
// request. Coupang signs method + URL-path + query with HMAC-SHA256 over a
// UTC timestamp:
//
//	message   = signed-date + method + path + query
//	signature = hex(HMAC-SHA256(secretKey, message))
//
// The query string is signed WITHOUT its leading "?". A clock skew beyond a
// few minutes makes Coupang reject the signature, so now must be wall time.
func SignCoupangAuthorization(accessKey, secretKey, method, path, query string, now time.Time) string {
	signedDate := now.UTC().Format(coupangSignedDateLayout)

	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(signedDate + method + path + query))
	signature := hex.EncodeToString(h.Sum(nil))

	return fmt.Sprintf(
		"CEA algorithm=HmacSHA256, access-key=%s, signed-date=%s, signature=%s",
		accessKey, signedDate, signature,
	)
}
