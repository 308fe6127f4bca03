package marketplace

import (
	"errors"
	"time"
)

// SmartStoreConfig holds configuration for the Naver SmartStore commerce
// API. Per-seller client credentials arrive at request time from the
// credential vault.
type SmartStoreConfig struct {
	// APIBaseURL is the base URL for the SmartStore commerce API.
	APIBaseURL string
	// TokenPath is the OAuth token endpoint path.
	TokenPath string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
	// PageSize is the page size used for order and inquiry pulls.
	PageSize int
	// TokenTTLMargin is subtracted from the token's reported lifetime before
	// caching, so a token is never served within its expiry window.
	TokenTTLMargin time.Duration
}

const (
	// SmartStoreProductionAPIURL is the production API endpoint.
	SmartStoreProductionAPIURL = "https://api.commerce.naver.com"
	// smartStoreTokenPath is the default OAuth client-credentials endpoint.
	smartStoreTokenPath = "/external/v1/oauth2/token"
)

// ErrSmartStoreConfigMissingBaseURL indicates an empty API base URL.
var ErrSmartStoreConfigMissingBaseURL = errors.New("smartstore: API base URL is required")

// NewSmartStoreConfig creates a new SmartStore configuration with defaults.
func NewSmartStoreConfig() *SmartStoreConfig {
	return &SmartStoreConfig{
		APIBaseURL:     SmartStoreProductionAPIURL,
		TokenPath:      smartStoreTokenPath,
		TimeoutSeconds: 15,
		PageSize:       50,
		TokenTTLMargin: time.Minute,
	}
}

// Validate validates the SmartStore configuration.
func (c *SmartStoreConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrSmartStoreConfigMissingBaseURL
	}
	if c.TokenPath == "" {
		c.TokenPath = smartStoreTokenPath
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.TokenTTLMargin <= 0 {
		c.TokenTTLMargin = time.Minute
	}
	return nil
}
