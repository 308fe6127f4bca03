package integration

import (
	"errors"
	"strings"
)

// ---------------------------------------------------------------------------
// MarketCode represents an external sales channel
// ---------------------------------------------------------------------------

// MarketCode represents the external marketplace a credential or record
// belongs to.
type MarketCode string

const (
	// MarketCodeCoupang represents the Coupang marketplace (WING open API)
	MarketCodeCoupang MarketCode = "COUPANG"
	// MarketCodeSmartStore represents the Naver SmartStore marketplace
	MarketCodeSmartStore MarketCode = "SMARTSTORE"
)

// ErrUnknownMarketCode indicates a market code outside the supported set.
var ErrUnknownMarketCode = errors.New("integration: unknown market code")

// IsValid returns true if the market code is one of the supported markets.
func (c MarketCode) IsValid() bool {
	switch c {
	case MarketCodeCoupang, MarketCodeSmartStore:
		return true
	default:
		return false
	}
}

// String returns the string representation of MarketCode.
func (c MarketCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the marketplace.
func (c MarketCode) DisplayName() string {
	switch c {
	case MarketCodeCoupang:
		return "쿠팡"
	case MarketCodeSmartStore:
		return "스마트스토어"
	default:
		return string(c)
	}
}

// ParseMarketCode parses a case-insensitive market identifier.
func ParseMarketCode(s string) (MarketCode, error) {
	code := MarketCode(strings.ToUpper(strings.TrimSpace(s)))
	if !code.IsValid() {
		return "", ErrUnknownMarketCode
	}
	return code, nil
}

// AllMarketCodes returns the supported market codes in stable order.
func AllMarketCodes() []MarketCode {
	return []MarketCode{MarketCodeCoupang, MarketCodeSmartStore}
}
