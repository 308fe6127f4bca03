package courier

import (
	"context"
	"strings"
	"unicode"

	"github.com/sellerops/backend/internal/domain/integration"
)

// LegacyDefaultMarketCode is forwarded when every other tier of courier
// resolution comes up empty. Forwarding a plausible code instead of blocking
// the shipment notification is a deliberate business decision: an occasional
// wrong courier on the tracking page beats no tracking page at all.
const LegacyDefaultMarketCode = "CJGLS"

// Company is one courier carrier in the reference set. The resolver never
// mutates companies; they are loaded per call from the settings-owned table.
type Company struct {
	// InternalCode is the canonical code used across the system (e.g. "cj").
	InternalCode string
	// DisplayName is the human-readable carrier name (e.g. "CJ대한통운").
	DisplayName string
	// MarketCodes maps each marketplace to its code for this carrier.
	// A missing entry means the market has no known code for the carrier.
	MarketCodes map[integration.MarketCode]string
}

// CompanyRepository loads the courier reference set.
type CompanyRepository interface {
	// FindAll returns every courier company in stable order.
	FindAll(ctx context.Context) ([]Company, error)
}

// manualAliases maps colloquial Korean courier names to internal codes.
// These cover spellings that appear in seller-uploaded files but never in
// the reference table itself.
var manualAliases = map[string]string{
	"대한통운":    "cj",
	"cj대한통운":  "cj",
	"씨제이":     "cj",
	"cjgls":   "cj",
	"한진":      "hanjin",
	"한진택배":    "hanjin",
	"롯데":      "lotte",
	"롯데택배":    "lotte",
	"현대택배":    "lotte",
	"로젠":      "logen",
	"로젠택배":    "logen",
	"우체국":     "epost",
	"우체국택배":   "epost",
	"epost":   "epost",
	"경동":      "kdexp",
	"경동택배":    "kdexp",
	"일양":      "ilyang",
	"일양로지스":   "ilyang",
	"편의점택배":   "cvsnet",
	"cu편의점택배": "cvsnet",
}

// NormalizeAlias lowercases the input and strips everything that is not a
// Latin letter, a digit, or Hangul. Uploaded files carry couriers with
// arbitrary spacing, punctuation, and casing.
func NormalizeAlias(input string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(input) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.Is(unicode.Hangul, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// aliasIndex maps every known alias to its company. First company in slice
// order wins when aliases collide, keeping resolution deterministic.
type aliasIndex struct {
	byAlias        map[string]*Company
	byInternalCode map[string]*Company
}

func buildIndex(companies []Company) *aliasIndex {
	idx := &aliasIndex{
		byAlias:        make(map[string]*Company),
		byInternalCode: make(map[string]*Company),
	}
	for i := range companies {
		c := &companies[i]
		if _, ok := idx.byInternalCode[c.InternalCode]; !ok {
			idx.byInternalCode[c.InternalCode] = c
		}
		aliases := []string{c.InternalCode, c.DisplayName}
		for _, marketCode := range c.MarketCodes {
			aliases = append(aliases, marketCode)
		}
		for _, alias := range aliases {
			key := NormalizeAlias(alias)
			if key == "" {
				continue
			}
			if _, ok := idx.byAlias[key]; !ok {
				idx.byAlias[key] = c
			}
		}
	}
	return idx
}

func (idx *aliasIndex) resolve(input string) *Company {
	key := NormalizeAlias(input)
	if key == "" {
		return nil
	}
	if c, ok := idx.byAlias[key]; ok {
		return c
	}
	// Manual aliases resolve to an internal code, which must itself be a
	// known company — an alias pointing outside the reference set is void.
	if internal, ok := manualAliases[key]; ok {
		if c, ok := idx.byInternalCode[internal]; ok {
			return c
		}
	}
	return nil
}

// ResolveInternalCode translates free-text courier input into the internal
// canonical code. An unmatched input falls back to defaultCode only when the
// default itself resolves to a known company; an invalid default is never
// propagated. Returns "" when nothing resolves.
func ResolveInternalCode(input string, companies []Company, defaultCode string) string {
	idx := buildIndex(companies)
	if c := idx.resolve(input); c != nil {
		return c.InternalCode
	}
	if defaultCode != "" {
		if c := idx.resolve(defaultCode); c != nil {
			return c.InternalCode
		}
	}
	return ""
}

// ToMarketCourierCode maps free-text courier input to the target market's
// courier code. When the resolved company has no code for that market, the
// result degrades through three tiers: the raw input code, then the resolved
// internal code, then LegacyDefaultMarketCode.
func ToMarketCourierCode(input string, market integration.MarketCode, companies []Company, defaultCode string) string {
	idx := buildIndex(companies)

	company := idx.resolve(input)
	if company == nil && defaultCode != "" {
		company = idx.resolve(defaultCode)
	}

	if company != nil {
		if code, ok := company.MarketCodes[market]; ok && code != "" {
			return code
		}
	}
	if trimmed := strings.TrimSpace(input); trimmed != "" {
		return trimmed
	}
	if company != nil {
		return company.InternalCode
	}
	return LegacyDefaultMarketCode
}
