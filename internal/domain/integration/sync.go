package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Sync value objects
// ---------------------------------------------------------------------------

var (
	// ErrSyncInvalidWindow indicates an empty or inverted lookback window.
	ErrSyncInvalidWindow = errors.New("integration: invalid sync window")
	// ErrOrderNotFound indicates the referenced market order row is absent.
	ErrOrderNotFound = errors.New("integration: market order not found")
	// ErrInquiryNotFound indicates the referenced market inquiry row is absent.
	ErrInquiryNotFound = errors.New("integration: market inquiry not found")
)

// SyncWindow is the time range a sync pulls records for.
type SyncWindow struct {
	From time.Time
	To   time.Time
}

// Validate checks the window is non-empty and properly ordered.
func (w SyncWindow) Validate() error {
	if w.From.IsZero() || w.To.IsZero() || w.From.After(w.To) {
		return ErrSyncInvalidWindow
	}
	return nil
}

// PullPage carries pagination state between page fetches. Marketplaces use
// either page/size parameters or a continuation token; gateways fill in
// whichever applies.
type PullPage struct {
	// Page is the 1-indexed page number for page/size style APIs.
	Page int
	// Size is the page size.
	Size int
	// Token is the continuation token for token style APIs.
	Token string
}

// PullResult is one raw page fetched from a marketplace read API. The body
// is left unparsed; the payload normalizer extracts records from it without
// trusting the envelope shape.
type PullResult struct {
	// Body is the raw JSON response body.
	Body []byte
	// HasMore indicates another page should be fetched.
	HasMore bool
	// Next is the pagination state for the following fetch.
	Next PullPage
}

// NormalizedOrder is the canonical order shape produced by the payload
// normalizer. It is ephemeral: it exists only between fetch and upsert.
type NormalizedOrder struct {
	// ExternalID is the order identifier on the marketplace.
	ExternalID string
	// MarketCode identifies the source marketplace.
	MarketCode MarketCode
	// OrdererName is the name of the person who placed the order.
	OrdererName string
	// ReceiverName is the recipient's name.
	ReceiverName string
	// ReceiverPhone is the recipient's phone number.
	ReceiverPhone string
	// Address is the full delivery address.
	Address string
	// PostalCode is the delivery postal code.
	PostalCode string
	// Status is the raw marketplace order status.
	Status string
	// TotalAmount is the total paid amount.
	TotalAmount decimal.Decimal
	// OrderedAt is when the order was placed on the marketplace.
	OrderedAt time.Time
	// Items holds the full line-item snapshot reported by the marketplace.
	Items []NormalizedOrderItem
}

// NormalizedOrderItem is one line item of a normalized order.
type NormalizedOrderItem struct {
	// ExternalItemID is the line-item identifier on the marketplace.
	ExternalItemID string
	// ProductName is the product name.
	ProductName string
	// OptionName is the selected option/variant description.
	OptionName string
	// Quantity is the ordered quantity.
	Quantity int
	// UnitPrice is the per-unit price.
	UnitPrice decimal.Decimal
}

// NormalizedInquiry is the canonical CS inquiry shape produced by the
// payload normalizer.
type NormalizedInquiry struct {
	// ExternalID is the inquiry identifier on the marketplace.
	ExternalID string
	// MarketCode identifies the source marketplace.
	MarketCode MarketCode
	// OrderExternalID is the related order id, if the marketplace provides one.
	OrderExternalID string
	// Title is the inquiry title or category label.
	Title string
	// Content is the inquiry body text.
	Content string
	// AskedAt is when the inquiry was created on the marketplace.
	AskedAt time.Time
	// Answered indicates the marketplace already has a seller answer.
	Answered bool
}

// SyncResult summarises one sync invocation for one credential. Per-record
// failures are folded into Warnings; the sync itself never fails for them.
type SyncResult struct {
	// MarketCredentialID identifies the credential the sync ran for.
	MarketCredentialID uuid.UUID
	// FetchedCount is the number of records extracted from the marketplace.
	FetchedCount int
	// UpsertedCount is the number of records written to the store.
	UpsertedCount int
	// Warnings describe skipped records and short-circuited credentials.
	Warnings []string
}

// ---------------------------------------------------------------------------
// Sync repositories (persistence gateway ports)
// ---------------------------------------------------------------------------

// MarketOrderRepository persists normalized orders idempotently keyed by
// (owner id, market code, external id).
type MarketOrderRepository interface {
	// UpsertWithItems updates the order in place — or creates it — and
	// replaces its line items wholesale in the same transaction.
	// Returns true when a new order row was created.
	UpsertWithItems(ctx context.Context, ownerID uuid.UUID, order *NormalizedOrder) (bool, error)

	// FindByExternalID returns a stored order with its items.
	FindByExternalID(ctx context.Context, ownerID uuid.UUID, market MarketCode, externalID string) (*NormalizedOrder, error)
}

// MarketInquiryRepository persists normalized inquiries idempotently keyed
// by (owner id, market code, external id).
type MarketInquiryRepository interface {
	// Upsert updates the inquiry in place or creates it.
	// Returns true when a new row was created.
	Upsert(ctx context.Context, ownerID uuid.UUID, inquiry *NormalizedInquiry) (bool, error)

	// FindByExternalID returns a stored inquiry.
	FindByExternalID(ctx context.Context, ownerID uuid.UUID, market MarketCode, externalID string) (*NormalizedInquiry, error)
}
