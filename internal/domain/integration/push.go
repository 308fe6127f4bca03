package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Push value objects
// ---------------------------------------------------------------------------

var (
	// ErrPushMissingOrderID indicates a tracking push without a market order id.
	ErrPushMissingOrderID = errors.New("integration: market order id is required")
	// ErrPushMissingTrackingNumber indicates a tracking push without a tracking number.
	ErrPushMissingTrackingNumber = errors.New("integration: tracking number is required")
	// ErrPushMissingInquiryID indicates a reply push without an inquiry id.
	ErrPushMissingInquiryID = errors.New("integration: inquiry id is required")
	// ErrPushMissingContent indicates a reply push without reply text.
	ErrPushMissingContent = errors.New("integration: reply content is required")
)

// TrackingPush is one shipment notification to deliver to a marketplace.
// CourierCode is already resolved to the target market's courier code.
type TrackingPush struct {
	// MarketOrderID is the order identifier on the marketplace.
	MarketOrderID string
	// TrackingNumber is the parcel tracking number.
	TrackingNumber string
	// CourierCode is the market-specific courier code.
	CourierCode string
}

// Validate checks the required identifiers before any request is built.
func (p *TrackingPush) Validate() error {
	if p.MarketOrderID == "" {
		return ErrPushMissingOrderID
	}
	if p.TrackingNumber == "" {
		return ErrPushMissingTrackingNumber
	}
	return nil
}

// ReplyPush is one CS inquiry answer to deliver to a marketplace.
type ReplyPush struct {
	// InquiryID is the inquiry identifier on the marketplace.
	InquiryID string
	// Content is the reply text.
	Content string
}

// Validate checks the required fields before any request is built.
func (p *ReplyPush) Validate() error {
	if p.InquiryID == "" {
		return ErrPushMissingInquiryID
	}
	if p.Content == "" {
		return ErrPushMissingContent
	}
	return nil
}

// PushResult is the terminal outcome of delivering one state change.
// Push clients return it instead of raising: per-record failures must never
// abort sibling records in a batch.
type PushResult struct {
	// OK is true when the marketplace accepted the write, or when the push
	// was deliberately skipped.
	OK bool
	// Skipped is true when outbound delivery is globally disabled or the
	// entry was withheld by a cooldown.
	Skipped bool
	// Message is a human-readable outcome description.
	Message string
	// StatusCode is the HTTP status of the authoritative attempt (0 if none).
	StatusCode int
	// Category classifies the failure; unset when OK.
	Category FailureCategory
	// Attempts is the total number of HTTP attempts across all payload shapes.
	Attempts int
}

// ---------------------------------------------------------------------------
// PushAuditLogEntry
// ---------------------------------------------------------------------------

// PushStatus is the persisted status of one push attempt-chain.
type PushStatus string

const (
	// PushStatusSuccess indicates the marketplace accepted the write.
	PushStatusSuccess PushStatus = "success"
	// PushStatusFailed indicates the chain ended in a terminal failure.
	PushStatusFailed PushStatus = "failed"
	// PushStatusSkipped indicates the push was deliberately not attempted.
	PushStatusSkipped PushStatus = "skipped"
)

// IsValid returns true if the status is valid.
func (s PushStatus) IsValid() bool {
	switch s {
	case PushStatusSuccess, PushStatusFailed, PushStatusSkipped:
		return true
	default:
		return false
	}
}

// String returns the string representation of PushStatus.
func (s PushStatus) String() string {
	return string(s)
}

// PushKind distinguishes what kind of state change a push delivered.
type PushKind string

const (
	// PushKindTracking is a shipment tracking-number push.
	PushKindTracking PushKind = "tracking"
	// PushKindReply is a CS inquiry reply push.
	PushKindReply PushKind = "reply"
)

// IsValid returns true if the kind is valid.
func (k PushKind) IsValid() bool {
	return k == PushKindTracking || k == PushKindReply
}

// PushAuditLogEntry is the immutable record of one push attempt-chain.
// Exactly one entry is written per terminal outcome — success, skip, or
// failure — never one per HTTP call. Entries are append-only and double as
// the retry-cooldown basis.
type PushAuditLogEntry struct {
	// ID is the unique identifier of the entry.
	ID uuid.UUID
	// OwnerID is the operator account the push belonged to.
	OwnerID uuid.UUID
	// SubjectID is the order/inquiry identifier the push was about.
	SubjectID string
	// MarketCredentialID references the credential used, if one was resolved.
	MarketCredentialID *uuid.UUID
	// MarketCode identifies the target marketplace.
	MarketCode MarketCode
	// Kind is the kind of push (tracking, reply).
	Kind PushKind
	// Status is the terminal status of the attempt-chain.
	Status PushStatus
	// FailureCategory classifies the failure when Status is failed.
	FailureCategory *FailureCategory
	// StatusCode is the HTTP status of the authoritative attempt, if any.
	StatusCode *int
	// Attempts is the total number of HTTP attempts in the chain.
	Attempts int
	// Message is the human-readable outcome description.
	Message string
	// SourceBatchID correlates all entries of one user-triggered operation.
	SourceBatchID uuid.UUID
	// CreatedAt is when the entry was written.
	CreatedAt time.Time
}

// NewAuditEntry builds an audit entry from a terminal push result.
func NewAuditEntry(ownerID uuid.UUID, market MarketCode, kind PushKind, subjectID string, credentialID *uuid.UUID, batchID uuid.UUID, res PushResult) *PushAuditLogEntry {
	entry := &PushAuditLogEntry{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		SubjectID:          subjectID,
		MarketCredentialID: credentialID,
		MarketCode:         market,
		Kind:               kind,
		Attempts:           res.Attempts,
		Message:            res.Message,
		SourceBatchID:      batchID,
		CreatedAt:          time.Now(),
	}
	switch {
	case res.Skipped:
		entry.Status = PushStatusSkipped
	case res.OK:
		entry.Status = PushStatusSuccess
	default:
		entry.Status = PushStatusFailed
		category := res.Category
		if !category.IsValid() {
			category = FailureUnknown
		}
		entry.FailureCategory = &category
	}
	if res.StatusCode != 0 {
		code := res.StatusCode
		entry.StatusCode = &code
	}
	return entry
}

// FailureStreak is the trailing run of failed entries for one marketplace,
// most recent first. A success or skip breaks the run.
type FailureStreak struct {
	// Market is the marketplace the streak belongs to.
	Market MarketCode
	// Entries holds the unbroken failed entries, most recent first.
	Entries []PushAuditLogEntry
}

// Latest returns the most recent failed entry of the streak.
func (s *FailureStreak) Latest() *PushAuditLogEntry {
	if len(s.Entries) == 0 {
		return nil
	}
	return &s.Entries[0]
}

// Length returns the consecutive failure count.
func (s *FailureStreak) Length() int {
	return len(s.Entries)
}

// PushAuditLogRepository persists push attempt-chain outcomes.
// The table is append-only; no update or delete path exists in the core.
type PushAuditLogRepository interface {
	// Append writes one audit entry.
	Append(ctx context.Context, entry *PushAuditLogEntry) error

	// FailureStreaks returns, per marketplace, the trailing unbroken run of
	// failed entries of the given kind for the owner. Markets whose most
	// recent entry is a success or skip are omitted.
	FailureStreaks(ctx context.Context, ownerID uuid.UUID, kind PushKind) ([]FailureStreak, error)

	// ListByBatch returns all entries of one source batch in write order.
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]PushAuditLogEntry, error)

	// ListBySubject returns all entries for one subject in write order.
	ListBySubject(ctx context.Context, ownerID uuid.UUID, subjectID string) ([]PushAuditLogEntry, error)
}
