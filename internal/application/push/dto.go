package push

import (
	"github.com/google/uuid"

	"github.com/sellerops/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Push row inputs
// ---------------------------------------------------------------------------

// TrackingRow is one uploaded shipment row. CourierName is free text as it
// appears in the seller's file; resolution to a market code happens inside
// the service.
type TrackingRow struct {
	// MarketOrderID is the order identifier on the marketplace.
	MarketOrderID string `json:"market_order_id"`
	// TrackingNumber is the parcel tracking number.
	TrackingNumber string `json:"tracking_number"`
	// CourierName is the courier as written by the seller.
	CourierName string `json:"courier_name"`
}

// ReplyRow is one CS inquiry reply to deliver.
type ReplyRow struct {
	// InquiryID is the inquiry identifier on the marketplace.
	InquiryID string `json:"inquiry_id"`
	// Content is the reply text.
	Content string `json:"content"`
}

// ---------------------------------------------------------------------------
// Batch outcome
// ---------------------------------------------------------------------------

// RowOutcome is the terminal outcome of one row in a push batch, reported in
// input order.
type RowOutcome struct {
	// SubjectID is the order/inquiry identifier the row was about.
	SubjectID string `json:"subject_id"`
	// Status is the terminal push status (success, failed, skipped).
	Status integration.PushStatus `json:"status"`
	// Category classifies the failure; empty unless failed.
	Category string `json:"category,omitempty"`
	// StatusCode is the HTTP status of the authoritative attempt (0 if none).
	StatusCode int `json:"status_code,omitempty"`
	// Attempts is the total number of HTTP attempts across payload shapes.
	Attempts int `json:"attempts"`
	// Message is a human-readable outcome description.
	Message string `json:"message,omitempty"`
}

// BatchResult summarises one push batch. Counters accumulate in input order;
// a per-row failure never aborts sibling rows.
type BatchResult struct {
	// BatchID correlates the audit entries written for this invocation.
	BatchID uuid.UUID `json:"batch_id"`
	// Total is the number of rows processed.
	Total int `json:"total"`
	// Succeeded counts rows the marketplace accepted.
	Succeeded int `json:"succeeded"`
	// Failed counts rows that ended in a terminal failure.
	Failed int `json:"failed"`
	// Skipped counts rows withheld deliberately.
	Skipped int `json:"skipped"`
	// Rows holds the per-row outcomes in input order.
	Rows []RowOutcome `json:"rows"`
}

func (r *BatchResult) record(subjectID string, res integration.PushResult) {
	outcome := RowOutcome{
		SubjectID:  subjectID,
		StatusCode: res.StatusCode,
		Attempts:   res.Attempts,
		Message:    res.Message,
	}
	switch {
	case res.Skipped:
		outcome.Status = integration.PushStatusSkipped
		r.Skipped++
	case res.OK:
		outcome.Status = integration.PushStatusSuccess
		r.Succeeded++
	default:
		outcome.Status = integration.PushStatusFailed
		outcome.Category = res.Category.String()
		r.Failed++
	}
	r.Total++
	r.Rows = append(r.Rows, outcome)
}

// SecretDecrypter decrypts stored credential values. Legacy plaintext values
// pass through unchanged.
type SecretDecrypter interface {
	DecryptIfNeeded(value string) (string, error)
}
