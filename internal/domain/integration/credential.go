package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// MarketCredential
// ---------------------------------------------------------------------------

var (
	// ErrCredentialNotFound indicates the referenced credential row is absent.
	ErrCredentialNotFound = errors.New("integration: market credential not found")
	// ErrCredentialInactive indicates the credential exists but is disabled.
	ErrCredentialInactive = errors.New("integration: market credential inactive")
)

// MarketCredential holds one seller's API credentials for one marketplace.
// Key material is stored encrypted at rest; the core never mutates these
// rows — they are owned by the settings flows.
type MarketCredential struct {
	// ID is the unique identifier of the credential row.
	ID uuid.UUID
	// OwnerID is the operator account this credential belongs to.
	OwnerID uuid.UUID
	// MarketCode identifies the marketplace.
	MarketCode MarketCode
	// EncryptedAPIKey is the vault-encrypted access key.
	EncryptedAPIKey string
	// EncryptedSecretKey is the vault-encrypted secret key.
	EncryptedSecretKey string
	// VendorID is the marketplace vendor/seller identifier, required by
	// some markets for path interpolation (e.g. Coupang vendor id).
	VendorID string
	// Active indicates the credential should be used by push/sync.
	Active bool
	// CreatedAt is when the row was created.
	CreatedAt time.Time
	// UpdatedAt is when the row was last updated.
	UpdatedAt time.Time
}

// APICredentials is the decrypted, request-scoped form of a MarketCredential.
// It exists only in memory between decryption and the HTTP call.
type APICredentials struct {
	AccessKey string
	SecretKey string
	VendorID  string
}

// MarketCredentialRepository provides read-only access to credential rows.
type MarketCredentialRepository interface {
	// FindByID returns the credential with the given id.
	FindByID(ctx context.Context, id uuid.UUID) (*MarketCredential, error)

	// FindActiveByOwner returns all active credentials for an owner.
	FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]MarketCredential, error)

	// FindActiveByOwnerAndMarket returns the active credential for one market.
	FindActiveByOwnerAndMarket(ctx context.Context, ownerID uuid.UUID, market MarketCode) (*MarketCredential, error)
}
