// Package sync pulls recent orders and CS inquiries from marketplaces and
// upserts them idempotently. Per-record and per-credential problems become
// warnings on the result; a sync only errors for infrastructure failures
// outside any one credential's scope.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sellerops/backend/internal/domain/integration"
)

// SecretDecrypter decrypts stored credential values. Legacy plaintext values
// pass through unchanged.
type SecretDecrypter interface {
	DecryptIfNeeded(value string) (string, error)
}

// OrderNormalizer extracts canonical orders from one raw response page.
type OrderNormalizer func(market integration.MarketCode, raw []byte) ([]integration.NormalizedOrder, []string)

// InquiryNormalizer extracts canonical inquiries from one raw response page.
type InquiryNormalizer func(market integration.MarketCode, raw []byte) ([]integration.NormalizedInquiry, []string)

const (
	defaultLookback = 24 * time.Hour
	defaultPageCap  = 20
	defaultPageSize = 50
)

// settings are the shared knobs of both sync services.
type settings struct {
	lookback time.Duration
	pageCap  int
	pageSize int
}

func newSettings(lookbackMinutes, pageCap, pageSize int) settings {
	s := settings{
		lookback: time.Duration(lookbackMinutes) * time.Minute,
		pageCap:  pageCap,
		pageSize: pageSize,
	}
	if s.lookback <= 0 {
		s.lookback = defaultLookback
	}
	if s.pageCap <= 0 {
		s.pageCap = defaultPageCap
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	return s
}

// resolveCredential loads, checks, and decrypts one credential. A non-empty
// warning means the credential must be skipped.
func resolveCredential(ctx context.Context, repo integration.MarketCredentialRepository, decrypter SecretDecrypter, credentialID uuid.UUID) (*integration.MarketCredential, integration.APICredentials, string) {
	credential, err := repo.FindByID(ctx, credentialID)
	if err != nil {
		return nil, integration.APICredentials{}, fmt.Sprintf("credential %s: %v", credentialID, err)
	}
	return decryptCredential(credential, decrypter)
}

func decryptCredential(credential *integration.MarketCredential, decrypter SecretDecrypter) (*integration.MarketCredential, integration.APICredentials, string) {
	if !credential.Active {
		return nil, integration.APICredentials{}, fmt.Sprintf("credential %s: inactive, skipped", credential.ID)
	}

	accessKey, err := decrypter.DecryptIfNeeded(credential.EncryptedAPIKey)
	if err != nil {
		return nil, integration.APICredentials{}, fmt.Sprintf("credential %s: decrypt access key: %v", credential.ID, err)
	}
	secretKey, err := decrypter.DecryptIfNeeded(credential.EncryptedSecretKey)
	if err != nil {
		return nil, integration.APICredentials{}, fmt.Sprintf("credential %s: decrypt secret key: %v", credential.ID, err)
	}

	return credential, integration.APICredentials{
		AccessKey: accessKey,
		SecretKey: secretKey,
		VendorID:  credential.VendorID,
	}, ""
}
