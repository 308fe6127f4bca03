package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/domain/integration"
)

// OrderSyncService pulls recent orders for a credential and upserts them
// keyed by (owner, market, external id). Line items are replaced wholesale
// on every upsert since marketplaces report full snapshots.
type OrderSyncService struct {
	credentials integration.MarketCredentialRepository
	orders      integration.MarketOrderRepository
	gateways    integration.GatewayRegistry
	decrypter   SecretDecrypter
	normalize   OrderNormalizer

	settings settings
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderSyncService creates a new OrderSyncService
func NewOrderSyncService(
	credentials integration.MarketCredentialRepository,
	orders integration.MarketOrderRepository,
	gateways integration.GatewayRegistry,
	decrypter SecretDecrypter,
	normalize OrderNormalizer,
	lookbackMinutes, pageCap, pageSize int,
	logger *zap.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		credentials: credentials,
		orders:      orders,
		gateways:    gateways,
		decrypter:   decrypter,
		normalize:   normalize,
		settings:    newSettings(lookbackMinutes, pageCap, pageSize),
		logger:      logger,
		now:         time.Now,
	}
}

// Sync pulls and upserts recent orders for one credential.
func (s *OrderSyncService) Sync(ctx context.Context, credentialID uuid.UUID) (*integration.SyncResult, error) {
	result := &integration.SyncResult{MarketCredentialID: credentialID}

	credential, creds, warning := resolveCredential(ctx, s.credentials, s.decrypter, credentialID)
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
		return result, nil
	}
	s.sync(ctx, credential, creds, result)
	return result, nil
}

// SyncAll syncs every active credential of the owner. One broken credential
// contributes a warning-only result and never blocks the others.
func (s *OrderSyncService) SyncAll(ctx context.Context, ownerID uuid.UUID) ([]integration.SyncResult, error) {
	credentials, err := s.credentials.FindActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	results := make([]integration.SyncResult, 0, len(credentials))
	for i := range credentials {
		credential := &credentials[i]
		result := integration.SyncResult{MarketCredentialID: credential.ID}

		resolved, creds, warning := decryptCredential(credential, s.decrypter)
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		} else {
			s.sync(ctx, resolved, creds, &result)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *OrderSyncService) sync(ctx context.Context, credential *integration.MarketCredential, creds integration.APICredentials, result *integration.SyncResult) {
	log := s.logger.With(
		zap.String("credential_id", credential.ID.String()),
		zap.String("market", credential.MarketCode.String()),
	)

	gateway, err := s.gateways.Gateway(credential.MarketCode)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("credential %s: %v", credential.ID, err))
		return
	}

	now := s.now()
	window := integration.SyncWindow{From: now.Add(-s.settings.lookback), To: now}
	page := integration.PullPage{Page: 1, Size: s.settings.pageSize}

	for fetched := 0; fetched < s.settings.pageCap; fetched++ {
		pull, err := gateway.PullOrders(ctx, creds, window, page)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("credential %s: pull orders: %v", credential.ID, err))
			return
		}

		orders, warnings := s.normalize(credential.MarketCode, pull.Body)
		result.FetchedCount += len(orders)
		result.Warnings = append(result.Warnings, warnings...)

		for i := range orders {
			order := &orders[i]
			if _, err := s.orders.UpsertWithItems(ctx, credential.OwnerID, order); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("order %s: upsert: %v", order.ExternalID, err))
				continue
			}
			result.UpsertedCount++
		}

		if !pull.HasMore {
			break
		}
		page = pull.Next
	}

	log.Info("order sync finished",
		zap.Int("fetched", result.FetchedCount),
		zap.Int("upserted", result.UpsertedCount),
		zap.Int("warnings", len(result.Warnings)),
	)
}
