package push

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/domain/courier"
	"github.com/sellerops/backend/internal/domain/integration"
)

// TrackingPushService delivers uploaded shipment rows to their marketplace.
// Rows are processed strictly in input order, one at a time; every terminal
// outcome writes exactly one audit entry under the batch's source id.
type TrackingPushService struct {
	credentials integration.MarketCredentialRepository
	couriers    courier.CompanyRepository
	auditLog    integration.PushAuditLogRepository
	gateways    integration.GatewayRegistry
	decrypter   SecretDecrypter

	pushEnabled    bool
	defaultCourier string
	logger         *zap.Logger
}

// NewTrackingPushService creates a new TrackingPushService
func NewTrackingPushService(
	credentials integration.MarketCredentialRepository,
	couriers courier.CompanyRepository,
	auditLog integration.PushAuditLogRepository,
	gateways integration.GatewayRegistry,
	decrypter SecretDecrypter,
	pushEnabled bool,
	defaultCourier string,
	logger *zap.Logger,
) *TrackingPushService {
	return &TrackingPushService{
		credentials:    credentials,
		couriers:       couriers,
		auditLog:       auditLog,
		gateways:       gateways,
		decrypter:      decrypter,
		pushEnabled:    pushEnabled,
		defaultCourier: defaultCourier,
		logger:         logger,
	}
}

// PushBatch delivers the rows to one marketplace and returns the per-row
// outcomes. Credential and gateway problems fail every row with CONFIG
// instead of erroring, so callers always get a full per-row report.
func (s *TrackingPushService) PushBatch(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode, rows []TrackingRow) (*BatchResult, error) {
	batchID := uuid.New()
	result := &BatchResult{BatchID: batchID}
	if len(rows) == 0 {
		return result, nil
	}

	log := s.logger.With(
		zap.String("batch_id", batchID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("market", market.String()),
	)

	if !s.pushEnabled {
		for _, row := range rows {
			s.record(ctx, log, result, ownerID, market, integration.PushKindTracking, row.MarketOrderID, nil, batchID,
				integration.PushResult{OK: true, Skipped: true, Message: "outbound push disabled"})
		}
		return result, nil
	}

	creds, credentialID, failure := s.resolveCredentials(ctx, ownerID, market)
	if failure != nil {
		for _, row := range rows {
			s.record(ctx, log, result, ownerID, market, integration.PushKindTracking, row.MarketOrderID, credentialID, batchID, *failure)
		}
		return result, nil
	}

	gateway, err := s.gateways.Gateway(market)
	if err != nil {
		failure := integration.PushResult{Category: integration.FailureConfig, Message: err.Error()}
		for _, row := range rows {
			s.record(ctx, log, result, ownerID, market, integration.PushKindTracking, row.MarketOrderID, credentialID, batchID, failure)
		}
		return result, nil
	}

	companies, err := s.couriers.FindAll(ctx)
	if err != nil {
		// Courier resolution degrades through its fallback tiers without the
		// reference set; the batch still runs.
		log.Warn("load courier companies failed", zap.Error(err))
		companies = nil
	}

	for _, row := range rows {
		courierCode := courier.ToMarketCourierCode(row.CourierName, market, companies, s.defaultCourier)
		res := gateway.PushTracking(ctx, creds, integration.TrackingPush{
			MarketOrderID:  row.MarketOrderID,
			TrackingNumber: row.TrackingNumber,
			CourierCode:    courierCode,
		})
		s.record(ctx, log, result, ownerID, market, integration.PushKindTracking, row.MarketOrderID, credentialID, batchID, res)
	}

	log.Info("tracking push batch finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// resolveCredentials loads and decrypts the owner's credential for the
// market. A nil failure means creds are usable.
func (s *TrackingPushService) resolveCredentials(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode) (integration.APICredentials, *uuid.UUID, *integration.PushResult) {
	credential, err := s.credentials.FindActiveByOwnerAndMarket(ctx, ownerID, market)
	if err != nil {
		return integration.APICredentials{}, nil, &integration.PushResult{
			Category: integration.FailureConfig,
			Message:  "no active credential for " + market.String(),
		}
	}

	accessKey, err := s.decrypter.DecryptIfNeeded(credential.EncryptedAPIKey)
	if err == nil {
		var secretKey string
		secretKey, err = s.decrypter.DecryptIfNeeded(credential.EncryptedSecretKey)
		if err == nil {
			return integration.APICredentials{
				AccessKey: accessKey,
				SecretKey: secretKey,
				VendorID:  credential.VendorID,
			}, &credential.ID, nil
		}
	}
	return integration.APICredentials{}, &credential.ID, &integration.PushResult{
		Category: integration.FailureConfig,
		Message:  "credential decryption failed: " + err.Error(),
	}
}

func (s *TrackingPushService) record(ctx context.Context, log *zap.Logger, result *BatchResult, ownerID uuid.UUID, market integration.MarketCode, kind integration.PushKind, subjectID string, credentialID *uuid.UUID, batchID uuid.UUID, res integration.PushResult) {
	result.record(subjectID, res)
	entry := integration.NewAuditEntry(ownerID, market, kind, subjectID, credentialID, batchID, res)
	if err := s.auditLog.Append(ctx, entry); err != nil {
		// An unrecorded outcome costs visibility and cooldown accuracy, but
		// must not fail the row that the marketplace already accepted.
		log.Error("append push audit entry failed",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
	}
}
