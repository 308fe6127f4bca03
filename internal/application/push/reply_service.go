package push

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/domain/integration"
)

// ReplyPushService delivers CS inquiry replies to their marketplace with the
// same per-row contract as the tracking push.
type ReplyPushService struct {
	credentials integration.MarketCredentialRepository
	auditLog    integration.PushAuditLogRepository
	gateways    integration.GatewayRegistry
	decrypter   SecretDecrypter

	pushEnabled bool
	logger      *zap.Logger
}

// NewReplyPushService creates a new ReplyPushService
func NewReplyPushService(
	credentials integration.MarketCredentialRepository,
	auditLog integration.PushAuditLogRepository,
	gateways integration.GatewayRegistry,
	decrypter SecretDecrypter,
	pushEnabled bool,
	logger *zap.Logger,
) *ReplyPushService {
	return &ReplyPushService{
		credentials: credentials,
		auditLog:    auditLog,
		gateways:    gateways,
		decrypter:   decrypter,
		pushEnabled: pushEnabled,
		logger:      logger,
	}
}

// PushReplies delivers the reply rows to one marketplace in input order and
// returns the per-row outcomes.
func (s *ReplyPushService) PushReplies(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode, rows []ReplyRow) (*BatchResult, error) {
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
			s.record(ctx, log, result, ownerID, market, row.InquiryID, nil, batchID,
				integration.PushResult{OK: true, Skipped: true, Message: "outbound push disabled"})
		}
		return result, nil
	}

	creds, credentialID, failure := s.resolveCredentials(ctx, ownerID, market)
	if failure != nil {
		for _, row := range rows {
			s.record(ctx, log, result, ownerID, market, row.InquiryID, credentialID, batchID, *failure)
		}
		return result, nil
	}

	gateway, err := s.gateways.Gateway(market)
	if err != nil {
		failure := integration.PushResult{Category: integration.FailureConfig, Message: err.Error()}
		for _, row := range rows {
			s.record(ctx, log, result, ownerID, market, row.InquiryID, credentialID, batchID, failure)
		}
		return result, nil
	}

	for _, row := range rows {
		res := gateway.PushReply(ctx, creds, integration.ReplyPush{
			InquiryID: row.InquiryID,
			Content:   row.Content,
		})
		s.record(ctx, log, result, ownerID, market, row.InquiryID, credentialID, batchID, res)
	}

	log.Info("reply push batch finished",
		zap.Int("total", result.Total),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *ReplyPushService) resolveCredentials(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode) (integration.APICredentials, *uuid.UUID, *integration.PushResult) {
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

func (s *ReplyPushService) record(ctx context.Context, log *zap.Logger, result *BatchResult, ownerID uuid.UUID, market integration.MarketCode, subjectID string, credentialID *uuid.UUID, batchID uuid.UUID, res integration.PushResult) {
	result.record(subjectID, res)
	entry := integration.NewAuditEntry(ownerID, market, integration.PushKindReply, subjectID, credentialID, batchID, res)
	if err := s.auditLog.Append(ctx, entry); err != nil {
		log.Error("append push audit entry failed",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
	}
}
