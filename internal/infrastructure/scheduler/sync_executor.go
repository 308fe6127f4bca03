package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/domain/integration"
)

// MarketSyncer pulls one feed for every active credential of an owner.
// Both sync application services satisfy this.
type MarketSyncer interface {
	SyncAll(ctx context.Context, ownerID uuid.UUID) ([]integration.SyncResult, error)
}

// MarketSyncExecutor executes sync jobs by delegating to the order and
// inquiry sync services.
type MarketSyncExecutor struct {
	orders    MarketSyncer
	inquiries MarketSyncer
	logger    *zap.Logger
}

// NewMarketSyncExecutor creates a new executor over the two sync services
func NewMarketSyncExecutor(orders, inquiries MarketSyncer, logger *zap.Logger) *MarketSyncExecutor {
	return &MarketSyncExecutor{
		orders:    orders,
		inquiries: inquiries,
		logger:    logger,
	}
}

// Execute runs the job's feed for its owner and records aggregate counts
func (e *MarketSyncExecutor) Execute(ctx context.Context, job *SyncJob) error {
	var syncer MarketSyncer
	switch job.Kind {
	case SyncKindOrders:
		syncer = e.orders
	case SyncKindInquiries:
		syncer = e.inquiries
	default:
		return fmt.Errorf("unknown sync kind %q", job.Kind)
	}

	results, err := syncer.SyncAll(ctx, job.OwnerID)
	if err != nil {
		return err
	}

	var fetched, upserted, warnings int
	for i := range results {
		fetched += results[i].FetchedCount
		upserted += results[i].UpsertedCount
		warnings += len(results[i].Warnings)
		for _, w := range results[i].Warnings {
			e.logger.Warn("Scheduled sync warning",
				zap.String("owner_id", job.OwnerID.String()),
				zap.String("kind", string(job.Kind)),
				zap.String("credential_id", results[i].MarketCredentialID.String()),
				zap.String("warning", w),
			)
		}
	}
	job.Complete(len(results), fetched, upserted, warnings)
	return nil
}

var _ SyncExecutor = (*MarketSyncExecutor)(nil)
