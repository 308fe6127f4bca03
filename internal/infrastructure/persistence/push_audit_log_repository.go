package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellerops/backend/internal/domain/integration"
	"github.com/sellerops/backend/internal/infrastructure/persistence/models"
)

// failureStreakScanLimit bounds how many recent entries FailureStreaks loads
// per owner and kind. A streak longer than this is reported truncated, which
// only makes its cooldown shorter than it strictly should be.
const failureStreakScanLimit = 200

// GormPushAuditLogRepository implements PushAuditLogRepository using GORM.
// The table is append-only: no update or delete method exists.
type GormPushAuditLogRepository struct {
	db *gorm.DB
}

// NewGormPushAuditLogRepository creates a new GormPushAuditLogRepository
func NewGormPushAuditLogRepository(db *gorm.DB) *GormPushAuditLogRepository {
	return &GormPushAuditLogRepository{db: db}
}

// Append writes one audit entry
func (r *GormPushAuditLogRepository) Append(ctx context.Context, entry *integration.PushAuditLogEntry) error {
	var model models.PushAuditLogModel
	model.FromDomain(entry)
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FailureStreaks returns, per marketplace, the trailing unbroken run of
// failed entries of the given kind for the owner. Only the most recent
// entries are scanned; markets whose latest entry succeeded or was skipped
// are omitted.
func (r *GormPushAuditLogRepository) FailureStreaks(ctx context.Context, ownerID uuid.UUID, kind integration.PushKind) ([]integration.FailureStreak, error) {
	var rows []models.PushAuditLogModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ?", ownerID, kind).
		Order("created_at DESC").
		Limit(failureStreakScanLimit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	// Rows arrive most recent first. Walking them once per market: failed
	// entries extend the streak until the first success or skip, which
	// terminates that market for good.
	streaks := make(map[integration.MarketCode]*integration.FailureStreak)
	broken := make(map[integration.MarketCode]bool)
	var order []integration.MarketCode

	for i := range rows {
		entry := rows[i].ToDomain()
		if broken[entry.MarketCode] {
			continue
		}
		if entry.Status != integration.PushStatusFailed {
			broken[entry.MarketCode] = true
			continue
		}
		streak, ok := streaks[entry.MarketCode]
		if !ok {
			streak = &integration.FailureStreak{Market: entry.MarketCode}
			streaks[entry.MarketCode] = streak
			order = append(order, entry.MarketCode)
		}
		streak.Entries = append(streak.Entries, entry)
	}

	result := make([]integration.FailureStreak, 0, len(order))
	for _, market := range order {
		result = append(result, *streaks[market])
	}
	return result, nil
}

// ListByBatch returns all entries of one source batch in write order
func (r *GormPushAuditLogRepository) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]integration.PushAuditLogEntry, error) {
	var rows []models.PushAuditLogModel
	if err := r.db.WithContext(ctx).
		Where("source_batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(rows), nil
}

// ListBySubject returns all entries for one subject in write order
func (r *GormPushAuditLogRepository) ListBySubject(ctx context.Context, ownerID uuid.UUID, subjectID string) ([]integration.PushAuditLogEntry, error) {
	var rows []models.PushAuditLogModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND subject_id = ?", ownerID, subjectID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainEntries(rows), nil
}

func toDomainEntries(rows []models.PushAuditLogModel) []integration.PushAuditLogEntry {
	entries := make([]integration.PushAuditLogEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].ToDomain())
	}
	return entries
}

// Ensure GormPushAuditLogRepository implements PushAuditLogRepository
var _ integration.PushAuditLogRepository = (*GormPushAuditLogRepository)(nil)
