package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellerops/backend/internal/domain/integration"
	"github.com/sellerops/backend/internal/infrastructure/persistence/models"
)

// GormMarketInquiryRepository implements MarketInquiryRepository using GORM.
type GormMarketInquiryRepository struct {
	db *gorm.DB
}

// NewGormMarketInquiryRepository creates a new GormMarketInquiryRepository
func NewGormMarketInquiryRepository(db *gorm.DB) *GormMarketInquiryRepository {
	return &GormMarketInquiryRepository{db: db}
}

// Upsert updates the inquiry in place or creates it. Returns true when a new
// row was created.
func (r *GormMarketInquiryRepository) Upsert(ctx context.Context, ownerID uuid.UUID, inquiry *integration.NormalizedInquiry) (bool, error) {
	now := time.Now()

	var existing models.MarketInquiryModel
	findErr := r.db.WithContext(ctx).
		Where("owner_id = ? AND market_code = ? AND external_id = ?",
			ownerID, inquiry.MarketCode, inquiry.ExternalID).
		First(&existing).Error

	var model models.MarketInquiryModel
	model.FromDomain(inquiry)
	model.OwnerID = ownerID
	model.UpdatedAt = now

	switch {
	case findErr == nil:
		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		err := r.db.WithContext(ctx).Model(&models.MarketInquiryModel{}).
			Where("id = ?", existing.ID).
			Select("*").Omit("id", "created_at").
			Updates(&model).Error
		return false, err
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		model.ID = uuid.New()
		model.CreatedAt = now
		if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, findErr
	}
}

// FindByExternalID returns a stored inquiry
func (r *GormMarketInquiryRepository) FindByExternalID(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode, externalID string) (*integration.NormalizedInquiry, error) {
	var model models.MarketInquiryModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND market_code = ? AND external_id = ?", ownerID, market, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrInquiryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormMarketInquiryRepository implements MarketInquiryRepository
var _ integration.MarketInquiryRepository = (*GormMarketInquiryRepository)(nil)
