package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellerops/backend/internal/domain/integration"
	"github.com/sellerops/backend/internal/infrastructure/persistence/models"
)

// GormMarketCredentialRepository implements MarketCredentialRepository using GORM.
// Credentials are managed by the settings surface; the integration core only
// ever reads them, so no write path exists here.
type GormMarketCredentialRepository struct {
	db *gorm.DB
}

// NewGormMarketCredentialRepository creates a new GormMarketCredentialRepository
func NewGormMarketCredentialRepository(db *gorm.DB) *GormMarketCredentialRepository {
	return &GormMarketCredentialRepository{db: db}
}

// FindByID finds a credential by its ID
func (r *GormMarketCredentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.MarketCredential, error) {
	var model models.MarketCredentialModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByOwner finds all active credentials of an owner in stable order
func (r *GormMarketCredentialRepository) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]integration.MarketCredential, error) {
	var rows []models.MarketCredentialModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND active = ?", ownerID, true).
		Order("market_code ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	credentials := make([]integration.MarketCredential, 0, len(rows))
	for i := range rows {
		credentials = append(credentials, *rows[i].ToDomain())
	}
	return credentials, nil
}

// FindActiveByOwnerAndMarket finds the active credential of an owner for one market.
// When several active rows exist for the same market, the oldest wins so the
// choice stays stable across calls.
func (r *GormMarketCredentialRepository) FindActiveByOwnerAndMarket(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode) (*integration.MarketCredential, error) {
	var model models.MarketCredentialModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND market_code = ? AND active = ?", ownerID, market, true).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListActiveOwnerIDs returns the distinct owners that have at least one
// active credential. The background sync trigger uses this to enumerate
// its work set.
func (r *GormMarketCredentialRepository) ListActiveOwnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.MarketCredentialModel{}).
		Where("active = ?", true).
		Distinct("owner_id").
		Order("owner_id ASC").
		Pluck("owner_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Ensure GormMarketCredentialRepository implements MarketCredentialRepository
var _ integration.MarketCredentialRepository = (*GormMarketCredentialRepository)(nil)
