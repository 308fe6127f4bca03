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

// GormMarketOrderRepository implements MarketOrderRepository using GORM.
// Idempotency rests on the (owner_id, market_code, external_id) unique index:
// re-syncing the same window updates rows in place instead of duplicating.
type GormMarketOrderRepository struct {
	db *gorm.DB
}

// NewGormMarketOrderRepository creates a new GormMarketOrderRepository
func NewGormMarketOrderRepository(db *gorm.DB) *GormMarketOrderRepository {
	return &GormMarketOrderRepository{db: db}
}

// UpsertWithItems updates the order in place — or creates it — and replaces
// its line items wholesale in the same transaction. Returns true when a new
// order row was created.
func (r *GormMarketOrderRepository) UpsertWithItems(ctx context.Context, ownerID uuid.UUID, order *integration.NormalizedOrder) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var existing models.MarketOrderModel
		findErr := tx.
			Where("owner_id = ? AND market_code = ? AND external_id = ?",
				ownerID, order.MarketCode, order.ExternalID).
			First(&existing).Error

		var model models.MarketOrderModel
		model.FromDomain(order)
		model.OwnerID = ownerID
		model.UpdatedAt = now

		switch {
		case findErr == nil:
			model.ID = existing.ID
			model.CreatedAt = existing.CreatedAt
			if saveErr := tx.Model(&models.MarketOrderModel{}).
				Where("id = ?", existing.ID).
				Select("*").Omit("id", "created_at").
				Updates(&model).Error; saveErr != nil {
				return saveErr
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			created = true
			model.ID = uuid.New()
			model.CreatedAt = now
			if saveErr := tx.Create(&model).Error; saveErr != nil {
				return saveErr
			}
		default:
			return findErr
		}

		// Marketplaces report the full item snapshot every time, so items are
		// replaced wholesale rather than merged.
		if delErr := tx.
			Where("market_order_id = ?", model.ID).
			Delete(&models.MarketOrderItemModel{}).Error; delErr != nil {
			return delErr
		}
		if len(order.Items) == 0 {
			return nil
		}

		items := make([]models.MarketOrderItemModel, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, models.MarketOrderItemModel{
				ID:             uuid.New(),
				MarketOrderID:  model.ID,
				ExternalItemID: item.ExternalItemID,
				ProductName:    item.ProductName,
				OptionName:     item.OptionName,
				Quantity:       item.Quantity,
				UnitPrice:      item.UnitPrice,
				CreatedAt:      now,
			})
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// FindByExternalID returns a stored order with its items
func (r *GormMarketOrderRepository) FindByExternalID(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode, externalID string) (*integration.NormalizedOrder, error) {
	var model models.MarketOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("owner_id = ? AND market_code = ? AND external_id = ?", ownerID, market, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormMarketOrderRepository implements MarketOrderRepository
var _ integration.MarketOrderRepository = (*GormMarketOrderRepository)(nil)
