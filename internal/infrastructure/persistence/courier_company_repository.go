package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/sellerops/backend/internal/domain/courier"
	"github.com/sellerops/backend/internal/infrastructure/persistence/models"
)

// GormCourierCompanyRepository implements CompanyRepository using GORM.
// The courier reference set is small and read per resolution call; callers
// that resolve in a loop should load it once and reuse the slice.
type GormCourierCompanyRepository struct {
	db *gorm.DB
}

// NewGormCourierCompanyRepository creates a new GormCourierCompanyRepository
func NewGormCourierCompanyRepository(db *gorm.DB) *GormCourierCompanyRepository {
	return &GormCourierCompanyRepository{db: db}
}

// FindAll returns every courier company ordered by internal code
func (r *GormCourierCompanyRepository) FindAll(ctx context.Context) ([]courier.Company, error) {
	var rows []models.CourierCompanyModel
	if err := r.db.WithContext(ctx).
		Order("internal_code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	companies := make([]courier.Company, 0, len(rows))
	for i := range rows {
		companies = append(companies, rows[i].ToDomain())
	}
	return companies, nil
}

// Ensure GormCourierCompanyRepository implements CompanyRepository
var _ courier.CompanyRepository = (*GormCourierCompanyRepository)(nil)
