package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerops/backend/internal/domain/integration"
)

func TestGormCourierCompanyRepository_FindAll(t *testing.T) {
	columns := []string{"id", "internal_code", "display_name", "market_codes", "created_at", "updated_at"}

	t.Run("returns companies with parsed market codes", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCourierCompanyRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows(columns).
			AddRow(uuid.New(), "cj", "CJ대한통운", `{"COUPANG":"CJGLS","SMARTSTORE":"CJGLS"}`, now, now).
			AddRow(uuid.New(), "hanjin", "한진택배", `{"COUPANG":"HANJIN"}`, now, now)

		mock.ExpectQuery(`SELECT \* FROM "courier_companies" ORDER BY internal_code ASC`).
			WillReturnRows(rows)

		companies, err := repo.FindAll(context.Background())

		assert.NoError(t, err)
		require.Len(t, companies, 2)
		assert.Equal(t, "cj", companies[0].InternalCode)
		assert.Equal(t, "CJ대한통운", companies[0].DisplayName)
		assert.Equal(t, "CJGLS", companies[0].MarketCodes[integration.MarketCodeCoupang])
		assert.Equal(t, "CJGLS", companies[0].MarketCodes[integration.MarketCodeSmartStore])
		assert.Equal(t, "HANJIN", companies[1].MarketCodes[integration.MarketCodeCoupang])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tolerates empty market codes column", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormCourierCompanyRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows(columns).
			AddRow(uuid.New(), "logen", "로젠택배", "", now, now)

		mock.ExpectQuery(`SELECT \* FROM "courier_companies"`).
			WillReturnRows(rows)

		companies, err := repo.FindAll(context.Background())

		assert.NoError(t, err)
		require.Len(t, companies, 1)
		assert.Empty(t, companies[0].MarketCodes)
		assert.NotNil(t, companies[0].MarketCodes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
