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

func auditLogColumns() []string {
	return []string{"id", "owner_id", "subject_id", "market_credential_id", "market_code", "kind", "status", "failure_category", "status_code", "attempts", "message", "source_batch_id", "created_at"}
}

func TestGormPushAuditLogRepository_Append(t *testing.T) {
	t.Run("inserts one entry", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPushAuditLogRepository(gormDB)

		category := integration.FailureRateLimit
		statusCode := 429
		entry := &integration.PushAuditLogEntry{
			ID:              uuid.New(),
			OwnerID:         uuid.New(),
			SubjectID:       "ORD-1001",
			MarketCode:      integration.MarketCodeCoupang,
			Kind:            integration.PushKindTracking,
			Status:          integration.PushStatusFailed,
			FailureCategory: &category,
			StatusCode:      &statusCode,
			Attempts:        2,
			Message:         "429 Too Many Requests",
			SourceBatchID:   uuid.New(),
			CreatedAt:       time.Now(),
		}

		mock.ExpectExec(`INSERT INTO "push_audit_logs"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Append(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assigns id when entry has none", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPushAuditLogRepository(gormDB)

		entry := &integration.PushAuditLogEntry{
			OwnerID:       uuid.New(),
			SubjectID:     "ORD-1002",
			MarketCode:    integration.MarketCodeSmartStore,
			Kind:          integration.PushKindReply,
			Status:        integration.PushStatusSuccess,
			Attempts:      1,
			Message:       "accepted",
			SourceBatchID: uuid.New(),
			CreatedAt:     time.Now(),
		}

		mock.ExpectExec(`INSERT INTO "push_audit_logs"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Append(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPushAuditLogRepository_FailureStreaks(t *testing.T) {
	ownerID := uuid.New()
	batchID := uuid.New()
	serverCategory := "SERVER"
	authCategory := "AUTH"

	addEntry := func(rows *sqlmock.Rows, market, status string, category *string, createdAt time.Time) {
		rows.AddRow(uuid.New(), ownerID, "ORD-1", nil, market, "tracking", status, category, nil, 2, "outcome", batchID, createdAt)
	}

	t.Run("groups trailing failures per market", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPushAuditLogRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows(auditLogColumns())
		// Most recent first, as the query orders them.
		addEntry(rows, "COUPANG", "failed", &serverCategory, now)
		addEntry(rows, "SMARTSTORE", "failed", &authCategory, now.Add(-1*time.Minute))
		addEntry(rows, "COUPANG", "failed", &serverCategory, now.Add(-2*time.Minute))
		addEntry(rows, "COUPANG", "success", nil, now.Add(-3*time.Minute))
		addEntry(rows, "COUPANG", "failed", &serverCategory, now.Add(-4*time.Minute))

		mock.ExpectQuery(`SELECT \* FROM "push_audit_logs" WHERE owner_id = \$1 AND kind = \$2 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(ownerID, integration.PushKindTracking, failureStreakScanLimit).
			WillReturnRows(rows)

		streaks, err := repo.FailureStreaks(context.Background(), ownerID, integration.PushKindTracking)

		assert.NoError(t, err)
		require.Len(t, streaks, 2)

		assert.Equal(t, integration.MarketCodeCoupang, streaks[0].Market)
		assert.Equal(t, 2, streaks[0].Length())
		require.NotNil(t, streaks[0].Latest())
		assert.Equal(t, integration.PushStatusFailed, streaks[0].Latest().Status)

		assert.Equal(t, integration.MarketCodeSmartStore, streaks[1].Market)
		assert.Equal(t, 1, streaks[1].Length())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("omits market whose latest entry succeeded", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPushAuditLogRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows(auditLogColumns())
		addEntry(rows, "COUPANG", "success", nil, now)
		addEntry(rows, "COUPANG", "failed", &serverCategory, now.Add(-1*time.Minute))

		mock.ExpectQuery(`SELECT \* FROM "push_audit_logs" WHERE owner_id = \$1 AND kind = \$2`).
			WithArgs(ownerID, integration.PushKindTracking, failureStreakScanLimit).
			WillReturnRows(rows)

		streaks, err := repo.FailureStreaks(context.Background(), ownerID, integration.PushKindTracking)

		assert.NoError(t, err)
		assert.Empty(t, streaks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skip breaks a streak the same as success", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPushAuditLogRepository(gormDB)

		now := time.Now()
		rows := sqlmock.NewRows(auditLogColumns())
		addEntry(rows, "SMARTSTORE", "failed", &authCategory, now)
		addEntry(rows, "SMARTSTORE", "skipped", nil, now.Add(-1*time.Minute))
		addEntry(rows, "SMARTSTORE", "failed", &authCategory, now.Add(-2*time.Minute))

		mock.ExpectQuery(`SELECT \* FROM "push_audit_logs" WHERE owner_id = \$1 AND kind = \$2`).
			WithArgs(ownerID, integration.PushKindTracking, failureStreakScanLimit).
			WillReturnRows(rows)

		streaks, err := repo.FailureStreaks(context.Background(), ownerID, integration.PushKindTracking)

		assert.NoError(t, err)
		require.Len(t, streaks, 1)
		assert.Equal(t, 1, streaks[0].Length())
		require.NotNil(t, streaks[0].Latest().FailureCategory)
		assert.Equal(t, integration.FailureAuth, *streaks[0].Latest().FailureCategory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPushAuditLogRepository_ListByBatch(t *testing.T) {
	t.Run("returns entries in write order", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPushAuditLogRepository(gormDB)

		ownerID := uuid.New()
		batchID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(auditLogColumns()).
			AddRow(uuid.New(), ownerID, "ORD-1", nil, "COUPANG", "tracking", "success", nil, nil, 1, "accepted", batchID, now.Add(-1*time.Minute)).
			AddRow(uuid.New(), ownerID, "ORD-2", nil, "COUPANG", "tracking", "failed", "INVALID", 400, 1, "rejected", batchID, now)

		mock.ExpectQuery(`SELECT \* FROM "push_audit_logs" WHERE source_batch_id = \$1 ORDER BY created_at ASC`).
			WithArgs(batchID).
			WillReturnRows(rows)

		entries, err := repo.ListByBatch(context.Background(), batchID)

		assert.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "ORD-1", entries[0].SubjectID)
		assert.Equal(t, integration.PushStatusSuccess, entries[0].Status)
		assert.Equal(t, "ORD-2", entries[1].SubjectID)
		require.NotNil(t, entries[1].StatusCode)
		assert.Equal(t, 400, *entries[1].StatusCode)
		require.NotNil(t, entries[1].FailureCategory)
		assert.Equal(t, integration.FailureInvalid, *entries[1].FailureCategory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPushAuditLogRepository_ListBySubject(t *testing.T) {
	t.Run("filters by owner and subject", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormPushAuditLogRepository(gormDB)

		ownerID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(auditLogColumns()).
			AddRow(uuid.New(), ownerID, "INQ-77", nil, "SMARTSTORE", "reply", "success", nil, 200, 1, "accepted", uuid.New(), now)

		mock.ExpectQuery(`SELECT \* FROM "push_audit_logs" WHERE owner_id = \$1 AND subject_id = \$2 ORDER BY created_at ASC`).
			WithArgs(ownerID, "INQ-77").
			WillReturnRows(rows)

		entries, err := repo.ListBySubject(context.Background(), ownerID, "INQ-77")

		assert.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, integration.PushKindReply, entries[0].Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
