package push

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/domain/integration"
)

func TestParseReplayStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    ReplayStrategy
		wantErr bool
	}{
		{input: "latest", want: ReplayLatest},
		{input: "all", want: ReplayAll},
		{input: "", want: ReplayLatest},
		{input: "everything", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParseReplayStrategy(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownReplayStrategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCooldownFor(t *testing.T) {
	tests := []struct {
		name     string
		category integration.FailureCategory
		streak   int
		want     time.Duration
	}{
		{name: "auth first failure", category: integration.FailureAuth, streak: 1, want: 30 * time.Minute},
		{name: "auth doubles per streak entry", category: integration.FailureAuth, streak: 3, want: 2 * time.Hour},
		{name: "config base", category: integration.FailureConfig, streak: 1, want: 45 * time.Minute},
		{name: "image base", category: integration.FailureImage, streak: 1, want: 10 * time.Minute},
		{name: "price base", category: integration.FailurePrice, streak: 1, want: 10 * time.Minute},
		{name: "network streak of two", category: integration.FailureNetwork, streak: 2, want: 240 * time.Second},
		{name: "rate limit shares network base", category: integration.FailureRateLimit, streak: 1, want: 120 * time.Second},
		{name: "server shares network base", category: integration.FailureServer, streak: 1, want: 120 * time.Second},
		{name: "unknown base", category: integration.FailureUnknown, streak: 1, want: 5 * time.Minute},
		{name: "unlisted category uses unknown base", category: integration.FailureInvalid, streak: 1, want: 5 * time.Minute},
		{name: "capped at 24h", category: integration.FailureAuth, streak: 12, want: 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cooldownFor(tt.category, tt.streak))
		})
	}
}

// failedEntry builds one failed audit entry for streak fixtures.
func failedEntry(ownerID uuid.UUID, market integration.MarketCode, subjectID string, category integration.FailureCategory, age time.Duration, now time.Time) integration.PushAuditLogEntry {
	return integration.PushAuditLogEntry{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		SubjectID:       subjectID,
		MarketCode:      market,
		Kind:            integration.PushKindTracking,
		Status:          integration.PushStatusFailed,
		FailureCategory: &category,
		Attempts:        2,
		SourceBatchID:   uuid.New(),
		CreatedAt:       now.Add(-age),
	}
}

func newRetryService(audit *fakeAuditLog, gateway *fakeGateway, ownerID uuid.UUID, now time.Time) *RetryQueueService {
	tracking := newTrackingService(
		&fakeCredentialRepo{credential: testCredential(ownerID)},
		&fakeCourierRepo{companies: testCourierCompanies()},
		audit,
		&fakeRegistry{gateway: gateway},
		true,
	)
	replies := NewReplyPushService(
		&fakeCredentialRepo{credential: testCredential(ownerID)},
		audit,
		&fakeRegistry{gateway: gateway},
		passthroughDecrypter{},
		true, zap.NewNop(),
	)
	svc := NewRetryQueueService(audit, tracking, replies, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestRetryQueueServiceReplayTracking(t *testing.T) {
	ownerID := uuid.New()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	rows := []TrackingRow{
		{MarketOrderID: "ORD-1", TrackingNumber: "1", CourierName: "cj"},
		{MarketOrderID: "ORD-2", TrackingNumber: "2", CourierName: "cj"},
	}

	t.Run("latest strategy replays only the most recent subject", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		audit := &fakeAuditLog{streaks: []integration.FailureStreak{{
			Market: integration.MarketCodeCoupang,
			Entries: []integration.PushAuditLogEntry{
				failedEntry(ownerID, integration.MarketCodeCoupang, "ORD-1", integration.FailureNetwork, time.Hour, now),
				failedEntry(ownerID, integration.MarketCodeCoupang, "ORD-2", integration.FailureNetwork, 2*time.Hour, now),
			},
		}}}
		svc := newRetryService(audit, gateway, ownerID, now)

		report, err := svc.ReplayTracking(context.Background(), ownerID, ReplayLatest, rows)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Replayed)
		assert.Zero(t, report.CooldownSkipped)
		require.Len(t, report.Markets, 1)
		assert.Equal(t, replayOutcomeReplayed, report.Markets[0].Outcome)
		assert.Equal(t, []string{"ORD-1"}, report.Markets[0].Subjects)
		require.Len(t, gateway.trackingPushes, 1)
		assert.Equal(t, "ORD-1", gateway.trackingPushes[0].MarketOrderID)
		require.NotNil(t, report.Markets[0].Result)
		assert.Equal(t, 1, report.Markets[0].Result.Succeeded)
	})

	t.Run("all strategy replays the whole streak", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		audit := &fakeAuditLog{streaks: []integration.FailureStreak{{
			Market: integration.MarketCodeCoupang,
			Entries: []integration.PushAuditLogEntry{
				failedEntry(ownerID, integration.MarketCodeCoupang, "ORD-1", integration.FailureNetwork, time.Hour, now),
				failedEntry(ownerID, integration.MarketCodeCoupang, "ORD-2", integration.FailureNetwork, 2*time.Hour, now),
			},
		}}}
		svc := newRetryService(audit, gateway, ownerID, now)

		report, err := svc.ReplayTracking(context.Background(), ownerID, ReplayAll, rows)

		require.NoError(t, err)
		assert.Equal(t, 1, report.Replayed)
		assert.Equal(t, []string{"ORD-1", "ORD-2"}, report.Markets[0].Subjects)
		assert.Len(t, gateway.trackingPushes, 2)
	})

	t.Run("streak inside cooldown is skipped and not attempted", func(t *testing.T) {
		// NETWORK streak of two: cooldown 120*2 = 240s; failure 100s ago.
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		latest := failedEntry(ownerID, integration.MarketCodeCoupang, "ORD-1", integration.FailureNetwork, 100*time.Second, now)
		audit := &fakeAuditLog{streaks: []integration.FailureStreak{{
			Market: integration.MarketCodeCoupang,
			Entries: []integration.PushAuditLogEntry{
				latest,
				failedEntry(ownerID, integration.MarketCodeCoupang, "ORD-2", integration.FailureNetwork, 10*time.Minute, now),
			},
		}}}
		svc := newRetryService(audit, gateway, ownerID, now)

		report, err := svc.ReplayTracking(context.Background(), ownerID, ReplayLatest, rows)

		require.NoError(t, err)
		assert.Zero(t, report.Replayed)
		assert.Equal(t, 1, report.CooldownSkipped)
		require.Len(t, report.Markets, 1)
		assert.Equal(t, replayOutcomeCooldown, report.Markets[0].Outcome)
		assert.Equal(t, 240*time.Second, report.Markets[0].Cooldown)
		assert.Equal(t, latest.CreatedAt.Add(240*time.Second), report.Markets[0].ReadyAt)
		assert.Empty(t, gateway.trackingPushes)
	})

	t.Run("streak without supplied payload reports no_payload", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		audit := &fakeAuditLog{streaks: []integration.FailureStreak{{
			Market: integration.MarketCodeCoupang,
			Entries: []integration.PushAuditLogEntry{
				failedEntry(ownerID, integration.MarketCodeCoupang, "ORD-99", integration.FailureNetwork, time.Hour, now),
			},
		}}}
		svc := newRetryService(audit, gateway, ownerID, now)

		report, err := svc.ReplayTracking(context.Background(), ownerID, ReplayLatest, rows)

		require.NoError(t, err)
		assert.Zero(t, report.Replayed)
		require.Len(t, report.Markets, 1)
		assert.Equal(t, replayOutcomeNoRows, report.Markets[0].Outcome)
		assert.Empty(t, gateway.trackingPushes)
	})

	t.Run("no streaks yields empty report", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		svc := newRetryService(&fakeAuditLog{}, gateway, ownerID, now)

		report, err := svc.ReplayTracking(context.Background(), ownerID, ReplayLatest, rows)

		require.NoError(t, err)
		assert.Empty(t, report.Markets)
		assert.Empty(t, gateway.trackingPushes)
	})
}

func TestRetryQueueServiceReplayReplies(t *testing.T) {
	ownerID := uuid.New()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("replays failed reply from supplied rows", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeSmartStore}
		category := integration.FailureServer
		audit := &fakeAuditLog{streaks: []integration.FailureStreak{{
			Market: integration.MarketCodeSmartStore,
			Entries: []integration.PushAuditLogEntry{{
				ID:              uuid.New(),
				OwnerID:         ownerID,
				SubjectID:       "INQ-1",
				MarketCode:      integration.MarketCodeSmartStore,
				Kind:            integration.PushKindReply,
				Status:          integration.PushStatusFailed,
				FailureCategory: &category,
				SourceBatchID:   uuid.New(),
				CreatedAt:       now.Add(-time.Hour),
			}},
		}}}
		svc := newRetryService(audit, gateway, ownerID, now)

		report, err := svc.ReplayReplies(context.Background(), ownerID, ReplayLatest, []ReplyRow{
			{InquiryID: "INQ-1", Content: "재답변 드립니다."},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, report.Replayed)
		require.Len(t, gateway.replyPushes, 1)
		assert.Equal(t, "INQ-1", gateway.replyPushes[0].InquiryID)
	})
}
