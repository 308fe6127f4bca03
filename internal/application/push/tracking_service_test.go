package push

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/domain/courier"
	"github.com/sellerops/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Test fakes
// ---------------------------------------------------------------------------

type fakeCredentialRepo struct {
	credential *integration.MarketCredential
	err        error
}

func (f *fakeCredentialRepo) FindByID(ctx context.Context, id uuid.UUID) (*integration.MarketCredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.credential, nil
}

func (f *fakeCredentialRepo) FindActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]integration.MarketCredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.credential == nil {
		return nil, nil
	}
	return []integration.MarketCredential{*f.credential}, nil
}

func (f *fakeCredentialRepo) FindActiveByOwnerAndMarket(ctx context.Context, ownerID uuid.UUID, market integration.MarketCode) (*integration.MarketCredential, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.credential == nil {
		return nil, integration.ErrCredentialNotFound
	}
	return f.credential, nil
}

type fakeCourierRepo struct {
	companies []courier.Company
	err       error
}

func (f *fakeCourierRepo) FindAll(ctx context.Context) ([]courier.Company, error) {
	return f.companies, f.err
}

type fakeAuditLog struct {
	entries []integration.PushAuditLogEntry
	streaks []integration.FailureStreak
	err     error
}

func (f *fakeAuditLog) Append(ctx context.Context, entry *integration.PushAuditLogEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditLog) FailureStreaks(ctx context.Context, ownerID uuid.UUID, kind integration.PushKind) ([]integration.FailureStreak, error) {
	return f.streaks, f.err
}

func (f *fakeAuditLog) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]integration.PushAuditLogEntry, error) {
	return f.entries, nil
}

func (f *fakeAuditLog) ListBySubject(ctx context.Context, ownerID uuid.UUID, subjectID string) ([]integration.PushAuditLogEntry, error) {
	return f.entries, nil
}

// fakeGateway returns scripted results keyed by subject id and records the
// pushes it received.
type fakeGateway struct {
	market          integration.MarketCode
	trackingResults map[string]integration.PushResult
	replyResults    map[string]integration.PushResult
	trackingPushes  []integration.TrackingPush
	replyPushes     []integration.ReplyPush
}

func (f *fakeGateway) Market() integration.MarketCode { return f.market }

func (f *fakeGateway) PushTracking(ctx context.Context, creds integration.APICredentials, push integration.TrackingPush) integration.PushResult {
	f.trackingPushes = append(f.trackingPushes, push)
	if res, ok := f.trackingResults[push.MarketOrderID]; ok {
		return res
	}
	return integration.PushResult{OK: true, StatusCode: 200, Attempts: 1, Message: "accepted"}
}

func (f *fakeGateway) PushReply(ctx context.Context, creds integration.APICredentials, push integration.ReplyPush) integration.PushResult {
	f.replyPushes = append(f.replyPushes, push)
	if res, ok := f.replyResults[push.InquiryID]; ok {
		return res
	}
	return integration.PushResult{OK: true, StatusCode: 200, Attempts: 1, Message: "accepted"}
}

func (f *fakeGateway) PullOrders(ctx context.Context, creds integration.APICredentials, window integration.SyncWindow, page integration.PullPage) (*integration.PullResult, error) {
	return &integration.PullResult{Body: []byte(`{}`)}, nil
}

func (f *fakeGateway) PullInquiries(ctx context.Context, creds integration.APICredentials, window integration.SyncWindow, page integration.PullPage) (*integration.PullResult, error) {
	return &integration.PullResult{Body: []byte(`{}`)}, nil
}

type fakeRegistry struct {
	gateway integration.MarketGateway
	err     error
}

func (f *fakeRegistry) Gateway(market integration.MarketCode) (integration.MarketGateway, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.gateway, nil
}

func (f *fakeRegistry) Gateways() []integration.MarketGateway {
	return []integration.MarketGateway{f.gateway}
}

type passthroughDecrypter struct{}

func (passthroughDecrypter) DecryptIfNeeded(value string) (string, error) { return value, nil }

type failingDecrypter struct{}

func (failingDecrypter) DecryptIfNeeded(value string) (string, error) {
	return "", errors.New("integrity check failed")
}

func testCredential(ownerID uuid.UUID) *integration.MarketCredential {
	return &integration.MarketCredential{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		MarketCode:         integration.MarketCodeCoupang,
		EncryptedAPIKey:    "access-key",
		EncryptedSecretKey: "secret-key",
		VendorID:           "A00012345",
		Active:             true,
	}
}

func testCourierCompanies() []courier.Company {
	return []courier.Company{
		{
			InternalCode: "cj",
			DisplayName:  "CJ대한통운",
			MarketCodes: map[integration.MarketCode]string{
				integration.MarketCodeCoupang:    "CJGLS",
				integration.MarketCodeSmartStore: "CJGLS",
			},
		},
		{
			InternalCode: "hanjin",
			DisplayName:  "한진택배",
			MarketCodes: map[integration.MarketCode]string{
				integration.MarketCodeCoupang: "HANJIN",
			},
		},
	}
}

func newTrackingService(creds *fakeCredentialRepo, couriers *fakeCourierRepo, audit *fakeAuditLog, registry *fakeRegistry, pushEnabled bool) *TrackingPushService {
	return NewTrackingPushService(creds, couriers, audit, registry, passthroughDecrypter{}, pushEnabled, "cj", zap.NewNop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTrackingPushServicePushBatch(t *testing.T) {
	ownerID := uuid.New()

	t.Run("pushes rows in order with resolved courier codes", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		audit := &fakeAuditLog{}
		svc := newTrackingService(
			&fakeCredentialRepo{credential: testCredential(ownerID)},
			&fakeCourierRepo{companies: testCourierCompanies()},
			audit,
			&fakeRegistry{gateway: gateway},
			true,
		)

		result, err := svc.PushBatch(context.Background(), ownerID, integration.MarketCodeCoupang, []TrackingRow{
			{MarketOrderID: "ORD-1", TrackingNumber: "520123456789", CourierName: "대한통운"},
			{MarketOrderID: "ORD-2", TrackingNumber: "520987654321", CourierName: "한진택배"},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 2, result.Succeeded)
		assert.Zero(t, result.Failed)

		require.Len(t, gateway.trackingPushes, 2)
		assert.Equal(t, "CJGLS", gateway.trackingPushes[0].CourierCode)
		assert.Equal(t, "HANJIN", gateway.trackingPushes[1].CourierCode)

		require.Len(t, audit.entries, 2)
		assert.Equal(t, "ORD-1", audit.entries[0].SubjectID)
		assert.Equal(t, "ORD-2", audit.entries[1].SubjectID)
		assert.Equal(t, result.BatchID, audit.entries[0].SourceBatchID)
		assert.Equal(t, result.BatchID, audit.entries[1].SourceBatchID)
		assert.Equal(t, integration.PushStatusSuccess, audit.entries[0].Status)
	})

	t.Run("per-row failure never aborts siblings", func(t *testing.T) {
		gateway := &fakeGateway{
			market: integration.MarketCodeCoupang,
			trackingResults: map[string]integration.PushResult{
				"ORD-1": {Category: integration.FailureInvalid, StatusCode: 400, Attempts: 1, Message: "400 Bad Request"},
			},
		}
		audit := &fakeAuditLog{}
		svc := newTrackingService(
			&fakeCredentialRepo{credential: testCredential(ownerID)},
			&fakeCourierRepo{companies: testCourierCompanies()},
			audit,
			&fakeRegistry{gateway: gateway},
			true,
		)

		result, err := svc.PushBatch(context.Background(), ownerID, integration.MarketCodeCoupang, []TrackingRow{
			{MarketOrderID: "ORD-1", TrackingNumber: "1", CourierName: "cj"},
			{MarketOrderID: "ORD-2", TrackingNumber: "2", CourierName: "cj"},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Succeeded)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, integration.PushStatusFailed, result.Rows[0].Status)
		assert.Equal(t, "INVALID", result.Rows[0].Category)
		assert.Equal(t, integration.PushStatusSuccess, result.Rows[1].Status)

		require.Len(t, audit.entries, 2)
		require.NotNil(t, audit.entries[0].FailureCategory)
		assert.Equal(t, integration.FailureInvalid, *audit.entries[0].FailureCategory)
	})

	t.Run("disabled push skips every row and still audits", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		audit := &fakeAuditLog{}
		svc := newTrackingService(
			&fakeCredentialRepo{credential: testCredential(ownerID)},
			&fakeCourierRepo{companies: testCourierCompanies()},
			audit,
			&fakeRegistry{gateway: gateway},
			false,
		)

		result, err := svc.PushBatch(context.Background(), ownerID, integration.MarketCodeCoupang, []TrackingRow{
			{MarketOrderID: "ORD-1", TrackingNumber: "1", CourierName: "cj"},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Empty(t, gateway.trackingPushes)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, integration.PushStatusSkipped, audit.entries[0].Status)
	})

	t.Run("missing credential fails rows with CONFIG without HTTP", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		audit := &fakeAuditLog{}
		svc := newTrackingService(
			&fakeCredentialRepo{},
			&fakeCourierRepo{companies: testCourierCompanies()},
			audit,
			&fakeRegistry{gateway: gateway},
			true,
		)

		result, err := svc.PushBatch(context.Background(), ownerID, integration.MarketCodeCoupang, []TrackingRow{
			{MarketOrderID: "ORD-1", TrackingNumber: "1", CourierName: "cj"},
			{MarketOrderID: "ORD-2", TrackingNumber: "2", CourierName: "cj"},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Failed)
		assert.Empty(t, gateway.trackingPushes)
		for _, row := range result.Rows {
			assert.Equal(t, "CONFIG", row.Category)
			assert.Zero(t, row.Attempts)
		}
		require.Len(t, audit.entries, 2)
		assert.Nil(t, audit.entries[0].MarketCredentialID)
	})

	t.Run("decrypt failure fails rows with CONFIG and keeps credential id", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		audit := &fakeAuditLog{}
		credential := testCredential(ownerID)
		svc := NewTrackingPushService(
			&fakeCredentialRepo{credential: credential},
			&fakeCourierRepo{companies: testCourierCompanies()},
			audit,
			&fakeRegistry{gateway: gateway},
			failingDecrypter{},
			true, "cj", zap.NewNop(),
		)

		result, err := svc.PushBatch(context.Background(), ownerID, integration.MarketCodeCoupang, []TrackingRow{
			{MarketOrderID: "ORD-1", TrackingNumber: "1", CourierName: "cj"},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Contains(t, result.Rows[0].Message, "decryption failed")
		require.Len(t, audit.entries, 1)
		require.NotNil(t, audit.entries[0].MarketCredentialID)
		assert.Equal(t, credential.ID, *audit.entries[0].MarketCredentialID)
	})

	t.Run("courier reference load failure degrades to raw input", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeCoupang}
		svc := newTrackingService(
			&fakeCredentialRepo{credential: testCredential(ownerID)},
			&fakeCourierRepo{err: errors.New("db down")},
			&fakeAuditLog{},
			&fakeRegistry{gateway: gateway},
			true,
		)

		result, err := svc.PushBatch(context.Background(), ownerID, integration.MarketCodeCoupang, []TrackingRow{
			{MarketOrderID: "ORD-1", TrackingNumber: "1", CourierName: "HANJIN"},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Succeeded)
		require.Len(t, gateway.trackingPushes, 1)
		assert.Equal(t, "HANJIN", gateway.trackingPushes[0].CourierCode)
	})

	t.Run("empty batch returns empty result", func(t *testing.T) {
		svc := newTrackingService(&fakeCredentialRepo{}, &fakeCourierRepo{}, &fakeAuditLog{}, &fakeRegistry{}, true)

		result, err := svc.PushBatch(context.Background(), ownerID, integration.MarketCodeCoupang, nil)

		require.NoError(t, err)
		assert.Zero(t, result.Total)
		assert.Empty(t, result.Rows)
	})
}

func TestReplyPushServicePushReplies(t *testing.T) {
	ownerID := uuid.New()

	t.Run("delivers replies and audits with reply kind", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeSmartStore}
		audit := &fakeAuditLog{}
		credential := testCredential(ownerID)
		credential.MarketCode = integration.MarketCodeSmartStore
		svc := NewReplyPushService(
			&fakeCredentialRepo{credential: credential},
			audit,
			&fakeRegistry{gateway: gateway},
			passthroughDecrypter{},
			true, zap.NewNop(),
		)

		result, err := svc.PushReplies(context.Background(), ownerID, integration.MarketCodeSmartStore, []ReplyRow{
			{InquiryID: "INQ-1", Content: "안녕하세요, 내일 발송 예정입니다."},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Succeeded)
		require.Len(t, gateway.replyPushes, 1)
		assert.Equal(t, "INQ-1", gateway.replyPushes[0].InquiryID)
		require.Len(t, audit.entries, 1)
		assert.Equal(t, integration.PushKindReply, audit.entries[0].Kind)
	})

	t.Run("disabled push skips replies", func(t *testing.T) {
		gateway := &fakeGateway{market: integration.MarketCodeSmartStore}
		svc := NewReplyPushService(
			&fakeCredentialRepo{credential: testCredential(ownerID)},
			&fakeAuditLog{},
			&fakeRegistry{gateway: gateway},
			passthroughDecrypter{},
			false, zap.NewNop(),
		)

		result, err := svc.PushReplies(context.Background(), ownerID, integration.MarketCodeSmartStore, []ReplyRow{
			{InquiryID: "INQ-1", Content: "답변"},
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Empty(t, gateway.replyPushes)
	})
}
