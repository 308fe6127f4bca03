package marketplace

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/sellerops/backend/internal/domain/integration"
)

// MockGateway is a stand-in MarketGateway for development and staging
// environments without marketplace credentials. Every push succeeds and
// pulls return a fixed one-page fixture derived deterministically from the
// credential, so repeated syncs exercise the idempotent upsert path.
type MockGateway struct {
	market integration.MarketCode
}

// NewMockGateway creates a mock gateway for the given market.
func NewMockGateway(market integration.MarketCode) *MockGateway {
	return &MockGateway{market: market}
}

// Market returns the market code this gateway handles.
func (g *MockGateway) Market() integration.MarketCode {
	return g.market
}

// PushTracking accepts every shipment notification.
func (g *MockGateway) PushTracking(_ context.Context, _ integration.APICredentials, push integration.TrackingPush) integration.PushResult {
	if err := push.Validate(); err != nil {
		return integration.PushResult{Message: err.Error(), Category: integration.FailureInvalid}
	}
	return integration.PushResult{
		OK:         true,
		Message:    "mock: tracking number accepted",
		StatusCode: http.StatusOK,
		Attempts:   1,
	}
}

// PushReply accepts every inquiry reply.
func (g *MockGateway) PushReply(_ context.Context, _ integration.APICredentials, push integration.ReplyPush) integration.PushResult {
	if err := push.Validate(); err != nil {
		return integration.PushResult{Message: err.Error(), Category: integration.FailureInvalid}
	}
	return integration.PushResult{
		OK:         true,
		Message:    "mock: reply accepted",
		StatusCode: http.StatusOK,
		Attempts:   1,
	}
}

// PullOrders returns a fixed single page of two orders.
func (g *MockGateway) PullOrders(_ context.Context, creds integration.APICredentials, window integration.SyncWindow, _ integration.PullPage) (*integration.PullResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	seed := fixtureSeed(g.market, creds)
	body := fmt.Sprintf(`{
		"data": [
			{
				"orderId": "MOCK-%d-1",
				"status": "ACCEPT",
				"ordererName": "홍길동",
				"totalPaidAmount": 15000,
				"orderedAt": %q,
				"receiver": {"name": "홍길동", "mobile": "010-0000-0001", "addr1": "서울시 중구 테스트로 1", "postCode": "04524"},
				"orderItems": [{"vendorItemId": %d, "vendorItemName": "테스트 상품 A", "shippingCount": 1, "orderPrice": 15000}]
			},
			{
				"orderId": "MOCK-%d-2",
				"status": "INSTRUCT",
				"ordererName": "김영희",
				"totalPaidAmount": 42000,
				"orderedAt": %q,
				"receiver": {"name": "김영희", "mobile": "010-0000-0002", "addr1": "부산시 해운대구 테스트로 2", "postCode": "48094"},
				"orderItems": [{"vendorItemId": %d, "vendorItemName": "테스트 상품 B", "shippingCount": 2, "orderPrice": 21000}]
			}
		]
	}`, seed, window.From.Format("2006-01-02T15:04:05Z07:00"), seed+1,
		seed, window.To.Format("2006-01-02T15:04:05Z07:00"), seed+2)

	return &integration.PullResult{Body: []byte(body)}, nil
}

// PullInquiries returns a fixed single page of one inquiry.
func (g *MockGateway) PullInquiries(_ context.Context, creds integration.APICredentials, window integration.SyncWindow, _ integration.PullPage) (*integration.PullResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	seed := fixtureSeed(g.market, creds)
	body := fmt.Sprintf(`{
		"data": [
			{
				"inquiryId": "MOCK-INQ-%d",
				"orderId": "MOCK-%d-1",
				"title": "배송 문의",
				"content": "주문한 상품은 언제 발송되나요?",
				"answered": false,
				"inquiryAt": %q
			}
		]
	}`, seed, seed, window.From.Format("2006-01-02T15:04:05Z07:00"))

	return &integration.PullResult{Body: []byte(body)}, nil
}

// fixtureSeed derives a stable numeric seed from the market and credential
// so each seller sees its own fixture identifiers across runs.
func fixtureSeed(market integration.MarketCode, creds integration.APICredentials) uint32 {
	h := fnv.New32a()
	h.Write([]byte(market.String()))
	h.Write([]byte(creds.AccessKey))
	h.Write([]byte(creds.VendorID))
	return h.Sum32() % 1_000_000
}

// Ensure MockGateway implements MarketGateway interface
var _ integration.MarketGateway = (*MockGateway)(nil)
