package integration

import (
	"context"
	"errors"
)

// ---------------------------------------------------------------------------
// MarketGateway port
// ---------------------------------------------------------------------------

var (
	// ErrGatewayNotRegistered indicates no adapter exists for a market code.
	ErrGatewayNotRegistered = errors.New("integration: no gateway registered for market")
)

// MarketGateway is the port interface for one marketplace's API. Adapters
// live in the infrastructure layer and own the market's auth scheme, payload
// shapes, and pagination semantics. Push operations return a structured
// PushResult and never raise for normal failure conditions; pull operations
// return an error only for terminal (non-retryable, whole-page) failures.
type MarketGateway interface {
	// Market returns the market code this gateway handles.
	Market() MarketCode

	// PushTracking delivers one shipment notification.
	PushTracking(ctx context.Context, creds APICredentials, push TrackingPush) PushResult

	// PushReply delivers one CS inquiry reply.
	PushReply(ctx context.Context, creds APICredentials, push ReplyPush) PushResult

	// PullOrders fetches one raw page of recent orders.
	PullOrders(ctx context.Context, creds APICredentials, window SyncWindow, page PullPage) (*PullResult, error)

	// PullInquiries fetches one raw page of recent CS inquiries.
	PullInquiries(ctx context.Context, creds APICredentials, window SyncWindow, page PullPage) (*PullResult, error)
}

// GatewayRegistry resolves the adapter for a market code.
type GatewayRegistry interface {
	// Gateway returns the adapter for the given market code.
	Gateway(market MarketCode) (MarketGateway, error)

	// Gateways returns all registered adapters.
	Gateways() []MarketGateway
}
