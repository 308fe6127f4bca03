package marketplace

import (
	"fmt"

	"github.com/sellerops/backend/internal/domain/integration"
)

// Registry is the static MarketGateway registry. Gateways are registered at
// wiring time; the set never changes while the process runs, so no locking
// is needed.
type Registry struct {
	gateways map[integration.MarketCode]integration.MarketGateway
	ordered  []integration.MarketGateway
}

// NewRegistry creates a registry from the given gateways. A duplicate market
// code is a wiring bug and fails construction.
func NewRegistry(gateways ...integration.MarketGateway) (*Registry, error) {
	r := &Registry{
		gateways: make(map[integration.MarketCode]integration.MarketGateway, len(gateways)),
	}
	for _, gw := range gateways {
		code := gw.Market()
		if _, exists := r.gateways[code]; exists {
			return nil, fmt.Errorf("marketplace: duplicate gateway for market %s", code)
		}
		r.gateways[code] = gw
		r.ordered = append(r.ordered, gw)
	}
	return r, nil
}

// Gateway returns the adapter for the given market code.
func (r *Registry) Gateway(market integration.MarketCode) (integration.MarketGateway, error) {
	gw, ok := r.gateways[market]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrGatewayNotRegistered, market)
	}
	return gw, nil
}

// Gateways returns all registered adapters in registration order.
func (r *Registry) Gateways() []integration.MarketGateway {
	return r.ordered
}

// Ensure Registry implements GatewayRegistry interface
var _ integration.GatewayRegistry = (*Registry)(nil)
