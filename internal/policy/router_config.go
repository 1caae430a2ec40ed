// Package policy wires handlers to the services they serve and decides which routes need
// an identified user.
package policy

import (
	"net/http"

	"github.com/diewo77/uds-rfq/auth"
	"github.com/diewo77/uds-rfq/internal/handlers"
	"github.com/diewo77/uds-rfq/internal/services"
)

// RouterConfig holds configured handlers for the application.
type RouterConfig struct {
	RfqHandler         *handlers.RfqHandler
	VersionHandler     *handlers.VersionHandler
	NegotiationHandler *handlers.NegotiationHandler
	ResponseHandler    *handlers.ResponseHandler
	InventoryHandler   *handlers.InventoryHandler
	SessionHandler     *handlers.SessionHandler

	Services *services.Services
}

// NewRouterConfig creates the handlers over svc.
func NewRouterConfig(svc *services.Services) *RouterConfig {
	return &RouterConfig{
		RfqHandler:         handlers.NewRfqHandler(svc.Rfqs, svc.Export),
		VersionHandler:     handlers.NewVersionHandler(svc.Versions),
		NegotiationHandler: handlers.NewNegotiationHandler(svc.Negotiation),
		ResponseHandler:    handlers.NewResponseHandler(svc.Responses),
		InventoryHandler:   handlers.NewInventoryHandler(svc.Inventory, svc.Customers),
		SessionHandler:     handlers.NewSessionHandler(),
		Services:           svc,
	}
}

// Protect returns the guard for a route method. Reads stay open; every write needs a user
// id so the ledger can record who entered it.
func Protect(method string, h http.Handler) http.Handler {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return h
	default:
		return auth.RequireAuth(h)
	}
}
