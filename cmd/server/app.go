package main

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/uds-rfq/auth"
	"github.com/diewo77/uds-rfq/httpx"
	"github.com/diewo77/uds-rfq/internal/events"
	"github.com/diewo77/uds-rfq/internal/policy"
	"github.com/diewo77/uds-rfq/internal/telemetry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const requestIDHeader = "X-Request-ID"

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	hub       *events.Hub
	metrics   *telemetry.Metrics
	provider  *telemetry.Provider
	dev       bool
}

// AppDeps are the collaborators NewApp wires into routes. Hub, Metrics and Provider may
// be nil.
type AppDeps struct {
	DB        *gorm.DB
	RouterCfg *policy.RouterConfig
	Hub       *events.Hub
	Metrics   *telemetry.Metrics
	Provider  *telemetry.Provider
	Dev       bool
}

// NewApp creates a new application with all routes configured.
func NewApp(d AppDeps) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        d.DB,
		routerCfg: d.RouterCfg,
		hub:       d.Hub,
		metrics:   d.Metrics,
		provider:  d.Provider,
		dev:       d.Dev,
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := withRequestID(withLogging(auth.Middleware(a.mux)))
	handler.ServeHTTP(w, r)
}

// handle registers h on pattern behind the write guard and the request metrics.
func (a *App) handle(pattern string, h http.HandlerFunc) {
	method, _, _ := strings.Cut(pattern, " ")
	a.mux.Handle(pattern, a.metrics.Instrument(pattern, policy.Protect(method, h)))
}

func (a *App) setupRoutes() {
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", a.provider.Handler())
	if a.hub != nil {
		a.mux.Handle("GET /ws", a.hub.Handler())
	}

	sh := a.routerCfg.SessionHandler
	if a.dev {
		a.mux.HandleFunc("POST /session", sh.Create)
		a.mux.HandleFunc("DELETE /session", sh.Delete)
	}
	a.mux.HandleFunc("GET /session", sh.Me)

	rh := a.routerCfg.RfqHandler
	a.handle("GET /rfqs", rh.List)
	a.handle("POST /rfqs", rh.Create)
	a.handle("GET /rfqs/{id}", rh.Get)
	a.handle("GET /rfqs/{id}/rules", rh.Rules)
	a.handle("POST /rfqs/{id}/transition", rh.Transition)
	a.handle("GET /rfqs/{id}/export.xlsx", rh.Export)

	vh := a.routerCfg.VersionHandler
	a.handle("GET /rfqs/{id}/versions", vh.List)
	a.handle("POST /rfqs/{id}/versions", vh.Create)
	a.handle("GET /rfqs/{id}/versions/{number}", vh.Get)
	a.handle("PATCH /rfqs/{id}/versions/{number}/status", vh.UpdateStatus)

	nh := a.routerCfg.NegotiationHandler
	a.handle("GET /rfqs/{id}/communications", nh.ListCommunications)
	a.handle("POST /rfqs/{id}/communications", nh.CreateCommunication)
	a.handle("PATCH /communications/{id}/follow-up", nh.FollowUp)
	a.handle("GET /rfqs/{id}/skus/{skuId}/changes", nh.ListSkuChanges)
	a.handle("POST /rfqs/{id}/skus/{skuId}/changes", nh.CreateSkuChange)
	a.handle("GET /rfqs/{id}/sku-changes", nh.ListSkuChanges)
	a.handle("GET /rfqs/{id}/negotiation/summary", nh.Summary)

	resp := a.routerCfg.ResponseHandler
	a.handle("POST /versions/{id}/responses", resp.Create)
	a.handle("GET /versions/{id}/responses", resp.List)
	a.handle("POST /rfqs/{id}/versions/{versionId}/detailed-responses", resp.CreateDetailed)

	ih := a.routerCfg.InventoryHandler
	a.handle("GET /inventory", ih.List)
	a.handle("POST /inventory", ih.Create)
	a.handle("GET /inventory/{id}", ih.Get)
	a.handle("GET /customers", ih.ListCustomers)
	a.handle("POST /customers", ih.CreateCustomer)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
		slog.WarnContext(r.Context(), "healthz: database unavailable", "error", err)
		httpx.JSONError(w, http.StatusServiceUnavailable, "unavailable", "database unavailable", nil)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

// withRequestID propagates X-Request-ID, generating one when the client sent none.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &telemetry.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"duration", time.Since(start),
			"request_id", r.Header.Get(requestIDHeader),
		)
	})
}
