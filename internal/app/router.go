package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fixpoint-erp/fixpoint/internal/jobsheet"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/branches"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/catalog"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/customers"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/devices"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/faults"
	"github.com/fixpoint-erp/fixpoint/internal/masterdata/payments"
	"github.com/fixpoint-erp/fixpoint/internal/observability"
	"github.com/fixpoint-erp/fixpoint/internal/stock"
	"github.com/fixpoint-erp/fixpoint/internal/tickets"
	"github.com/fixpoint-erp/fixpoint/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	TicketsHandler   *tickets.Handler
	StockHandler     *stock.Handler
	JobSheetHandler  *jobsheet.Handler
	BranchesHandler  *branches.Handler
	CustomersHandler *customers.Handler
	DevicesHandler   *devices.Handler
	FaultsHandler    *faults.Handler
	PaymentsHandler  *payments.Handler
	CatalogHandler   *catalog.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with fixpoint defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.TicketsHandler.MountRoutes(r)
		params.StockHandler.MountRoutes(r)
		if params.JobSheetHandler != nil {
			params.JobSheetHandler.MountRoutes(r)
		}
		params.BranchesHandler.MountRoutes(r)
		params.CustomersHandler.MountRoutes(r)
		params.DevicesHandler.MountRoutes(r)
		params.FaultsHandler.MountRoutes(r)
		params.PaymentsHandler.MountRoutes(r)
		params.CatalogHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	return r
}
