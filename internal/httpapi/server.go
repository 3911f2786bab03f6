// Package httpapi wires the HTTP surface of the billing service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	clientsvc "github.com/hidrobill/hidrobill/internal/service/client"
	cyclesvc "github.com/hidrobill/hidrobill/internal/service/cycle"
	ledgersvc "github.com/hidrobill/hidrobill/internal/service/ledger"
	metersvc "github.com/hidrobill/hidrobill/internal/service/meter"
	plansvc "github.com/hidrobill/hidrobill/internal/service/plan"
)

// Options carries server-level configuration.
type Options struct {
	Logger *slog.Logger
	// DefaultCurrency is used for plans created without an explicit currency.
	DefaultCurrency string
	// JWTSecret enables the bearer-token login gate when non-empty. No engine
	// call is reachable without a valid token while the gate is on.
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// Server wires handlers and middleware using Chi.
// It composes read (repo) and write (writer) dependencies through services.
type Server struct {
	clients clientsvc.Service
	plans   plansvc.Service
	ledger  ledgersvc.Service
	meters  metersvc.Service
	cycles  cyclesvc.Service
	repo    Repository
	opts    Options
	log     *slog.Logger
	rt      *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(repo Repository, writer Writer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "MXN"
	}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	if opts.JWTSecret != "" {
		r.Use(authJWT(opts.JWTSecret, opts.JWTIssuer, opts.JWTAudience))
	}

	s := &Server{
		clients: clientsvc.New(repo, writer),
		plans:   plansvc.New(repo, writer),
		ledger:  ledgersvc.New(repo, writer),
		meters:  metersvc.New(repo, writer),
		cycles:  cyclesvc.New(repo, writer, logger),
		repo:    repo,
		opts:    opts,
		log:     logger,
		rt:      r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Clients
	s.rt.With(s.validatePostClient()).Post("/v1/clients", s.postClient)
	s.rt.Get("/v1/clients", s.listClients)
	s.rt.Get("/v1/clients/{id}", s.getClient)
	s.rt.Patch("/v1/clients/{id}", s.updateClient)
	s.rt.Post("/v1/clients/{id}/suspend", s.suspendClient)
	s.rt.Post("/v1/clients/{id}/reactivate", s.reactivateClient)
	// Plans
	s.rt.With(s.validatePostPlan()).Post("/v1/plans", s.postPlan)
	s.rt.Get("/v1/clients/{id}/plan", s.getPlan)
	s.rt.Patch("/v1/clients/{id}/plan/rate", s.updatePlanRate)
	// Ledger
	s.rt.With(s.validatePostCharge()).Post("/v1/charges", s.postCharge)
	s.rt.With(s.validatePostPayment()).Post("/v1/payments", s.postPayment)
	s.rt.Get("/v1/clients/{id}/balance", s.getBalance)
	s.rt.Get("/v1/clients/{id}/ledger", s.getLedger)
	// Meter readings
	s.rt.With(s.validatePostReading()).Post("/v1/readings", s.postReading)
	s.rt.Get("/v1/clients/{id}/readings", s.listReadings)
	// Billing cycle
	s.rt.Post("/v1/cycles/run", s.runCycle)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
