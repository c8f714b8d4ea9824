package ui

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"seqab/app"
	"seqab/domain/core"
	"seqab/domain/plan"
	"seqab/domain/sprt"
	"seqab/internal"
)

// App is the HTTP surface of the sequential testing service: a thin JSON
// shell over the ExperimentService. Live engines are held in memory, one per
// experiment, each guarded by its own lock so concurrent experiments never
// share mutable state.
type App struct {
	router  *chi.Mux
	service *app.ExperimentService
	logger  *internal.Logger

	mu   sync.RWMutex
	live map[core.ExperimentID]*liveExperiment
}

// liveExperiment pairs a persisted plan with its running engine. The mutex
// serializes every access to the pair: Observe calls depend on the previous
// statistic, and Estimate mutates the plan's result while readers encode it.
type liveExperiment struct {
	mu     sync.Mutex
	plan   *plan.ExperimentPlan
	engine *sprt.Engine
}

// Config holds HTTP application configuration
type Config struct {
	Port string
}

// NewApp creates the HTTP application
func NewApp(service *app.ExperimentService, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	a := &App{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger,
		live:    make(map[core.ExperimentID]*liveExperiment),
	}
	a.routes()
	return a
}

func (a *App) routes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Recoverer)

	a.router.Route("/api/experiments", func(r chi.Router) {
		r.Post("/", a.handleCreateExperiment)
		r.Route("/{experimentID}", func(r chi.Router) {
			r.Get("/", a.handleGetExperiment)
			r.Post("/observe", a.handleObserve)
			r.Post("/estimate", a.handleEstimate)
		})
	})
	a.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// Router returns the HTTP handler for mounting or testing.
func (a *App) Router() http.Handler {
	return a.router
}

// Serve starts the HTTP server on the configured port.
func (a *App) Serve(cfg Config) error {
	a.logger.Info("listening on :%s", cfg.Port)
	return http.ListenAndServe(":"+cfg.Port, a.router)
}

func (a *App) lookup(id core.ExperimentID) (*liveExperiment, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	exp, ok := a.live[id]
	return exp, ok
}

func (a *App) register(p *plan.ExperimentPlan, engine *sprt.Engine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live[core.ExperimentID(p.ID)] = &liveExperiment{plan: p, engine: engine}
}
