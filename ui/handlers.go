package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"seqab/domain/core"
	"seqab/domain/plan"
	"seqab/domain/sprt"
	apperrors "seqab/internal/errors"
)

type createExperimentRequest struct {
	Name   string  `json:"name"`
	Family string  `json:"family"`
	Null   float64 `json:"null"`
	Alt    float64 `json:"alt"`
	Sigma  float64 `json:"sigma,omitempty"`
	Alpha  float64 `json:"alpha"`
	Beta   float64 `json:"beta"`
}

type experimentResponse struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Spec       sprt.HypothesisSpec  `json:"spec"`
	Targets    sprt.ErrorTargets    `json:"targets"`
	Boundaries sprt.Boundaries      `json:"boundaries"`
	State      sprt.TestState       `json:"state"`
	Plan       *plan.ExperimentPlan `json:"plan,omitempty"`
}

type observeRequest struct {
	Value float64 `json:"value"`
}

type estimateRequest struct {
	Repetitions int       `json:"repetitions"`
	Seed        int64     `json:"seed"`
	Percentiles []float64 `json:"percentiles,omitempty"`
	Workers     int       `json:"workers,omitempty"`
}

func (a *App) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req createExperimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, http.StatusBadRequest, apperrors.InvalidParameter("request body must be valid JSON"))
		return
	}

	var spec sprt.HypothesisSpec
	var err error
	switch sprt.Family(req.Family) {
	case sprt.FamilyGaussian:
		spec, err = sprt.NewGaussianSpec(req.Null, req.Alt, req.Sigma)
	default:
		spec, err = sprt.NewBernoulliSpec(req.Null, req.Alt)
	}
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	targets, err := sprt.NewErrorTargets(req.Alpha, req.Beta)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	p, err := a.service.CreatePlan(r.Context(), req.Name, spec, targets)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	_, factory, err := a.service.NewExperiment(spec, targets)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	engine := factory.New()
	a.register(p, engine)

	writeJSON(w, http.StatusCreated, experimentResponse{
		ID:         p.ID.String(),
		Name:       p.Name,
		Spec:       spec,
		Targets:    targets,
		Boundaries: p.Bounds,
		State:      engine.State(),
		Plan:       p,
	})
}

// experimentFromRequest resolves the URL parameter to a live experiment.
func (a *App) experimentFromRequest(r *http.Request) (*liveExperiment, bool) {
	id, err := core.ParseExperimentID(chi.URLParam(r, "experimentID"))
	if err != nil {
		return nil, false
	}
	return a.lookup(id)
}

func (a *App) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, ok := a.experimentFromRequest(r)
	if !ok {
		writeAppError(w, http.StatusNotFound, apperrors.NotFound("experiment"))
		return
	}
	exp.mu.Lock()
	defer exp.mu.Unlock()
	writeJSON(w, http.StatusOK, experimentResponse{
		ID:         exp.plan.ID.String(),
		Name:       exp.plan.Name,
		Spec:       exp.plan.Spec,
		Targets:    exp.plan.Targets,
		Boundaries: exp.plan.Bounds,
		State:      exp.engine.State(),
		Plan:       exp.plan,
	})
}

func (a *App) handleObserve(w http.ResponseWriter, r *http.Request) {
	exp, ok := a.experimentFromRequest(r)
	if !ok {
		writeAppError(w, http.StatusNotFound, apperrors.NotFound("experiment"))
		return
	}
	var req observeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, http.StatusBadRequest, apperrors.InvalidParameter("request body must be valid JSON"))
		return
	}

	exp.mu.Lock()
	state, err := exp.engine.Observe(req.Value)
	exp.mu.Unlock()
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *App) handleEstimate(w http.ResponseWriter, r *http.Request) {
	exp, ok := a.experimentFromRequest(r)
	if !ok {
		writeAppError(w, http.StatusNotFound, apperrors.NotFound("experiment"))
		return
	}
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, http.StatusBadRequest, apperrors.InvalidParameter("request body must be valid JSON"))
		return
	}

	// Estimate writes the result onto the shared plan, so the experiment
	// lock is held for the duration; concurrent reads of the same plan wait.
	exp.mu.Lock()
	result, err := a.service.Estimate(r.Context(), exp.plan, plan.EstimateRequest{
		Repetitions: req.Repetitions,
		Seed:        req.Seed,
		Percentiles: req.Percentiles,
		Workers:     req.Workers,
	})
	exp.mu.Unlock()
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAppError(w http.ResponseWriter, status int, appErr *apperrors.AppError) {
	writeJSON(w, status, errorResponse{Code: appErr.Code, Message: appErr.Message})
}

// writeDomainError maps the domain error taxonomy to HTTP statuses and
// AppError codes: parameter problems are the client's configuration (400),
// improper use is a state-machine contract violation (409), everything else
// is internal and keeps whatever code the error chain already carries.
func (a *App) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case core.IsInvalidParameter(err):
		writeAppError(w, http.StatusBadRequest, apperrors.InvalidParameter(err.Error()))
	case core.IsImproperUse(err):
		writeAppError(w, http.StatusConflict, apperrors.ImproperUse(err.Error()))
	case core.IsNotFound(err):
		writeAppError(w, http.StatusNotFound, apperrors.New(apperrors.CodeNotFound, err.Error()))
	default:
		a.logger.Error("request failed: %v", err)
		writeAppError(w, http.StatusInternalServerError, apperrors.New(apperrors.GetCode(err), err.Error()))
	}
}
