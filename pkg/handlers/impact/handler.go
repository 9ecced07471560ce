package impact

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/impact-atlas/pkg/adapters"
	"github.com/de-tools/impact-atlas/pkg/models/api"
	"github.com/de-tools/impact-atlas/pkg/models/domain"
	"github.com/de-tools/impact-atlas/pkg/services/estimate"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 8 << 20

type Handler struct {
	ctrl estimate.Controller
}

func NewHandler(ctrl estimate.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	nodes, err := h.ctrl.Nodes(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]api.Node, 0, len(nodes))
	for _, n := range nodes {
		response = append(response, api.Node{Name: n.Name, Model: n.Model, Metric: string(n.Metric)})
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	node := chi.URLParam(r, "node")

	var req api.CalculateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var observations []domain.Observation
	if req.Observations != nil {
		observations = make([]domain.Observation, 0, len(req.Observations))
		for _, o := range req.Observations {
			observations = append(observations, domain.Observation(o))
		}
	}

	calc, err := h.ctrl.Calculate(ctx, node, observations)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Persist {
		if err := h.ctrl.Persist(ctx, calc); err != nil {
			writeError(w, r, err)
			return
		}
	}

	response := api.CalculateResponse{
		Node:    calc.Node,
		Model:   calc.Model,
		Results: make([]api.ImpactResult, 0, len(calc.Results)),
	}
	for i, result := range calc.Results {
		response.Results = append(response.Results, adapters.MapImpactResultToAPI(calc.Observations[i], result))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.AggregateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	records := make([]domain.PluginRecord, 0, len(req.Records))
	for _, rec := range req.Records {
		records = append(records, domain.PluginRecord(rec))
	}

	result, err := h.ctrl.Aggregate(ctx, records, req.Metrics, req.Methods)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.AggregateResponse{Result: result})
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.ctrl.Locations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, api.LocationsResponse{Locations: locations})
}

func decode(w http.ResponseWriter, r *http.Request, out interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidObservation),
		errors.Is(err, domain.ErrAggregation),
		errors.Is(err, domain.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProcessExecution),
		errors.Is(err, domain.ErrUnexpectedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	zerolog.Ctx(r.Context()).Error().
		Err(err).
		Int("status", status).
		Msg("request failed")
	writeJSON(w, r, status, api.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
