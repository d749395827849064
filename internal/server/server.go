// Package server exposes the planning service over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/debtease/planner/internal/advisory"
	"github.com/debtease/planner/internal/debt"
	"github.com/debtease/planner/internal/dti"
	"github.com/debtease/planner/internal/planner"
	"github.com/debtease/planner/internal/simulation"
	"github.com/debtease/planner/internal/store"
	"github.com/debtease/planner/pkg/constants"
)

type handler struct {
	service     *planner.Service
	logger      *zap.Logger
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the planning API.
func NewHandler(service *planner.Service, logger *zap.Logger, maxBodySize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{service: service, logger: logger, maxBodySize: maxBodySize, version: trimmedVersion}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan", h.handlePlan)
	mux.HandleFunc("/api/insights", h.handleInsights)
	mux.HandleFunc("/api/compare", h.handleCompare)
	mux.HandleFunc("/api/simulate", h.handleSimulate)
	mux.HandleFunc("/api/dti", h.handleDTI)
	mux.HandleFunc("/api/debts", h.handleDebts)
	mux.HandleFunc("/api/profile", h.handleProfile)
	mux.HandleFunc("/api/invalidate", h.handleInvalidate)
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type planRequest struct {
	SubjectID     string              `json:"subject_id"`
	MonthlyBudget float64             `json:"monthly_budget"`
	Strategy      simulation.Strategy `json:"strategy,omitempty"`
	MonthlyIncome float64             `json:"monthly_income,omitempty"`
}

func (h *handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePlan"
	var req planRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	if req.SubjectID == "" {
		h.respondError(w, http.StatusBadRequest, "missing subject_id", op)
		return
	}

	start := time.Now()
	plan, err := h.service.GetPlan(r.Context(), req.SubjectID, planner.Params{
		MonthlyBudget: req.MonthlyBudget,
		Strategy:      req.Strategy,
		MonthlyIncome: req.MonthlyIncome,
	})
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	h.logger.Info("plan served",
		zap.String("op", op),
		zap.String("subject_id", req.SubjectID),
		zap.String("source", string(plan.Source)),
		zap.Bool("degraded", plan.Degraded),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, plan)
}

type subjectRequest struct {
	SubjectID string `json:"subject_id"`
}

func (h *handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleInsights"
	var req subjectRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	if req.SubjectID == "" {
		h.respondError(w, http.StatusBadRequest, "missing subject_id", op)
		return
	}

	insights, err := h.service.GetInsights(r.Context(), req.SubjectID)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, insights)
}

type compareRequest struct {
	SubjectID     string  `json:"subject_id"`
	MonthlyBudget float64 `json:"monthly_budget"`
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"
	var req compareRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	if req.SubjectID == "" {
		h.respondError(w, http.StatusBadRequest, "missing subject_id", op)
		return
	}

	cmp, err := h.service.CompareStrategies(r.Context(), req.SubjectID, req.MonthlyBudget)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, cmp)
}

type simulateRequest struct {
	SubjectID string                `json:"subject_id"`
	Scenarios []simulation.Scenario `json:"scenarios"`
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"
	var req simulateRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	if req.SubjectID == "" {
		h.respondError(w, http.StatusBadRequest, "missing subject_id", op)
		return
	}
	if len(req.Scenarios) == 0 {
		h.respondError(w, http.StatusBadRequest, "missing scenarios", op)
		return
	}

	outcomes, err := h.service.Simulate(r.Context(), req.SubjectID, req.Scenarios)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"results": outcomes})
}

func (h *handler) handleDTI(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDTI"
	var req subjectRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	if req.SubjectID == "" {
		h.respondError(w, http.StatusBadRequest, "missing subject_id", op)
		return
	}

	result, err := h.service.CalculateDTI(r.Context(), req.SubjectID)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type debtsRequest struct {
	SubjectID string      `json:"subject_id"`
	Debts     []debt.Debt `json:"debts"`
}

func (h *handler) handleDebts(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDebts"
	var req debtsRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	if req.SubjectID == "" {
		h.respondError(w, http.StatusBadRequest, "missing subject_id", op)
		return
	}

	if err := h.service.UpdateDebts(r.Context(), req.SubjectID, req.Debts); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"saved": len(req.Debts)})
}

func (h *handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProfile"
	var profile store.Profile
	if !h.decodePost(w, r, &profile, op) {
		return
	}

	if err := h.service.UpdateProfile(r.Context(), profile); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleInvalidate"
	var req subjectRequest
	if !h.decodePost(w, r, &req, op) {
		return
	}
	if req.SubjectID == "" {
		h.respondError(w, http.StatusBadRequest, "missing subject_id", op)
		return
	}

	removed := h.service.InvalidatePlans(req.SubjectID)
	h.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// decodePost enforces the POST method and body limit, then decodes the
// JSON request. Returns false when a response has already been written.
func (h *handler) decodePost(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// respondServiceError maps service errors onto HTTP statuses: missing
// subjects are 404, caller-correctable inputs are 400, collaborator
// failures are 502, everything else is 500.
func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	var insufficientBudget *simulation.InsufficientBudgetError
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error(), op)
	case errors.As(err, &insufficientBudget),
		errors.Is(err, dti.ErrInvalidIncome),
		errors.Is(err, planner.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, advisory.ErrUnavailable):
		h.respondError(w, http.StatusBadGateway, err.Error(), op)
	default:
		h.respondError(w, http.StatusInternalServerError, err.Error(), op)
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("planning request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
