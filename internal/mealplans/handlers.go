package mealplans

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
)

const maxNormalizeBody = 5 << 20

// Handler handles HTTP requests for meal plans.
type Handler struct {
	service *Service
}

// NewHandler creates a new meal plans handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGenerate handles POST /v1/meal/plan/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	plan, err := h.service.Generate(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		writeServiceError(w, err, "Failed to generate meal plan")
		return
	}

	writeJSON(w, http.StatusOK, GetMealPlanResponse{Plan: plan, SelectedDay: 0})
}

// HandleGet handles GET /v1/meal/plan?client_id=&day=
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}

	day := 0
	if raw := r.URL.Query().Get("day"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "day must be an integer")
			return
		}
		day = n
	}

	plan, err := h.service.GetActive(r.Context(), userctx.OwnerID(r.Context()), clientID)
	if err != nil {
		writeServiceError(w, err, "Failed to get meal plan")
		return
	}

	resp := GetMealPlanResponse{Plan: plan}
	if plan != nil {
		resp.SelectedDay = ClampDayIndex(day, len(plan.Plan.Days))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStatus handles GET /v1/meal/plan/status?client_id=
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), userctx.OwnerID(r.Context()), clientID)
	if err != nil {
		writeServiceError(w, err, "Failed to get generation status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleNormalize handles POST /v1/meal/plan/normalize
func (h *Handler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNormalizeBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	result, err := h.service.Normalize(req)
	if err != nil {
		writeServiceError(w, err, "Failed to normalize meal plan")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleRebuild handles POST /v1/meal/plan/rebuild?client_id=
func (h *Handler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}

	plan, err := h.service.Rebuild(r.Context(), userctx.OwnerID(r.Context()), clientID)
	if err != nil {
		writeServiceError(w, err, "Failed to rebuild meal plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "not_found", "No archived plan for this client")
		return
	}
	writeJSON(w, http.StatusOK, GetMealPlanResponse{Plan: plan})
}

// HandleRaw handles GET /v1/meal/plan/raw?client_id=
func (h *Handler) HandleRaw(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}

	url, err := h.service.RawDocumentURL(r.Context(), userctx.OwnerID(r.Context()), clientID)
	if err != nil {
		writeServiceError(w, err, "Failed to presign raw plan")
		return
	}
	if url == "" {
		writeError(w, http.StatusNotFound, "not_found", "No archived plan for this client")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url":        url,
		"expires_in": h.service.cfg.PresignTTLSeconds,
	})
}

// HandleDelete handles DELETE /v1/meal/plan?client_id=
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userctx.OwnerID(r.Context()), clientID); err != nil {
		writeServiceError(w, err, "Failed to delete meal plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps service errors to the API error codes.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var inputErr *nutrition.InvalidInputError
	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, "invalid_input", inputErr.Error())
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": "))
	case errors.Is(err, ErrPlanNotFound):
		writeError(w, http.StatusUnprocessableEntity, "plan_not_found", "Upstream response contains no meal plan, try again")
	case errors.Is(err, ErrEmptyPlan):
		writeError(w, http.StatusUnprocessableEntity, "empty_plan", "Upstream meal plan has no days, try again")
	case errors.Is(err, ErrGenerationInProgress):
		writeError(w, http.StatusConflict, "generation_in_progress", "A meal plan is already being generated for this client")
	case errors.Is(err, ErrUpstreamTimeout):
		writeError(w, http.StatusGatewayTimeout, "upstream_timeout", "Meal plan generator timed out, try again")
	case errors.Is(err, ErrUpstreamFailed):
		writeError(w, http.StatusBadGateway, "upstream_failed", "Meal plan generator failed, try again")
	case errors.Is(err, blob.ErrArchiveDisabled):
		writeError(w, http.StatusNotFound, "not_found", "Raw plan archive is not configured")
	default:
		log.Printf("WARN mealplans: %s: %v", fallback, err)
		writeError(w, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func parseClientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("client_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "client_id is required")
		return uuid.Nil, false
	}
	clientID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid client_id format")
		return uuid.Nil, false
	}
	return clientID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
