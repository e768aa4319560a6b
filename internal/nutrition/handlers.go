package nutrition

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for nutrition targets.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleCalculate handles POST /v1/nutrition/calculate
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	resp, err := h.service.Calculate(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		var inputErr *InvalidInputError
		switch {
		case errors.As(err, &inputErr):
			writeError(w, http.StatusBadRequest, "invalid_input", inputErr.Error())
		case errors.Is(err, ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": "))
		default:
			log.Printf("WARN nutrition: calculate failed: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to calculate targets")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGetTargets handles GET /v1/nutrition/targets?client_id=
func (h *Handler) HandleGetTargets(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}

	targets, isDefault, err := h.service.GetOrDefault(r.Context(), userctx.OwnerID(r.Context()), clientID)
	if err != nil {
		log.Printf("WARN nutrition: get targets failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get nutrition targets")
		return
	}

	writeJSON(w, http.StatusOK, GetTargetsResponse{
		Targets:   targets,
		IsDefault: isDefault,
	})
}

// HandleUpsertTargets handles PUT /v1/nutrition/targets
func (h *Handler) HandleUpsertTargets(w http.ResponseWriter, r *http.Request) {
	var req UpsertTargetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body")
		return
	}

	targets, err := h.service.Upsert(r.Context(), userctx.OwnerID(r.Context()), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), ErrInvalidRequest.Error()+": "))
			return
		}
		log.Printf("WARN nutrition: upsert targets failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to upsert nutrition targets")
		return
	}

	writeJSON(w, http.StatusOK, targets)
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
