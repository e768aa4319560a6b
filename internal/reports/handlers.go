package reports

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
)

// Handlers serves plan downloads.
type Handlers struct {
	plans     PlanSource
	generator *Generator
}

func NewHandlers(plans PlanSource, generator *Generator) *Handlers {
	return &Handlers{plans: plans, generator: generator}
}

// HandlePDF handles GET /v1/meal/plan/pdf?client_id=
func (h *Handlers) HandlePDF(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, FormatPDF)
}

// HandleCSV handles GET /v1/meal/plan/csv?client_id=
func (h *Handlers) HandleCSV(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, FormatCSV)
}

func (h *Handlers) download(w http.ResponseWriter, r *http.Request, format string) {
	clientIDStr := r.URL.Query().Get("client_id")
	if clientIDStr == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "client_id is required")
		return
	}
	clientID, err := uuid.Parse(clientIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid client_id format")
		return
	}

	plan, err := h.plans.GetActive(r.Context(), userctx.OwnerID(r.Context()), clientID)
	if err != nil {
		log.Printf("WARN reports: get plan client=%s: %v", clientID, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get meal plan")
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "not_found", "Client has no meal plan")
		return
	}

	var data []byte
	var contentType string
	switch format {
	case FormatPDF:
		data, err = h.generator.RenderWeeklyPlanPDF(plan.Plan)
		contentType = "application/pdf"
	default:
		data, err = h.generator.RenderWeeklyPlanCSV(plan.Plan)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		log.Printf("WARN reports: render %s client=%s: %v", format, clientID, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to render meal plan")
		return
	}

	filename := fmt.Sprintf("meal-plan-%s-%s.%s", clientID, plan.CreatedAt.Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
