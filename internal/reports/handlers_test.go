package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/coach-hub/internal/mealplans"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/google/uuid"
)

type mockPlanSource struct {
	plans map[uuid.UUID]*mealplans.MealPlanDTO
	err   error
}

func (m *mockPlanSource) GetActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*mealplans.MealPlanDTO, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.plans[clientID], nil
}

func testPlan() mealplans.WeeklyPlan {
	breakfast := &mealplans.CanonicalMeal{
		Name:        "Zobena kaša s bananom",
		Description: "Zobene pahuljice kuhane u mlijeku.",
		Components:  []mealplans.MealComponent{{Name: "Zobene pahuljice", Grams: 60}, {Name: "Mlijeko", Grams: 200}},
		Totals:      mealplans.Totals{Calories: 420, Protein: 16.5, Carbs: 68, Fat: 9.2},
	}
	dinner := &mealplans.CanonicalMeal{
		Name:       "Večera: piletina",
		Components: []mealplans.MealComponent{{Name: "Pileća prsa", Grams: 150}},
		Totals:     mealplans.Totals{Calories: 380, Protein: 45, Carbs: 0, Fat: 8},
	}
	return mealplans.WeeklyPlan{
		UserTargets: nutrition.Targets{TargetCalories: 2200, Macros: nutrition.Macros{Protein: 150, Carbs: 240, Fats: 70}, Goal: nutrition.GoalLose},
		Days: []mealplans.CanonicalDay{
			{
				Date: "2024-03-04", DayName: "Ponedjeljak",
				Meals:       mealplans.DayMeals{Breakfast: breakfast, Dinner: dinner},
				DailyTotals: mealplans.Totals{Calories: 800, Protein: 61.5, Carbs: 68, Fat: 17.2},
			},
			{Date: "2024-03-05", DayName: "Utorak"},
		},
		WeeklyTotals: mealplans.WeeklyTotals{AvgCalories: 400, AvgProtein: 30.8, AvgCarbs: 34, AvgFat: 8.6},
	}
}

func setupHandlers() (*Handlers, uuid.UUID) {
	clientID := uuid.New()
	source := &mockPlanSource{plans: map[uuid.UUID]*mealplans.MealPlanDTO{
		clientID: {ID: uuid.New(), ClientID: clientID, Plan: testPlan(), DayCount: 2, CreatedAt: time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)},
	}}
	return NewHandlers(source, NewGenerator("hr")), clientID
}

func TestHandlePDF(t *testing.T) {
	h, clientID := setupHandlers()

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/meal/plan/pdf?client_id="+clientID.String(), nil)
		w := httptest.NewRecorder()
		h.HandlePDF(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("expected application/pdf, got %s", ct)
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
			t.Error("body is not a PDF")
		}
		want := "attachment; filename=meal-plan-" + clientID.String() + "-2024-03-04.pdf"
		if cd := w.Header().Get("Content-Disposition"); cd != want {
			t.Errorf("unexpected Content-Disposition %q", cd)
		}
	})

	t.Run("NoPlan", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/meal/plan/pdf?client_id="+uuid.New().String(), nil)
		w := httptest.NewRecorder()
		h.HandlePDF(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("MissingClientID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/meal/plan/pdf", nil)
		w := httptest.NewRecorder()
		h.HandlePDF(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("StorageError", func(t *testing.T) {
		broken := NewHandlers(&mockPlanSource{err: errors.New("db down")}, NewGenerator("en"))
		req := httptest.NewRequest("GET", "/v1/meal/plan/pdf?client_id="+clientID.String(), nil)
		w := httptest.NewRecorder()
		broken.HandlePDF(w, req)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}

func TestHandleCSV(t *testing.T) {
	h, clientID := setupHandlers()

	req := httptest.NewRequest("GET", "/v1/meal/plan/csv?client_id="+clientID.String(), nil)
	w := httptest.NewRecorder()
	h.HandleCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("expected text/csv, got %s", ct)
	}

	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 meal rows, got %d", len(rows))
	}
	if rows[1][2] != "breakfast" || rows[1][3] != "Zobena kaša s bananom" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[1][4] != "Zobene pahuljice; Mlijeko" || rows[1][6] != "16.5" {
		t.Errorf("unexpected components or protein: %v", rows[1])
	}
	if rows[2][2] != "dinner" || rows[2][5] != "380" {
		t.Errorf("unexpected second row: %v", rows[2])
	}
}

func TestRenderWeeklyPlanPDFLocales(t *testing.T) {
	for _, locale := range []string{"hr", "en", "de"} {
		data, err := NewGenerator(locale).RenderWeeklyPlanPDF(testPlan())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", locale, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s: empty PDF", locale)
		}
	}
}
