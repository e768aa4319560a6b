package mealplans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/coach-hub/internal/generator"
	"github.com/fdg312/coach-hub/internal/userctx"
	"github.com/google/uuid"
)

func setupHandler(t *testing.T, gen generator.Generator, store *memBlob) *Handler {
	t.Helper()
	svc, _ := newTestService(t, gen, store)
	return NewHandler(svc)
}

func doRequest(t *testing.T, h http.HandlerFunc, method, target string, body any, owner string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if owner != "" {
		req = req.WithContext(userctx.WithUserID(req.Context(), owner))
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error.Code
}

func generateBody(clientID uuid.UUID) map[string]any {
	return map[string]any{
		"client_id": clientID,
		"calculations": map[string]any{
			"targetCalories": 2400, "targetProtein": 160, "targetCarbs": 260, "targetFat": 80, "goalType": "maintain",
		},
		"preferences": map[string]any{"allergies": "kikiriki"},
	}
}

func TestHandleGenerate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := setupHandler(t, mockGenerator(), nil)
		w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(uuid.New()), "trainer-1")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var resp GetMealPlanResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Plan == nil || len(resp.Plan.Plan.Days) != 7 {
			t.Fatalf("expected 7 days, got %+v", resp.Plan)
		}
		if resp.SelectedDay != 0 {
			t.Errorf("expected selected_day 0, got %d", resp.SelectedDay)
		}
		if resp.Plan.Plan.Days[0].Meals.Breakfast == nil {
			t.Error("expected breakfast on first day")
		}
	})

	t.Run("InvalidPayload", func(t *testing.T) {
		h := setupHandler(t, mockGenerator(), nil)
		w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", "{oops", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "invalid_payload" {
			t.Errorf("expected invalid_payload, got %s", code)
		}
	})

	t.Run("InvalidCalculations", func(t *testing.T) {
		h := setupHandler(t, mockGenerator(), nil)
		body := generateBody(uuid.New())
		body["calculations"].(map[string]any)["targetFat"] = -3
		w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", body, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "invalid_input" {
			t.Errorf("expected invalid_input, got %s", code)
		}
	})

	t.Run("NoTargets", func(t *testing.T) {
		h := setupHandler(t, mockGenerator(), nil)
		w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", map[string]any{"client_id": uuid.New()}, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "invalid_request" {
			t.Errorf("expected invalid_request, got %s", code)
		}
	})

	upstream := []struct {
		name   string
		gen    generatorFunc
		status int
		code   string
	}{
		{"Timeout", func(ctx context.Context, req generator.Request) ([]byte, error) { return nil, generator.ErrTimeout }, http.StatusGatewayTimeout, "upstream_timeout"},
		{"Failure", func(ctx context.Context, req generator.Request) ([]byte, error) { return nil, errors.New("boom") }, http.StatusBadGateway, "upstream_failed"},
		{"PlanNotFound", func(ctx context.Context, req generator.Request) ([]byte, error) { return []byte(`"nope"`), nil }, http.StatusUnprocessableEntity, "plan_not_found"},
		{"EmptyPlan", func(ctx context.Context, req generator.Request) ([]byte, error) { return []byte(`{"plan": {"days": []}}`), nil }, http.StatusUnprocessableEntity, "empty_plan"},
	}
	for _, tt := range upstream {
		t.Run(tt.name, func(t *testing.T) {
			h := setupHandler(t, tt.gen, nil)
			w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(uuid.New()), "")
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if code := errorCode(t, w); code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, code)
			}
		})
	}

	t.Run("InProgress", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		gen := generatorFunc(func(ctx context.Context, req generator.Request) ([]byte, error) {
			close(started)
			<-release
			return mockGenerator().Generate(ctx, req)
		})
		h := setupHandler(t, gen, nil)
		clientID := uuid.New()

		done := make(chan int, 1)
		go func() {
			w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(clientID), "")
			done <- w.Code
		}()
		<-started

		w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(clientID), "")
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "generation_in_progress" {
			t.Errorf("expected generation_in_progress, got %s", code)
		}

		close(release)
		if code := <-done; code != http.StatusOK {
			t.Errorf("expected first request to succeed, got %d", code)
		}
	})
}

func TestHandleGet(t *testing.T) {
	h := setupHandler(t, mockGenerator(), nil)
	clientID := uuid.New()

	t.Run("NoPlan", func(t *testing.T) {
		w := doRequest(t, h.HandleGet, "GET", "/v1/meal/plan?client_id="+clientID.String(), nil, "trainer-1")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"plan":null`) {
			t.Errorf("expected null plan, got %s", w.Body.String())
		}
	})

	w := doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(clientID), "trainer-1")
	if w.Code != http.StatusOK {
		t.Fatalf("generate failed: %d %s", w.Code, w.Body.String())
	}

	days := []struct {
		query string
		want  int
	}{
		{"", 0},
		{"&day=3", 3},
		{"&day=12", 6},
		{"&day=-4", 0},
	}
	for _, tt := range days {
		t.Run("Day"+tt.query, func(t *testing.T) {
			w := doRequest(t, h.HandleGet, "GET", "/v1/meal/plan?client_id="+clientID.String()+tt.query, nil, "trainer-1")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var resp GetMealPlanResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Plan == nil {
				t.Fatal("expected plan")
			}
			if resp.SelectedDay != tt.want {
				t.Errorf("expected selected_day %d, got %d", tt.want, resp.SelectedDay)
			}
		})
	}

	t.Run("OtherTrainer", func(t *testing.T) {
		w := doRequest(t, h.HandleGet, "GET", "/v1/meal/plan?client_id="+clientID.String(), nil, "trainer-2")
		if !strings.Contains(w.Body.String(), `"plan":null`) {
			t.Errorf("expected no plan for another trainer, got %s", w.Body.String())
		}
	})

	t.Run("BadDay", func(t *testing.T) {
		w := doRequest(t, h.HandleGet, "GET", "/v1/meal/plan?client_id="+clientID.String()+"&day=first", nil, "trainer-1")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("MissingClientID", func(t *testing.T) {
		w := doRequest(t, h.HandleGet, "GET", "/v1/meal/plan", nil, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "invalid_request" {
			t.Errorf("expected invalid_request, got %s", code)
		}
	})

	t.Run("InvalidClientID", func(t *testing.T) {
		w := doRequest(t, h.HandleGet, "GET", "/v1/meal/plan?client_id=abc", nil, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestHandleStatus(t *testing.T) {
	h := setupHandler(t, mockGenerator(), nil)
	clientID := uuid.New()

	w := doRequest(t, h.HandleStatus, "GET", "/v1/meal/plan/status?client_id="+clientID.String(), nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status StatusResponse
	json.NewDecoder(w.Body).Decode(&status)
	if status.State != StateIdle {
		t.Errorf("expected idle, got %s", status.State)
	}

	doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(clientID), "")

	w = doRequest(t, h.HandleStatus, "GET", "/v1/meal/plan/status?client_id="+clientID.String(), nil, "")
	json.NewDecoder(w.Body).Decode(&status)
	if status.State != StateReady {
		t.Errorf("expected ready, got %s", status.State)
	}
}

func TestHandleNormalize(t *testing.T) {
	h := setupHandler(t, mockGenerator(), nil)

	t.Run("Success", func(t *testing.T) {
		body := `{"document": {"data": {"result": {"plan": {"days": [` + sampleDay + `]}}}}}`
		w := doRequest(t, h.HandleNormalize, "POST", "/v1/meal/plan/normalize", body, "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var res Result
		if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(res.Plan.Days) != 1 || res.Plan.Days[0].DailyTotals.Calories != 850 {
			t.Errorf("unexpected plan: %+v", res.Plan)
		}
		if res.Warnings == nil {
			t.Error("warnings must encode as an array")
		}
	})

	t.Run("MissingDocument", func(t *testing.T) {
		w := doRequest(t, h.HandleNormalize, "POST", "/v1/meal/plan/normalize", `{}`, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("NotAPlan", func(t *testing.T) {
		w := doRequest(t, h.HandleNormalize, "POST", "/v1/meal/plan/normalize", `{"document": [1, 2]}`, "")
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
		if code := errorCode(t, w); code != "plan_not_found" {
			t.Errorf("expected plan_not_found, got %s", code)
		}
	})
}

func TestHandleRebuildAndRaw(t *testing.T) {
	store := newMemBlob()
	h := setupHandler(t, mockGenerator(), store)
	clientID := uuid.New()
	query := "?client_id=" + clientID.String()

	w := doRequest(t, h.HandleRaw, "GET", "/v1/meal/plan/raw"+query, nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before generation, got %d", w.Code)
	}
	w = doRequest(t, h.HandleRebuild, "POST", "/v1/meal/plan/rebuild"+query, nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before generation, got %d", w.Code)
	}

	doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(clientID), "")

	w = doRequest(t, h.HandleRaw, "GET", "/v1/meal/plan/raw"+query, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var raw struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expires_in"`
	}
	json.NewDecoder(w.Body).Decode(&raw)
	if !strings.HasPrefix(raw.URL, "https://blob.test/mealplans/raw/") || raw.ExpiresIn != 600 {
		t.Errorf("unexpected raw response: %+v", raw)
	}

	w = doRequest(t, h.HandleRebuild, "POST", "/v1/meal/plan/rebuild"+query, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleDelete(t *testing.T) {
	h := setupHandler(t, mockGenerator(), newMemBlob())
	clientID := uuid.New()
	query := "?client_id=" + clientID.String()

	doRequest(t, h.HandleGenerate, "POST", "/v1/meal/plan/generate", generateBody(clientID), "")

	w := doRequest(t, h.HandleDelete, "DELETE", "/v1/meal/plan"+query, nil, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doRequest(t, h.HandleGet, "GET", "/v1/meal/plan"+query, nil, "")
	if !strings.Contains(w.Body.String(), `"plan":null`) {
		t.Errorf("expected plan to be gone, got %s", w.Body.String())
	}

	w = doRequest(t, h.HandleDelete, "DELETE", "/v1/meal/plan", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without client_id, got %d", w.Code)
	}
}
