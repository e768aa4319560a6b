package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/userctx"
)

func testConfig(authMode string, required bool) *config.Config {
	return &config.Config{
		AuthMode:      authMode,
		AuthEnabled:   authMode != config.AuthModeNone,
		AuthRequired:  required,
		JWTSecret:     "test-secret-key-for-testing-only",
		JWTIssuer:     "coach-hub-test",
		JWTTTLMinutes: 60,
	}
}

func TestHandleDevAuth(t *testing.T) {
	service := NewService(testConfig(config.AuthModeDev, false))
	handler := NewHandlers(service)

	t.Run("DefaultTrainer", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/auth/dev", nil)
		w := httptest.NewRecorder()

		handler.HandleDevAuth(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d. Body: %s", w.Code, w.Body.String())
		}

		var resp DevAuthResponse
		json.NewDecoder(w.Body).Decode(&resp)

		if resp.AccessToken == "" {
			t.Fatal("expected access_token not empty")
		}
		if resp.TrainerID != devTrainerID {
			t.Errorf("expected trainer_id %q, got %q", devTrainerID, resp.TrainerID)
		}

		sub, err := service.VerifyJWT(resp.AccessToken)
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if sub != devTrainerID {
			t.Errorf("expected sub %q, got %q", devTrainerID, sub)
		}
	})

	t.Run("ExplicitTrainer", func(t *testing.T) {
		body, _ := json.Marshal(DevAuthRequest{TrainerID: "coach-ana"})
		req := httptest.NewRequest("POST", "/v1/auth/dev", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleDevAuth(w, req)

		var resp DevAuthResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.TrainerID != "coach-ana" {
			t.Fatalf("expected trainer_id coach-ana, got %q", resp.TrainerID)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/auth/dev", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()

		handler.HandleDevAuth(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleDevAuthDisabled(t *testing.T) {
	handler := NewHandlers(NewService(testConfig(config.AuthModeNone, false)))

	req := httptest.NewRequest("POST", "/v1/auth/dev", nil)
	w := httptest.NewRecorder()
	handler.HandleDevAuth(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestVerifyJWT(t *testing.T) {
	cfg := testConfig(config.AuthModeDev, true)
	service := NewService(cfg)

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewService(&config.Config{JWTSecret: "another-secret", JWTIssuer: cfg.JWTIssuer, JWTTTLMinutes: 60})
		token, _ := other.IssueToken("trainer1", time.Hour)
		if _, err := service.VerifyJWT(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		other := NewService(&config.Config{JWTSecret: cfg.JWTSecret, JWTIssuer: "someone-else", JWTTTLMinutes: 60})
		token, _ := other.IssueToken("trainer1", time.Hour)
		if _, err := service.VerifyJWT(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		past := NewService(cfg)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _ := past.IssueToken("trainer1", time.Hour)
		if _, err := service.VerifyJWT(token); err != ErrInvalidToken {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestMiddlewareRequireAuth(t *testing.T) {
	cfg := testConfig(config.AuthModeDev, true)
	service := NewService(cfg)
	mw := NewMiddleware(cfg, service)

	var gotOwner string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = userctx.OwnerID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := mw.Handler(next)

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/meal/plan", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("PublicPath", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/healthz", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("ValidToken", func(t *testing.T) {
		token, _ := service.IssueToken("trainer-42", 0)
		req := httptest.NewRequest("GET", "/v1/meal/plan", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if gotOwner != "trainer-42" {
			t.Fatalf("expected owner trainer-42, got %s", gotOwner)
		}
	})
}

func TestMiddlewareOptionalAuth(t *testing.T) {
	cfg := testConfig(config.AuthModeDev, false)
	mw := NewMiddleware(cfg, NewService(cfg))

	var gotOwner string
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = userctx.OwnerID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/v1/nutrition/targets", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if gotOwner != userctx.DefaultOwnerID {
		t.Fatalf("expected default owner without token, got %s", gotOwner)
	}

	req = httptest.NewRequest("GET", "/v1/nutrition/targets", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an invalid token, got %d", w.Code)
	}
}
