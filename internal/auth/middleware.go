package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/userctx"
)

// Middleware resolves the trainer identity from the Authorization header.
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// Handler picks RequireAuth or OptionalAuth from AUTH_REQUIRED.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m.config.AuthRequired {
		return m.RequireAuth(next)
	}
	return m.OptionalAuth(next)
}

// RequireAuth rejects non-public requests without a valid bearer token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return m.wrap(next, true)
}

// OptionalAuth validates a bearer token only when one is sent. Requests
// without one continue as the default owner.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return m.wrap(next, false)
}

func (m *Middleware) wrap(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" && !required {
			next.ServeHTTP(w, r)
			return
		}

		trainerID, err := m.authenticate(header)
		if err != nil {
			msg := "Invalid or expired token"
			if header == "" {
				msg = "Unauthorized"
			}
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", msg)
			return
		}

		if m.config.IsDebug() {
			log.Printf("INFO auth: token accepted sub=%s method=%s path=%s", trainerID, r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), trainerID)))
	})
}

func (m *Middleware) authenticate(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrInvalidToken
	}
	return m.service.VerifyJWT(token)
}

// Health and token issuing stay reachable without a token.
func isPublicPath(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}
