package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
	"golang.org/x/time/rate"
)

// Upstream generation is slow and billed, so these paths get their own bucket.
var generationPaths = map[string]bool{
	"/v1/meal/plan/generate": true,
	"/v1/meal/plan/rebuild":  true,
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	counter  atomic.Int64
}

func newLimiterStore(limit rate.Limit, burst int) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (s *limiterStore) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[ip]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[ip] = l
	}

	// Every 1000 requests evict clients whose bucket refilled.
	if s.counter.Add(1)%1000 == 0 {
		for key, entry := range s.limiters {
			if key != ip && entry.Tokens() >= float64(s.burst) {
				delete(s.limiters, key)
			}
		}
	}

	return l.Allow()
}

// RateLimitMiddleware enforces per-IP token buckets. RATE_LIMIT_RPS covers all
// requests; RATE_LIMIT_GENERATE_PER_MINUTE additionally caps generation calls.
// Both are disabled at zero.
func RateLimitMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	var general, generation *limiterStore

	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = cfg.RateLimitRPS
		}
		general = newLimiterStore(rate.Limit(cfg.RateLimitRPS), burst)
	}
	if cfg.RateLimitGeneratePerMinute > 0 {
		n := cfg.RateLimitGeneratePerMinute
		generation = newLimiterStore(rate.Every(time.Minute/time.Duration(n)), n)
	}
	if general == nil && generation == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)

		if general != nil && !general.allow(ip) {
			writeRateLimited(w, "1", "Too many requests")
			return
		}
		if generation != nil && r.Method == http.MethodPost && generationPaths[r.URL.Path] && !generation.allow(ip) {
			writeRateLimited(w, "60", "Too many meal plan generations")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeRateLimited(w http.ResponseWriter, retryAfter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", retryAfter)
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    "rate_limited",
			"message": message,
		},
	})
}

// extractIP prefers the first X-Forwarded-For hop.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
