package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fdg312/coach-hub/internal/auth"
	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/generator"
	"github.com/fdg312/coach-hub/internal/mealplans"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/reports"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/storage/memory"
	"github.com/fdg312/coach-hub/internal/storage/postgres"
)

// Server is the coach-hub HTTP API.
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	storageMode    string
	authMiddleware *auth.Middleware
	generator      generator.Generator
}

// Option customizes a Server before routes are registered.
type Option func(*Server)

// WithGenerator replaces the generator chosen from GENERATOR_MODE.
func WithGenerator(gen generator.Generator) Option {
	return func(s *Server) { s.generator = gen }
}

// New builds the server, its storage and routes.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initStorage()
	s.storageMode = storageMode(s.storage)
	if s.generator == nil {
		s.generator = generator.NewGenerator(cfg)
	}

	s.routes()
	return s
}

// initStorage picks Postgres when DATABASE_URL is set and falls back to memory.
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("INFO storage: using in-memory storage")
		s.storage = memory.New()
		return
	}

	log.Println("INFO storage: connecting to PostgreSQL")
	pgStorage, err := postgres.New(context.Background(), s.config.DatabaseURL)
	if err != nil {
		log.Printf("WARN storage: postgres connect failed: %v", err)
		log.Println("WARN storage: fallback to in-memory storage")
		s.storage = memory.New()
		return
	}
	log.Println("INFO storage: PostgreSQL connected")
	s.storage = pgStorage
}

func (s *Server) routes() {
	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Nutrition API
	nutritionService := nutrition.NewService(s.getNutritionTargetsStorage())
	nutritionHandler := nutrition.NewHandler(nutritionService)

	// POST /v1/nutrition/calculate - BMR, TDEE and macro targets
	s.mux.HandleFunc("POST /v1/nutrition/calculate", nutritionHandler.HandleCalculate)

	// GET /v1/nutrition/targets - stored targets or defaults
	s.mux.HandleFunc("GET /v1/nutrition/targets", nutritionHandler.HandleGetTargets)

	// PUT /v1/nutrition/targets - manual upsert
	s.mux.HandleFunc("PUT /v1/nutrition/targets", nutritionHandler.HandleUpsertTargets)

	// Meal Plans API
	blobStore, blobMode, err := blob.NewBlobStore(s.config.Blob, log.Default())
	if err != nil {
		log.Fatalf("FATAL blob: failed to initialize raw archive store: %v", err)
	}
	log.Printf("INFO blob: raw archive mode: %s", blobMode)

	mealPlansService := mealplans.NewService(
		s.getMealPlansStorage(),
		nutritionService,
		s.generator,
		blob.NewArchiver(blobStore),
		mealplans.ServiceConfig{
			Timeout:           time.Duration(s.config.GeneratorTimeoutSeconds) * time.Second,
			PresignTTLSeconds: s.config.Blob.S3.PresignTTLSeconds,
			Options: mealplans.Options{
				Locale: s.config.MealPlanLocale,
				Logger: log.Default(),
				Debug:  s.config.IsDebug(),
			},
		},
	)
	mealPlansHandler := mealplans.NewHandler(mealPlansService)

	// POST /v1/meal/plan/generate - generate and store a weekly plan
	s.mux.HandleFunc("POST /v1/meal/plan/generate", mealPlansHandler.HandleGenerate)

	// GET /v1/meal/plan - active plan with selected day
	s.mux.HandleFunc("GET /v1/meal/plan", mealPlansHandler.HandleGet)

	// GET /v1/meal/plan/status - generation state
	s.mux.HandleFunc("GET /v1/meal/plan/status", mealPlansHandler.HandleStatus)

	// POST /v1/meal/plan/normalize - normalize a posted document without storing it
	s.mux.HandleFunc("POST /v1/meal/plan/normalize", mealPlansHandler.HandleNormalize)

	// POST /v1/meal/plan/rebuild - re-normalize the archived upstream document
	s.mux.HandleFunc("POST /v1/meal/plan/rebuild", mealPlansHandler.HandleRebuild)

	// GET /v1/meal/plan/raw - presigned URL of the archived upstream document
	s.mux.HandleFunc("GET /v1/meal/plan/raw", mealPlansHandler.HandleRaw)

	// DELETE /v1/meal/plan - delete active plan
	s.mux.HandleFunc("DELETE /v1/meal/plan", mealPlansHandler.HandleDelete)

	// Plan downloads
	reportsHandler := reports.NewHandlers(mealPlansService, reports.NewGenerator(s.config.MealPlanLocale))

	// GET /v1/meal/plan/pdf - printable weekly plan
	s.mux.HandleFunc("GET /v1/meal/plan/pdf", reportsHandler.HandlePDF)

	// GET /v1/meal/plan/csv - one row per meal
	s.mux.HandleFunc("GET /v1/meal/plan/csv", reportsHandler.HandleCSV)
}

func (s *Server) getNutritionTargetsStorage() storage.NutritionTargetsStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetNutritionTargetsStorage()
	case *postgres.PostgresStorage:
		return st.GetNutritionTargetsStorage()
	default:
		panic("unsupported storage type")
	}
}

func (s *Server) getMealPlansStorage() storage.MealPlansStorage {
	switch st := s.storage.(type) {
	case *memory.MemoryStorage:
		return st.GetMealPlansStorage()
	case *postgres.PostgresStorage:
		return st.GetMealPlansStorage()
	default:
		panic("unsupported storage type")
	}
}

func storageMode(st storage.Storage) string {
	if _, ok := st.(*postgres.PostgresStorage); ok {
		return "postgres"
	}
	return "memory"
}

// handleHealthz reports the server status and whether storage answers a ping.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := s.storage.Ping(ctx); err != nil {
		log.Printf("WARN healthz: storage ping failed: %v", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  status,
		"storage": s.storageMode,
	})
}

// Handler returns the router wrapped in the middleware chain.
// Order (outermost first): CORS, rate limit, auth, router.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.authMiddleware != nil && s.config.AuthMode != config.AuthModeNone {
		handler = s.authMiddleware.Handler(handler)
	}
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("INFO server: listening on http://localhost%s", addr)
		log.Printf("INFO server: health check http://localhost%s/healthz", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Println("INFO server: shutting down")
	// Generations may run for minutes; give them a bounded grace period.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the storage.
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
