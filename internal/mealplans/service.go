package mealplans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/blob"
	"github.com/fdg312/coach-hub/internal/generator"
	"github.com/fdg312/coach-hub/internal/nutrition"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// State is the generation state of one client's plan.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StateAssembling State = "assembling"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

const defaultGenerateTimeout = 120 * time.Second

// TargetsSource supplies stored nutrition targets. nutrition.Service implements it.
type TargetsSource interface {
	Get(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*nutrition.TargetsDTO, error)
}

type ServiceConfig struct {
	// Timeout bounds a single upstream generation call.
	Timeout           time.Duration
	PresignTTLSeconds int
	Options           Options
}

type genState struct {
	state     State
	err       string
	updatedAt time.Time
}

// Service drives generation: it calls the upstream generator, normalizes the
// response and stores the result as the client's active plan. At most one
// generation per client runs at a time.
type Service struct {
	storage   storage.MealPlansStorage
	targets   TargetsSource
	generator generator.Generator
	archiver  *blob.Archiver
	cfg       ServiceConfig

	mu     sync.Mutex
	states map[string]*genState
}

func NewService(store storage.MealPlansStorage, targets TargetsSource, gen generator.Generator, archiver *blob.Archiver, cfg ServiceConfig) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGenerateTimeout
	}
	if cfg.Options.Logger == nil {
		cfg.Options.Logger = log.Default()
	}
	return &Service{
		storage:   store,
		targets:   targets,
		generator: gen,
		archiver:  archiver,
		cfg:       cfg,
		states:    make(map[string]*genState),
	}
}

// Generate runs one full generation cycle for a client.
func (s *Service) Generate(ctx context.Context, ownerUserID string, req GenerateRequest) (*MealPlanDTO, error) {
	if req.ClientID == uuid.Nil {
		return nil, fmt.Errorf("%w: client_id is required", ErrInvalidRequest)
	}
	calc, err := s.resolveCalculations(ctx, ownerUserID, req)
	if err != nil {
		return nil, err
	}

	key := stateKey(ownerUserID, req.ClientID)
	if _, ok := s.begin(key); !ok {
		return nil, ErrGenerationInProgress
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	raw, err := s.generator.Generate(genCtx, generator.Request{Calculations: calc, Preferences: req.Preferences})
	cancel()
	if err != nil {
		if errors.Is(err, generator.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			s.fail(key, ErrUpstreamTimeout)
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		s.fail(key, ErrUpstreamFailed)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
	}

	s.transition(key, StateAssembling)
	result, err := AssembleJSON(raw, &calc, s.cfg.Options)
	if err != nil {
		s.fail(key, err)
		return nil, err
	}

	dto, err := s.store(ctx, ownerUserID, req.ClientID, result, raw, nil)
	if err != nil {
		s.fail(key, err)
		return nil, err
	}

	s.transition(key, StateReady)
	log.Printf("INFO mealplans: generated owner=%s client=%s days=%d warnings=%d", ownerUserID, req.ClientID, len(result.Plan.Days), len(result.Warnings))
	return dto, nil
}

// Rebuild normalizes the archived upstream document of the active plan again
// and replaces the plan with the result. It holds the same per-client guard
// as Generate.
func (s *Service) Rebuild(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*MealPlanDTO, error) {
	key := stateKey(ownerUserID, clientID)
	prev, ok := s.begin(key)
	if !ok {
		return nil, ErrGenerationInProgress
	}

	rec, err := s.storage.GetActive(ctx, ownerUserID, clientID)
	if err != nil {
		s.restore(key, prev)
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	if rec == nil || rec.RawObjectKey == nil {
		s.restore(key, prev)
		return nil, nil
	}

	s.transition(key, StateAssembling)
	raw, err := s.archiver.LoadRawPlan(ctx, *rec.RawObjectKey)
	if err != nil {
		err = fmt.Errorf("failed to load raw plan: %w", err)
		s.fail(key, err)
		return nil, err
	}

	current, err := toDTO(rec)
	if err != nil {
		s.fail(key, err)
		return nil, err
	}
	calc := nutrition.CalculationsFromTargets(current.Plan.UserTargets)

	result, err := AssembleJSON(raw, &calc, s.cfg.Options)
	if err != nil {
		s.fail(key, err)
		return nil, err
	}
	dto, err := s.store(ctx, ownerUserID, clientID, result, nil, rec.RawObjectKey)
	if err != nil {
		s.fail(key, err)
		return nil, err
	}

	s.transition(key, StateReady)
	log.Printf("INFO mealplans: rebuilt owner=%s client=%s days=%d warnings=%d", ownerUserID, clientID, len(result.Plan.Days), len(result.Warnings))
	return dto, nil
}

// Normalize assembles a caller supplied document without storing anything.
func (s *Service) Normalize(req NormalizeRequest) (Result, error) {
	if len(req.Document) == 0 {
		return Result{}, fmt.Errorf("%w: document is required", ErrInvalidRequest)
	}
	if req.Calculations != nil {
		if err := req.Calculations.Validate(); err != nil {
			return Result{}, err
		}
	}
	return AssembleJSON(req.Document, req.Calculations, s.cfg.Options)
}

// GetActive returns nil, nil when the client has no plan.
func (s *Service) GetActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*MealPlanDTO, error) {
	rec, err := s.storage.GetActive(ctx, ownerUserID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return toDTO(rec)
}

// Status reports the generation state. A client with a stored plan and no
// generation in this process reports ready.
func (s *Service) Status(ctx context.Context, ownerUserID string, clientID uuid.UUID) (StatusResponse, error) {
	resp := StatusResponse{ClientID: clientID, State: StateIdle}

	s.mu.Lock()
	st, ok := s.states[stateKey(ownerUserID, clientID)]
	if ok {
		resp.State = st.state
		resp.Error = st.err
		at := st.updatedAt
		resp.UpdatedAt = &at
	}
	s.mu.Unlock()
	if ok {
		return resp, nil
	}

	rec, err := s.storage.GetActive(ctx, ownerUserID, clientID)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("failed to get meal plan: %w", err)
	}
	if rec != nil {
		resp.State = StateReady
		at := rec.CreatedAt
		resp.UpdatedAt = &at
	}
	return resp, nil
}

// RawDocumentURL returns a presigned URL of the archived upstream document,
// "" when the active plan has none.
func (s *Service) RawDocumentURL(ctx context.Context, ownerUserID string, clientID uuid.UUID) (string, error) {
	rec, err := s.storage.GetActive(ctx, ownerUserID, clientID)
	if err != nil {
		return "", fmt.Errorf("failed to get meal plan: %w", err)
	}
	if rec == nil || rec.RawObjectKey == nil {
		return "", nil
	}
	return s.archiver.PresignRawPlan(ctx, *rec.RawObjectKey, s.cfg.PresignTTLSeconds)
}

// Delete removes the active plan and its archived document and resets the
// generation state.
func (s *Service) Delete(ctx context.Context, ownerUserID string, clientID uuid.UUID) error {
	key := stateKey(ownerUserID, clientID)
	prev, ok := s.begin(key)
	if !ok {
		return ErrGenerationInProgress
	}

	rec, err := s.storage.GetActive(ctx, ownerUserID, clientID)
	if err != nil {
		s.restore(key, prev)
		return fmt.Errorf("failed to get meal plan: %w", err)
	}
	if err := s.storage.DeleteActive(ctx, ownerUserID, clientID); err != nil {
		s.restore(key, prev)
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	if rec != nil && rec.RawObjectKey != nil {
		if err := s.archiver.DeleteRawPlan(ctx, *rec.RawObjectKey); err != nil {
			log.Printf("WARN mealplans: delete raw plan key=%s: %v", *rec.RawObjectKey, err)
		}
	}
	s.restore(key, nil)
	return nil
}

func (s *Service) resolveCalculations(ctx context.Context, ownerUserID string, req GenerateRequest) (nutrition.Calculations, error) {
	if req.Calculations != nil {
		if err := req.Calculations.Validate(); err != nil {
			return nutrition.Calculations{}, err
		}
		return *req.Calculations, nil
	}

	stored, err := s.targets.Get(ctx, ownerUserID, req.ClientID)
	if err != nil {
		return nutrition.Calculations{}, err
	}
	if stored == nil {
		return nutrition.Calculations{}, fmt.Errorf("%w: calculations are required when the client has no stored targets", ErrInvalidRequest)
	}
	return nutrition.CalculationsFromTargets(stored.Targets()), nil
}

// store persists result. raw is archived when given; otherwise rawKey is kept.
func (s *Service) store(ctx context.Context, ownerUserID string, clientID uuid.UUID, result Result, raw []byte, rawKey *string) (*MealPlanDTO, error) {
	planJSON, err := json.Marshal(result.Plan)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	warningsJSON, err := json.Marshal(result.Warnings)
	if err != nil {
		return nil, fmt.Errorf("encode warnings: %w", err)
	}

	planID := uuid.New()
	var archived string
	if raw != nil {
		key, err := s.archiver.ArchiveRawPlan(ctx, ownerUserID, clientID, planID, raw)
		if err != nil {
			log.Printf("WARN mealplans: archive raw plan client=%s: %v", clientID, err)
		} else if key != "" {
			archived = key
			rawKey = &archived
		}
	}

	rec, err := s.storage.ReplaceActive(ctx, ownerUserID, clientID, storage.MealPlanUpsert{
		ID:           planID,
		Plan:         planJSON,
		Warnings:     warningsJSON,
		DayCount:     len(result.Plan.Days),
		RawObjectKey: rawKey,
	})
	if err != nil {
		if archived != "" {
			if derr := s.archiver.DeleteRawPlan(ctx, archived); derr != nil {
				log.Printf("WARN mealplans: delete orphaned raw plan key=%s: %v", archived, derr)
			}
		}
		return nil, fmt.Errorf("failed to store meal plan: %w", err)
	}
	return toDTO(rec)
}

// begin claims the client's slot. prev is the state it replaced, for restore.
func (s *Service) begin(key string) (prev *genState, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev = s.states[key]
	if prev != nil && inFlight(prev.state) {
		return prev, false
	}
	// A new request restarts the cycle from idle.
	s.states[key] = &genState{state: StateRequesting, updatedAt: time.Now().UTC()}
	return prev, true
}

// restore releases a claimed slot without recording an outcome. A nil prev
// leaves the client idle.
func (s *Service) restore(key string, prev *genState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev == nil {
		delete(s.states, key)
		return
	}
	s.states[key] = prev
}

func (s *Service) transition(key string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = &genState{state: state, updatedAt: time.Now().UTC()}
}

func (s *Service) fail(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = &genState{state: StateFailed, err: err.Error(), updatedAt: time.Now().UTC()}
	log.Printf("WARN mealplans: generation failed key=%s: %v", key, err)
}

func inFlight(s State) bool {
	return s == StateRequesting || s == StateAssembling
}

func stateKey(ownerUserID string, clientID uuid.UUID) string {
	return ownerUserID + ":" + clientID.String()
}

func toDTO(rec *storage.MealPlanRecord) (*MealPlanDTO, error) {
	dto := &MealPlanDTO{
		ID:           rec.ID,
		ClientID:     rec.ClientID,
		DayCount:     rec.DayCount,
		RawObjectKey: rec.RawObjectKey,
		CreatedAt:    rec.CreatedAt,
		Warnings:     []Warning{},
	}
	if err := json.Unmarshal(rec.Plan, &dto.Plan); err != nil {
		return nil, fmt.Errorf("decode stored plan %s: %w", rec.ID, err)
	}
	if len(rec.Warnings) > 0 {
		if err := json.Unmarshal(rec.Warnings, &dto.Warnings); err != nil {
			return nil, fmt.Errorf("decode stored warnings %s: %w", rec.ID, err)
		}
	}
	return dto, nil
}
