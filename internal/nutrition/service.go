package nutrition

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

// Service handles nutrition targets business logic.
type Service struct {
	targetsStorage storage.NutritionTargetsStorage
}

func NewService(targetsStorage storage.NutritionTargetsStorage) *Service {
	return &Service{targetsStorage: targetsStorage}
}

// GetOrDefault returns nutrition targets for a client or defaults if not set.
func (s *Service) GetOrDefault(ctx context.Context, ownerUserID string, clientID uuid.UUID) (TargetsDTO, bool, error) {
	target, err := s.Get(ctx, ownerUserID, clientID)
	if err != nil {
		return TargetsDTO{}, false, err
	}
	if target == nil {
		return GetDefaultTargets(clientID), true, nil
	}
	return *target, false, nil
}

// Get returns nil, nil when the client has no stored targets.
func (s *Service) Get(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*TargetsDTO, error) {
	target, err := s.targetsStorage.Get(ctx, ownerUserID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition targets: %w", err)
	}
	if target == nil {
		return nil, nil
	}
	dto := toDTO(target)
	return &dto, nil
}

// Upsert creates or updates nutrition targets for a client.
func (s *Service) Upsert(ctx context.Context, ownerUserID string, req UpsertTargetsRequest) (TargetsDTO, error) {
	if err := req.Validate(); err != nil {
		return TargetsDTO{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	target, err := s.targetsStorage.Upsert(ctx, ownerUserID, req.ClientID, storage.NutritionTargetUpsert{
		Goal:         string(req.Goal),
		CaloriesKcal: req.CaloriesKcal,
		ProteinG:     req.ProteinG,
		FatG:         req.FatG,
		CarbsG:       req.CarbsG,
	})
	if err != nil {
		return TargetsDTO{}, fmt.Errorf("failed to upsert nutrition targets: %w", err)
	}

	return toDTO(target), nil
}

// Calculate runs the calculator and, when asked, stores the result for the client.
func (s *Service) Calculate(ctx context.Context, ownerUserID string, req CalculateRequest) (CalculateResponse, error) {
	metrics, level, goal := req.Resolve()

	targets, err := Calculate(metrics, level, goal)
	if err != nil {
		return CalculateResponse{}, err
	}

	resp := CalculateResponse{
		Targets:      targets,
		Calculations: CalculationsFromTargets(targets),
	}

	if !req.Persist {
		return resp, nil
	}
	if req.ClientID == nil || *req.ClientID == uuid.Nil {
		return CalculateResponse{}, fmt.Errorf("%w: client_id is required when persist is true", ErrInvalidRequest)
	}

	stored, err := s.targetsStorage.Upsert(ctx, ownerUserID, *req.ClientID, storage.NutritionTargetUpsert{
		Goal:         string(targets.Goal),
		BMRKcal:      int(math.Round(targets.BMR)),
		TDEEKcal:     int(math.Round(targets.TDEE)),
		CaloriesKcal: int(math.Round(targets.TargetCalories)),
		ProteinG:     targets.Macros.Protein,
		FatG:         targets.Macros.Fats,
		CarbsG:       targets.Macros.Carbs,
	})
	if err != nil {
		return CalculateResponse{}, fmt.Errorf("failed to store calculated targets: %w", err)
	}
	dto := toDTO(stored)
	resp.Stored = &dto

	return resp, nil
}

// IsInvalidInput reports whether err is a caller mistake rather than a server failure.
func IsInvalidInput(err error) bool {
	var inputErr *InvalidInputError
	return errors.As(err, &inputErr) || errors.Is(err, ErrInvalidRequest)
}

func toDTO(target *storage.NutritionTarget) TargetsDTO {
	goal := Goal(target.Goal)
	if goal == "" {
		goal = GoalMaintain
	}
	return TargetsDTO{
		ClientID:     target.ClientID,
		Goal:         goal,
		BMRKcal:      target.BMRKcal,
		TDEEKcal:     target.TDEEKcal,
		CaloriesKcal: target.CaloriesKcal,
		ProteinG:     target.ProteinG,
		FatG:         target.FatG,
		CarbsG:       target.CarbsG,
		CreatedAt:    target.CreatedAt,
		UpdatedAt:    target.UpdatedAt,
	}
}
