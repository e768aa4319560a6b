package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

type nutritionTargetsStorage struct {
	mu      sync.RWMutex
	targets map[string]*storage.NutritionTarget // key: "ownerUserID:clientID"
}

func newNutritionTargetsStorage() *nutritionTargetsStorage {
	return &nutritionTargetsStorage{
		targets: make(map[string]*storage.NutritionTarget),
	}
}

func (s *nutritionTargetsStorage) Get(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*storage.NutritionTarget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.targets[ownerClientKey(ownerUserID, clientID)]
	if !ok {
		return nil, nil
	}

	copied := *target
	return &copied, nil
}

func (s *nutritionTargetsStorage) Upsert(ctx context.Context, ownerUserID string, clientID uuid.UUID, upsert storage.NutritionTargetUpsert) (*storage.NutritionTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerClientKey(ownerUserID, clientID)
	now := time.Now().UTC()

	target, ok := s.targets[key]
	if !ok {
		target = &storage.NutritionTarget{
			ID:          uuid.New(),
			OwnerUserID: ownerUserID,
			ClientID:    clientID,
			CreatedAt:   now,
		}
		s.targets[key] = target
	}

	target.Goal = upsert.Goal
	target.BMRKcal = upsert.BMRKcal
	target.TDEEKcal = upsert.TDEEKcal
	target.CaloriesKcal = upsert.CaloriesKcal
	target.ProteinG = upsert.ProteinG
	target.FatG = upsert.FatG
	target.CarbsG = upsert.CarbsG
	target.UpdatedAt = now

	copied := *target
	return &copied, nil
}

func ownerClientKey(ownerUserID string, clientID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", ownerUserID, clientID.String())
}
