package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
)

type mealPlansStorage struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*storage.MealPlanRecord
	// active plan per "ownerUserID:clientID"
	active map[string]uuid.UUID
}

func newMealPlansStorage() *mealPlansStorage {
	return &mealPlansStorage{
		plans:  make(map[uuid.UUID]*storage.MealPlanRecord),
		active: make(map[string]uuid.UUID),
	}
}

func (s *mealPlansStorage) GetActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*storage.MealPlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	planID, ok := s.active[ownerClientKey(ownerUserID, clientID)]
	if !ok {
		return nil, nil
	}
	plan, ok := s.plans[planID]
	if !ok {
		return nil, nil
	}

	return copyRecord(plan), nil
}

func (s *mealPlansStorage) ReplaceActive(ctx context.Context, ownerUserID string, clientID uuid.UUID, upsert storage.MealPlanUpsert) (*storage.MealPlanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerClientKey(ownerUserID, clientID)
	if previousID, ok := s.active[key]; ok {
		if previous, ok := s.plans[previousID]; ok {
			previous.IsActive = false
		}
	}

	id := upsert.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	record := &storage.MealPlanRecord{
		ID:           id,
		OwnerUserID:  ownerUserID,
		ClientID:     clientID,
		Plan:         append([]byte(nil), upsert.Plan...),
		Warnings:     append([]byte(nil), upsert.Warnings...),
		DayCount:     upsert.DayCount,
		RawObjectKey: upsert.RawObjectKey,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	s.plans[id] = record
	s.active[key] = id

	return copyRecord(record), nil
}

func (s *mealPlansStorage) DeleteActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerClientKey(ownerUserID, clientID)
	planID, ok := s.active[key]
	if !ok {
		return nil
	}

	delete(s.plans, planID)
	delete(s.active, key)
	return nil
}

func copyRecord(r *storage.MealPlanRecord) *storage.MealPlanRecord {
	copied := *r
	copied.Plan = append([]byte(nil), r.Plan...)
	copied.Warnings = append([]byte(nil), r.Warnings...)
	return &copied
}
