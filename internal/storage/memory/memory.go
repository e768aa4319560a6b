package memory

import (
	"context"

	"github.com/fdg312/coach-hub/internal/storage"
)

// MemoryStorage is the in-memory storage used when no database is configured.
type MemoryStorage struct {
	nutritionTargets *nutritionTargetsStorage
	mealPlans        *mealPlansStorage
}

func New() *MemoryStorage {
	return &MemoryStorage{
		nutritionTargets: newNutritionTargetsStorage(),
		mealPlans:        newMealPlansStorage(),
	}
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) GetNutritionTargetsStorage() storage.NutritionTargetsStorage {
	return m.nutritionTargets
}

func (m *MemoryStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return m.mealPlans
}
