package postgres

import (
	"context"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is the Postgres implementation of storage.Storage.
type PostgresStorage struct {
	pool             *pgxpool.Pool
	nutritionTargets *nutritionTargetsStorage
	mealPlans        *mealPlansStorage
}

// New opens a pgx pool and verifies the connection.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:             pool,
		nutritionTargets: newNutritionTargetsStorage(pool),
		mealPlans:        newMealPlansStorage(pool),
	}, nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// GetNutritionTargetsStorage returns nutrition targets storage
func (p *PostgresStorage) GetNutritionTargetsStorage() storage.NutritionTargetsStorage {
	return p.nutritionTargets
}

// GetMealPlansStorage returns meal plans storage
func (p *PostgresStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return p.mealPlans
}
