package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type nutritionTargetsStorage struct {
	pool *pgxpool.Pool
}

func newNutritionTargetsStorage(pool *pgxpool.Pool) *nutritionTargetsStorage {
	return &nutritionTargetsStorage{pool: pool}
}

const nutritionTargetColumns = `id, owner_user_id, client_id, goal, bmr_kcal, tdee_kcal, calories_kcal, protein_g, fat_g, carbs_g, created_at, updated_at`

func (s *nutritionTargetsStorage) Get(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*storage.NutritionTarget, error) {
	query := `SELECT ` + nutritionTargetColumns + `
		FROM nutrition_targets
		WHERE owner_user_id = $1 AND client_id = $2
	`

	target, err := scanNutritionTarget(s.pool.QueryRow(ctx, query, ownerUserID, clientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition targets: %w", err)
	}

	return target, nil
}

func (s *nutritionTargetsStorage) Upsert(ctx context.Context, ownerUserID string, clientID uuid.UUID, upsert storage.NutritionTargetUpsert) (*storage.NutritionTarget, error) {
	query := `
		INSERT INTO nutrition_targets (owner_user_id, client_id, goal, bmr_kcal, tdee_kcal, calories_kcal, protein_g, fat_g, carbs_g)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner_user_id, client_id)
		DO UPDATE SET
			goal = EXCLUDED.goal,
			bmr_kcal = EXCLUDED.bmr_kcal,
			tdee_kcal = EXCLUDED.tdee_kcal,
			calories_kcal = EXCLUDED.calories_kcal,
			protein_g = EXCLUDED.protein_g,
			fat_g = EXCLUDED.fat_g,
			carbs_g = EXCLUDED.carbs_g,
			updated_at = now()
		RETURNING ` + nutritionTargetColumns

	target, err := scanNutritionTarget(s.pool.QueryRow(
		ctx,
		query,
		ownerUserID,
		clientID,
		upsert.Goal,
		upsert.BMRKcal,
		upsert.TDEEKcal,
		upsert.CaloriesKcal,
		upsert.ProteinG,
		upsert.FatG,
		upsert.CarbsG,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert nutrition targets: %w", err)
	}

	return target, nil
}

func scanNutritionTarget(row pgx.Row) (*storage.NutritionTarget, error) {
	var target storage.NutritionTarget
	err := row.Scan(
		&target.ID,
		&target.OwnerUserID,
		&target.ClientID,
		&target.Goal,
		&target.BMRKcal,
		&target.TDEEKcal,
		&target.CaloriesKcal,
		&target.ProteinG,
		&target.FatG,
		&target.CarbsG,
		&target.CreatedAt,
		&target.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &target, nil
}
