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

type mealPlansStorage struct {
	pool *pgxpool.Pool
}

func newMealPlansStorage(pool *pgxpool.Pool) *mealPlansStorage {
	return &mealPlansStorage{pool: pool}
}

const mealPlanColumns = `id, owner_user_id, client_id, plan, warnings, day_count, raw_object_key, is_active, created_at`

func (s *mealPlansStorage) GetActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*storage.MealPlanRecord, error) {
	query := `SELECT ` + mealPlanColumns + `
		FROM meal_plans
		WHERE owner_user_id = $1 AND client_id = $2 AND is_active = true
	`

	record, err := scanMealPlan(s.pool.QueryRow(ctx, query, ownerUserID, clientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active meal plan: %w", err)
	}

	return record, nil
}

func (s *mealPlansStorage) ReplaceActive(ctx context.Context, ownerUserID string, clientID uuid.UUID, upsert storage.MealPlanUpsert) (*storage.MealPlanRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Older plans stay in the table as history.
	deactivateQuery := `
		UPDATE meal_plans
		SET is_active = false
		WHERE owner_user_id = $1 AND client_id = $2 AND is_active = true
	`
	if _, err := tx.Exec(ctx, deactivateQuery, ownerUserID, clientID); err != nil {
		return nil, fmt.Errorf("failed to deactivate meal plan: %w", err)
	}

	id := upsert.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	warnings := upsert.Warnings
	if len(warnings) == 0 {
		warnings = []byte("[]")
	}

	insertQuery := `
		INSERT INTO meal_plans (id, owner_user_id, client_id, plan, warnings, day_count, raw_object_key, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING ` + mealPlanColumns

	record, err := scanMealPlan(tx.QueryRow(
		ctx,
		insertQuery,
		id,
		ownerUserID,
		clientID,
		upsert.Plan,
		warnings,
		upsert.DayCount,
		upsert.RawObjectKey,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert meal plan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return record, nil
}

func (s *mealPlansStorage) DeleteActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) error {
	query := `
		DELETE FROM meal_plans
		WHERE owner_user_id = $1 AND client_id = $2 AND is_active = true
	`

	if _, err := s.pool.Exec(ctx, query, ownerUserID, clientID); err != nil {
		return fmt.Errorf("failed to delete active meal plan: %w", err)
	}

	return nil
}

func scanMealPlan(row pgx.Row) (*storage.MealPlanRecord, error) {
	var record storage.MealPlanRecord
	err := row.Scan(
		&record.ID,
		&record.OwnerUserID,
		&record.ClientID,
		&record.Plan,
		&record.Warnings,
		&record.DayCount,
		&record.RawObjectKey,
		&record.IsActive,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
