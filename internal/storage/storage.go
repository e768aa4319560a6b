package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage is the root storage handle. Feature stores hang off the concrete
// implementations (see memory.MemoryStorage and postgres.PostgresStorage).
type Storage interface {
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases connections (Postgres only).
	Close() error
}

// NutritionTargetsStorage keeps the last calculated or manually set targets of a client.
type NutritionTargetsStorage interface {
	// Get returns nil, nil when the client has no stored targets.
	Get(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*NutritionTarget, error)

	Upsert(ctx context.Context, ownerUserID string, clientID uuid.UUID, upsert NutritionTargetUpsert) (*NutritionTarget, error)
}

// NutritionTarget is a stored set of targets for one client of one trainer.
type NutritionTarget struct {
	ID           uuid.UUID
	OwnerUserID  string
	ClientID     uuid.UUID
	Goal         string
	BMRKcal      int
	TDEEKcal     int
	CaloriesKcal int
	ProteinG     float64
	FatG         float64
	CarbsG       float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type NutritionTargetUpsert struct {
	Goal         string
	BMRKcal      int
	TDEEKcal     int
	CaloriesKcal int
	ProteinG     float64
	FatG         float64
	CarbsG       float64
}

// MealPlansStorage keeps generated weekly plans. Only one plan per client is active.
type MealPlansStorage interface {
	// GetActive returns nil, nil when the client has no active plan.
	GetActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) (*MealPlanRecord, error)
	// ReplaceActive deactivates the current plan and stores the new one atomically.
	ReplaceActive(ctx context.Context, ownerUserID string, clientID uuid.UUID, upsert MealPlanUpsert) (*MealPlanRecord, error)
	// DeleteActive removes the active plan. Deleting nothing is not an error.
	DeleteActive(ctx context.Context, ownerUserID string, clientID uuid.UUID) error
}

// MealPlanRecord stores a canonical plan as an opaque JSON document.
type MealPlanRecord struct {
	ID           uuid.UUID
	OwnerUserID  string
	ClientID     uuid.UUID
	Plan         []byte // canonical WeeklyPlan JSON
	Warnings     []byte // JSON array of normalization warnings
	DayCount     int
	RawObjectKey *string // blob key of the archived upstream document
	IsActive     bool
	CreatedAt    time.Time
}

type MealPlanUpsert struct {
	ID           uuid.UUID // optional, generated when Nil
	Plan         []byte
	Warnings     []byte
	DayCount     int
	RawObjectKey *string
}
