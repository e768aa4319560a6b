package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const rawPlanPrefix = "mealplans/raw"

// ErrArchiveDisabled is returned by reads when no store is configured.
var ErrArchiveDisabled = errors.New("raw plan archive disabled")

// RawPlanKey is the object key of an archived upstream meal plan document.
func RawPlanKey(ownerUserID string, clientID, planID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/%s/%s.json", rawPlanPrefix, sanitizeSegment(ownerUserID), clientID, planID)
}

// Archiver stores raw upstream documents next to the canonical plan.
// A nil store disables archiving.
type Archiver struct {
	store Store
}

func NewArchiver(store Store) *Archiver {
	return &Archiver{store: store}
}

func (a *Archiver) Enabled() bool {
	return a != nil && a.store != nil
}

// ArchiveRawPlan uploads raw and returns its key. With archiving disabled it returns "", nil.
func (a *Archiver) ArchiveRawPlan(ctx context.Context, ownerUserID string, clientID, planID uuid.UUID, raw []byte) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	key := RawPlanKey(ownerUserID, clientID, planID)
	if _, err := a.store.PutObject(ctx, key, raw, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func (a *Archiver) LoadRawPlan(ctx context.Context, key string) ([]byte, error) {
	if !a.Enabled() {
		return nil, ErrArchiveDisabled
	}
	return a.store.GetObject(ctx, key)
}

// PresignRawPlan returns a time-limited download URL for an archived document.
func (a *Archiver) PresignRawPlan(ctx context.Context, key string, ttlSeconds int) (string, error) {
	if !a.Enabled() {
		return "", ErrArchiveDisabled
	}
	return a.store.PresignGet(ctx, key, ttlSeconds)
}

// DeleteRawPlan removes an archived document. Empty keys are ignored.
func (a *Archiver) DeleteRawPlan(ctx context.Context, key string) error {
	if !a.Enabled() || key == "" {
		return nil
	}
	return a.store.DeleteObject(ctx, key)
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
