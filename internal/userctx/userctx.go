package userctx

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// DefaultOwnerID owns all data when authentication is disabled or no token was sent.
const DefaultOwnerID = "default"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}

// OwnerID returns the authenticated trainer id or DefaultOwnerID.
func OwnerID(ctx context.Context) string {
	if userID, ok := GetUserID(ctx); ok && userID != "" {
		return userID
	}
	return DefaultOwnerID
}
