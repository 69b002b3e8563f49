package auth

import (
	"context"
)

// Context keys for authentication data
type contextKey string

const (
	// ContextKeyCreatorID is the context key for the authenticated creator identity
	ContextKeyCreatorID contextKey = "creator_id"
)

// WithCreatorID adds the creator identity to the context
func WithCreatorID(ctx context.Context, creatorID string) context.Context {
	return context.WithValue(ctx, ContextKeyCreatorID, creatorID)
}

// CreatorIDFromContext retrieves the creator identity from the context
func CreatorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ContextKeyCreatorID).(string)
	return id, ok
}
