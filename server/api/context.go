package api

import "context"

type contextKey int

const ctxKeyUserID contextKey = 0

// ContextWithUserID returns ctx carrying the authenticated user's id.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext returns the authenticated user's id, or "" if none.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}
