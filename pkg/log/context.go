package log

import "context"

type passIDKey struct{}

// ContextWithPassID returns a new context carrying the fleet pass ID.
func ContextWithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, passIDKey{}, passID)
}

// PassIDFromContext extracts the fleet pass ID from the context.
// Returns empty string if not set.
func PassIDFromContext(ctx context.Context) string {
	if v := ctx.Value(passIDKey{}); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
