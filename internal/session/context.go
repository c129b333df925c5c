package session

import (
	"context"

	"mocdesk.org/internal/domain"
)

type ctxKey string

const userKey ctxKey = "session_user"

// ContextWithUser stores the authenticated user snapshot in the
// context.
func ContextWithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userKey).(domain.User)
	if !ok || u.ID == "" {
		return domain.User{}, false
	}
	return u, true
}
