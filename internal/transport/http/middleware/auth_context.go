package middleware

import (
	"context"

	"github.com/google/uuid"
)

type AuthContext struct {
	UserID uuid.UUID
	Role   string
	Ver    int64
}

type authKey struct{}

func WithAuth(ctx context.Context, a AuthContext) context.Context {
	return context.WithValue(ctx, authKey{}, a)
}

// GetAuth returns the authenticated caller, if any.
func GetAuth(ctx context.Context) (AuthContext, bool) {
	a, ok := ctx.Value(authKey{}).(AuthContext)
	return a, ok && a.UserID != uuid.Nil
}
