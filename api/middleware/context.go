package middleware

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// Principal is the admin behind an authenticated request.
type Principal struct {
	AdminID   uuid.UUID
	Email     string
	Role      string
	SessionID string
}

// WithAdmin stores the authenticated admin on ctx.
func WithAdmin(ctx context.Context, adminID uuid.UUID, email, role, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, Principal{
		AdminID:   adminID,
		Email:     email,
		Role:      role,
		SessionID: sessionID,
	})
}

// PrincipalFromContext is false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.AdminID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

func AdminFromContext(ctx context.Context) (uuid.UUID, string, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.AdminID, p.Email, ok
}

func RoleFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}

// SessionIDFromContext is the jti of the access token on the request.
func SessionIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.SessionID
}
