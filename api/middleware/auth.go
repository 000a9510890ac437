package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/vidrobox-backend/api/responses"
	pkgAuth "github.com/angelmondragon/vidrobox-backend/pkg/auth"
	"github.com/angelmondragon/vidrobox-backend/pkg/auth/session"
	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
)

// TokenHeader carries the access token for clients that cannot set
// Authorization. Login echoes the token under the same name.
const TokenHeader = "X-Vidrobox-Token"

// Auth admits requests whose access token verifies and whose session is
// still open for the admin named in the token. The admin is then available
// through PrincipalFromContext.
func Auth(cfg config.JWTConfig, sessions session.OwnerLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r, cfg, sessions)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := WithAdmin(r.Context(), claims.AdminID, claims.Email, claims.Role, claims.ID)
			if logg != nil {
				ctx = logg.WithAdminID(ctx, claims.AdminID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, sessions session.OwnerLookup) (*pkgAuth.AccessTokenClaims, error) {
	raw := presentedToken(r)
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, raw)
	switch {
	case errors.Is(err, pkgAuth.ErrTokenExpired):
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token expired")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if sessions == nil {
		return claims, nil
	}

	owner, live, err := sessions.Owner(r.Context(), claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if !live || owner != claims.AdminID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}
	return claims, nil
}

// presentedToken prefers a Bearer Authorization header over TokenHeader.
func presentedToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return strings.TrimSpace(r.Header.Get(TokenHeader))
}
