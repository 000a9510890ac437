package controllers

import (
	"net/http"

	"github.com/angelmondragon/vidrobox-backend/api/middleware"
	"github.com/angelmondragon/vidrobox-backend/api/responses"
	"github.com/angelmondragon/vidrobox-backend/api/validators"
	"github.com/angelmondragon/vidrobox-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
)

// TokenHeader repeats the access token of a successful login for clients
// that do not read the JSON body.
const TokenHeader = middleware.TokenHeader

var errNoPrincipal = pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")

// noStore keeps credentials and admin profiles out of shared caches.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

func AdminLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		session, err := svc.Login(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		noStore(w)
		w.Header().Set(TokenHeader, session.AccessToken)
		responses.WriteSuccess(w, session)
	}
}

// AdminLogout revokes the session the request's token belongs to.
func AdminLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p, ok := middleware.PrincipalFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, errNoPrincipal)
			return
		}
		if err := svc.Logout(ctx, p.SessionID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p, ok := middleware.PrincipalFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, errNoPrincipal)
			return
		}
		admin, err := svc.Me(ctx, p.AdminID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		noStore(w)
		responses.WriteSuccess(w, admin)
	}
}
