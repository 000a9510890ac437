package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
)

// URLUUID parses a chi path parameter as a UUID.
func URLUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

// URLToken returns a non-empty opaque token path parameter.
func URLToken(r *http.Request, name string) (string, error) {
	token := strings.TrimSpace(chi.URLParam(r, name))
	if token == "" || len(token) > 128 {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "Link inválido")
	}
	return token, nil
}
