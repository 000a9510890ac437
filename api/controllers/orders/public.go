package orders

import (
	"net/http"

	"github.com/angelmondragon/vidrobox-backend/api/responses"
	"github.com/angelmondragon/vidrobox-backend/api/validators"
	ordersvc "github.com/angelmondragon/vidrobox-backend/internal/orders"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
)

// PublicView renders the tokenized status page for the customer.
func PublicView(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := validators.URLToken(r, "token")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.PublicView(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func ClientMessage(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := validators.URLToken(r, "token")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body messageRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		msg, err := svc.PostClientMessage(r.Context(), token, body.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, ordersvc.PublicMessage{
			Author:    msg.Author,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt,
		})
	}
}
