package budgets

import (
	"net/http"

	"github.com/angelmondragon/vidrobox-backend/api/responses"
	"github.com/angelmondragon/vidrobox-backend/api/validators"
	budgetsvc "github.com/angelmondragon/vidrobox-backend/internal/budgets"
	"github.com/angelmondragon/vidrobox-backend/internal/notifications"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
)

// PublicRequest stores a quote request from the website form.
func PublicRequest(svc budgetsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body quoteRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		budget, err := svc.Request(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, RequestReceipt{
			ID:        budget.ID,
			Reference: notifications.BudgetReference(budget.ID.String()),
		})
	}
}

func PublicView(svc budgetsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

// PublicConfirm accepts the quote through its tokenized link.
func PublicConfirm(svc budgetsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := validators.URLToken(r, "token")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.ConfirmByToken(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmationOf(order))
	}
}
