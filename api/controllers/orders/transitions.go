package orders

import (
	"net/http"

	"github.com/angelmondragon/vidrobox-backend/api/responses"
	"github.com/angelmondragon/vidrobox-backend/api/validators"
	ordersvc "github.com/angelmondragon/vidrobox-backend/internal/orders"
	"github.com/angelmondragon/vidrobox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
)

func parseTarget(raw string) (enums.StatusTarget, error) {
	target, err := enums.ParseStatusTarget(raw)
	if err != nil {
		return enums.StatusTarget{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Status inválido").
			WithDetails(map[string]any{"status": raw})
	}
	return target, nil
}

// Transition moves one order to the requested status or visit sub-state.
func Transition(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body transitionRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := parseTarget(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), id, target, ordersvc.TransitionOptions{
			VisitAt: body.VisitAt,
			ETA:     body.ETA,
			Note:    body.Note,
			ActorID: actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// BulkTransition applies the same target to many orders. Orders that cannot
// move are reported as skipped; the request itself still succeeds.
func BulkTransition(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bulkTransitionRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := parseTarget(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ExecuteBulk(r.Context(), body.IDs, target, ordersvc.TransitionOptions{
			VisitAt: body.VisitAt,
			ETA:     body.ETA,
			Note:    body.Note,
			ActorID: actorFrom(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Advance moves every listed order one step forward. An eta applies only to
// the orders that land in EXPEDICAO.
func Advance(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body advanceRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.AdvanceBulk(r.Context(), body.IDs, ordersvc.TransitionOptions{ETA: body.ETA, Note: body.Note, ActorID: actorFrom(r)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
