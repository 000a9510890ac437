package customers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/vidrobox-backend/api/responses"
	"github.com/angelmondragon/vidrobox-backend/api/validators"
	customersvc "github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/pagination"
	"github.com/google/uuid"
)

// CustomerDTO is the admin view of a customer.
type CustomerDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Document  *string   `json:"document,omitempty"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func fromModel(c *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Document:  c.Document,
		Address:   c.Address,
		City:      c.City,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type updateRequest struct {
	Name     string  `json:"name" validate:"required,notblank,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
	Document *string `json:"document" validate:"omitempty,max=40"`
	Address  *string `json:"address" validate:"omitempty,max=300"`
	City     *string `json:"city" validate:"omitempty,max=120"`
}

func List(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), customersvc.ListParams{
			Limit:  params.Limit,
			Cursor: params.Cursor,
			Query:  validators.SanitizeString(r.URL.Query().Get("q"), 120),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := pagination.Page[CustomerDTO]{Items: make([]CustomerDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
		for i := range page.Items {
			out.Items = append(out.Items, fromModel(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func Get(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fromModel(customer))
	}
}

func Update(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.URLUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Update(r.Context(), id, customersvc.Contact{
			Name:     body.Name,
			Email:    body.Email,
			Phone:    body.Phone,
			Document: body.Document,
			Address:  body.Address,
			City:     body.City,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fromModel(customer))
	}
}
