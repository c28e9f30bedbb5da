package controllers

import (
	"net/http"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	"github.com/plywoodshop/storefront/internal/checkout"
	"github.com/plywoodshop/storefront/pkg/enums"
	"github.com/plywoodshop/storefront/pkg/logger"
)

// Field rules live in checkout.ValidateCustomer so every violation is
// reported together; the tags here only bound sizes.
type checkoutRequest struct {
	Name           string `json:"name" validate:"max=200"`
	Phone          string `json:"phone" validate:"max=32"`
	Email          string `json:"email" validate:"max=254"`
	City           string `json:"city" validate:"max=120"`
	Address        string `json:"address" validate:"max=500"`
	DeliveryMethod string `json:"delivery_method"`
	Comment        string `json:"comment" validate:"max=2000"`
}

// Checkout turns the caller's cart into an order.
func Checkout(svc checkout.Service, cookie CartCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := cookie.cartID(w, r)
		order, err := svc.Execute(logg.WithCartID(r.Context(), id), id, checkout.CustomerInput{
			Name:           payload.Name,
			Phone:          payload.Phone,
			Email:          payload.Email,
			City:           payload.City,
			Address:        payload.Address,
			DeliveryMethod: enums.DeliveryMethod(payload.DeliveryMethod),
			Comment:        payload.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
