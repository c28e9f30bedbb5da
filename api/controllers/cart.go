package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	"github.com/plywoodshop/storefront/internal/cart"
	"github.com/plywoodshop/storefront/pkg/logger"
)

const defaultCartCookieTTL = 30 * 24 * time.Hour

// CartCookie describes the anonymous cart cookie that selects a storage slot.
type CartCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// cartID returns the caller's cart id, minting a new one (and its cookie)
// when the cookie is missing or not a uuid.
func (c CartCookie) cartID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(c.Name); err == nil {
		if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
			return cookie.Value
		}
	}
	id := uuid.NewString()
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultCartCookieTTL
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Quantity and price bounds mirror cart.MaxQuantity and cart.MaxPrice.
type addCartItemRequest struct {
	ProductID     int    `json:"productId" validate:"required,min=1"`
	Title         string `json:"title" validate:"max=255"`
	Image         string `json:"image" validate:"max=1024"`
	Price         int    `json:"price" validate:"min=0,max=100000"`
	Quantity      int    `json:"quantity" validate:"max=9999"`
	Type          string `json:"type" validate:"max=64"`
	Thickness     string `json:"thickness" validate:"max=32"`
	Format        string `json:"format" validate:"max=64"`
	Grade         string `json:"grade" validate:"max=32"`
	Manufacturer  string `json:"manufacturer" validate:"max=128"`
	Waterproofing string `json:"waterproofing" validate:"max=64"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=9999"`
}

// GetCart returns the caller's cart.
func GetCart(svc cart.Service, cookie CartCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := cookie.cartID(w, r)
		responses.WriteSuccess(w, svc.Get(logg.WithCartID(r.Context(), id), id))
	}
}

// AddCartItem adds a configured sheet, merging with an identical line.
func AddCartItem(svc cart.Service, cookie CartCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := cookie.cartID(w, r)
		snapshot := svc.AddItem(logg.WithCartID(r.Context(), id), id, cart.AddInput{
			ProductID: payload.ProductID,
			Title:     validators.SanitizeString(payload.Title, 255),
			Image:     validators.SanitizeString(payload.Image, 1024),
			Price:     payload.Price,
			Quantity:  payload.Quantity,
			Configuration: cart.Configuration{
				Type:          validators.SanitizeString(payload.Type, 64),
				Thickness:     validators.SanitizeString(payload.Thickness, 32),
				Format:        validators.SanitizeString(payload.Format, 64),
				Grade:         validators.SanitizeString(payload.Grade, 32),
				Manufacturer:  validators.SanitizeString(payload.Manufacturer, 128),
				Waterproofing: validators.SanitizeString(payload.Waterproofing, 64),
			},
		})
		responses.WriteSuccess(w, snapshot)
	}
}

// UpdateCartItem sets a line quantity; zero or less removes the line.
func UpdateCartItem(svc cart.Service, cookie CartCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := textParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := cookie.cartID(w, r)
		responses.WriteSuccess(w, svc.UpdateQuantity(logg.WithCartID(r.Context(), id), id, lineID, *payload.Quantity))
	}
}

// RemoveCartItem drops a line; unknown ids are ignored.
func RemoveCartItem(svc cart.Service, cookie CartCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lineID, err := textParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := cookie.cartID(w, r)
		responses.WriteSuccess(w, svc.RemoveItem(logg.WithCartID(r.Context(), id), id, lineID))
	}
}

// ClearCart empties the caller's cart.
func ClearCart(svc cart.Service, cookie CartCookie, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := cookie.cartID(w, r)
		ctx := logg.WithCartID(r.Context(), id)
		svc.Clear(ctx, id)
		responses.WriteSuccess(w, svc.Get(ctx, id))
	}
}
