package controllers

import (
	"net/http"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	product "github.com/plywoodshop/storefront/internal/products"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

type createProductRequest struct {
	Slug          string          `json:"slug" validate:"max=160"`
	Title         string          `json:"title" validate:"required,notblank,max=255"`
	Description   string          `json:"description"`
	Image         string          `json:"image" validate:"max=1024"`
	Price         int             `json:"price" validate:"min=0,max=100000"`
	Type          string          `json:"type" validate:"required,max=64"`
	Thickness     decimal.Decimal `json:"thickness"`
	Format        string          `json:"format" validate:"required,max=64"`
	Grade         string          `json:"grade" validate:"max=32"`
	Manufacturer  string          `json:"manufacturer" validate:"max=128"`
	Waterproofing string          `json:"waterproofing" validate:"max=64"`
	InStock       *bool           `json:"in_stock"`
	IsFeatured    bool            `json:"is_featured"`
}

func (p createProductRequest) toInput() product.CreateProductInput {
	inStock := true
	if p.InStock != nil {
		inStock = *p.InStock
	}
	return product.CreateProductInput{
		Slug:          p.Slug,
		Title:         p.Title,
		Description:   p.Description,
		Image:         p.Image,
		Price:         p.Price,
		Type:          p.Type,
		Thickness:     p.Thickness,
		Format:        p.Format,
		Grade:         p.Grade,
		Manufacturer:  p.Manufacturer,
		Waterproofing: p.Waterproofing,
		InStock:       inStock,
		IsFeatured:    p.IsFeatured,
	}
}

type updateProductRequest struct {
	Slug          *string          `json:"slug,omitempty" validate:"omitempty,max=160"`
	Title         *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Description   *string          `json:"description,omitempty"`
	Image         *string          `json:"image,omitempty" validate:"omitempty,max=1024"`
	Price         *int             `json:"price,omitempty" validate:"omitempty,min=0,max=100000"`
	Type          *string          `json:"type,omitempty" validate:"omitempty,max=64"`
	Thickness     *decimal.Decimal `json:"thickness,omitempty"`
	Format        *string          `json:"format,omitempty" validate:"omitempty,max=64"`
	Grade         *string          `json:"grade,omitempty" validate:"omitempty,max=32"`
	Manufacturer  *string          `json:"manufacturer,omitempty" validate:"omitempty,max=128"`
	Waterproofing *string          `json:"waterproofing,omitempty" validate:"omitempty,max=64"`
	InStock       *bool            `json:"in_stock,omitempty"`
	IsFeatured    *bool            `json:"is_featured,omitempty"`
}

func (p updateProductRequest) toInput() product.UpdateProductInput {
	return product.UpdateProductInput{
		Slug:          trimmedPtr(p.Slug),
		Title:         trimmedPtr(p.Title),
		Description:   p.Description,
		Image:         trimmedPtr(p.Image),
		Price:         p.Price,
		Type:          trimmedPtr(p.Type),
		Thickness:     p.Thickness,
		Format:        trimmedPtr(p.Format),
		Grade:         trimmedPtr(p.Grade),
		Manufacturer:  trimmedPtr(p.Manufacturer),
		Waterproofing: trimmedPtr(p.Waterproofing),
		InStock:       p.InStock,
		IsFeatured:    p.IsFeatured,
	}
}

// AdminGetProduct returns one product by id.
func AdminGetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminCreateProduct adds a product to the catalog.
func AdminCreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(r.Context(), "product_id", dto.ID), "admin.product_created")
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// AdminUpdateProduct applies only the fields present in the body.
func AdminUpdateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminDeleteProduct removes a product. Carts and orders keep their snapshots.
func AdminDeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithField(r.Context(), "product_id", id), "admin.product_deleted")
		responses.WriteNoContent(w)
	}
}
