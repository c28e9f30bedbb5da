package controllers

import (
	"net/http"
	"strconv"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	product "github.com/plywoodshop/storefront/internal/products"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

// ListProducts pages through the catalog with the browse filters.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), product.ListProductsInput{
			Filters:    filters,
			Pagination: validators.ParsePagination(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteList(w, result.Products, result.Page)
	}
}

// GetProduct resolves a product by numeric id or by slug.
func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := textParam(r, "ref")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var dto *product.ProductDTO
		if id, convErr := strconv.Atoi(ref); convErr == nil {
			dto, err = svc.Get(r.Context(), id)
		} else {
			dto, err = svc.GetBySlug(r.Context(), ref)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// ProductFilterOptions returns the values that feed the catalog filter pickers.
func ProductFilterOptions(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options, err := svc.FilterOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=60")
		responses.WriteSuccess(w, options)
	}
}

func parseProductFilters(r *http.Request) (product.ProductListFilters, error) {
	filters := product.ProductListFilters{
		Types:         validators.ParseQueryList(r, "type"),
		Formats:       validators.ParseQueryList(r, "format"),
		Grades:        validators.ParseQueryList(r, "grade"),
		Manufacturers: validators.ParseQueryList(r, "manufacturer"),
		Waterproofing: validators.ParseQueryList(r, "waterproofing"),
		Query:         validators.SanitizeString(r.URL.Query().Get("q"), 100),
	}

	var err error
	if filters.Thicknesses, err = validators.ParseQueryDecimalList(r, "thickness"); err != nil {
		return filters, err
	}
	if filters.PriceMin, err = validators.ParseQueryIntPtr(r, "price_min"); err != nil {
		return filters, err
	}
	if filters.PriceMax, err = validators.ParseQueryIntPtr(r, "price_max"); err != nil {
		return filters, err
	}
	if filters.ThicknessMin, err = validators.ParseQueryDecimalPtr(r, "thickness_min"); err != nil {
		return filters, err
	}
	if filters.ThicknessMax, err = validators.ParseQueryDecimalPtr(r, "thickness_max"); err != nil {
		return filters, err
	}
	if filters.InStock, err = validators.ParseQueryBoolPtr(r, "in_stock"); err != nil {
		return filters, err
	}
	sort, sortErr := product.ParseSortOrder(r.URL.Query().Get("sort"))
	if sortErr != nil {
		return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, sortErr, "invalid sort").WithDetails(map[string]any{"field": "sort"})
	}
	filters.Sort = sort
	return filters, nil
}
