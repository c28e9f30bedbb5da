package product

import (
	"fmt"
	"strings"

	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

// SortOrder names a supported catalog ordering.
type SortOrder string

const (
	SortDefault   SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortNewest    SortOrder = "newest"
)

// ParseSortOrder validates a sort query value.
func ParseSortOrder(value string) (SortOrder, error) {
	switch order := SortOrder(strings.TrimSpace(value)); order {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortNewest:
		return order, nil
	default:
		return SortDefault, fmt.Errorf("invalid sort %q", value)
	}
}

// ProductListFilters describe the supported filter knobs for the browse endpoint.
// Slice filters match any of their values; empty slices do not filter.
type ProductListFilters struct {
	Types         []string          `json:"types,omitempty"`
	Thicknesses   []decimal.Decimal `json:"thicknesses,omitempty"`
	Formats       []string          `json:"formats,omitempty"`
	Grades        []string          `json:"grades,omitempty"`
	Manufacturers []string          `json:"manufacturers,omitempty"`
	Waterproofing []string          `json:"waterproofing,omitempty"`
	PriceMin      *int              `json:"price_min,omitempty"`
	PriceMax      *int              `json:"price_max,omitempty"`
	ThicknessMin  *decimal.Decimal  `json:"thickness_min,omitempty"`
	ThicknessMax  *decimal.Decimal  `json:"thickness_max,omitempty"`
	InStock       *bool             `json:"in_stock,omitempty"`
	Query         string            `json:"q,omitempty"`
	Sort          SortOrder         `json:"sort,omitempty"`
}

// ListProductsInput captures the inputs needed to page through the catalog.
type ListProductsInput struct {
	Filters    ProductListFilters
	Pagination pagination.Params
}
