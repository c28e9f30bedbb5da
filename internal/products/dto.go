package product

import (
	"time"

	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID            int             `json:"id"`
	Slug          string          `json:"slug"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Image         string          `json:"image"`
	Price         int             `json:"price"`
	Type          string          `json:"type"`
	Thickness     decimal.Decimal `json:"thickness"`
	Format        string          `json:"format"`
	Grade         string          `json:"grade"`
	Manufacturer  string          `json:"manufacturer"`
	Waterproofing string          `json:"waterproofing"`
	InStock       bool            `json:"in_stock"`
	IsFeatured    bool            `json:"is_featured"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResult is a page of catalog products.
type ProductListResult struct {
	Products []ProductDTO    `json:"products"`
	Page     pagination.Page `json:"page"`
}

// FilterOptions lists the distinct attribute values present in the catalog.
type FilterOptions struct {
	Types         []string          `json:"types"`
	Thicknesses   []decimal.Decimal `json:"thicknesses"`
	Formats       []string          `json:"formats"`
	Grades        []string          `json:"grades"`
	Manufacturers []string          `json:"manufacturers"`
	Waterproofing []string          `json:"waterproofing"`
	PriceMin      int               `json:"price_min"`
	PriceMax      int               `json:"price_max"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:            int(product.ID),
		Slug:          product.Slug,
		Title:         product.Title,
		Description:   product.Description,
		Image:         product.Image,
		Price:         product.Price,
		Type:          product.Type,
		Thickness:     product.Thickness,
		Format:        product.Format,
		Grade:         product.Grade,
		Manufacturer:  product.Manufacturer,
		Waterproofing: product.Waterproofing,
		InStock:       product.InStock,
		IsFeatured:    product.IsFeatured,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

// ThicknessLabel renders the thickness the way cart lines store it.
func (p ProductDTO) ThicknessLabel() string {
	return p.Thickness.String()
}
