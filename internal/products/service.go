package product

import (
	"context"
	"errors"
	"strings"

	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/db/models"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/plywoodshop/storefront/pkg/slug"
	"github.com/shopspring/decimal"
)

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	Get(ctx context.Context, id int) (*ProductDTO, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id int, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id int) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Slug          string
	Title         string
	Description   string
	Image         string
	Price         int
	Type          string
	Thickness     decimal.Decimal
	Format        string
	Grade         string
	Manufacturer  string
	Waterproofing string
	InStock       bool
	IsFeatured    bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Slug          *string
	Title         *string
	Description   *string
	Image         *string
	Price         *int
	Type          *string
	Thickness     *decimal.Decimal
	Format        *string
	Grade         *string
	Manufacturer  *string
	Waterproofing *string
	InStock       *bool
	IsFeatured    *bool
}

type service struct {
	repo ProductRepository
}

// NewService constructs a product service instance.
func NewService(repo ProductRepository) (Service, error) {
	if repo == nil {
		return nil, errors.New("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	products := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		products = append(products, *NewProductDTO(&rows[i]))
	}
	return &ProductListResult{
		Products: products,
		Page:     pagination.NewPage(input.Pagination, total),
	}, nil
}

func (s *service) Get(ctx context.Context, id int) (*ProductDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.NotFound("product")
	}
	product, err := s.repo.FindByID(ctx, uint(id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return NewProductDTO(product), nil
}

func (s *service) GetBySlug(ctx context.Context, value string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		return nil, mapReadError(err)
	}
	return NewProductDTO(product), nil
}

func (s *service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts, err := s.repo.FilterOptions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load filter options")
	}
	return opts, nil
}

// Create validates and stores a new product, deriving the slug from the
// title when none is supplied.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Slug:          strings.TrimSpace(input.Slug),
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Image:         strings.TrimSpace(input.Image),
		Price:         input.Price,
		Type:          strings.TrimSpace(input.Type),
		Thickness:     input.Thickness,
		Format:        strings.TrimSpace(input.Format),
		Grade:         strings.TrimSpace(input.Grade),
		Manufacturer:  strings.TrimSpace(input.Manufacturer),
		Waterproofing: strings.TrimSpace(input.Waterproofing),
		InStock:       input.InStock,
		IsFeatured:    input.IsFeatured,
	}
	if product.Slug == "" {
		product.Slug = slug.Make(product.Title)
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return NewProductDTO(created), nil
}

// Update applies only the fields present in input.
func (s *service) Update(ctx context.Context, id int, input UpdateProductInput) (*ProductDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.NotFound("product")
	}
	product, err := s.repo.FindByID(ctx, uint(id))
	if err != nil {
		return nil, mapReadError(err)
	}
	input.Apply(product)
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return NewProductDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return pkgerrors.NotFound("product")
	}
	if err := s.repo.Delete(ctx, uint(id)); err != nil {
		return mapReadError(err)
	}
	return nil
}

// Apply merges the present fields into product.
func (input UpdateProductInput) Apply(product *models.Product) {
	if input.Slug != nil {
		product.Slug = strings.TrimSpace(*input.Slug)
	}
	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Image != nil {
		product.Image = strings.TrimSpace(*input.Image)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Type != nil {
		product.Type = strings.TrimSpace(*input.Type)
	}
	if input.Thickness != nil {
		product.Thickness = *input.Thickness
	}
	if input.Format != nil {
		product.Format = strings.TrimSpace(*input.Format)
	}
	if input.Grade != nil {
		product.Grade = strings.TrimSpace(*input.Grade)
	}
	if input.Manufacturer != nil {
		product.Manufacturer = strings.TrimSpace(*input.Manufacturer)
	}
	if input.Waterproofing != nil {
		product.Waterproofing = strings.TrimSpace(*input.Waterproofing)
	}
	if input.InStock != nil {
		product.InStock = *input.InStock
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
}

func validateProduct(product *models.Product) error {
	switch {
	case product.Title == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	case !slug.Valid(product.Slug):
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain only lowercase letters, digits and dashes")
	case product.Price < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	case product.Type == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	case !product.Thickness.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "thickness must be positive")
	case product.Format == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "format is required")
	}
	return nil
}

func mapReadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.NotFound("product")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "slug") {
		return pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save product")
}
