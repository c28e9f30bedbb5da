package product

import (
	"context"
	"strings"

	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductRepository defines persistence operations for catalog products.
type ProductRepository interface {
	Create(context.Context, *models.Product) (*models.Product, error)
	Update(context.Context, *models.Product) (*models.Product, error)
	Delete(context.Context, uint) error
	FindByID(context.Context, uint) (*models.Product, error)
	FindBySlug(context.Context, string) (*models.Product, error)
	List(context.Context, ListProductsInput) ([]models.Product, int64, error)
	FilterOptions(context.Context) (*FilterOptions, error)
}

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product by its public slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update persists every column of the product.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes the product row. Missing rows yield gorm.ErrRecordNotFound.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of products matching the filters and the total count.
func (r *Repository) List(ctx context.Context, input ListProductsInput) ([]models.Product, int64, error) {
	params := input.Pagination.Normalize()
	qb := applyFilters(r.db.WithContext(ctx).Model(&models.Product{}), input.Filters)

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := applySort(qb.Session(&gorm.Session{}), input.Filters.Sort).
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&products).
		Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func applyFilters(qb *gorm.DB, filter ProductListFilters) *gorm.DB {
	if len(filter.Types) > 0 {
		qb = qb.Where("type IN ?", filter.Types)
	}
	if len(filter.Thicknesses) > 0 {
		qb = qb.Where("thickness IN ?", filter.Thicknesses)
	}
	if len(filter.Formats) > 0 {
		qb = qb.Where("format IN ?", filter.Formats)
	}
	if len(filter.Grades) > 0 {
		qb = qb.Where("grade IN ?", filter.Grades)
	}
	if len(filter.Manufacturers) > 0 {
		qb = qb.Where("manufacturer IN ?", filter.Manufacturers)
	}
	if len(filter.Waterproofing) > 0 {
		qb = qb.Where("waterproofing IN ?", filter.Waterproofing)
	}
	if filter.PriceMin != nil {
		qb = qb.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		qb = qb.Where("price <= ?", *filter.PriceMax)
	}
	if filter.ThicknessMin != nil {
		qb = qb.Where("thickness >= ?", *filter.ThicknessMin)
	}
	if filter.ThicknessMax != nil {
		qb = qb.Where("thickness <= ?", *filter.ThicknessMax)
	}
	if filter.InStock != nil {
		qb = qb.Where("in_stock = ?", *filter.InStock)
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := db.ContainsPattern(search)
		qb = qb.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return qb
}

func applySort(qb *gorm.DB, order SortOrder) *gorm.DB {
	switch order {
	case SortPriceAsc:
		return qb.Order("price ASC").Order("id ASC")
	case SortPriceDesc:
		return qb.Order("price DESC").Order("id ASC")
	case SortNewest:
		return qb.Order("created_at DESC").Order("id DESC")
	default:
		return qb.Order("is_featured DESC").Order("id ASC")
	}
}

// FilterOptions collects distinct attribute values and price bounds.
func (r *Repository) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts := &FilterOptions{}
	base := r.db.WithContext(ctx).Model(&models.Product{})

	distinct := []struct {
		column string
		dest   *[]string
	}{
		{"type", &opts.Types},
		{"format", &opts.Formats},
		{"grade", &opts.Grades},
		{"manufacturer", &opts.Manufacturers},
		{"waterproofing", &opts.Waterproofing},
	}
	for _, d := range distinct {
		if err := base.Session(&gorm.Session{}).
			Distinct(d.column).
			Order(d.column).
			Pluck(d.column, d.dest).
			Error; err != nil {
			return nil, err
		}
	}

	var thicknesses []decimal.Decimal
	if err := base.Session(&gorm.Session{}).
		Distinct("thickness").
		Order("thickness").
		Pluck("thickness", &thicknesses).
		Error; err != nil {
		return nil, err
	}
	opts.Thicknesses = thicknesses

	var bounds struct {
		PriceMin int
		PriceMax int
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(MIN(price), 0) AS price_min, COALESCE(MAX(price), 0) AS price_max").
		Scan(&bounds).
		Error; err != nil {
		return nil, err
	}
	opts.PriceMin = bounds.PriceMin
	opts.PriceMax = bounds.PriceMax
	return opts, nil
}

var _ ProductRepository = (*Repository)(nil)
