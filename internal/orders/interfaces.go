package orders

import (
	"context"

	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/enums"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"gorm.io/gorm"
)

// Repository defines persistence operations for order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	SetNumber(ctx context.Context, id uint, number string) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uint, from, to enums.OrderStatus) error
	EachWithItems(ctx context.Context, filters ListFilters, fn func(models.Order) error) error
	Stats(ctx context.Context) (*StatsRow, error)
}
