package orders

import (
	"context"
	"strings"

	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/enums"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"gorm.io/gorm"
)

const exportBatchSize = 200

type repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order together with its items.
func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) SetNumber(ctx context.Context, id uint, number string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("number", number).
		Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, int64, error) {
	params = params.Normalize()
	qb := applyListFilters(r.db.WithContext(ctx).Model(&models.Order{}), filters)

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := qb.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&orders).
		Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus moves the order only while it is still in status from, so
// concurrent admins cannot skip a transition check.
func (r *repository) UpdateStatus(ctx context.Context, id uint, from, to enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EachWithItems streams matching orders oldest first in batches.
func (r *repository) EachWithItems(ctx context.Context, filters ListFilters, fn func(models.Order) error) error {
	var batch []models.Order
	qb := applyListFilters(r.db.WithContext(ctx).Model(&models.Order{}), filters).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })

	res := qb.FindInBatches(&batch, exportBatchSize, func(_ *gorm.DB, _ int) error {
		for _, order := range batch {
			if err := fn(order); err != nil {
				return err
			}
		}
		return nil
	})
	return res.Error
}

func (r *repository) Stats(ctx context.Context) (*StatsRow, error) {
	var row StatsRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select(
			"COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS new_orders",
			enums.OrderStatusNew,
		).
		Where("status <> ?", enums.OrderStatusCancelled).
		Scan(&row).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func applyListFilters(qb *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.Status != nil {
		qb = qb.Where("status = ?", *filters.Status)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := db.ContainsPattern(search)
		qb = qb.Where(
			`(LOWER(number) LIKE ? ESCAPE '\' OR LOWER(customer_name) LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern,
		)
	}
	return qb
}
