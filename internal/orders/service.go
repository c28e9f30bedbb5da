package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/enums"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

// Service defines admin order operations.
type Service interface {
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, id int) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id int, next enums.OrderStatus) (*OrderDTO, error)
	ExportCSV(ctx context.Context, w io.Writer, filters ListFilters) error
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo Repository
}

// NewService builds the order service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("order repository required")
	}
	return &service{repo: repo}, nil
}

// FormatNumber renders the customer-facing order number.
func FormatNumber(createdAt time.Time, id uint) string {
	return fmt.Sprintf("PW-%s-%d", createdAt.Format("060102"), id)
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*OrderList, error) {
	rows, total, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	list := &OrderList{
		Orders: make([]OrderDTO, 0, len(rows)),
		Page:   pagination.NewPage(params, total),
	}
	for i := range rows {
		list.Orders = append(list.Orders, *NewOrderDTO(&rows[i]))
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, id int) (*OrderDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.NotFound("order")
	}
	order, err := s.repo.FindByID(ctx, uint(id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return NewOrderDTO(order), nil
}

// UpdateStatus applies one lifecycle step. Terminal orders and skipped steps
// are rejected with STATE_CONFLICT.
func (s *service) UpdateStatus(ctx context.Context, id int, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if id <= 0 {
		return nil, pkgerrors.NotFound("order")
	}
	order, err := s.repo.FindByID(ctx, uint(id))
	if err != nil {
		return nil, mapReadError(err)
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, next),
		).WithDetails(map[string]any{"from": order.Status, "to": next})
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, order.Status, next); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = next
	return NewOrderDTO(order), nil
}

func (s *service) ExportCSV(ctx context.Context, w io.Writer, filters ListFilters) error {
	exporter := newCSVExporter(w)
	if err := exporter.writeHeader(); err != nil {
		return err
	}
	if err := s.repo.EachWithItems(ctx, filters, exporter.writeOrder); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "export orders")
	}
	return exporter.flush()
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	row, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order stats")
	}
	stats := &Stats{
		Orders:       row.Orders,
		Revenue:      row.Revenue,
		NewOrders:    row.NewOrders,
		AverageOrder: decimal.Zero,
	}
	if row.Orders > 0 {
		stats.AverageOrder = decimal.NewFromInt(row.Revenue).
			Div(decimal.NewFromInt(row.Orders)).
			Round(2)
	}
	return stats, nil
}

func mapReadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.NotFound("order")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
