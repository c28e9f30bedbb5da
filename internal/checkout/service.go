package checkout

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/plywoodshop/storefront/internal/cart"
	"github.com/plywoodshop/storefront/internal/orders"
	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/enums"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartOpener interface {
	Open(ctx context.Context, cartID string) *cart.Cart
}

// OrderObserver is told about every committed order, e.g. for metrics.
type OrderObserver func(order *models.Order)

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, cartID string, input CustomerInput) (*orders.OrderDTO, error)
}

// CustomerInput captures the contact and delivery details from the checkout form.
type CustomerInput struct {
	Name           string
	Phone          string
	Email          string
	City           string
	Address        string
	DeliveryMethod enums.DeliveryMethod
	Comment        string
}

type service struct {
	tx         txRunner
	carts      cartOpener
	ordersRepo orders.Repository
	logg       *logger.Logger
	observer   OrderObserver
	now        func() time.Time
}

// NewService constructs the checkout service with all dependencies.
func NewService(tx txRunner, carts cartOpener, ordersRepo orders.Repository, logg *logger.Logger, observer OrderObserver) (Service, error) {
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if carts == nil {
		return nil, errors.New("cart service required")
	}
	if ordersRepo == nil {
		return nil, errors.New("orders repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{
		tx:         tx,
		carts:      carts,
		ordersRepo: ordersRepo,
		logg:       logg,
		observer:   observer,
		now:        time.Now,
	}, nil
}

// maxOrderTotal is the largest total the INTEGER orders.total column holds.
const maxOrderTotal = math.MaxInt32

// Execute snapshots the cart into an order inside a single transaction and
// clears the cart once the transaction commits. A failed transaction leaves
// the cart untouched.
func (s *service) Execute(ctx context.Context, cartID string, input CustomerInput) (*orders.OrderDTO, error) {
	customer := input.normalize()
	if err := ValidateCustomer(customer); err != nil {
		return nil, err
	}

	c := s.carts.Open(ctx, cartID)
	snapshot := c.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if snapshot.Subtotal > maxOrderTotal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total is too large").
			WithDetails(map[string]any{"max_total": maxOrderTotal})
	}

	order := buildOrder(customer, snapshot)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		created, err := repo.Create(ctx, order)
		if err != nil {
			return err
		}
		createdAt := created.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.now()
		}
		created.Number = orders.FormatNumber(createdAt, created.ID)
		return repo.SetNumber(ctx, created.ID, created.Number)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	c.Clear(ctx)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
		"total":        order.Total,
		"lines":        len(order.Items),
	})
	s.logg.Info(ctx, "checkout.order_created")
	if s.observer != nil {
		s.observer(order)
	}
	return orders.NewOrderDTO(order), nil
}

func buildOrder(customer CustomerInput, snapshot cart.Snapshot) *models.Order {
	items := make([]models.OrderItem, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		items = append(items, models.OrderItem{
			LineID:        line.LineID,
			ProductID:     line.ProductID,
			Title:         line.Title,
			Image:         line.Image,
			Price:         line.Price,
			Quantity:      line.Quantity,
			LineTotal:     line.Total(),
			Type:          line.Type,
			Thickness:     line.Thickness,
			Format:        line.Format,
			Grade:         line.Grade,
			Manufacturer:  line.Manufacturer,
			Waterproofing: line.Waterproofing,
		})
	}
	return &models.Order{
		CustomerName:   customer.Name,
		Phone:          customer.Phone,
		Email:          customer.Email,
		City:           customer.City,
		Address:        customer.Address,
		DeliveryMethod: customer.DeliveryMethod,
		Comment:        customer.Comment,
		Status:         enums.OrderStatusNew,
		Total:          snapshot.Subtotal,
		Items:          items,
	}
}
