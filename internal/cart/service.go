package cart

import (
	"context"
	"errors"

	product "github.com/plywoodshop/storefront/internal/products"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

type productLoader interface {
	Get(ctx context.Context, id int) (*product.ProductDTO, error)
}

// Service resolves carts by anonymous cart id and applies mutations to them.
type Service interface {
	Open(ctx context.Context, cartID string) *Cart
	Get(ctx context.Context, cartID string) Snapshot
	AddItem(ctx context.Context, cartID string, input AddInput) Snapshot
	UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) Snapshot
	RemoveItem(ctx context.Context, cartID, lineID string) Snapshot
	Clear(ctx context.Context, cartID string)
}

type service struct {
	storage  Storage
	products productLoader
	logg     *logger.Logger
	observer Observer
}

// Option customises the cart service.
type Option func(*service)

// WithObserver registers a mutation observer for every cart the service opens.
func WithObserver(observer Observer) Option {
	return func(s *service) {
		s.observer = observer
	}
}

// WithProductLoader lets AddItem snapshot title, image and price from the catalog.
func WithProductLoader(loader productLoader) Option {
	return func(s *service) {
		s.products = loader
	}
}

// NewService builds a cart service over the provided storage.
func NewService(storage Storage, logg *logger.Logger, opts ...Option) (Service, error) {
	if storage == nil {
		return nil, errors.New("cart storage required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	svc := &service{storage: storage, logg: logg}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Open rehydrates the cart stored in the slot. A missing or unreadable
// payload yields an empty cart that still persists to the same slot.
func (s *service) Open(ctx context.Context, cartID string) *Cart {
	c := &Cart{
		slot:     cartID,
		storage:  s.storage,
		logg:     s.logg,
		observer: s.observer,
	}

	payload, err := s.storage.Load(ctx, cartID)
	if err != nil {
		s.warn(ctx, cartID, "cart.load_failed", err)
		return c
	}
	items, err := decodeLines(payload)
	if err != nil {
		s.warn(ctx, cartID, "cart.decode_failed", err)
		return c
	}
	c.items = items
	return c
}

func (s *service) Get(ctx context.Context, cartID string) Snapshot {
	return s.Open(ctx, cartID).Snapshot()
}

func (s *service) AddItem(ctx context.Context, cartID string, input AddInput) Snapshot {
	input = s.withCatalogSnapshot(ctx, input)
	c := s.Open(ctx, cartID)
	c.AddItem(ctx, input)
	return c.Snapshot()
}

func (s *service) UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) Snapshot {
	c := s.Open(ctx, cartID)
	c.UpdateQuantity(ctx, lineID, quantity)
	return c.Snapshot()
}

func (s *service) RemoveItem(ctx context.Context, cartID, lineID string) Snapshot {
	c := s.Open(ctx, cartID)
	c.RemoveItem(ctx, lineID)
	return c.Snapshot()
}

func (s *service) Clear(ctx context.Context, cartID string) {
	s.Open(ctx, cartID).Clear(ctx)
}

func (s *service) withCatalogSnapshot(ctx context.Context, input AddInput) AddInput {
	if s.products == nil || input.ProductID <= 0 {
		return input
	}
	dto, err := s.products.Get(ctx, input.ProductID)
	if err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.warn(ctx, "", "cart.catalog_lookup_failed", err)
		}
		return input
	}
	input.Title = dto.Title
	input.Image = dto.Image
	input.Price = dto.Price
	return input
}

func (s *service) warn(ctx context.Context, cartID, msg string, err error) {
	fields := map[string]any{"error": err.Error()}
	if cartID != "" {
		fields["cart_id"] = cartID
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}
