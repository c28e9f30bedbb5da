package cart

import (
	"context"
	"errors"
	"testing"

	product "github.com/plywoodshop/storefront/internal/products"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
)

type stubProducts struct {
	byID map[int]*product.ProductDTO
	err  error
}

func (s stubProducts) Get(_ context.Context, id int) (*product.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	if dto, ok := s.byID[id]; ok {
		return dto, nil
	}
	return nil, pkgerrors.NotFound("product")
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewService(nil, newTestLogger()); err == nil {
		t.Fatal("expected error for nil storage")
	}
	if _, err := NewService(NewMemoryStorage(), nil); err == nil {
		t.Fatal("expected error for nil logger")
	}
}

func TestServiceAddItemSnapshotsCatalog(t *testing.T) {
	t.Parallel()

	loader := stubProducts{byID: map[int]*product.ProductDTO{
		42: {ID: 42, Title: "Фанера ФК 9 мм (каталог)", Image: "/uploads/fk9.webp", Price: 1300},
	}}
	svc := newTestService(t, NewMemoryStorage(), WithProductLoader(loader))

	snap := svc.AddItem(context.Background(), "slot", birchInput(1))
	if len(snap.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(snap.Items))
	}
	line := snap.Items[0]
	if line.Title != "Фанера ФК 9 мм (каталог)" || line.Image != "/uploads/fk9.webp" || line.Price != 1300 {
		t.Fatalf("expected catalog snapshot, got %+v", line)
	}
}

func TestServiceAddItemKeepsClientDataForUnknownProduct(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, NewMemoryStorage(), WithProductLoader(stubProducts{}))
	input := birchInput(1)
	input.ProductID = 999

	line := svc.AddItem(context.Background(), "slot", input).Items[0]
	if line.Title != input.Title || line.Price != input.Price {
		t.Fatalf("expected client supplied data, got %+v", line)
	}
}

func TestServiceAddItemSurvivesCatalogFailure(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, NewMemoryStorage(), WithProductLoader(stubProducts{err: errors.New("db down")}))

	snap := svc.AddItem(context.Background(), "slot", birchInput(2))
	if snap.Count != 2 {
		t.Fatalf("expected add to succeed, got count %d", snap.Count)
	}
}

func TestServiceSlotsAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, NewMemoryStorage())

	svc.AddItem(ctx, "a", birchInput(3))
	svc.AddItem(ctx, "b", birchInput(1))

	if got := svc.Get(ctx, "a").Count; got != 3 {
		t.Fatalf("slot a count = %d", got)
	}
	snap := svc.UpdateQuantity(ctx, "b", LineID(42, birchInput(1).Configuration), 5)
	if snap.Count != 5 {
		t.Fatalf("slot b count = %d", snap.Count)
	}
	snap = svc.RemoveItem(ctx, "a", LineID(42, birchInput(1).Configuration))
	if snap.Count != 0 {
		t.Fatalf("slot a should be empty, got %d", snap.Count)
	}
	svc.Clear(ctx, "b")
	if got := svc.Get(ctx, "b").Count; got != 0 {
		t.Fatalf("slot b should be empty after clear, got %d", got)
	}
}
