package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/rs/zerolog"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func newTestService(t *testing.T, storage Storage, opts ...Option) Service {
	t.Helper()
	svc, err := NewService(storage, newTestLogger(), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func birchInput(quantity int) AddInput {
	return AddInput{
		ProductID: 42,
		Title:     "Фанера ФК 9 мм",
		Price:     1250,
		Quantity:  quantity,
		Configuration: Configuration{
			Type:          "ФК",
			Thickness:     "9",
			Format:        "1525x1525",
			Grade:         "2/2",
			Manufacturer:  "Свеза",
			Waterproofing: "moderate",
		},
	}
}

func TestLineIDJoinsTuple(t *testing.T) {
	t.Parallel()

	got := LineID(42, birchInput(1).Configuration)
	want := "42|ФК|9|1525x1525|2/2|Свеза|moderate"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAddItemMergesEqualConfigurations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")

	c.AddItem(ctx, birchInput(2))
	c.AddItem(ctx, birchInput(3))

	if c.Len() != 1 {
		t.Fatalf("expected a single merged line, got %d", c.Len())
	}
	if got := c.Items()[0].Quantity; got != 5 {
		t.Fatalf("expected merged quantity 5, got %d", got)
	}
}

func TestAddItemPrependsNewLines(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")

	first := birchInput(1)
	second := birchInput(1)
	second.Thickness = "12"

	c.AddItem(ctx, first)
	c.AddItem(ctx, second)

	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("expected two lines, got %d", len(items))
	}
	if items[0].Thickness != "12" || items[1].Thickness != "9" {
		t.Fatalf("expected newest first, got %+v", items)
	}
}

func TestAddItemDefaultsQuantity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")

	line := c.AddItem(ctx, birchInput(0))
	if line.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", line.Quantity)
	}
	line = c.AddItem(ctx, birchInput(-4))
	if line.Quantity != 2 {
		t.Fatalf("expected negative quantity treated as 1, got %d", line.Quantity)
	}
}

func TestUpdateQuantityFloor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")
	line := c.AddItem(ctx, birchInput(3))

	c.UpdateQuantity(ctx, line.LineID, 7)
	if got := c.Count(); got != 7 {
		t.Fatalf("expected quantity 7, got %d", got)
	}

	c.UpdateQuantity(ctx, "unknown", 3)
	if got := c.Count(); got != 7 {
		t.Fatalf("unknown line must be a no-op, got count %d", got)
	}

	c.UpdateQuantity(ctx, line.LineID, 0)
	if c.Len() != 0 {
		t.Fatalf("expected line removed at quantity 0, got %+v", c.Items())
	}
}

func TestQuantitySaturatesAtMax(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")

	line := c.AddItem(ctx, birchInput(math.MaxInt))
	if line.Quantity != MaxQuantity {
		t.Fatalf("expected quantity capped at %d, got %d", MaxQuantity, line.Quantity)
	}
	line = c.AddItem(ctx, birchInput(1))
	if line.Quantity != MaxQuantity || c.Len() != 1 {
		t.Fatalf("merge past the cap must saturate, got quantity %d with %d lines", line.Quantity, c.Len())
	}

	c.UpdateQuantity(ctx, line.LineID, math.MaxInt/1000)
	snap := c.Snapshot()
	if snap.Count != MaxQuantity {
		t.Fatalf("expected update capped at %d, got %d", MaxQuantity, snap.Count)
	}
	if snap.Subtotal != 1250*MaxQuantity {
		t.Fatalf("unexpected subtotal %d", snap.Subtotal)
	}
}

func TestPriceClampedToBounds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")
	in := birchInput(MaxQuantity)
	in.Price = math.MaxInt

	line := c.AddItem(ctx, in)
	if line.Price != MaxPrice {
		t.Fatalf("expected price capped at %d, got %d", MaxPrice, line.Price)
	}
	if total := line.Total(); total <= 0 || total > math.MaxInt32 {
		t.Fatalf("line total %d must fit an int32 column", total)
	}

	negative := birchInput(1)
	negative.ProductID = 9
	negative.Price = -50
	if got := c.AddItem(ctx, negative).Price; got != 0 {
		t.Fatalf("expected negative price raised to 0, got %d", got)
	}
}

func TestStoredQuantitiesAreBounded(t *testing.T) {
	t.Parallel()

	payload := []byte(`[
		{"lineId":"a","productId":1,"price":1e300,"quantity":1e300},
		{"lineId":"a","productId":1,"price":10,"quantity":5000}
	]`)
	lines, err := decodeLines(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected merged line, got %+v", lines)
	}
	if lines[0].Quantity != MaxQuantity || lines[0].Price != MaxPrice {
		t.Fatalf("expected bounded line, got %+v", lines[0])
	}
}

func TestRemoveAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")
	other := birchInput(1)
	other.ProductID = 7
	line := c.AddItem(ctx, birchInput(1))
	c.AddItem(ctx, other)

	c.RemoveItem(ctx, "missing")
	c.RemoveItem(ctx, line.LineID)
	if c.Len() != 1 || c.Items()[0].ProductID != 7 {
		t.Fatalf("unexpected items after remove: %+v", c.Items())
	}

	c.Clear(ctx)
	if c.Len() != 0 || c.Subtotal() != 0 || c.Count() != 0 {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestSubtotalAndCountDerived(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")
	second := birchInput(3)
	second.ProductID = 8
	second.Price = 900

	c.AddItem(ctx, birchInput(2))
	c.AddItem(ctx, second)

	snap := c.Snapshot()
	if snap.Subtotal != 2*1250+3*900 {
		t.Fatalf("unexpected subtotal %d", snap.Subtotal)
	}
	if snap.Count != 5 {
		t.Fatalf("unexpected count %d", snap.Count)
	}
}

func TestStorageRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := NewMemoryStorage()
	svc := newTestService(t, storage)

	svc.AddItem(ctx, "slot", birchInput(2))
	other := birchInput(1)
	other.ProductID = 9
	svc.AddItem(ctx, "slot", other)

	before := svc.Get(ctx, "slot")
	after := newTestService(t, storage).Get(ctx, "slot")

	if len(after.Items) != 2 {
		t.Fatalf("expected 2 rehydrated lines, got %d", len(after.Items))
	}
	for i := range before.Items {
		if before.Items[i] != after.Items[i] {
			t.Fatalf("line %d differs after reload: %+v vs %+v", i, before.Items[i], after.Items[i])
		}
	}
	if before.Subtotal != after.Subtotal {
		t.Fatalf("subtotal changed across reload")
	}
}

func TestLegacyPayloadRehydrates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := NewMemoryStorage()
	legacy := `[{"id":"42|ФК|9|1525x1525|2/2|Свеза|FC","title":"Фанера","price":1250.0,"quantity":2,"type":"ФК","thickness":"9"}]`
	if err := storage.Save(ctx, "slot", []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snap := newTestService(t, storage).Get(ctx, "slot")
	if len(snap.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(snap.Items))
	}
	line := snap.Items[0]
	if line.ProductID != 42 {
		t.Fatalf("expected productId 42, got %d", line.ProductID)
	}
	if line.LineID != "42|ФК|9|1525x1525|2/2|Свеза|FC" {
		t.Fatalf("expected legacy id kept as line id, got %q", line.LineID)
	}
	if line.Price != 1250 || line.Quantity != 2 {
		t.Fatalf("unexpected price/quantity %+v", line)
	}
}

func TestLegacyPayloadWithoutDigits(t *testing.T) {
	t.Parallel()

	lines, err := decodeLines([]byte(`[{"id":"sheet","quantity":0},{"lineId":"sheet","quantity":2}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected duplicate ids merged, got %+v", lines)
	}
	if lines[0].ProductID != 0 {
		t.Fatalf("expected productId 0, got %d", lines[0].ProductID)
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("expected clamped quantity merged to 3, got %d", lines[0].Quantity)
	}
}

func TestCorruptPayloadYieldsEmptyCart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Save(ctx, "slot", []byte(`{not json`))

	c := newTestService(t, storage).Open(ctx, "slot")
	if c.Len() != 0 {
		t.Fatalf("expected empty cart")
	}
	c.AddItem(ctx, birchInput(1))

	payload, _ := storage.Load(ctx, "slot")
	var stored []Line
	if err := json.Unmarshal(payload, &stored); err != nil || len(stored) != 1 {
		t.Fatalf("expected cart to overwrite corrupt payload, got %s (%v)", payload, err)
	}
}

type failingStorage struct {
	saves int
}

func (f *failingStorage) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage unavailable")
}

func (f *failingStorage) Save(context.Context, string, []byte) error {
	f.saves++
	return errors.New("quota exceeded")
}

func (f *failingStorage) Delete(context.Context, string) error {
	return errors.New("storage unavailable")
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := &failingStorage{}
	c := newTestService(t, storage).Open(ctx, "slot")

	c.AddItem(ctx, birchInput(2))
	c.AddItem(ctx, birchInput(1))

	if c.Count() != 3 {
		t.Fatalf("expected in-memory cart to keep working, got count %d", c.Count())
	}
	if storage.saves != 2 {
		t.Fatalf("expected a save attempt per mutation, got %d", storage.saves)
	}
}

func TestObserverSeesEveryMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var ops []string
	svc := newTestService(t, NewMemoryStorage(), WithObserver(func(op string) {
		ops = append(ops, op)
	}))
	c := svc.Open(ctx, "slot")
	line := c.AddItem(ctx, birchInput(1))
	c.UpdateQuantity(ctx, line.LineID, 4)
	c.RemoveItem(ctx, line.LineID)
	c.Clear(ctx)

	want := []string{OpAdd, OpUpdate, OpRemove, OpClear}
	if len(ops) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, ops)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("expected ops %v, got %v", want, ops)
		}
	}
}

func TestDrawerIndependentOfItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestService(t, NewMemoryStorage()).Open(ctx, "slot")

	if c.IsOpen() {
		t.Fatal("drawer should start closed")
	}
	c.Open()
	c.AddItem(ctx, birchInput(1))
	c.Clear(ctx)
	if !c.IsOpen() {
		t.Fatal("clearing items must not close the drawer")
	}
	if c.Toggle() {
		t.Fatal("toggle should close an open drawer")
	}
	c.Close()
	if c.IsOpen() {
		t.Fatal("expected closed drawer")
	}
}
