package cart

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/plywoodshop/storefront/pkg/logger"
)

// Operation names reported to an Observer after each mutation.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpClear  = "clear"
)

// Observer is notified after every mutation, e.g. to feed metrics.
type Observer func(op string)

// Cart holds the shopper's working selection for one storage slot. Every
// mutation is applied under the lock and then mirrored to storage; storage
// failures are logged and otherwise ignored so the cart keeps working in memory.
type Cart struct {
	mu       sync.Mutex
	slot     string
	items    []Line
	open     bool
	storage  Storage
	logg     *logger.Logger
	observer Observer
}

// Snapshot is a consistent read of the cart with derived totals.
type Snapshot struct {
	Items    []Line `json:"items"`
	Subtotal int    `json:"subtotal"`
	Count    int    `json:"count"`
}

// AddItem merges into the line with the same identity or prepends a new one.
func (c *Cart) AddItem(ctx context.Context, in AddInput) Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := normalizeQuantity(in.Quantity)
	id := LineID(in.ProductID, in.Configuration)

	var result Line
	if idx := c.indexOf(id); idx >= 0 {
		c.items[idx].Quantity = mergeQuantity(c.items[idx].Quantity, qty)
		result = c.items[idx]
	} else {
		result = Line{
			LineID:        id,
			ProductID:     in.ProductID,
			Title:         in.Title,
			Image:         in.Image,
			Price:         normalizePrice(in.Price),
			Quantity:      qty,
			Configuration: in.Configuration,
		}
		c.items = append([]Line{result}, c.items...)
	}

	c.commit(ctx, OpAdd)
	return result
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less
// removes the line instead; one above MaxQuantity is capped. Unknown ids are
// ignored.
func (c *Cart) UpdateQuantity(ctx context.Context, lineID string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(lineID)
	if idx < 0 {
		return
	}
	if quantity <= 0 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
	} else {
		c.items[idx].Quantity = normalizeQuantity(quantity)
	}
	c.commit(ctx, OpUpdate)
}

// RemoveItem deletes the line if present.
func (c *Cart) RemoveItem(ctx context.Context, lineID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(lineID)
	if idx < 0 {
		return
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.commit(ctx, OpRemove)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.commit(ctx, OpClear)
}

// Items returns a copy of the lines, newest first.
func (c *Cart) Items() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

// Subtotal sums price times quantity over the current lines.
func (c *Cart) Subtotal() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return subtotal(c.items)
}

// Count sums quantities; it drives the header badge.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return count(c.items)
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Snapshot returns items and derived totals computed from the same state.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Items:    c.copyItems(),
		Subtotal: subtotal(c.items),
		Count:    count(c.items),
	}
}

// Slot is the storage slot the cart mirrors to.
func (c *Cart) Slot() string {
	return c.slot
}

// Open shows the drawer.
func (c *Cart) Open() {
	c.mu.Lock()
	c.open = true
	c.mu.Unlock()
}

// Close hides the drawer.
func (c *Cart) Close() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

// Toggle flips drawer visibility and returns the new state.
func (c *Cart) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = !c.open
	return c.open
}

// IsOpen reports drawer visibility.
func (c *Cart) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Cart) indexOf(lineID string) int {
	for i := range c.items {
		if c.items[i].LineID == lineID {
			return i
		}
	}
	return -1
}

func (c *Cart) copyItems() []Line {
	out := make([]Line, len(c.items))
	copy(out, c.items)
	return out
}

// commit must be called with the lock held.
func (c *Cart) commit(ctx context.Context, op string) {
	c.persist(ctx)
	if c.observer != nil {
		c.observer(op)
	}
}

func (c *Cart) persist(ctx context.Context) {
	if c.storage == nil {
		return
	}
	items := c.items
	if items == nil {
		items = []Line{}
	}
	payload, err := json.Marshal(items)
	if err == nil {
		err = c.storage.Save(ctx, c.slot, payload)
	}
	if err != nil && c.logg != nil {
		ctx = c.logg.WithFields(ctx, map[string]any{"slot": c.slot, "error": err.Error()})
		c.logg.Warn(ctx, "cart.persist_failed")
	}
}

func subtotal(items []Line) int {
	total := 0
	for _, item := range items {
		total += item.Total()
	}
	return total
}

func count(items []Line) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}
