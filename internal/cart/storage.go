package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"sync"
)

// Storage persists the serialized line list under a slot id. Load returns
// nil payload and nil error when nothing has been stored yet.
type Storage interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, payload []byte) error
	Delete(ctx context.Context, slot string) error
}

// MemoryStorage keeps payloads in process. It backs single-instance dev runs
// and tests.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: map[string][]byte{}}
}

func (m *MemoryStorage) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.slots[slot]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, slot string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(payload))
	copy(stored, payload)
	m.slots[slot] = stored
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

// storedLine accepts both the current shape and the legacy one, where only a
// string "id" was stored and productId was absent. Numbers are decoded loosely
// since old writers emitted floats.
type storedLine struct {
	ID            json.RawMessage `json:"id"`
	LineID        string          `json:"lineId"`
	ProductID     json.RawMessage `json:"productId"`
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	Price         float64         `json:"price"`
	Quantity      float64         `json:"quantity"`
	Type          string          `json:"type"`
	Thickness     string          `json:"thickness"`
	Format        string          `json:"format"`
	Grade         string          `json:"grade"`
	Manufacturer  string          `json:"manufacturer"`
	Waterproofing string          `json:"waterproofing"`
}

var leadingDigits = regexp.MustCompile(`\d+`)

// decodeLines parses a stored payload, upgrading legacy entries and merging
// entries that resolve to the same line id.
func decodeLines(payload []byte) ([]Line, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	var raw []storedLine
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode cart payload: %w", err)
	}

	lines := make([]Line, 0, len(raw))
	index := make(map[string]int, len(raw))
	for _, entry := range raw {
		line := entry.toLine()
		if idx, ok := index[line.LineID]; ok {
			lines[idx].Quantity = mergeQuantity(lines[idx].Quantity, line.Quantity)
			continue
		}
		index[line.LineID] = len(lines)
		lines = append(lines, line)
	}
	return lines, nil
}

func (s storedLine) toLine() Line {
	cfg := Configuration{
		Type:          s.Type,
		Thickness:     s.Thickness,
		Format:        s.Format,
		Grade:         s.Grade,
		Manufacturer:  s.Manufacturer,
		Waterproofing: s.Waterproofing,
	}
	legacyID := rawString(s.ID)

	productID, ok := rawInt(s.ProductID)
	if !ok {
		productID = firstInteger(legacyID)
	}

	lineID := s.LineID
	if lineID == "" {
		lineID = legacyID
	}
	if lineID == "" {
		lineID = LineID(productID, cfg)
	}

	return Line{
		LineID:        lineID,
		ProductID:     productID,
		Title:         s.Title,
		Image:         s.Image,
		Price:         normalizePrice(roundBounded(s.Price, MaxPrice)),
		Quantity:      normalizeQuantity(roundBounded(s.Quantity, MaxQuantity)),
		Configuration: cfg,
	}
}

// roundBounded converts a stored number before the int conversion can
// overflow; NaN becomes 0.
func roundBounded(v float64, limit int) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > float64(limit):
		return limit
	case v < 0:
		return 0
	}
	return int(math.Round(v))
}

// firstInteger extracts the first run of digits, so "42|ФК|9|..." yields 42.
func firstInteger(value string) int {
	match := leadingDigits.FindString(value)
	if match == "" {
		return 0
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatInt(int64(math.Round(f)), 10)
	}
	return ""
}

func rawInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(math.Round(f)), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, convErr := strconv.Atoi(s); convErr == nil {
			return n, true
		}
	}
	return 0, false
}
