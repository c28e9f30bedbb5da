package cart

import (
	"strconv"
	"strings"
)

// Bounds keep a single line total within an int32 order column. Quantities
// past MaxQuantity saturate instead of growing.
const (
	MaxQuantity = 9999
	MaxPrice    = 100_000
)

// lineIDSeparator joins the identity tuple. Carts persisted by older
// storefront builds used the same separator, so their ids still match.
const lineIDSeparator = "|"

// Configuration is the attribute tuple chosen for a sheet when it is added.
type Configuration struct {
	Type          string `json:"type"`
	Thickness     string `json:"thickness"`
	Format        string `json:"format"`
	Grade         string `json:"grade"`
	Manufacturer  string `json:"manufacturer"`
	Waterproofing string `json:"waterproofing"`
}

// Line is one row of the cart. Configuration fields are snapshots taken at
// add time; catalog edits never reach existing lines.
type Line struct {
	LineID    string `json:"lineId"`
	ProductID int    `json:"productId"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Configuration
}

// Total is price times quantity.
func (l Line) Total() int {
	return l.Price * l.Quantity
}

// AddInput is what catalog, quiz and recommendation views submit.
type AddInput struct {
	ProductID int
	Title     string
	Image     string
	Price     int
	// Quantity defaults to 1; anything below 1 is raised to 1 and anything
	// above MaxQuantity is lowered to it.
	Quantity int
	Configuration
}

// LineID derives the composite identity for a product and configuration.
func LineID(productID int, cfg Configuration) string {
	return strings.Join([]string{
		strconv.Itoa(productID),
		cfg.Type,
		cfg.Thickness,
		cfg.Format,
		cfg.Grade,
		cfg.Manufacturer,
		cfg.Waterproofing,
	}, lineIDSeparator)
}

func normalizeQuantity(q int) int {
	return min(max(q, 1), MaxQuantity)
}

func normalizePrice(p int) int {
	return min(max(p, 0), MaxPrice)
}

// mergeQuantity adds b to a without passing MaxQuantity; both are already
// normalized so the sum cannot overflow.
func mergeQuantity(a, b int) int {
	return min(a+b, MaxQuantity)
}
