package orders

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/shopspring/decimal"
)

var csvHeader = []string{
	"order_number",
	"created_at",
	"status",
	"customer_name",
	"phone",
	"email",
	"city",
	"address",
	"delivery_method",
	"product_id",
	"title",
	"type",
	"thickness",
	"format",
	"grade",
	"manufacturer",
	"waterproofing",
	"price",
	"quantity",
	"line_total",
	"order_total",
}

type csvExporter struct {
	w *csv.Writer
}

func newCSVExporter(w io.Writer) *csvExporter {
	return &csvExporter{w: csv.NewWriter(w)}
}

func (e *csvExporter) writeHeader() error {
	return e.w.Write(csvHeader)
}

// writeOrder emits one row per item. Orders without items still get a row
// so totals reconcile.
func (e *csvExporter) writeOrder(order models.Order) error {
	items := order.Items
	if len(items) == 0 {
		items = []models.OrderItem{{}}
	}
	for _, item := range items {
		record := []string{
			order.Number,
			order.CreatedAt.UTC().Format(time.RFC3339),
			string(order.Status),
			order.CustomerName,
			order.Phone,
			order.Email,
			order.City,
			order.Address,
			string(order.DeliveryMethod),
			productID(item),
			item.Title,
			item.Type,
			item.Thickness,
			item.Format,
			item.Grade,
			item.Manufacturer,
			item.Waterproofing,
			money(item.Price),
			strconv.Itoa(item.Quantity),
			money(item.LineTotal),
			money(order.Total),
		}
		if err := e.w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func (e *csvExporter) flush() error {
	e.w.Flush()
	return e.w.Error()
}

func productID(item models.OrderItem) string {
	if item.LineID == "" && item.ProductID == 0 {
		return ""
	}
	return strconv.Itoa(item.ProductID)
}

func money(units int) string {
	return decimal.NewFromInt(int64(units)).StringFixed(2)
}
