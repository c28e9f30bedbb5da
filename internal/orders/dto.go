package orders

import (
	"time"

	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/enums"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

// ListFilters describe the inputs supported by the admin order list.
type ListFilters struct {
	Status *enums.OrderStatus
	Query  string
}

// OrderDTO is the admin view of an order.
type OrderDTO struct {
	ID             int                  `json:"id"`
	Number         string               `json:"number"`
	CustomerName   string               `json:"customer_name"`
	Phone          string               `json:"phone"`
	Email          string               `json:"email,omitempty"`
	City           string               `json:"city"`
	Address        string               `json:"address"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
	Comment        string               `json:"comment,omitempty"`
	Status         enums.OrderStatus    `json:"status"`
	Total          int                  `json:"total"`
	Items          []OrderItemDTO       `json:"items,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// OrderItemDTO is one snapshotted order line.
type OrderItemDTO struct {
	LineID        string `json:"line_id"`
	ProductID     int    `json:"product_id"`
	Title         string `json:"title"`
	Image         string `json:"image,omitempty"`
	Price         int    `json:"price"`
	Quantity      int    `json:"quantity"`
	LineTotal     int    `json:"line_total"`
	Type          string `json:"type"`
	Thickness     string `json:"thickness"`
	Format        string `json:"format"`
	Grade         string `json:"grade"`
	Manufacturer  string `json:"manufacturer"`
	Waterproofing string `json:"waterproofing"`
}

// OrderList is a page of orders.
type OrderList struct {
	Orders []OrderDTO      `json:"orders"`
	Page   pagination.Page `json:"page"`
}

// Stats summarises non-cancelled orders.
type Stats struct {
	Orders       int64           `json:"orders"`
	Revenue      int64           `json:"revenue"`
	AverageOrder decimal.Decimal `json:"average_order"`
	NewOrders    int64           `json:"new_orders"`
}

// StatsRow is the raw aggregate read by the repository.
type StatsRow struct {
	Orders    int64
	Revenue   int64
	NewOrders int64
}

// NewOrderDTO converts the model, including loaded items.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:             int(order.ID),
		Number:         order.Number,
		CustomerName:   order.CustomerName,
		Phone:          order.Phone,
		Email:          order.Email,
		City:           order.City,
		Address:        order.Address,
		DeliveryMethod: order.DeliveryMethod,
		Comment:        order.Comment,
		Status:         order.Status,
		Total:          order.Total,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
	if len(order.Items) > 0 {
		dto.Items = make([]OrderItemDTO, 0, len(order.Items))
		for _, item := range order.Items {
			dto.Items = append(dto.Items, OrderItemDTO{
				LineID:        item.LineID,
				ProductID:     item.ProductID,
				Title:         item.Title,
				Image:         item.Image,
				Price:         item.Price,
				Quantity:      item.Quantity,
				LineTotal:     item.LineTotal,
				Type:          item.Type,
				Thickness:     item.Thickness,
				Format:        item.Format,
				Grade:         item.Grade,
				Manufacturer:  item.Manufacturer,
				Waterproofing: item.Waterproofing,
			})
		}
	}
	return dto
}
