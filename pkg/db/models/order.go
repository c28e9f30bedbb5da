package models

import (
	"time"

	"github.com/plywoodshop/storefront/pkg/enums"
)

// Order is the immutable snapshot written at checkout.
type Order struct {
	ID             uint                 `gorm:"column:id;primaryKey;autoIncrement"`
	Number         string               `gorm:"column:number;not null;default:'';index"`
	CustomerName   string               `gorm:"column:customer_name;not null"`
	Phone          string               `gorm:"column:phone;not null"`
	Email          string               `gorm:"column:email;not null;default:''"`
	City           string               `gorm:"column:city;not null;default:''"`
	Address        string               `gorm:"column:address;not null;default:''"`
	DeliveryMethod enums.DeliveryMethod `gorm:"column:delivery_method;type:text;not null;default:'pickup'"`
	Comment        string               `gorm:"column:comment;not null;default:''"`
	Status         enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'new'"`
	Total          int                  `gorm:"column:total;not null"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
