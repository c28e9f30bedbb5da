package models

import "time"

// OrderItem copies one cart line into the order. ProductID is not a foreign
// key; products may be deleted after the order is placed.
type OrderItem struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID       uint      `gorm:"column:order_id;not null;index"`
	LineID        string    `gorm:"column:line_id;not null"`
	ProductID     int       `gorm:"column:product_id;not null"`
	Title         string    `gorm:"column:title;not null"`
	Image         string    `gorm:"column:image;not null;default:''"`
	Price         int       `gorm:"column:price;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	LineTotal     int       `gorm:"column:line_total;not null"`
	Type          string    `gorm:"column:type;not null;default:''"`
	Thickness     string    `gorm:"column:thickness;not null;default:''"`
	Format        string    `gorm:"column:format;not null;default:''"`
	Grade         string    `gorm:"column:grade;not null;default:''"`
	Manufacturer  string    `gorm:"column:manufacturer;not null;default:''"`
	Waterproofing string    `gorm:"column:waterproofing;not null;default:''"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
