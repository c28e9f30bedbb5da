package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one configured plywood sheet offered in the catalog.
type Product struct {
	ID            uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Slug          string          `gorm:"column:slug;not null;uniqueIndex"`
	Title         string          `gorm:"column:title;not null"`
	Description   string          `gorm:"column:description;not null;default:''"`
	Image         string          `gorm:"column:image;not null;default:''"`
	Price         int             `gorm:"column:price;not null"`
	Type          string          `gorm:"column:type;not null;index"`
	Thickness     decimal.Decimal `gorm:"column:thickness;type:numeric(5,1);not null"`
	Format        string          `gorm:"column:format;not null"`
	Grade         string          `gorm:"column:grade;not null"`
	Manufacturer  string          `gorm:"column:manufacturer;not null"`
	Waterproofing string          `gorm:"column:waterproofing;not null"`
	InStock       bool            `gorm:"column:in_stock;not null;default:true"`
	IsFeatured    bool            `gorm:"column:is_featured;not null;default:false"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
