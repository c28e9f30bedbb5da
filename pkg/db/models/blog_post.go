package models

import "time"

// BlogPost is an article rendered on the public blog.
type BlogPost struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Title       string     `gorm:"column:title;not null"`
	Excerpt     string     `gorm:"column:excerpt;not null;default:''"`
	BodyHTML    string     `gorm:"column:body_html;not null;default:''"`
	CoverImage  string     `gorm:"column:cover_image;not null;default:''"`
	Published   bool       `gorm:"column:published;not null;default:false"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
