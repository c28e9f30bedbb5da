package blog

import (
	"context"

	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"gorm.io/gorm"
)

// Repository persists blog posts.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *Repository) Save(ctx context.Context, post *models.BlogPost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindPublishedBySlug hides drafts from the public site.
func (r *Repository) FindPublishedBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.WithContext(ctx).
		First(&post, "slug = ? AND published = ?", slug, true).
		Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List pages through posts newest first; publishedOnly restricts to the public set.
func (r *Repository) List(ctx context.Context, publishedOnly bool, params pagination.Params) ([]models.BlogPost, int64, error) {
	params = params.Normalize()
	qb := r.db.WithContext(ctx).Model(&models.BlogPost{})
	order := "created_at DESC"
	if publishedOnly {
		qb = qb.Where("published = ?", true)
		order = "published_at DESC"
	}

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.BlogPost
	err := qb.Session(&gorm.Session{}).
		Order(order).
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&posts).
		Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
