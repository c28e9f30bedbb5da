package blog

import (
	"time"

	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/pagination"
)

// PostDTO is the payload returned for blog posts.
type PostDTO struct {
	ID          int        `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	BodyHTML    string     `json:"body_html,omitempty"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostList is a page of posts. Bodies are omitted from list payloads.
type PostList struct {
	Posts []PostDTO       `json:"posts"`
	Page  pagination.Page `json:"page"`
}

// NewPostDTO converts a model, optionally including the body.
func NewPostDTO(post *models.BlogPost, withBody bool) *PostDTO {
	dto := &PostDTO{
		ID:          int(post.ID),
		Slug:        post.Slug,
		Title:       post.Title,
		Excerpt:     post.Excerpt,
		CoverImage:  post.CoverImage,
		Published:   post.Published,
		PublishedAt: post.PublishedAt,
		CreatedAt:   post.CreatedAt,
		UpdatedAt:   post.UpdatedAt,
	}
	if withBody {
		dto.BodyHTML = post.BodyHTML
	}
	return dto
}
