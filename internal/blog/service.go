package blog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/db/models"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/plywoodshop/storefront/pkg/slug"
)

// Service exposes public reads and admin management of blog posts.
type Service interface {
	ListPublished(ctx context.Context, params pagination.Params) (*PostList, error)
	GetPublished(ctx context.Context, slug string) (*PostDTO, error)
	List(ctx context.Context, params pagination.Params) (*PostList, error)
	Get(ctx context.Context, id int) (*PostDTO, error)
	Create(ctx context.Context, input CreatePostInput) (*PostDTO, error)
	Update(ctx context.Context, id int, input UpdatePostInput) (*PostDTO, error)
	Delete(ctx context.Context, id int) error
}

// CreatePostInput holds the payload for a new post.
type CreatePostInput struct {
	Slug       string
	Title      string
	Excerpt    string
	BodyHTML   string
	CoverImage string
	Published  bool
}

// UpdatePostInput carries optional post changes.
type UpdatePostInput struct {
	Slug       *string
	Title      *string
	Excerpt    *string
	BodyHTML   *string
	CoverImage *string
	Published  *bool
}

type service struct {
	repo      *Repository
	sanitizer Sanitizer
	now       func() time.Time
}

// NewService builds the blog service.
func NewService(repo *Repository, sanitizer Sanitizer) (Service, error) {
	if repo == nil {
		return nil, errors.New("blog repository required")
	}
	if sanitizer == nil {
		return nil, errors.New("sanitizer required")
	}
	return &service{repo: repo, sanitizer: sanitizer, now: time.Now}, nil
}

func (s *service) ListPublished(ctx context.Context, params pagination.Params) (*PostList, error) {
	return s.list(ctx, true, params)
}

func (s *service) List(ctx context.Context, params pagination.Params) (*PostList, error) {
	return s.list(ctx, false, params)
}

func (s *service) list(ctx context.Context, publishedOnly bool, params pagination.Params) (*PostList, error) {
	rows, total, err := s.repo.List(ctx, publishedOnly, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list posts")
	}
	list := &PostList{Posts: make([]PostDTO, 0, len(rows)), Page: pagination.NewPage(params, total)}
	for i := range rows {
		list.Posts = append(list.Posts, *NewPostDTO(&rows[i], false))
	}
	return list, nil
}

func (s *service) GetPublished(ctx context.Context, value string) (*PostDTO, error) {
	post, err := s.repo.FindPublishedBySlug(ctx, strings.TrimSpace(value))
	if err != nil {
		return nil, mapReadError(err)
	}
	return NewPostDTO(post, true), nil
}

func (s *service) Get(ctx context.Context, id int) (*PostDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.NotFound("post")
	}
	post, err := s.repo.FindByID(ctx, uint(id))
	if err != nil {
		return nil, mapReadError(err)
	}
	return NewPostDTO(post, true), nil
}

func (s *service) Create(ctx context.Context, input CreatePostInput) (*PostDTO, error) {
	post := &models.BlogPost{
		Slug:       strings.TrimSpace(input.Slug),
		Title:      strings.TrimSpace(input.Title),
		Excerpt:    strings.TrimSpace(input.Excerpt),
		BodyHTML:   s.sanitizer.Sanitize(input.BodyHTML),
		CoverImage: strings.TrimSpace(input.CoverImage),
	}
	if post.Slug == "" {
		post.Slug = slug.Make(post.Title)
	}
	s.setPublished(post, input.Published)
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, mapWriteError(err)
	}
	return NewPostDTO(post, true), nil
}

func (s *service) Update(ctx context.Context, id int, input UpdatePostInput) (*PostDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.NotFound("post")
	}
	post, err := s.repo.FindByID(ctx, uint(id))
	if err != nil {
		return nil, mapReadError(err)
	}

	if input.Slug != nil {
		post.Slug = strings.TrimSpace(*input.Slug)
	}
	if input.Title != nil {
		post.Title = strings.TrimSpace(*input.Title)
	}
	if input.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*input.Excerpt)
	}
	if input.BodyHTML != nil {
		post.BodyHTML = s.sanitizer.Sanitize(*input.BodyHTML)
	}
	if input.CoverImage != nil {
		post.CoverImage = strings.TrimSpace(*input.CoverImage)
	}
	if input.Published != nil {
		s.setPublished(post, *input.Published)
	}
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, post); err != nil {
		return nil, mapWriteError(err)
	}
	return NewPostDTO(post, true), nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return pkgerrors.NotFound("post")
	}
	if err := s.repo.Delete(ctx, uint(id)); err != nil {
		return mapReadError(err)
	}
	return nil
}

// setPublished stamps published_at the first time a post goes live and keeps
// it across later unpublish/republish cycles.
func (s *service) setPublished(post *models.BlogPost, published bool) {
	post.Published = published
	if published && post.PublishedAt == nil {
		now := s.now().UTC()
		post.PublishedAt = &now
	}
}

func validatePost(post *models.BlogPost) error {
	if post.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !slug.Valid(post.Slug) {
		return pkgerrors.New(pkgerrors.CodeValidation, "slug must contain only lowercase letters, digits and dashes")
	}
	return nil
}

func mapReadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.NotFound("post")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post")
}

func mapWriteError(err error) error {
	if db.IsUniqueViolation(err, "slug") {
		return pkgerrors.New(pkgerrors.CodeConflict, "post slug already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save post")
}
