package controllers

import (
	"net/http"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	"github.com/plywoodshop/storefront/internal/blog"
	"github.com/plywoodshop/storefront/pkg/logger"
)

type createPostRequest struct {
	Slug       string `json:"slug" validate:"max=160"`
	Title      string `json:"title" validate:"required,notblank,max=255"`
	Excerpt    string `json:"excerpt" validate:"max=1000"`
	BodyHTML   string `json:"body_html"`
	CoverImage string `json:"cover_image" validate:"max=1024"`
	Published  bool   `json:"published"`
}

type updatePostRequest struct {
	Slug       *string `json:"slug,omitempty" validate:"omitempty,max=160"`
	Title      *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Excerpt    *string `json:"excerpt,omitempty" validate:"omitempty,max=1000"`
	BodyHTML   *string `json:"body_html,omitempty"`
	CoverImage *string `json:"cover_image,omitempty" validate:"omitempty,max=1024"`
	Published  *bool   `json:"published,omitempty"`
}

// AdminListPosts pages through every post, drafts included.
func AdminListPosts(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context(), validators.ParsePagination(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list.Posts, list.Page)
	}
}

// AdminGetPost returns a post with its body.
func AdminGetPost(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		post, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

// AdminCreatePost stores a new post; the body is sanitised by the service.
func AdminCreatePost(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPostRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		post, err := svc.Create(r.Context(), blog.CreatePostInput{
			Slug:       payload.Slug,
			Title:      payload.Title,
			Excerpt:    payload.Excerpt,
			BodyHTML:   payload.BodyHTML,
			CoverImage: payload.CoverImage,
			Published:  payload.Published,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

// AdminUpdatePost applies only the fields present in the body.
func AdminUpdatePost(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updatePostRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		post, err := svc.Update(r.Context(), id, blog.UpdatePostInput{
			Slug:       trimmedPtr(payload.Slug),
			Title:      trimmedPtr(payload.Title),
			Excerpt:    payload.Excerpt,
			BodyHTML:   payload.BodyHTML,
			CoverImage: trimmedPtr(payload.CoverImage),
			Published:  payload.Published,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

// AdminDeletePost removes a post.
func AdminDeletePost(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
