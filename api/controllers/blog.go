package controllers

import (
	"net/http"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	"github.com/plywoodshop/storefront/internal/blog"
	"github.com/plywoodshop/storefront/pkg/logger"
)

// ListPublishedPosts pages through published posts, newest first.
func ListPublishedPosts(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListPublished(r.Context(), validators.ParsePagination(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list.Posts, list.Page)
	}
}

// GetPublishedPost returns one published post by slug.
func GetPublishedPost(svc blog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := textParam(r, "slug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		post, err := svc.GetPublished(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}
