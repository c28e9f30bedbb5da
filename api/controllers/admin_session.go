package controllers

import (
	"net/http"
	"strings"

	"github.com/plywoodshop/storefront/api/middleware"
	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	"github.com/plywoodshop/storefront/api/views"
	"github.com/plywoodshop/storefront/internal/auth"
	"github.com/plywoodshop/storefront/internal/blog"
	"github.com/plywoodshop/storefront/internal/orders"
	product "github.com/plywoodshop/storefront/internal/products"
	pkgAuth "github.com/plywoodshop/storefront/pkg/auth"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/plywoodshop/storefront/pkg/pagination"
)

const (
	AdminHomePath   = "/admin"
	AdminLoginPath  = "/admin/login"
	AdminLogoutPath = "/admin/logout"

	recentOrdersOnDashboard = 10
)

type loginRecorder interface {
	IncLogin(result string)
}

// AdminLoginPage renders the login form. A caller that already holds a valid
// session goes straight to next.
func AdminLoginPage(svc auth.Service, renderer *views.Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		next := validators.SafeRedirectTarget(q.Get("next"), "")

		opts := svc.CookieOptions()
		if token := pkgAuth.SessionTokenFromRequest(r, opts.Name); token != "" {
			if _, ok := svc.Verify(token); ok {
				http.Redirect(w, r, validators.SafeRedirectTarget(next, AdminHomePath), http.StatusSeeOther)
				return
			}
		}

		if err := renderer.Login(w, http.StatusOK, views.LoginPage{
			Action: AdminLoginPath,
			Next:   next,
			Failed: q.Get("error") != "",
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

// AdminLogin checks the submitted credentials. Success sets the session
// cookie and redirects to next; failure redirects back to the form with the
// generic error marker after the service has applied its delay.
func AdminLogin(svc auth.Service, recorder loginRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, middleware.LoginRedirectURL(AdminLoginPath, "", true), http.StatusSeeOther)
			return
		}
		next := validators.SafeRedirectTarget(r.PostForm.Get("next"), "")

		session, err := svc.Login(r.Context(), auth.LoginRequest{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		})
		if err != nil {
			recorder.IncLogin("failure")
			http.Redirect(w, r, middleware.LoginRedirectURL(AdminLoginPath, next, true), http.StatusSeeOther)
			return
		}

		recorder.IncLogin("success")
		http.SetCookie(w, pkgAuth.SessionCookie(svc.CookieOptions(), session.Token))
		http.Redirect(w, r, validators.SafeRedirectTarget(next, AdminHomePath), http.StatusSeeOther)
	}
}

// AdminLogout clears the session cookie. Tokens are stateless, so a copied
// token stays valid until its expiry.
func AdminLogout(svc auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, pkgAuth.ClearedSessionCookie(svc.CookieOptions()))
		http.Redirect(w, r, AdminLoginPath, http.StatusSeeOther)
	}
}

// AdminDashboard renders the landing page with order stats and counts.
func AdminDashboard(ordersSvc orders.Service, productsSvc product.Service, blogSvc blog.Service, renderer *views.Renderer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, err := ordersSvc.Stats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		recent, err := ordersSvc.List(ctx, orders.ListFilters{}, pagination.Params{Page: 1, Limit: recentOrdersOnDashboard})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		products, err := productsSvc.List(ctx, product.ListProductsInput{Pagination: pagination.Params{Page: 1, Limit: 1}})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		posts, err := blogSvc.List(ctx, pagination.Params{Page: 1, Limit: 1})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := renderer.Dashboard(w, views.DashboardPage{
			LogoutAction: AdminLogoutPath,
			Stats:        *stats,
			RecentOrders: recent.Orders,
			ProductCount: products.Page.Total,
			PostCount:    posts.Page.Total,
		}); err != nil {
			logg.Error(ctx, "admin.dashboard_render_failed", err)
		}
	}
}

// trimmedPtr trims a present string; used by the partial update payloads.
func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
