// Package views renders the server-side admin pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/plywoodshop/storefront/internal/orders"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoginPage is the data behind the login form.
type LoginPage struct {
	Title  string
	Action string
	Next   string
	Failed bool
}

// DashboardPage is the data behind the admin landing page.
type DashboardPage struct {
	Title        string
	LogoutAction string
	Stats        orders.Stats
	RecentOrders []orders.OrderDTO
	ProductCount int64
	PostCount    int64
}

// Renderer holds the parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates once.
func New() (*Renderer, error) {
	pages := map[string]*template.Template{}
	for _, name := range []string{"login", "dashboard"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Login renders the login form.
func (r *Renderer) Login(w http.ResponseWriter, status int, page LoginPage) error {
	if page.Title == "" {
		page.Title = "Вход"
	}
	return r.render(w, "login", status, page)
}

// Dashboard renders the admin landing page.
func (r *Renderer) Dashboard(w http.ResponseWriter, page DashboardPage) error {
	if page.Title == "" {
		page.Title = "Панель управления"
	}
	return r.render(w, "dashboard", http.StatusOK, page)
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (r *Renderer) render(w http.ResponseWriter, name string, status int, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
