package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plywoodshop/storefront/api/responses"
	"github.com/plywoodshop/storefront/api/validators"
	"github.com/plywoodshop/storefront/internal/orders"
	"github.com/plywoodshop/storefront/pkg/enums"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

type statusRecorder interface {
	IncOrderStatus(status string)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func parseOrderFilters(r *http.Request) (orders.ListFilters, error) {
	filters := orders.ListFilters{
		Query: validators.SanitizeString(r.URL.Query().Get("q"), 100),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}
	return filters, nil
}

// AdminListOrders pages through orders, newest first.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), filters, validators.ParsePagination(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list.Orders, list.Page)
	}
}

// AdminGetOrder returns an order with its items.
func AdminGetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminUpdateOrderStatus moves an order along its status machine.
func AdminUpdateOrderStatus(svc orders.Service, recorder statusRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"}))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), id, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recorder.IncOrderStatus(string(order.Status))
		ctx := logg.WithFields(r.Context(), map[string]any{"order_id": id, "status": string(order.Status)})
		logg.Info(ctx, "admin.order_status_changed")
		responses.WriteSuccess(w, order)
	}
}

// AdminExportOrders streams matching orders as CSV, one row per item. Once
// the header row is out the status is committed, so later failures are only
// logged.
func AdminExportOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("orders-%s.csv", time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.Header().Set("Cache-Control", "no-store")

		if err := svc.ExportCSV(r.Context(), w, filters); err != nil {
			logg.Error(r.Context(), "admin.orders_export_failed", err)
		}
	}
}

// AdminOrderStats returns the order count, revenue and average order value.
func AdminOrderStats(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
