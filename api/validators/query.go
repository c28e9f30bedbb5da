package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryIntPtr returns nil when key is absent.
func ParseQueryIntPtr(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a non-negative integer").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryDecimalPtr returns nil when key is absent.
func ParseQueryDecimalPtr(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a number").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryBoolPtr accepts the strconv.ParseBool spellings and returns nil
// when key is absent.
func ParseQueryBoolPtr(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseQueryList collects repeated and comma separated values for key, e.g.
// ?type=ФК&type=ФСФ or ?type=ФК,ФСФ.
func ParseQueryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ParseQueryDecimalList is ParseQueryList for numeric values.
func ParseQueryDecimalList(r *http.Request, key string) ([]decimal.Decimal, error) {
	raw := ParseQueryList(r, key)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]decimal.Decimal, 0, len(raw))
	for _, item := range raw {
		value, err := decimal.NewFromString(strings.ReplaceAll(item, ",", "."))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a number").WithDetails(map[string]any{"field": key, "value": item})
		}
		out = append(out, value)
	}
	return out, nil
}

// ParsePagination reads page and limit, clamped to the pagination bounds.
func ParsePagination(r *http.Request) pagination.Params {
	q := r.URL.Query()
	return pagination.ParseParams(q.Get("page"), q.Get("limit"))
}
