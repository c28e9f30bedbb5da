package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/plywoodshop/storefront/api/responses"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

// Recoverer turns a handler panic into a logged INTERNAL_ERROR response.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				value := recover()
				if value == nil {
					return
				}
				if err, ok := value.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(value)
				}
				handlePanic(w, r, logg, value)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func handlePanic(w http.ResponseWriter, r *http.Request, logg *logger.Logger, value any) {
	cause := fmt.Errorf("panic: %v", value)
	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithField(ctx, "panic_value", fmt.Sprintf("%v", value))
		logg.Error(ctx, "panic.recovered", cause)
	}
	responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, cause, "panic"))
}
