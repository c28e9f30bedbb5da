package middleware

import (
	"net/http"
	"net/url"

	"github.com/plywoodshop/storefront/api/responses"
	pkgAuth "github.com/plywoodshop/storefront/pkg/auth"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/logger"
)

// SessionVerifier validates an admin session token and returns its subject.
type SessionVerifier interface {
	Verify(token string) (string, bool)
}

// GuardMode selects how an unauthenticated request is answered.
type GuardMode int

const (
	// GuardRedirect sends browsers to the login page with next set.
	GuardRedirect GuardMode = iota
	// GuardJSON answers with a generic 401 JSON error.
	GuardJSON
)

// AdminGuardOptions configures AdminGuard.
type AdminGuardOptions struct {
	CookieName string
	LoginPath  string
	Mode       GuardMode
}

// AdminGuard re-validates the session cookie on every request. An absent,
// malformed, expired or forged token is treated the same as no session.
func AdminGuard(verifier SessionVerifier, opts AdminGuardOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := pkgAuth.SessionTokenFromRequest(r, opts.CookieName)
			subject, ok := "", false
			if verifier != nil && token != "" {
				subject, ok = verifier.Verify(token)
			}
			if !ok {
				rejectUnauthenticated(w, r, opts, logg)
				return
			}

			ctx := WithActor(r.Context(), subject)
			if logg != nil {
				ctx = logg.WithActor(ctx, subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectUnauthenticated(w http.ResponseWriter, r *http.Request, opts AdminGuardOptions, logg *logger.Logger) {
	if opts.Mode == GuardJSON {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, ""))
		return
	}
	http.Redirect(w, r, LoginRedirectURL(opts.LoginPath, r.URL.RequestURI(), false), http.StatusSeeOther)
}

// LoginRedirectURL builds the login page URL carrying next and, on a failed
// attempt, the generic error marker.
func LoginRedirectURL(loginPath, next string, failed bool) string {
	if loginPath == "" {
		loginPath = "/admin/login"
	}
	q := url.Values{}
	if failed {
		q.Set("error", "1")
	}
	if next != "" {
		q.Set("next", next)
	}
	if len(q) == 0 {
		return loginPath
	}
	return loginPath + "?" + q.Encode()
}
