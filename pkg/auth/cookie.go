package auth

import (
	"net/http"
	"time"
)

// CookieOptions describes how the admin session cookie is written.
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// SessionCookie builds the http-only cookie carrying token.
func SessionCookie(opts CookieOptions, token string) *http.Cookie {
	return &http.Cookie{
		Name:     opts.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearedSessionCookie expires the session cookie immediately.
func ClearedSessionCookie(opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     opts.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionTokenFromRequest returns the raw cookie value or "".
func SessionTokenFromRequest(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
