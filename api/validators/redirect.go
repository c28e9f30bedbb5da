package validators

import (
	"net/url"
	"strings"
)

// SafeRedirectTarget returns next when it is a same-origin relative path and
// fallback otherwise. Absolute URLs, protocol-relative "//host" and the
// backslash variant browsers treat the same way are rejected.
func SafeRedirectTarget(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if strings.ContainsAny(next, "\r\n\t") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
