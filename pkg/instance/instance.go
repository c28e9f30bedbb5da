package instance

import (
	"os"

	"github.com/plywoodshop/storefront/pkg/env"
)

// GetID names the running process in logs. PLYWOOD_INSTANCE_ID wins, then the
// platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("PLYWOOD_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "api-0"
}
