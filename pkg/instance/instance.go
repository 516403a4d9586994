package instance

import (
	"os"
	"strings"
)

const fallbackID = "tillcore-0"

// ID names the running process for lock ownership and log fields.
// TILLCORE_INSTANCE_ID wins, then the hostname.
func ID() string {
	if id := strings.TrimSpace(os.Getenv("TILLCORE_INSTANCE_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
