// Package env reads bootstrap settings that are needed before pkg/config
// has loaded, such as the log format.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces every TillCore variable.
const Prefix = "TILLCORE_"

// Get looks up TILLCORE_<key>, then the bare key, and returns fallback when
// both are blank.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
