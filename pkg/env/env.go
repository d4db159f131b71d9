// Package env reads the few settings needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces every storefront variable.
const Prefix = "TN_"

// Get returns the trimmed value of Prefix+key, or fallback when it is unset
// or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(Prefix + key)); val != "" {
		return val
	}
	return fallback
}
