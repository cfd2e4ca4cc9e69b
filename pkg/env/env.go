// Package env reads process settings that are needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces service variables, matching the envconfig prefix.
const Prefix = "STOCKPOS_"

// Lookup returns the first non-blank value of PREFIX+key or key.
func Lookup(key string) (string, bool) {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val, true
		}
	}
	return "", false
}

// Get is Lookup with a fallback.
func Get(key, fallback string) string {
	if val, ok := Lookup(key); ok {
		return val
	}
	return fallback
}
