package env

import (
	"os"
	"strconv"
	"strings"
)

// Get reads key with surrounding whitespace removed; blank or unset
// yields fallback.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Bool reads key with strconv.ParseBool; unset or unparsable yields fallback.
func Bool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(Get(key, ""))
	if err != nil {
		return fallback
	}
	return b
}
