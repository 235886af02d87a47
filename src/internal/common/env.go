package common

import (
	"os"
	"strings"
)

const trueStr = "true"

// EnvOrDefault returns the trimmed value of key, or def when unset or blank
func EnvOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
