// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"
)

// ForAuth returns hints for access-token rejections. A saved token file is
// the likely culprit when one exists, so suggest removing it; otherwise
// point at the --token flag.
func ForAuth(tokenPath string) string {
	var hints []string

	if tokenPath != "" {
		if info, err := os.Stat(tokenPath); err == nil && !info.IsDir() {
			hints = append(hints, "remove "+tokenPath+" to register a fresh anonymous account")
		}
	}
	hints = append(hints, "pass --token with a valid access token")

	return formatHints(hints)
}

// ForRateLimit returns a hint for flood-wait responses from the page service.
func ForRateLimit() string {
	return format("wait before retrying, or lower --workers to slow down uploads")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/telepress/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/config.yaml"

	// Find a user config path (contains .config/telepress) to suggest
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/telepress") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForUnknownHost returns hints for unknown image host errors.
func ForUnknownHost(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForEmptyArchive returns hints for archives without publishable images.
func ForEmptyArchive() string {
	return format("supported image formats: JPG, PNG, GIF, WebP, BMP")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
