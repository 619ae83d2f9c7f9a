package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateRequestID generates a unique request ID for tracking
func GenerateRequestID() string {
	return uuid.New().String()
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

const maxFileTokenLength = 50

// SanitizeFileToken reduces a string to a filesystem-safe token. Anything
// outside alphanumerics, hyphen and underscore becomes an underscore, runs
// of underscores collapse, and the result is bounded in length.
func SanitizeFileToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	token := b.String()
	for strings.Contains(token, "__") {
		token = strings.ReplaceAll(token, "__", "_")
	}
	token = strings.Trim(token, "_")

	if len(token) > maxFileTokenLength {
		token = token[:maxFileTokenLength]
		token = strings.TrimRight(token, "_")
	}
	return token
}

// JobIDFromURL derives a stable job identifier from a posting URL. Used by
// adapters when the site does not expose its own identifier.
func JobIDFromURL(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])[:12]
}
