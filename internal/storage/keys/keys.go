package keys

import (
	"fmt"
	"strings"
	"time"
)

// DefaultPresignTTL bounds how long a write descriptor stays valid.
const DefaultPresignTTL = 300 * time.Second

// BuildUploadKey produces a collision-resistant object key for one upload:
// a millisecond timestamp prefix plus the sanitized file name, under the
// uploads/ prefix. Two calls in the same millisecond for the same name would
// collide, which is acceptable for this single-user flow.
func BuildUpload(fileName string, now time.Time) string {
	return fmt.Sprintf("uploads/%d-%s", now.UnixMilli(), SanitizeFileName(fileName))
}

// SanitizeFileName maps the name onto a safe character set: letters, digits
// and dots survive, everything else becomes an underscore.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
