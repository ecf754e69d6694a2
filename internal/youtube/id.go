package youtube

import "strings"

// NormalizeVideoID strips the incidental whitespace that ids picked up
// from upstream payloads sometimes carry.
func NormalizeVideoID(id string) string {
	return strings.TrimSpace(id)
}

// ValidVideoID reports whether id looks like a YouTube video id:
// 10 or 11 characters of letters, digits, hyphens and underscores.
func ValidVideoID(id string) bool {
	id = NormalizeVideoID(id)
	if len(id) < 10 || len(id) > 11 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
