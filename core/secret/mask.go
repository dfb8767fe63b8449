package secret

import "strings"

// Mask returns a masked representation of a secret string. Short secrets are
// fully masked; longer ones keep a small prefix and suffix visible so users
// can tell which key is configured without exposing it.
func Mask(s string) string {
	n := len(s)
	switch {
	case n == 0:
		return ""
	case n <= 5:
		return strings.Repeat("*", n)
	case n <= 20:
		return s[:1] + strings.Repeat("*", n-2) + s[n-1:]
	default:
		return s[:3] + strings.Repeat("*", n-4) + s[n-1:]
	}
}
