package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizePageURL strips every trailing slash, so "https://x.com/a//" and
// "https://x.com/a" address the same page.
func NormalizePageURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
