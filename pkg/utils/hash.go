package utils

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// ContentHashLimit is how many UTF-16 code units of body text the loader hashes.
const ContentHashLimit = 2000

// ContentHash reproduces the loader script's fingerprint: a 31-multiplier rolling
// hash over UTF-16 code units kept in signed 32-bit range, rendered as signed hex
// (JavaScript Number.prototype.toString(16)).
func ContentHash(text string) string {
	units := utf16.Encode([]rune(text))
	if len(units) > ContentHashLimit {
		units = units[:ContentHashLimit]
	}
	var h int32
	for _, u := range units {
		h = (h << 5) - h + int32(u)
	}
	if h < 0 {
		return "-" + strconv.FormatInt(-int64(h), 16)
	}
	return strconv.FormatInt(int64(h), 16)
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
