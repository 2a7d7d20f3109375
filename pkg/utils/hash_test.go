package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Expected values are what the loader script's simpleHash yields for the same input.
func TestContentHash_MatchesLoader(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"a", "61"},
		{"ab", "c21"},
		{"hello world", "6aefe2c4"},
		{"Hello, World!", "5955b815"},
		{"The quick brown fox jumps over the lazy dog", "-245322ad"},
		{"é😀", "1e780c"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ContentHash(tc.in), "input %q", tc.in)
	}
}

func TestContentHash_TruncatesAtLimit(t *testing.T) {
	base := strings.Repeat("x", ContentHashLimit)
	assert.Equal(t, ContentHash(base), ContentHash(base+"tail that is ignored"))
	assert.NotEqual(t, ContentHash(base[:ContentHashLimit-1]+"y"), ContentHash(base))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("  \n\t"))
	assert.Equal(t, 4, WordCount("one two\nthree\tfour "))
}
