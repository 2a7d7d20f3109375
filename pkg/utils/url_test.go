package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePageURL(t *testing.T) {
	cases := map[string]string{
		"https://x.com/about":   "https://x.com/about",
		"https://x.com/about/":  "https://x.com/about",
		"https://x.com/about//": "https://x.com/about",
		"https://x.com/":        "https://x.com",
		"":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePageURL(in), "input %q", in)
	}
}

func TestHashURL_Stable(t *testing.T) {
	a := HashURL("https://x.com/get-schema?client_id=a&url=b")
	b := HashURL("https://x.com/get-schema?client_id=a&url=b")
	c := HashURL("https://x.com/get-schema?client_id=a&url=c")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
