package chromedp_fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/schema-cache/pkg/utils"
)

func TestExtractSignals(t *testing.T) {
	html := `<html><head>
		<title>
			About   Us
		</title>
		<meta name="description" content="Who we are">
		<meta property="og:description" content="ignored">
	</head><body>
		<h1> Our story </h1><h1>Second</h1>
		<p>We build things.</p>
	</body></html>`
	bodyText := "Our story\nSecond\nWe build things."

	signals, err := ExtractSignals(html, bodyText)
	require.NoError(t, err)

	assert.Equal(t, "About Us", signals.Title)
	assert.Equal(t, "Our story", signals.H1)
	assert.Equal(t, "Who we are", signals.MetaDescription)
	assert.Equal(t, 6, signals.WordCount)
	assert.Equal(t, utils.ContentHash(bodyText), signals.ContentHash)
}

func TestExtractSignals_EmptyPage(t *testing.T) {
	signals, err := ExtractSignals("", "")
	require.NoError(t, err)

	assert.Empty(t, signals.Title)
	assert.Empty(t, signals.H1)
	assert.Equal(t, "0", signals.ContentHash)
}
