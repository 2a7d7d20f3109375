package chromedp_fingerprint

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/schema-cache/internal/entity"
	"github.com/user/schema-cache/pkg/utils"
)

// ExtractSignals builds loader-compatible signals from rendered HTML and the body's innerText.
// The content hash is taken over bodyText because that is what the browser hashes.
func ExtractSignals(htmlContent, bodyText string) (*entity.PageSignals, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	description, _ := doc.Find(`meta[name="description"]`).First().Attr("content")

	return &entity.PageSignals{
		Title:           collapseSpace(doc.Find("title").First().Text()),
		H1:              strings.TrimSpace(doc.Find("h1").First().Text()),
		MetaDescription: description,
		WordCount:       utils.WordCount(bodyText),
		ContentHash:     utils.ContentHash(bodyText),
	}, nil
}

// collapseSpace mirrors document.title, which strips and collapses whitespace.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
