package entity

// PageSignals is the fingerprint of a rendered page, matching what the loader script posts.
type PageSignals struct {
	Title           string `json:"title"`
	H1              string `json:"h1"`
	MetaDescription string `json:"meta_description"`
	WordCount       int    `json:"word_count"`
	ContentHash     string `json:"content_hash"`
	HTTPStatusCode  int    `json:"-"`
	ResponseTimeMS  int    `json:"-"`
}
