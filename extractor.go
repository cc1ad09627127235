package intel

import "time"

// ExtractResult holds the readable text extracted from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// Text is the main content as plain text.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	Text string

	// PublishDate is the publication date found in page metadata, if any.
	PublishDate time.Time
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content as text.
	// pageURL is used to resolve relative references and may be empty.
	Extract(html string, pageURL string) (*ExtractResult, error)
}
