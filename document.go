package intel

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Normalization limits.
const (
	// DefaultInputBudget is the default maximum number of characters sent to the model.
	DefaultInputBudget = 10000

	// MinContentLength is the minimum number of cleaned characters worth analyzing.
	MinContentLength = 50
)

// RawFetch is the text extracted from a page before normalization.
type RawFetch struct {
	URL              string
	Title            string
	BodyText         string
	ExtractionMethod string
	Source           string
	PublishDate      time.Time // zero if the page carried no date
	FetchedAt        time.Time
}

// ExtractedDocument is normalized article text ready for analysis.
// Values are produced by Normalize and must not be modified.
type ExtractedDocument struct {
	URL            string
	Title          string
	CleanedText    string
	Truncated      bool
	OriginalLength int // characters of cleaned text before truncation
	Method         string
	Source         string
	PublishDate    time.Time
	ExtractedAt    time.Time
}

// Normalize cleans the raw body text and enforces the input budget in characters.
// A budget <= 0 selects DefaultInputBudget. Returns ETOOSHORT when fewer than
// MinContentLength characters remain after cleaning. Normalize has no side
// effects: ExtractedAt is taken from raw.FetchedAt.
func Normalize(raw *RawFetch, budget int) (*ExtractedDocument, error) {
	if raw == nil {
		return nil, Errorf(EINVALID, "raw fetch required")
	}
	if budget <= 0 {
		budget = DefaultInputBudget
	}

	cleaned := CleanText(raw.BodyText)
	n := utf8.RuneCountInString(cleaned)
	if n < MinContentLength {
		return nil, Errorf(ETOOSHORT, "extracted text has %d characters, need at least %d", n, MinContentLength)
	}

	text, truncated := TruncateWords(cleaned, budget)

	publishDate := raw.PublishDate
	if publishDate.IsZero() {
		publishDate = raw.FetchedAt
	}

	return &ExtractedDocument{
		URL:            raw.URL,
		Title:          strings.Join(strings.Fields(raw.Title), " "),
		CleanedText:    text,
		Truncated:      truncated,
		OriginalLength: n,
		Method:         raw.ExtractionMethod,
		Source:         raw.Source,
		PublishDate:    publishDate,
		ExtractedAt:    raw.FetchedAt,
	}, nil
}

// CleanText normalizes line endings, collapses runs of horizontal whitespace
// to a single space, keeps at most one blank line between paragraphs and
// trims the result. CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	var b strings.Builder
	b.Grow(len(s))
	blank := 0
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, isHorizontalSpace), " ")
		if line == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			if blank > 0 {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		}
		blank = 0
		b.WriteString(line)
	}
	return b.String()
}

func isHorizontalSpace(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}

// TruncateWords returns the longest prefix of s with at most limit characters
// that ends at a word boundary, and whether s was shortened. Text with no
// whitespace inside the limit is cut at exactly limit characters.
func TruncateWords(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	if limit <= 0 {
		return "", true
	}

	runes := []rune(s)
	cut := limit
	if !unicode.IsSpace(runes[cut]) {
		i := cut
		for i > 0 && !unicode.IsSpace(runes[i-1]) {
			i--
		}
		if i > 0 {
			cut = i
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace), true
}
