package analyze

import (
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/intel"
)

// SystemPrompt instructs the model to return a single JSON analysis object.
const SystemPrompt = `You are an expert analyst for enterprise competitive intelligence.
Your task is to analyze news articles and extract key information in a structured format.

You must respond with ONLY valid JSON matching this exact schema:
{
  "summary": "string (20-500 characters)",
  "entities": [
    {
      "text": "string",
      "type": "company|person|product|technology",
      "mentions": integer (>= 1)
    }
  ],
  "classification": "competitive_news|personnel_change|product_launch|market_trend",
  "sentimentScore": integer (1-10)
}

Guidelines:
- summary: Concise 1-2 sentence summary of the article
- entities: Extract up to 10 most important entities (companies, people, products, technologies)
- classification: Choose ONE that best fits the article
- sentimentScore: 1=very negative, 5=neutral, 10=very positive

Respond with ONLY the JSON object, no additional text.`

// BuildUserPrompt builds the user prompt for a document.
func BuildUserPrompt(doc *intel.ExtractedDocument) string {
	title := doc.Title
	if title == "" {
		title = doc.URL
	}

	var sb strings.Builder
	sb.WriteString("Analyze this article:\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", title)
	fmt.Fprintf(&sb, "URL: %s\n", doc.URL)
	if !doc.PublishDate.IsZero() {
		fmt.Fprintf(&sb, "Published: %s\n", doc.PublishDate.UTC().Format(time.RFC3339))
	}
	sb.WriteString("\nContent:\n")
	sb.WriteString(doc.CleanedText)
	sb.WriteString("\n\nProvide your analysis as a JSON object following the schema provided.")
	return sb.String()
}
