package intel

import (
	"context"
	"strings"
	"time"
)

// Classification is the category assigned to an analyzed article.
type Classification string

// Supported classifications.
const (
	ClassificationCompetitiveNews Classification = "competitive_news"
	ClassificationPersonnelChange Classification = "personnel_change"
	ClassificationProductLaunch   Classification = "product_launch"
	ClassificationMarketTrend     Classification = "market_trend"
)

// Classifications lists every supported classification.
func Classifications() []Classification {
	return []Classification{
		ClassificationCompetitiveNews,
		ClassificationPersonnelChange,
		ClassificationProductLaunch,
		ClassificationMarketTrend,
	}
}

// Valid reports whether c is one of the supported literals.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationCompetitiveNews, ClassificationPersonnelChange,
		ClassificationProductLaunch, ClassificationMarketTrend:
		return true
	}
	return false
}

// EntityType is the kind of a named entity.
type EntityType string

// Supported entity types.
const (
	EntityCompany    EntityType = "company"
	EntityPerson     EntityType = "person"
	EntityProduct    EntityType = "product"
	EntityTechnology EntityType = "technology"
)

// Valid reports whether t is one of the supported literals.
func (t EntityType) Valid() bool {
	switch t {
	case EntityCompany, EntityPerson, EntityProduct, EntityTechnology:
		return true
	}
	return false
}

// Entity is a named entity mentioned in an article.
type Entity struct {
	Text     string     `json:"text"`
	Type     EntityType `json:"type"`
	Mentions int        `json:"mentions"`
}

// Sentiment score bounds and summary limit.
const (
	MinSentimentScore = 1
	MaxSentimentScore = 10
	MaxSummaryLength  = 500
)

// AnalysisResult is the validated output of a single analysis call.
type AnalysisResult struct {
	Entities              []Entity       `json:"entities"`
	Summary               string         `json:"summary"`
	Classification        Classification `json:"classification"`
	SentimentScore        int            `json:"sentimentScore"`
	Model                 string         `json:"model"`
	ProcessingTimeSeconds float64        `json:"processingTimeSeconds"`
	AnalyzedAt            time.Time      `json:"analyzedAt"`
}

// Validate returns an error if the result breaks any schema rule.
func (r *AnalysisResult) Validate() error {
	if r.Entities == nil {
		return Errorf(EINVALID, "entities required")
	}
	for _, e := range r.Entities {
		if !e.Type.Valid() {
			return Errorf(EINVALID, "entity %q has invalid type %q", e.Text, e.Type)
		}
		if e.Mentions < 1 {
			return Errorf(EINVALID, "entity %q mentions must be at least 1", e.Text)
		}
	}
	if strings.TrimSpace(r.Summary) == "" {
		return Errorf(EINVALID, "summary required")
	}
	if len([]rune(r.Summary)) > MaxSummaryLength {
		return Errorf(EINVALID, "summary exceeds %d characters", MaxSummaryLength)
	}
	if !r.Classification.Valid() {
		return Errorf(EINVALID, "classification %q invalid", r.Classification)
	}
	if r.SentimentScore < MinSentimentScore || r.SentimentScore > MaxSentimentScore {
		return Errorf(EINVALID, "sentiment score %d out of range", r.SentimentScore)
	}
	if r.ProcessingTimeSeconds < 0 {
		return Errorf(EINVALID, "processing time must not be negative")
	}
	return nil
}

// Analyzer produces a structured analysis of an extracted document.
type Analyzer interface {
	// Analyze returns a validated result or an error coded EUNAVAILABLE,
	// EINVALIDRESPONSE or ECANCELED.
	Analyze(ctx context.Context, doc *ExtractedDocument) (*AnalysisResult, error)
}

// CompletionRequest is a single prompt sent to a language model.
type CompletionRequest struct {
	Model  string
	System string
	Prompt string

	// JSON asks the model to emit a single JSON object and nothing else.
	JSON bool
}

// Completer is a text-completion endpoint.
type Completer interface {
	// Complete returns the raw model output for the request.
	// Connectivity failures are reported with EUNAVAILABLE.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
