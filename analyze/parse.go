package analyze

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/fwojciec/intel"
)

// response mirrors the expected model output. Pointers distinguish missing
// or null fields from zero values.
type response struct {
	Summary        *string            `json:"summary"`
	Entities       *[]json.RawMessage `json:"entities"`
	Classification *string            `json:"classification"`
	SentimentScore json.RawMessage    `json:"sentimentScore"`
}

type entity struct {
	Text     *string         `json:"text"`
	Type     *string         `json:"type"`
	Mentions json.RawMessage `json:"mentions"`
}

// parsed is a schema-valid analysis without timing fields, plus the repairs
// applied to reach it.
type parsed struct {
	result   *intel.AnalysisResult
	warnings []string
}

// extractJSON returns the text between the first '{' and the last '}'.
func extractJSON(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return raw[start : end+1], nil
}

// parseResponse decodes and validates raw model output. Unknown entity types
// and over-long summaries are repaired and reported as warnings; every other
// rule violation is an error.
func parseResponse(raw string) (*parsed, error) {
	obj, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	p := &parsed{result: &intel.AnalysisResult{}}

	if resp.Summary == nil {
		return nil, fmt.Errorf("summary missing")
	}
	summary := strings.TrimSpace(*resp.Summary)
	if summary == "" {
		return nil, fmt.Errorf("summary empty")
	}
	if n := len([]rune(summary)); n > intel.MaxSummaryLength {
		summary = truncateSummary(summary, intel.MaxSummaryLength)
		p.warnings = append(p.warnings, fmt.Sprintf("summary truncated from %d characters", n))
	}
	p.result.Summary = summary

	if resp.Classification == nil {
		return nil, fmt.Errorf("classification missing")
	}
	classification := intel.Classification(*resp.Classification)
	if !classification.Valid() {
		return nil, fmt.Errorf("classification %q not allowed", *resp.Classification)
	}
	p.result.Classification = classification

	score, err := parseInteger(resp.SentimentScore)
	if err != nil {
		return nil, fmt.Errorf("sentimentScore: %w", err)
	}
	if score < intel.MinSentimentScore || score > intel.MaxSentimentScore {
		return nil, fmt.Errorf("sentimentScore %d outside [%d,%d]", score, intel.MinSentimentScore, intel.MaxSentimentScore)
	}
	p.result.SentimentScore = score

	if resp.Entities == nil {
		return nil, fmt.Errorf("entities missing")
	}
	p.result.Entities = make([]intel.Entity, 0, len(*resp.Entities))
	for i, rawEntity := range *resp.Entities {
		var e entity
		if err := json.Unmarshal(rawEntity, &e); err != nil {
			return nil, fmt.Errorf("entities[%d] malformed: %w", i, err)
		}
		if e.Type == nil {
			return nil, fmt.Errorf("entities[%d] type missing", i)
		}

		typ := intel.EntityType(strings.ToLower(strings.TrimSpace(*e.Type)))
		if !typ.Valid() {
			p.warnings = append(p.warnings, fmt.Sprintf("dropped entity with unknown type %q", *e.Type))
			continue
		}
		var text string
		if e.Text != nil {
			text = strings.TrimSpace(*e.Text)
		}
		if text == "" {
			return nil, fmt.Errorf("entities[%d] text empty", i)
		}
		mentions, err := parseInteger(e.Mentions)
		if err != nil {
			return nil, fmt.Errorf("entities[%d] mentions: %w", i, err)
		}
		if mentions < 1 {
			return nil, fmt.Errorf("entities[%d] mentions %d below 1", i, mentions)
		}

		p.result.Entities = append(p.result.Entities, intel.Entity{
			Text:     text,
			Type:     typ,
			Mentions: mentions,
		})
	}

	return p, nil
}

// parseInteger accepts a JSON number with no fractional part.
// Strings, fractions and null are rejected.
func parseInteger(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("missing")
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %s", raw)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("out of range: %s", raw)
	}
	return int(f), nil
}

// truncateSummary shortens s to at most limit characters, cutting after the
// last sentence terminator inside the limit. Without one, it cuts at a word
// boundary.
func truncateSummary(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	head := runes[:limit]
	for i := len(head) - 1; i > 0; i-- {
		switch head[i] {
		case '.', '!', '?':
			if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
				return string(head[:i+1])
			}
		}
	}
	out, _ := intel.TruncateWords(s, limit)
	return out
}
