// Package gemini implements intel.Completer on the Google Gemini API.
package gemini

import (
	"context"

	"github.com/fwojciec/intel"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the completer nor the request name one.
const DefaultModel = "gemini-2.5-flash"

// Sampling parameters. Analysis output should be deterministic.
const (
	temperature = 0.1
	topP        = 0.9
)

// Ensure Completer implements intel.Completer at compile time.
var _ intel.Completer = (*Completer)(nil)

// Completer implements intel.Completer using Google Gemini.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a new Completer. An empty model selects DefaultModel.
func NewCompleter(client *genai.Client, model string) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{client: client, model: model}
}

// Complete sends the prompt to Gemini and returns the response text.
// API failures are reported with EUNAVAILABLE.
func (c *Completer) Complete(ctx context.Context, req intel.CompletionRequest) (string, error) {
	if req.Prompt == "" {
		return "", intel.Errorf(intel.EINVALID, "prompt required")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), BuildConfig(req))
	if err != nil {
		return "", intel.Errorf(intel.EUNAVAILABLE, "gemini: %v", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", intel.Errorf(intel.EUNAVAILABLE, "gemini returned no candidates")
	}

	return result.Text(), nil
}

// Model returns the model used for requests that do not name one.
func (c *Completer) Model() string {
	return c.model
}

// BuildConfig returns the GenerateContentConfig for a completion request.
func BuildConfig(req intel.CompletionRequest) *genai.GenerateContentConfig {
	temp := float32(temperature)
	p := float32(topP)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
		TopP:        &p,
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}
	return config
}
