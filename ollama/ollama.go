// Package ollama implements intel.Completer against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/intel"
)

// DefaultBaseURL is the address of a local Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// Sampling parameters sent with every request.
const (
	temperature = 0.1
	topP        = 0.9
)

// maxErrorBody caps how much of an error response is quoted.
const maxErrorBody = 1024

// Ensure Client implements intel.Completer at compile time.
var _ intel.Completer = (*Client)(nil)

// Config configures a Client.
type Config struct {
	// BaseURL is the server root. Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient sends requests. Defaults to a client without timeout;
	// callers bound each call with the request context.
	HTTPClient *http.Client
}

// Client talks to the Ollama HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client from config.
func NewClient(config Config) *Client {
	base := strings.TrimRight(config.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: base, http: hc}
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	System  string  `json:"system,omitempty"`
	Stream  bool    `json:"stream"`
	Format  string  `json:"format,omitempty"`
	Options options `json:"options"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Complete posts a non-streaming generate request and returns the model text.
// Transport failures and non-2xx responses are reported with EUNAVAILABLE.
func (c *Client) Complete(ctx context.Context, req intel.CompletionRequest) (string, error) {
	if req.Model == "" {
		return "", intel.Errorf(intel.EINVALID, "model required")
	}
	if req.Prompt == "" {
		return "", intel.Errorf(intel.EINVALID, "prompt required")
	}

	body := generateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		System:  req.System,
		Options: options{Temperature: temperature, TopP: topP},
	}
	if req.JSON {
		body.Format = "json"
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", intel.Errorf(intel.EINVALID, "invalid base URL %q: %v", c.baseURL, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", intel.Errorf(intel.EUNAVAILABLE, "ollama: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", intel.Errorf(intel.EUNAVAILABLE, "ollama: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", intel.Errorf(intel.EUNAVAILABLE, "ollama: decoding response: %v", err)
	}
	if out.Error != "" {
		return "", intel.Errorf(intel.EUNAVAILABLE, "ollama: %s", out.Error)
	}
	return out.Response, nil
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return intel.Errorf(intel.EINVALID, "invalid base URL %q: %v", c.baseURL, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return intel.Errorf(intel.EUNAVAILABLE, "ollama unreachable at %s: %v", c.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return intel.Errorf(intel.EUNAVAILABLE, "ollama unhealthy at %s: %s", c.baseURL, resp.Status)
	}
	return nil
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}
