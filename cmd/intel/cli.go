package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/ingest"
	"github.com/fwojciec/intel/source"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Articles intel.ArticleService
	Pipeline *ingest.Pipeline
	Sources  *source.Registry

	// Fetcher retrieves listing pages and feeds for discovery.
	Fetcher intel.Fetcher

	// Health is checked before any batch that calls the model. Nil skips the check.
	Health HealthChecker
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// HealthChecker reports whether the analysis backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB       string `name:"db" env:"INTEL_DB" default:"${db_path}" help:"SQLite database path"`
	Store    string `env:"INTEL_STORE" enum:"sqlite,mongo" default:"sqlite" help:"Record store (sqlite|mongo)"`
	MongoURL string `name:"mongo-url" env:"MONGODB_URL" default:"mongodb://localhost:27017" help:"MongoDB connection string"`
	MongoDB  string `name:"mongo-db" env:"MONGODB_DATABASE" default:"intel" help:"MongoDB database name"`

	LLM             string        `name:"llm" env:"INTEL_LLM" enum:"ollama,gemini" default:"ollama" help:"Analysis backend (ollama|gemini)"`
	LLMURL          string        `name:"llm-url" env:"LLM_SERVICE_URL" default:"http://localhost:11434" help:"Ollama base URL"`
	Model           string        `env:"LLM_MODEL" default:"llama3" help:"Model name"`
	AnalyzerTimeout time.Duration `env:"ANALYZER_TIMEOUT" default:"30s" help:"Timeout for one model call"`
	MaxContent      int           `name:"max-content" env:"ANALYZER_MAX_CONTENT_LENGTH" default:"10000" help:"Maximum characters sent for analysis"`
	GeminiAPIKey    string        `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key"`

	Sources        string        `env:"INTEL_SOURCES" type:"path" help:"Source registry YAML file"`
	ScraperTimeout time.Duration `env:"SCRAPER_TIMEOUT" default:"30s" help:"Timeout for one page fetch"`
	Render         bool          `default:"true" negatable:"" help:"Enable the browser render fallback"`
	Concurrency    int           `short:"c" default:"4" help:"URLs processed at once"`
	LogLevel       string        `env:"LOG_LEVEL" enum:"debug,info,warn,error" default:"warn" help:"Log level (debug|info|warn|error)"`

	Process  ProcessCmd  `cmd:"" help:"Fetch and analyze article URLs"`
	Discover DiscoverCmd `cmd:"" help:"Discover article URLs on a listing page or feed"`
	Resume   ResumeCmd   `cmd:"" help:"Analyze articles left pending by an interrupted run"`
	List     ListCmd     `cmd:"" help:"List analyzed articles"`
	Show     ShowCmd     `cmd:"" help:"Show one article"`
	Stats    StatsCmd    `cmd:"" help:"Show article statistics"`
}

// ProcessCmd is the "process" subcommand.
type ProcessCmd struct {
	URLs   []string `arg:"" name:"url" help:"Article URLs"`
	Report string   `type:"path" help:"Write a JSON batch report to this file"`
	JSON   bool     `help:"Print results as JSON"`
}

// DiscoverCmd is the "discover" subcommand.
type DiscoverCmd struct {
	URL     string `arg:"" optional:"" help:"Listing page or feed URL (defaults to the source's own)"`
	Source  string `short:"s" default:"nvidia" help:"Source ID used when no URL is given"`
	Feed    bool   `help:"Treat the URL as an RSS or Atom feed"`
	Process bool   `help:"Process the discovered URLs"`
	Report  string `type:"path" help:"Write a JSON batch report to this file (with --process)"`
	JSON    bool   `help:"Print results as JSON"`
}

// ResumeCmd is the "resume" subcommand.
type ResumeCmd struct {
	Report string `type:"path" help:"Write a JSON batch report to this file"`
	JSON   bool   `help:"Print results as JSON"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Page           int    `default:"1" help:"Page number"`
	PageSize       int    `default:"20" help:"Articles per page (max 100)"`
	Classification string `help:"Filter by classification"`
	MinSentiment   int    `help:"Minimum sentiment score (1-10)"`
	MaxSentiment   int    `help:"Maximum sentiment score (1-10)"`
	From           string `help:"Published on or after (YYYY-MM-DD or RFC3339)"`
	To             string `help:"Published on or before (YYYY-MM-DD or RFC3339)"`
	Source         string `help:"Filter by source name"`
	Search         string `short:"q" help:"Full-text search"`
	JSON           bool   `help:"Print results as JSON"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID   string `arg:"" help:"Article ID"`
	JSON bool   `help:"Print the article as JSON"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct {
	JSON bool `help:"Print statistics as JSON"`
}
