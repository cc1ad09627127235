package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/intel"
	"github.com/fwojciec/intel/analyze"
	"github.com/fwojciec/intel/gemini"
	intelhttp "github.com/fwojciec/intel/http"
	"github.com/fwojciec/intel/ingest"
	"github.com/fwojciec/intel/mongo"
	"github.com/fwojciec/intel/ollama"
	"github.com/fwojciec/intel/readability"
	"github.com/fwojciec/intel/rod"
	intelslog "github.com/fwojciec/intel/slog"
	"github.com/fwojciec/intel/source"
	"github.com/fwojciec/intel/sqlite"
	"github.com/fwojciec/intel/trafilatura"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	m.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Services for end-to-end testing. Set before calling Run() to skip
	// opening a store.
	ArticleService intel.ArticleService

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close releases the store and fetchers opened by Run.
func (m *Main) Close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("intel"),
		kong.Description("Extract, analyze and query news articles"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{"db_path": defaultDBPath()},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'intel --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	logger := newLogger(stderr, cli.LogLevel)
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	deps.Articles = m.ArticleService
	if deps.Articles == nil {
		articles, err := m.openStore(ctx, cli, stderr)
		if err != nil {
			return err
		}
		deps.Articles = articles
	}

	if needsFetch(cmd, cli) {
		deps.Fetcher = intelslog.NewLoggingFetcher(intelhttp.NewFetcher(intelhttp.WithTimeout(cli.ScraperTimeout)), logger)

		cfg, err := source.LoadConfig(cli.Sources)
		if err != nil {
			return fmt.Errorf("failed to load sources: %w", err)
		}
		strategies := source.Strategies{
			Fetcher:   deps.Fetcher,
			Extractor: trafilatura.NewExtractor(),
			Limiter:   source.NewDomainLimiter(1.0),
			Logger:    logger,
		}
		if cli.Render && needsPipeline(cmd, cli) {
			renderer, err := rod.NewFetcher(rod.WithFetchTimeout(cli.ScraperTimeout))
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for the render fallback; use --no-render to disable it")
				logger.Warn("render fallback disabled", "err", err)
			} else {
				m.closers = append(m.closers, renderer.Close)
				strategies.RenderFetcher = intelslog.NewLoggingFetcher(renderer, logger)
				strategies.RenderExtractor = readability.NewExtractor()
			}
		}
		deps.Sources, err = source.NewRegistryFromConfig(cfg, strategies)
		if err != nil {
			return fmt.Errorf("failed to build source registry: %w", err)
		}
	}

	if needsPipeline(cmd, cli) {
		completer, model, health, err := newCompleter(ctx, cli)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Set GEMINI_API_KEY or use --llm ollama")
			return err
		}
		deps.Health = health

		analyzer := analyze.New(intelslog.NewLoggingCompleter(completer, logger), analyze.Config{
			Model:   model,
			Timeout: cli.AnalyzerTimeout,
		}, logger)

		deps.Pipeline = &ingest.Pipeline{
			Articles:    deps.Articles,
			Sources:     intelslog.NewLoggingSourceRegistry(deps.Sources, logger),
			Analyzer:    intelslog.NewLoggingAnalyzer(analyzer, logger),
			InputBudget: cli.MaxContent,
			Concurrency: cli.Concurrency,
			Progress:    progressPrinter(stderr),
			Logger:      logger,
		}
	}

	return kongCtx.Run(deps)
}

// openStore opens the configured record store and registers its closer.
func (m *Main) openStore(ctx context.Context, cli *CLI, stderr io.Writer) (intel.ArticleService, error) {
	switch cli.Store {
	case "mongo":
		db := mongo.NewDB(cli.MongoURL, cli.MongoDB)
		if err := db.Open(ctx); err != nil {
			fmt.Fprintf(stderr, "Hint: Set MONGODB_URL to use a different server\n")
			return nil, fmt.Errorf("failed to open mongodb at %q: %w", cli.MongoURL, err)
		}
		m.closers = append(m.closers, func() error { return db.Close(context.Background()) })
		return mongo.NewArticleService(db), nil
	default:
		if cli.DB != ":memory:" {
			_ = os.MkdirAll(filepath.Dir(cli.DB), 0755)
		}
		db := sqlite.NewDB(cli.DB)
		if err := db.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set INTEL_DB to use a different database path\n")
			return nil, fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
		}
		m.closers = append(m.closers, db.Close)
		return sqlite.NewArticleService(db), nil
	}
}

// newCompleter returns the configured model backend, the model name to use
// with it and its health check, if it has one.
func newCompleter(ctx context.Context, cli *CLI) (intel.Completer, string, HealthChecker, error) {
	switch cli.LLM {
	case "gemini":
		if cli.GeminiAPIKey == "" {
			return nil, "", nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cli.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, "", nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		model := cli.Model
		if model == analyze.DefaultModel {
			model = ""
		}
		c := gemini.NewCompleter(client, model)
		return c, c.Model(), nil, nil
	default:
		client := ollama.NewClient(ollama.Config{BaseURL: cli.LLMURL})
		return client, cli.Model, client, nil
	}
}

func needsPipeline(cmd string, cli *CLI) bool {
	return cmd == "process" || cmd == "resume" || (cmd == "discover" && cli.Discover.Process)
}

func needsFetch(cmd string, cli *CLI) bool {
	return cmd == "discover" || needsPipeline(cmd, cli)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// progressPrinter writes one line per finished URL.
func progressPrinter(w io.Writer) ingest.ProgressFunc {
	return func(e ingest.ProgressEvent) {
		fmt.Fprintf(w, "[%d/%d] %-8s %s\n", e.Completed, e.Total, outcomeLabel(e.Outcome), e.Outcome.URL)
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "intel.db"
	}
	return filepath.Join(home, ".intel", "intel.db")
}
