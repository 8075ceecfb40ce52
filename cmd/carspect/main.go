package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AbhigyanVE/carspect"
	"github.com/AbhigyanVE/carspect/bloom"
	"github.com/AbhigyanVE/carspect/csv"
	"github.com/AbhigyanVE/carspect/extract"
	"github.com/AbhigyanVE/carspect/fs"
	"github.com/AbhigyanVE/carspect/gemini"
	"github.com/AbhigyanVE/carspect/goquery"
	"github.com/AbhigyanVE/carspect/hf"
	"github.com/AbhigyanVE/carspect/htmltomarkdown"
	carhttp "github.com/AbhigyanVE/carspect/http"
	"github.com/AbhigyanVE/carspect/openai"
	"github.com/AbhigyanVE/carspect/readability"
	"github.com/AbhigyanVE/carspect/rod"
	carslog "github.com/AbhigyanVE/carspect/slog"
	"github.com/AbhigyanVE/carspect/sqlite"
	"github.com/AbhigyanVE/carspect/trafilatura"
	"github.com/alecthomas/kong"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database backing the response cache.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("carspect"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'carspect --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	deps.Logger = logger

	switch cmd {
	case "extract", "serve":
		flags := cli.Extract.PipelineFlags
		if cmd == "serve" {
			flags = cli.Serve.PipelineFlags
		}
		service, cleanup, err := m.buildPipeline(ctx, &flags, logger, stderr)
		if err != nil {
			return err
		}
		defer cleanup()
		deps.Service = service
	case "cache":
		_, lister, err := m.openCache(cli.Cache.List.CSVCache, stderr)
		if err != nil {
			return err
		}
		defer m.Close()
		deps.DB = m.DB
		deps.Entries = lister
	}

	return kongCtx.Run(deps)
}

// buildPipeline assembles the extraction pipeline according to flags. The
// returned cleanup releases fetcher and database resources and must be called
// once the command finishes.
func (m *Main) buildPipeline(ctx context.Context, flags *PipelineFlags, logger *slog.Logger, stderr io.Writer) (carspect.ExtractService, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	opts := extract.DefaultOptions()
	opts.CacheEnabled = !flags.NoCache
	opts.UseLLMFallback = !flags.NoLLM
	opts.UseEntityEnrichment = !flags.NoNER
	opts.OverwriteWithLLM = flags.Overwrite

	pipeline := &extract.Pipeline{
		Rules:     goquery.NewExtractor(carspect.DefaultRuleConfig()),
		Converter: htmltomarkdown.NewConverter(),
		Limiter:   extract.NewDomainLimiter(flags.RPS),
		Logger:    logger,
	}

	switch flags.Sanitizer {
	case "readability":
		pipeline.Sanitizer = readability.NewSanitizer()
	case "trafilatura":
		pipeline.Sanitizer = trafilatura.NewSanitizer()
	default:
		pipeline.Sanitizer = goquery.NewSanitizer()
	}

	if flags.Browser {
		fetcher, err := rod.NewFetcher(nil)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		cleanups = append(cleanups, func() { _ = fetcher.Close() })
		pipeline.Fetcher = carslog.NewLoggingFetcher(fetcher, logger)
	} else {
		pipeline.Fetcher = carslog.NewLoggingFetcher(carhttp.NewFetcher(), logger)
	}

	if flags.Archive != "" {
		pipeline.Fetcher = fs.NewArchivingFetcher(pipeline.Fetcher, fs.NewArchive(flags.Archive), logger)
	}

	if opts.CacheEnabled {
		cache, _, err := m.openCache(flags.CSVCache, stderr)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { _ = m.Close() })

		// Bloom front sized for a single-operator cache; false positives
		// only cost one extra backing lookup.
		fastMiss, err := bloom.NewCache(cache, 100_000, 0.01)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to warm cache filter: %w", err)
		}
		pipeline.Cache = carslog.NewLoggingCache(fastMiss, logger)
	}

	if opts.UseEntityEnrichment {
		token := os.Getenv("HF_API_TOKEN")
		if token == "" {
			fmt.Fprintln(stderr, "HF_API_TOKEN not set, entity enrichment disabled")
			opts.UseEntityEnrichment = false
		} else {
			pipeline.Enricher = hf.NewEnricher(token)
		}
	}

	if opts.UseLLMFallback {
		filler, counter, err := newGapFiller(ctx, flags.Provider, stderr)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		pipeline.GapFiller = carslog.NewLoggingGapFiller(filler, logger)
		pipeline.Tokens = counter
	}

	pipeline.Options = opts
	return pipeline, cleanup, nil
}

// newGapFiller builds the LLM gap filler and a matching token counter for the
// chosen provider, reading credentials from the environment.
func newGapFiller(ctx context.Context, provider string, stderr io.Writer) (carspect.GapFiller, carspect.TokenCounter, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "OPENAI_API_KEY environment variable not set. Get an API key at https://platform.openai.com/api-keys")
			return nil, nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		counter, err := openai.NewTokenCounter(openai.DefaultModel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		return openai.NewGapFiller(apiKey), counter, nil
	default:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return nil, nil, fmt.Errorf("GEMINI_API_KEY not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		counter, err := gemini.NewTokenCounter(tokenizerModel)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		return gemini.NewGapFiller(client), counter, nil
	}
}

// openCache opens the configured cache backend: a CSV file when a path is
// given, the SQLite database otherwise.
func (m *Main) openCache(csvPath string, stderr io.Writer) (carspect.CacheService, carspect.EntryLister, error) {
	if csvPath != "" {
		cache := csv.NewCache(csvPath)
		return cache, cache, nil
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set CARSPECT_DB to use a different database path\n")
		return nil, nil, fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	cache := sqlite.NewCacheService(m.DB)
	return cache, cache, nil
}

// tokenizerModel is used for local token counting with the Gemini provider.
const tokenizerModel = "gemini-2.5-flash"

func defaultDBPath() string {
	if path := os.Getenv("CARSPECT_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "carspect.db"
	}
	dir := filepath.Join(home, ".carspect")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "carspect.db")
}
