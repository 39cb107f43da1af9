package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/cpbrules"
	"github.com/fwojciec/cpbrules/fs"
	"github.com/fwojciec/cpbrules/gemini"
	"github.com/fwojciec/cpbrules/goquery"
	cpbhttp "github.com/fwojciec/cpbrules/http"
	"github.com/fwojciec/cpbrules/koanf"
	"github.com/fwojciec/cpbrules/openai"
	"github.com/fwojciec/cpbrules/pipeline"
	"github.com/fwojciec/cpbrules/prometheus"
	"github.com/fwojciec/cpbrules/rod"
	cpbslog "github.com/fwojciec/cpbrules/slog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	Stdin io.Reader

	// Services for end-to-end testing. When nil, Run builds them from the
	// configuration.
	Fetcher   cpbrules.Fetcher
	Completer cpbrules.Completer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Stdin: os.Stdin}
}

// Run executes the CLI with the given arguments. Errors are reported on
// stderr as a single line before being returned.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	err := m.run(ctx, args, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", FormatError(err))
	}
	return err
}

func (m *Main) run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("cpbrules"),
		kong.Description("Extract structured coverage rules from clinical policy bulletins."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'cpbrules --help' to see available commands")
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

	cfg, err := koanf.LoadConfig(cli.Config)
	if err != nil {
		return err
	}
	cli.apply(cfg)
	if cmd == "batch" && cli.Batch.Concurrency != 0 {
		cfg.Concurrency = cli.Batch.Concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	deps.Config = cfg
	deps.Validator = cpbrules.Validator{Strict: cfg.Strict}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	if cmd == "validate" {
		return kongCtx.Run(deps)
	}

	var metrics *prometheus.Metrics
	if cli.MetricsFile != "" {
		metrics = prometheus.NewMetrics()
		defer func() {
			if err := metrics.WriteTextfile(cli.MetricsFile); err != nil {
				logger.Error("failed to write metrics", "path", cli.MetricsFile, "err", err)
			}
		}()
	}

	fetcher, err := m.fetcher(cfg, stderr)
	if err != nil {
		return err
	}
	defer fetcher.Close()

	p := &pipeline.Pipeline{
		Fetcher:     cpbslog.NewLoggingFetcher(fetcher, logger),
		Extractor:   cpbslog.NewLoggingExtractor(goquery.NewSectionExtractor(), logger),
		Section:     cfg.Section,
		RateLimiter: pipeline.NewDomainLimiter(cfg.RateLimit),
		RetryDelays: pipeline.DefaultRetryDelays(),
		OnRetry: func(url string, attempt int, err error) {
			logger.Warn("retrying fetch", "url", url, "attempt", attempt, "err", err)
		},
		OnStage: func(req *cpbrules.PolicyRequest, stage cpbrules.Stage) {
			logger.Debug("stage", "url", req.URL, "stage", stage)
		},
	}
	deps.Sections = p

	if cmd == "extract" || cmd == "batch" {
		transformer, err := m.transformer(ctx, cfg, logger, metrics, stderr)
		if err != nil {
			return err
		}
		p.Transformer = transformer

		var runner cpbrules.Runner = p
		if metrics != nil {
			runner = metrics.InstrumentRunner(runner)
		}
		deps.Runner = cpbslog.NewLoggingRunner(runner, logger)
	}

	if cmd == "batch" {
		deps.Writer = fs.NewWriter(cli.Batch.Out)
	}

	return kongCtx.Run(deps)
}

// fetcher returns the page fetcher selected by cfg.
func (m *Main) fetcher(cfg *cpbrules.Config, stderr io.Writer) (cpbrules.Fetcher, error) {
	if m.Fetcher != nil {
		return m.Fetcher, nil
	}
	if !cfg.Browser {
		return cpbhttp.NewFetcher(
			cpbhttp.WithTimeout(cfg.FetchTimeout),
			cpbhttp.WithUserAgent(cfg.UserAgent),
		), nil
	}
	f, err := rod.NewFetcher(
		rod.WithFetchTimeout(cfg.FetchTimeout),
		rod.WithUserAgent(cfg.UserAgent),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --browser")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return f, nil
}

// transformer returns the language model transformer selected by cfg.
func (m *Main) transformer(ctx context.Context, cfg *cpbrules.Config, logger *slog.Logger, metrics *prometheus.Metrics, stderr io.Writer) (*pipeline.Transformer, error) {
	completer := m.Completer
	if completer == nil {
		var err error
		if completer, err = newCompleter(ctx, cfg); err != nil {
			if cpbrules.ErrorCode(err) == cpbrules.EINVALID && cfg.APIKey == "" {
				fmt.Fprintf(stderr, "Hint: Set %s or api_key in the config file\n", cfg.APIKeyEnv())
			}
			return nil, err
		}
	}
	completer = cpbslog.NewLoggingCompleter(completer, logger)
	if metrics != nil {
		completer = metrics.InstrumentCompleter(completer)
	}

	t := &pipeline.Transformer{
		Completer:   completer,
		Validator:   cpbrules.Validator{Strict: cfg.Strict},
		MaxAttempts: cfg.Attempts,
		Timeout:     cfg.CompletionTimeout,
	}
	if cfg.MaxPromptTokens > 0 {
		counter, err := newTokenCounter(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		t.TokenCounter = counter
		t.MaxPromptTokens = cfg.MaxPromptTokens
	}
	return t, nil
}

func newCompleter(ctx context.Context, cfg *cpbrules.Config) (cpbrules.Completer, error) {
	switch cfg.Provider {
	case cpbrules.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return gemini.NewCompleter(client, cfg.ResolveModel()), nil
	default:
		llm, err := openai.NewLLM(cfg.APIKey, cfg.ResolveModel())
		if err != nil {
			return nil, err
		}
		return openai.NewCompleter(llm), nil
	}
}

// newTokenCounter returns a local tokenizer for the prompt budget. OpenAI
// prompts are measured with the default Gemini vocabulary, which is close
// enough for a size guard.
func newTokenCounter(cfg *cpbrules.Config) (cpbrules.TokenCounter, error) {
	model := cpbrules.DefaultGeminiModel
	if cfg.Provider == cpbrules.ProviderGemini {
		model = cfg.ResolveModel()
	}
	counter, err := gemini.NewTokenCounter(model)
	if err != nil {
		return nil, err
	}
	return counter, nil
}

// FormatError renders err as a single human-readable line, prefixed with
// the pipeline stage it failed at when known.
func FormatError(err error) string {
	var (
		e   *cpbrules.Error
		se  *cpbrules.StageError
		msg string
	)
	switch {
	case errors.As(err, &e):
		msg = e.Message
	case errors.As(err, &se):
		msg = se.Err.Error()
	default:
		msg = err.Error()
	}
	if stage := cpbrules.ErrorStage(err); stage != "" {
		return fmt.Sprintf("%s failed: %s", stage, msg)
	}
	return msg
}
