package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"text/template"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"jobscout/internal/config"
	"jobscout/internal/enrich"
	"jobscout/internal/extract"
	"jobscout/internal/fetch"
	"jobscout/internal/filter"
	"jobscout/internal/model"
	"jobscout/internal/notify"
	"jobscout/internal/pipeline"
	"jobscout/internal/ratelimit"
	"jobscout/internal/retry"
	"jobscout/internal/secrets"
	"jobscout/internal/state"
)

var (
	cfgPath string
	debug   bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "jobscout",
	Short: "Job posting radar — hear about new listings once",
	Long:  "Jobscout scans configured listing sources, remembers every posting it has handled, and notifies you about the ones it has never seen before.",
	// Default to `run` so that `jobscout` with no args does one cycle.
	// This keeps cron entries that invoke the binary directly working.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file, with rotation")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml".
// A .env in the working directory is folded into the environment first so
// ${VAR} references in the config can draw on it.
func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()
	if path == "" {
		if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool, logFile string) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}

	var w io.Writer = os.Stdout
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "cannot create log directory: %v\n", err)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 5,
				MaxAge:     30, // days
				Compress:   true,
			}
			w = io.MultiWriter(os.Stdout, rotator)
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// setupNotifier builds the configured notification channel. A missing ntfy
// topic downgrades to the log notifier with a warning; new postings still
// show up in the run output rather than being lost.
func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "ntfy":
		topic := cfg.Notification.Topic
		if topic == "" {
			t, err := secrets.Resolve(secrets.NtfyTopic)
			if err != nil {
				logger.Warn("ntfy topic unavailable, notifying to the log instead", "error", err)
				return notify.NewLogNotifier(logger)
			}
			topic = t
		}
		logger.Info("using ntfy notifier", "server", cfg.Notification.Server, "digest", cfg.Notification.Digest)
		return notify.NewNtfyNotifier(cfg.Notification.Server, topic, cfg.Notification.Digest, httpClient, logger)
	default:
		return notify.NewLogNotifier(logger)
	}
}

// setupEnricher builds the configured relevance scorer. A provider whose API
// key cannot be resolved downgrades to the no-op enricher with a warning, so
// a host without credentials still discovers and notifies.
func setupEnricher(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (pipeline.Enricher, error) {
	ecfg := cfg.Enrichment
	if ecfg.Provider == "none" {
		return enrich.NewNop(), nil
	}

	// A nil template makes the provider fall back to its built-in prompt.
	var tmpl *template.Template
	if ecfg.Prompt != "" {
		data, err := os.ReadFile(ecfg.Prompt)
		if err != nil {
			return nil, fmt.Errorf("read prompt override: %w", err)
		}
		tmpl, err = template.New(filepath.Base(ecfg.Prompt)).Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse prompt override: %w", err)
		}
	}

	var inner enrich.Enricher
	switch ecfg.Provider {
	case "gemini":
		apiKey, ok := resolveAPIKey(ecfg.APIKey, secrets.GeminiAPIKey, logger)
		if !ok {
			return enrich.NewNop(), nil
		}
		inner = enrich.NewGemini(apiKey, ecfg.BaseURL, ecfg.Model, tmpl, httpClient)
	case "openai":
		apiKey, ok := resolveAPIKey(ecfg.APIKey, secrets.OpenAIAPIKey, logger)
		if !ok {
			return enrich.NewNop(), nil
		}
		inner = enrich.NewOpenAI(apiKey, ecfg.BaseURL, ecfg.Model, tmpl)
	default:
		return nil, fmt.Errorf("unsupported enrichment provider %q", ecfg.Provider)
	}

	logger.Info("using enricher", "provider", ecfg.Provider, "model", ecfg.Model, "requests_per_minute", ecfg.RequestsPerMinute)
	return enrich.NewPaced(inner, ecfg.RequestsPerMinute), nil
}

// resolveAPIKey returns the key from the config, the environment, or the
// keychain, reporting false when none of them has it.
func resolveAPIKey(configured, secretName string, logger *slog.Logger) (string, bool) {
	if configured != "" {
		return configured, true
	}
	k, err := secrets.Resolve(secretName)
	if err != nil {
		logger.Warn("enrichment API key unavailable, postings will not be scored", "error", err)
		return "", false
	}
	return k, true
}

func buildExtractor(src config.SourceConfig) extract.Extractor {
	unstable := src.Identity == "title"
	switch src.Type {
	case "rss":
		return extract.NewRSSExtractor(src.Name, unstable)
	case "googlesearch":
		return extract.NewGoogleExtractor(src.Name)
	default:
		return extract.NewHTMLExtractor(src.Name, extract.Schema{
			Item:     src.Schema.Item,
			Title:    src.Schema.Title,
			Link:     src.Schema.Link,
			LinkAttr: src.Schema.LinkAttr,
			Company:  src.Schema.Company,
			Summary:  src.Schema.Summary,
		}, unstable)
	}
}

func buildSources(cfg *config.Config, limiter *ratelimit.HostLimiter, httpClient *http.Client, logger *slog.Logger) []pipeline.Source {
	var sources []pipeline.Source
	for _, src := range cfg.EnabledSources() {
		var fetcher model.PageFetcher = fetch.NewClient(httpClient, cfg.Fetch.UserAgent, src.Headers)
		fetcher = ratelimit.NewFetcher(fetcher, limiter)
		fetcher = retry.NewFetcher(fetcher, cfg.Fetch.Retries, cfg.Fetch.RetryDelay, logger)

		sources = append(sources, pipeline.Source{
			Name:      src.Name,
			URL:       src.URL,
			Fetcher:   fetcher,
			Extractor: buildExtractor(src),
		})
		logger.Info("registered source", "name", src.Name, "type", src.Type)
	}
	return sources
}

func buildRunner(cfg *config.Config, st state.Store, notifier model.Notifier, seedOnEmpty bool, httpClient *http.Client, logger *slog.Logger) (*pipeline.Runner, error) {
	// All fetching in a run shares one per-host limiter, so the politeness
	// gap holds across sources and hydration alike.
	limiter := ratelimit.NewHostLimiter(cfg.Fetch.HostDelay, cfg.Fetch.Burst)

	sources := buildSources(cfg, limiter, httpClient, logger)

	titleFilter := filter.NewTitleFilter(cfg.Filters.TitleKeywords, cfg.Filters.TitleExcludeKeywords)

	var pageFetcher model.PageFetcher = fetch.NewClient(httpClient, cfg.Fetch.UserAgent, nil)
	pageFetcher = ratelimit.NewFetcher(pageFetcher, limiter)
	pageFetcher = retry.NewFetcher(pageFetcher, cfg.Fetch.Retries, cfg.Fetch.RetryDelay, logger)
	hydrator := extract.NewHydrator(pageFetcher, logger)

	enricher, err := setupEnricher(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Concurrency:       cfg.Fetch.Concurrency,
		EnrichTimeout:     cfg.Enrichment.Timeout,
		EnrichConcurrency: cfg.Enrichment.Concurrency,
		SeedOnEmpty:       seedOnEmpty,
		Heartbeat:         cfg.Notification.Heartbeat,
	}
	return pipeline.NewRunner(sources, titleFilter, hydrator, enricher, notifier, st, opts, logger), nil
}
