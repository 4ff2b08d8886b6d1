package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobscout pipeline.
type Config struct {
	Interval     time.Duration // watch-mode run interval
	Sources      []SourceConfig
	Filters      FilterConfig
	Fetch        FetchConfig
	Enrichment   EnrichmentConfig
	Notification NotificationConfig
	State        StateConfig
}

// SourceConfig describes a single listing source.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"` // "html", "rss" or "googlesearch"
	URL      string            `yaml:"url"`
	Query    string            `yaml:"query"` // googlesearch only, built into URL
	Headers  map[string]string `yaml:"headers"`
	Enabled  bool              `yaml:"enabled"`
	Identity string            `yaml:"identity"` // "url" (default) or "title"
	Schema   SchemaConfig      `yaml:"schema"`
}

// SchemaConfig holds the CSS selectors an html source is parsed with.
type SchemaConfig struct {
	Item     string `yaml:"item"`
	Title    string `yaml:"title"`
	Link     string `yaml:"link"`
	LinkAttr string `yaml:"link_attr"` // defaults to href
	Company  string `yaml:"company"`
	Summary  string `yaml:"summary"`
}

// FilterConfig holds title keyword filter settings.
type FilterConfig struct {
	TitleKeywords        []string
	TitleExcludeKeywords []string
}

// FetchConfig controls HTTP fetching, retries, and politeness.
type FetchConfig struct {
	Timeout     time.Duration
	Retries     int
	RetryDelay  time.Duration
	Concurrency int           // concurrent sources
	HostDelay   time.Duration // minimum gap between requests to one host
	Burst       int
	UserAgent   string
}

// EnrichmentConfig controls the optional language-model scoring layer.
type EnrichmentConfig struct {
	Provider          string // "gemini", "openai" or "none"
	Model             string
	APIKey            string // expanded from env var by Load
	BaseURL           string
	Timeout           time.Duration // per-request timeout
	Concurrency       int
	RequestsPerMinute int
	Prompt            string // optional path to a prompt override
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type      string `yaml:"type"` // "ntfy" or "log"
	Server    string `yaml:"server"`
	Topic     string `yaml:"topic"`
	Digest    bool   `yaml:"digest"`    // one message per run instead of per posting
	Heartbeat bool   `yaml:"heartbeat"` // status message when nothing new was found
}

// StateConfig controls where and how the processed set is persisted.
type StateConfig struct {
	Backend     string // "file" or "sqlite"
	Path        string
	SeedOnEmpty bool // silently mark everything processed when state starts empty
	Lock        bool // guard runs with a lock file next to the state
}

const (
	defaultNtfyServer   = "https://ntfy.sh"
	defaultGeminiModel  = "gemini-2.0-flash"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultGoogleSearch = "https://www.google.com/search?q="

	// The original scraper identified as a desktop browser; Google serves
	// the parseable results page only to something that looks like one.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Interval     string             `yaml:"interval"`
	Sources      []SourceConfig     `yaml:"sources"`
	Filters      rawFilterConfig    `yaml:"filters"`
	Fetch        rawFetchConfig     `yaml:"fetch"`
	Enrichment   rawEnrichConfig    `yaml:"enrichment"`
	Notification NotificationConfig `yaml:"notification"`
	State        rawStateConfig     `yaml:"state"`
}

type rawFilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
}

type rawFetchConfig struct {
	Timeout     string `yaml:"timeout"`
	Retries     *int   `yaml:"retries"`
	RetryDelay  string `yaml:"retry_delay"`
	Concurrency int    `yaml:"concurrency"`
	HostDelay   string `yaml:"host_delay"`
	Burst       int    `yaml:"burst"`
	UserAgent   string `yaml:"user_agent"`
}

type rawEnrichConfig struct {
	Provider          string `yaml:"provider"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	Timeout           string `yaml:"timeout"`
	Concurrency       int    `yaml:"concurrency"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	Prompt            string `yaml:"prompt"`
}

type rawStateConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	SeedOnEmpty bool   `yaml:"seed_on_empty"`
	Lock        *bool  `yaml:"lock"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := 30 * time.Minute
	if raw.Interval != "" {
		interval, err = time.ParseDuration(raw.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse interval %q: %w", raw.Interval, err)
		}
	}

	fetchCfg, err := buildFetch(raw.Fetch)
	if err != nil {
		return nil, err
	}

	enrichCfg, err := buildEnrichment(raw.Enrichment)
	if err != nil {
		return nil, err
	}

	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}
	if notification.Server == "" {
		notification.Server = defaultNtfyServer
	}

	stateCfg := StateConfig{
		Backend:     raw.State.Backend,
		Path:        raw.State.Path,
		SeedOnEmpty: raw.State.SeedOnEmpty,
		Lock:        true,
	}
	if stateCfg.Backend == "" {
		stateCfg.Backend = "file"
	}
	if stateCfg.Path == "" {
		switch stateCfg.Backend {
		case "sqlite":
			stateCfg.Path = "jobscout.db"
		default:
			stateCfg.Path = "processed_postings.json"
		}
	}
	if raw.State.Lock != nil {
		stateCfg.Lock = *raw.State.Lock
	}

	sources := make([]SourceConfig, len(raw.Sources))
	for i, src := range raw.Sources {
		if src.Type == "googlesearch" && src.URL == "" && src.Query != "" {
			src.URL = defaultGoogleSearch + url.QueryEscape(src.Query)
		}
		if src.Schema.LinkAttr == "" {
			src.Schema.LinkAttr = "href"
		}
		if src.Identity == "" {
			src.Identity = "url"
		}
		sources[i] = src
	}

	cfg := &Config{
		Interval: interval,
		Sources:  sources,
		Filters: FilterConfig{
			TitleKeywords:        raw.Filters.TitleKeywords,
			TitleExcludeKeywords: raw.Filters.TitleExcludeKeywords,
		},
		Fetch:        fetchCfg,
		Enrichment:   enrichCfg,
		Notification: notification,
		State:        stateCfg,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func buildFetch(raw rawFetchConfig) (FetchConfig, error) {
	cfg := FetchConfig{
		Timeout:     20 * time.Second,
		Retries:     3,
		RetryDelay:  2 * time.Second,
		Concurrency: 4,
		HostDelay:   1 * time.Second, // the original slept a second between requests
		Burst:       1,
		UserAgent:   defaultUserAgent,
	}
	var err error
	if raw.Timeout != "" {
		cfg.Timeout, err = time.ParseDuration(raw.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("parse fetch.timeout %q: %w", raw.Timeout, err)
		}
	}
	if raw.Retries != nil {
		cfg.Retries = *raw.Retries
	}
	if raw.RetryDelay != "" {
		cfg.RetryDelay, err = time.ParseDuration(raw.RetryDelay)
		if err != nil {
			return cfg, fmt.Errorf("parse fetch.retry_delay %q: %w", raw.RetryDelay, err)
		}
	}
	if raw.Concurrency > 0 {
		cfg.Concurrency = raw.Concurrency
	}
	if raw.HostDelay != "" {
		cfg.HostDelay, err = time.ParseDuration(raw.HostDelay)
		if err != nil {
			return cfg, fmt.Errorf("parse fetch.host_delay %q: %w", raw.HostDelay, err)
		}
	}
	if raw.Burst > 0 {
		cfg.Burst = raw.Burst
	}
	if raw.UserAgent != "" {
		cfg.UserAgent = raw.UserAgent
	}
	return cfg, nil
}

func buildEnrichment(raw rawEnrichConfig) (EnrichmentConfig, error) {
	cfg := EnrichmentConfig{
		Provider:          raw.Provider,
		Model:             raw.Model,
		APIKey:            raw.APIKey,
		BaseURL:           raw.BaseURL,
		Timeout:           30 * time.Second,
		Concurrency:       2,
		RequestsPerMinute: 10,
		Prompt:            raw.Prompt,
	}
	if cfg.Provider == "" {
		cfg.Provider = "none"
	}
	if cfg.Model == "" {
		switch cfg.Provider {
		case "gemini":
			cfg.Model = defaultGeminiModel
		case "openai":
			cfg.Model = defaultOpenAIModel
		}
	}
	var err error
	if raw.Timeout != "" {
		cfg.Timeout, err = time.ParseDuration(raw.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("parse enrichment.timeout %q: %w", raw.Timeout, err)
		}
	}
	if raw.Concurrency > 0 {
		cfg.Concurrency = raw.Concurrency
	}
	if raw.RequestsPerMinute > 0 {
		cfg.RequestsPerMinute = raw.RequestsPerMinute
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must not be negative, got %d", cfg.Fetch.Retries)
	}

	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	seen := make(map[string]bool)
	enabled := 0
	for i, src := range cfg.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if seen[src.Name] {
			return fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name)
		}
		seen[src.Name] = true
		switch src.Type {
		case "html":
			if src.Schema.Item == "" || src.Schema.Title == "" {
				return fmt.Errorf("source %q: html sources need schema.item and schema.title", src.Name)
			}
		case "rss", "googlesearch":
		default:
			return fmt.Errorf("source %q: unknown type %q", src.Name, src.Type)
		}
		if src.URL == "" {
			return fmt.Errorf("source %q: url is required", src.Name)
		}
		if src.Identity != "url" && src.Identity != "title" {
			return fmt.Errorf("source %q: identity must be \"url\" or \"title\", got %q", src.Name, src.Identity)
		}
		if src.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	switch cfg.Enrichment.Provider {
	case "gemini", "openai", "none":
	default:
		return fmt.Errorf("enrichment.provider must be \"gemini\", \"openai\" or \"none\", got %q", cfg.Enrichment.Provider)
	}

	switch cfg.Notification.Type {
	case "ntfy", "log":
	default:
		return fmt.Errorf("notification.type must be \"ntfy\" or \"log\", got %q", cfg.Notification.Type)
	}

	switch cfg.State.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("state.backend must be \"file\" or \"sqlite\", got %q", cfg.State.Backend)
	}

	return nil
}

// EnabledSources returns the sources that are switched on, in config order.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, src := range c.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}
