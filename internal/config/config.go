package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These mirror the politeness settings the monitored municipal sites were
// tuned against; all of them can be overridden via CLI flags.
const (
	// DefaultTimeout is the per-request timeout. Municipal sites are
	// sometimes slow but rarely slower than this.
	DefaultTimeout = 20 * time.Second

	// DefaultMaxPerSecond is the per-host request rate. Two requests per
	// second is conservative enough for small municipal servers.
	DefaultMaxPerSecond = 2.0

	// DefaultRetries is the number of fetch attempts for transient failures.
	DefaultRetries = 3

	// DefaultCrawlDepth bounds the breadth-first traversal. Policy documents
	// sit close to the landing pages, so a shallow crawl finds them.
	DefaultCrawlDepth = 2

	// DefaultMaxConcurrency is the number of jurisdictions crawled in
	// parallel. Jurisdictions are independent; the shared rate limiter
	// still spaces requests when two of them hit the same host.
	DefaultMaxConcurrency = 4

	// DefaultUserAgent identifies civimon in HTTP requests so that site
	// operators can recognize the traffic in their logs.
	DefaultUserAgent = "civimon/1.0 (+https://github.com/civimon/civimon)"

	// DefaultMaxBodySize limits response bodies. Municipal PDFs are
	// occasionally large; 20MB covers them without risking memory blowups.
	DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB

	// DefaultLLMMaxChars is the character budget for classifier input.
	// Longer texts are truncated symmetrically (head + tail).
	DefaultLLMMaxChars = 24000

	// DefaultLLMModel is the classifier model name.
	DefaultLLMModel = "gpt-4o-mini"

	// DefaultLLMEndpoint is the OpenAI-compatible chat-completions endpoint.
	DefaultLLMEndpoint = "https://api.openai.com/v1/chat/completions"

	// DefaultNeedsOCRThreshold is the minimum extracted-text length below
	// which a binary document is flagged as needing OCR.
	DefaultNeedsOCRThreshold = 200

	// AppName is the application name used for XDG directory paths.
	AppName = "civimon"
)

// Config holds all options for a civimon invocation. It is populated from
// CLI flags plus the optional config file and passed through the application
// via dependency injection rather than global state.
type Config struct {
	// InputPath is the CSV file listing jurisdictions to monitor.
	InputPath string

	// DataDir is the directory for the SQLite database.
	// Defaults to the XDG data directory.
	DataDir string

	// BlobDir is the directory for content-addressed document blobs,
	// grouped per jurisdiction. Defaults to DataDir/blobs.
	BlobDir string

	// OutputDir receives coverage and findings reports.
	OutputDir string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Retries is the number of attempts for transient fetch failures.
	Retries int

	// MaxPerSecond is the per-host request rate limit.
	MaxPerSecond float64

	// CrawlDepth is the maximum traversal depth from the seeds.
	CrawlDepth int

	// MaxConcurrency is the number of jurisdictions processed in parallel.
	MaxConcurrency int

	// UserAgent is sent with every request and used when matching
	// robots.txt groups.
	UserAgent string

	// MaxBodySize caps response body reads, in bytes.
	MaxBodySize int64

	// RenderEnabled turns on the headless-browser fallback for pages that
	// look script-driven. Requires a local Chrome/Chromium.
	RenderEnabled bool

	// Verbose enables debug-level logging.
	Verbose bool

	// ConfigFilePath is an explicit config file location. When empty the
	// loader searches the working directory and then the home directory.
	ConfigFilePath string

	// Relevance tunes the crawl heuristic: keyword sets, weights, and the
	// crawl/classification thresholds.
	Relevance Relevance

	// HeuristicPaths are path suffixes appended to each jurisdiction origin
	// and seeded at depth 0 alongside the sitemap URLs.
	HeuristicPaths []string

	// LLMEndpoint is the OpenAI-compatible chat-completions URL.
	LLMEndpoint string

	// LLMModel is the model name sent with classification requests.
	LLMModel string

	// LLMAPIKey authenticates classification requests. Classification is
	// skipped entirely when this is empty.
	LLMAPIKey string

	// LLMMaxChars is the character budget for classifier input.
	LLMMaxChars int
}

// NewConfig creates a Config with default values. Callers override specific
// fields from flags afterwards.
func NewConfig() *Config {
	return &Config{
		DataDir:        XDGDataDir(),
		Timeout:        DefaultTimeout,
		Retries:        DefaultRetries,
		MaxPerSecond:   DefaultMaxPerSecond,
		CrawlDepth:     DefaultCrawlDepth,
		MaxConcurrency: DefaultMaxConcurrency,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		Relevance:      DefaultRelevance(),
		HeuristicPaths: DefaultHeuristicPaths(),
		LLMEndpoint:    DefaultLLMEndpoint,
		LLMModel:       DefaultLLMModel,
		LLMMaxChars:    DefaultLLMMaxChars,
	}
}

// XDGDataDir returns the XDG data directory for civimon.
// On Linux: ~/.local/share/civimon
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for civimon.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ResolvedBlobDir returns BlobDir, defaulting to DataDir/blobs.
func (c *Config) ResolvedBlobDir() string {
	if c.BlobDir != "" {
		return c.BlobDir
	}
	return filepath.Join(c.DataDir, "blobs")
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before any crawling begins.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Retries < 1 {
		return ErrInvalidRetries
	}
	if c.MaxPerSecond <= 0 {
		return ErrInvalidRate
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidDepth
	}
	if c.MaxConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if err := c.Relevance.Validate(); err != nil {
		return err
	}
	return nil
}
