package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/boardcrawl/internal/fetch"
	"github.com/nao1215/boardcrawl/internal/heuristics"
	"github.com/nao1215/boardcrawl/internal/pagination"
	"github.com/nao1215/boardcrawl/internal/transport"
	"github.com/nao1215/boardcrawl/internal/writer"
)

// AppName is the application name used for XDG directory paths.
const AppName = "boardcrawl"

// Default configuration values.
const (
	// DefaultRootURL is the forum index the crawl starts from.
	DefaultRootURL = "https://bitcointalk.org/"

	// DefaultOutputDir is the base directory of the messages/ and topics/ files.
	DefaultOutputDir = "."

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor daemon.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Report formats accepted by --report.
const (
	ReportText     = "text"
	ReportMarkdown = "markdown"
	ReportJSON     = "json"
	ReportNone     = "none"
)

// Config holds every option of a crawl run.
type Config struct {
	// RootURL is the forum index page.
	RootURL string

	// OutputDir is the base directory records are appended under.
	OutputDir string

	// BeginFromBoard and BeginFromTopic are the 1-based resume offsets.
	// BeginFromTopic only applies to the board selected by BeginFromBoard.
	BeginFromBoard int
	BeginFromTopic int

	// PrintBoards lists the boards instead of crawling.
	PrintBoards bool

	// PrintTopics lists the topics of board BeginFromBoard instead of crawling.
	PrintTopics bool

	// BoardPageSize and TopicPageSize are the forum's items per listing page
	// and per topic page.
	BoardPageSize int
	TopicPageSize int

	// MaxListingPages caps the listing pages read per board. 0 reads all.
	MaxListingPages int

	// MinRetryDelay and MaxRetryDelay bound the jittered delay between
	// attempts of a failed fetch.
	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration

	// MaxRetries is the number of consecutive failed fetches, across the whole
	// run, after which the circuit breaker opens.
	MaxRetries int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxBodySize limits how many bytes of a page are read.
	MaxBodySize int64

	// RequestInterval is the minimum spacing between requests. 0 disables it.
	RequestInterval time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Cookie and Headers are sent with every request.
	Cookie  string
	Headers map[string]string

	// DrainInterval is how often the write queue is flushed to disk.
	DrainInterval time.Duration

	// WriteRetries and WriteRetryDelay control how a failed append is retried
	// before the record is dropped.
	WriteRetries    int
	WriteRetryDelay time.Duration

	// Heuristics holds stage names per record stream. Streams that are not
	// listed keep their default pipeline.
	Heuristics map[heuristics.Stream]heuristics.StageNames

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout bounds the bootstrap of the embedded Tor daemon.
	TorStartupTimeout time.Duration

	// Verbose enables debug logs; Quiet limits logs to warnings and errors.
	Verbose bool
	Quiet   bool

	// JSONLog switches the log format to JSON.
	JSONLog bool

	// LogFile additionally writes logs to a rotated file.
	LogFile string

	// MetricsAddr exposes Prometheus metrics on this address when set.
	MetricsAddr string

	// SaveHistory records the run in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	DBDir string

	// ReportFormat selects the summary printed after a run.
	ReportFormat string

	// ConfigFilePath is the YAML file given with --config.
	ConfigFilePath string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		RootURL:           DefaultRootURL,
		OutputDir:         DefaultOutputDir,
		BeginFromBoard:    1,
		BeginFromTopic:    1,
		BoardPageSize:     pagination.BoardPageSize,
		TopicPageSize:     pagination.TopicPageSize,
		MinRetryDelay:     fetch.DefaultMinDelay,
		MaxRetryDelay:     fetch.DefaultMaxDelay,
		MaxRetries:        fetch.DefaultMaxRetries,
		Timeout:           transport.DefaultTimeout,
		MaxBodySize:       fetch.DefaultMaxBodySize,
		UserAgent:         fetch.DefaultUserAgent,
		Headers:           make(map[string]string),
		DrainInterval:     writer.DefaultDrainInterval,
		WriteRetries:      writer.DefaultWriteRetries,
		WriteRetryDelay:   writer.DefaultWriteRetryDelay,
		TorStartupTimeout: DefaultTorStartupTimeout,
		SaveHistory:       true,
		DBDir:             XDGDataDir(),
		ReportFormat:      ReportText,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/boardcrawl on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/boardcrawl on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// StartBoard returns the 0-based index of the first board to crawl.
func (c *Config) StartBoard() int {
	return c.BeginFromBoard - 1
}

// StartTopic returns the 0-based index of the first topic on the start board.
func (c *Config) StartTopic() int {
	return c.BeginFromTopic - 1
}

// HeuristicSet builds the pipelines selected by Heuristics.
func (c *Config) HeuristicSet() (*heuristics.Set, error) {
	return heuristics.BuildSet(c.Heuristics)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RootURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidRootURL
	}

	if c.BeginFromBoard < 1 {
		return ErrInvalidBeginFromBoard
	}
	if c.BeginFromTopic < 1 {
		return ErrInvalidBeginFromTopic
	}
	if c.PrintBoards && c.PrintTopics {
		return ErrConflictingListings
	}

	if c.BoardPageSize <= 0 || c.TopicPageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.MaxListingPages < 0 {
		return ErrInvalidMaxListingPages
	}

	if c.MinRetryDelay < 0 || c.MaxRetryDelay < c.MinRetryDelay {
		return ErrInvalidRetryWindow
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidMaxRetries
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RequestInterval < 0 {
		return ErrInvalidRequestInterval
	}

	if c.DrainInterval <= 0 {
		return ErrInvalidDrainInterval
	}
	if c.WriteRetries < 0 || c.WriteRetryDelay < 0 {
		return ErrInvalidWriteRetries
	}

	switch c.ReportFormat {
	case ReportText, ReportMarkdown, ReportJSON, ReportNone:
	default:
		return ErrInvalidReportFormat
	}

	if c.Verbose && c.Quiet {
		return ErrConflictingLogLevels
	}
	if c.ProxyAddress != "" && c.UseTor {
		return ErrConflictingTransports
	}
	if c.ProxyAddress != "" {
		if err := transport.ValidateProxyAddress(c.ProxyAddress); err != nil {
			return err
		}
	}

	if _, err := c.HeuristicSet(); err != nil {
		return err
	}

	return nil
}
