package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/boardcrawl/internal/heuristics"
)

const (
	// DefaultConfigFile is the file name looked up in the current and home
	// directories.
	DefaultConfigFile = ".boardcrawl"

	// XDGConfigFile is the file name looked up in the XDG config directory.
	XDGConfigFile = "config.yaml"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file. Every field is optional; unset fields
// leave the current value untouched when the file is applied.
type File struct {
	Root   string      `yaml:"root,omitempty"`
	Output string      `yaml:"output,omitempty"`
	Crawl  CrawlFile   `yaml:"crawl,omitempty"`
	Fetch  FetchFile   `yaml:"fetch,omitempty"`
	Writer WriterFile  `yaml:"writer,omitempty"`
	Log    LogFileConf `yaml:"log,omitempty"`

	// Heuristics maps a record stream ("messages" or "topics") to its stages.
	Heuristics map[heuristics.Stream]heuristics.StageNames `yaml:"heuristics,omitempty"`

	MetricsAddr string `yaml:"metricsAddr,omitempty"`
	Report      string `yaml:"report,omitempty"`
}

// CrawlFile holds traversal settings.
type CrawlFile struct {
	BoardPageSize   int  `yaml:"boardPageSize,omitempty"`
	TopicPageSize   int  `yaml:"topicPageSize,omitempty"`
	MaxListingPages *int `yaml:"maxListingPages,omitempty"`
}

// FetchFile holds network settings.
type FetchFile struct {
	MinRetryDelay   time.Duration     `yaml:"minRetryDelay,omitempty"`
	MaxRetryDelay   time.Duration     `yaml:"maxRetryDelay,omitempty"`
	MaxRetries      int               `yaml:"maxRetries,omitempty"`
	Timeout         time.Duration     `yaml:"timeout,omitempty"`
	MaxBodySize     int64             `yaml:"maxBodySize,omitempty"`
	RequestInterval *time.Duration    `yaml:"requestInterval,omitempty"`
	UserAgent       string            `yaml:"userAgent,omitempty"`
	Cookie          string            `yaml:"cookie,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	Proxy           string            `yaml:"proxy,omitempty"`
}

// WriterFile holds write queue settings.
type WriterFile struct {
	DrainInterval   time.Duration  `yaml:"drainInterval,omitempty"`
	WriteRetries    *int           `yaml:"writeRetries,omitempty"`
	WriteRetryDelay *time.Duration `yaml:"writeRetryDelay,omitempty"`
}

// LogFileConf holds logging settings.
type LogFileConf struct {
	File string `yaml:"file,omitempty"`
	JSON bool   `yaml:"json,omitempty"`
}

// LoadConfigFile reads and decodes the YAML file at path.
// A missing file yields ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile returns the configuration file to use, or "" when none exists.
// An explicit path is returned only if it exists. Otherwise the lookup order
// is ./.boardcrawl, $XDG_CONFIG_HOME/boardcrawl/config.yaml, ~/.boardcrawl.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Apply copies every set field of f into c.
func (f *File) Apply(c *Config) {
	if f.Root != "" {
		c.RootURL = f.Root
	}
	if f.Output != "" {
		c.OutputDir = f.Output
	}

	if f.Crawl.BoardPageSize != 0 {
		c.BoardPageSize = f.Crawl.BoardPageSize
	}
	if f.Crawl.TopicPageSize != 0 {
		c.TopicPageSize = f.Crawl.TopicPageSize
	}
	if f.Crawl.MaxListingPages != nil {
		c.MaxListingPages = *f.Crawl.MaxListingPages
	}

	if f.Fetch.MinRetryDelay != 0 {
		c.MinRetryDelay = f.Fetch.MinRetryDelay
	}
	if f.Fetch.MaxRetryDelay != 0 {
		c.MaxRetryDelay = f.Fetch.MaxRetryDelay
	}
	if f.Fetch.MaxRetries != 0 {
		c.MaxRetries = f.Fetch.MaxRetries
	}
	if f.Fetch.Timeout != 0 {
		c.Timeout = f.Fetch.Timeout
	}
	if f.Fetch.MaxBodySize != 0 {
		c.MaxBodySize = f.Fetch.MaxBodySize
	}
	if f.Fetch.RequestInterval != nil {
		c.RequestInterval = *f.Fetch.RequestInterval
	}
	if f.Fetch.UserAgent != "" {
		c.UserAgent = f.Fetch.UserAgent
	}
	if f.Fetch.Cookie != "" {
		c.Cookie = f.Fetch.Cookie
	}
	if len(f.Fetch.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Fetch.Headers))
		}
		for k, v := range f.Fetch.Headers {
			c.Headers[k] = v
		}
	}
	if f.Fetch.Proxy != "" {
		c.ProxyAddress = f.Fetch.Proxy
	}

	if f.Writer.DrainInterval != 0 {
		c.DrainInterval = f.Writer.DrainInterval
	}
	if f.Writer.WriteRetries != nil {
		c.WriteRetries = *f.Writer.WriteRetries
	}
	if f.Writer.WriteRetryDelay != nil {
		c.WriteRetryDelay = *f.Writer.WriteRetryDelay
	}

	if f.Log.File != "" {
		c.LogFile = f.Log.File
	}
	if f.Log.JSON {
		c.JSONLog = true
	}

	if len(f.Heuristics) > 0 {
		c.Heuristics = f.Heuristics
	}
	if f.MetricsAddr != "" {
		c.MetricsAddr = f.MetricsAddr
	}
	if f.Report != "" {
		c.ReportFormat = f.Report
	}
}
