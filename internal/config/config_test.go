package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/boardcrawl/internal/heuristics"
	"github.com/nao1215/boardcrawl/internal/transport"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "root", got: cfg.RootURL, want: "https://bitcointalk.org/"},
		{name: "output", got: cfg.OutputDir, want: "."},
		{name: "begin board", got: cfg.BeginFromBoard, want: 1},
		{name: "begin topic", got: cfg.BeginFromTopic, want: 1},
		{name: "board page size", got: cfg.BoardPageSize, want: 40},
		{name: "topic page size", got: cfg.TopicPageSize, want: 20},
		{name: "max listing pages", got: cfg.MaxListingPages, want: 0},
		{name: "min retry delay", got: cfg.MinRetryDelay, want: 100 * time.Millisecond},
		{name: "max retry delay", got: cfg.MaxRetryDelay, want: time.Second},
		{name: "max retries", got: cfg.MaxRetries, want: 100},
		{name: "timeout", got: cfg.Timeout, want: 60 * time.Second},
		{name: "max body size", got: cfg.MaxBodySize, want: int64(10 * 1024 * 1024)},
		{name: "request interval", got: cfg.RequestInterval, want: time.Duration(0)},
		{name: "drain interval", got: cfg.DrainInterval, want: 10 * time.Millisecond},
		{name: "write retries", got: cfg.WriteRetries, want: 3},
		{name: "write retry delay", got: cfg.WriteRetryDelay, want: 50 * time.Millisecond},
		{name: "save history", got: cfg.SaveHistory, want: true},
		{name: "report", got: cfg.ReportFormat, want: ReportText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must be valid: %v", err)
	}
}

func TestStartOffsets(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.BeginFromBoard = 3
	cfg.BeginFromTopic = 5

	if cfg.StartBoard() != 2 || cfg.StartTopic() != 4 {
		t.Errorf("expected 0-based offsets 2/4, got %d/%d", cfg.StartBoard(), cfg.StartTopic())
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "relative root", modify: func(c *Config) { c.RootURL = "/index.php" }, wantErr: ErrInvalidRootURL},
		{name: "ftp root", modify: func(c *Config) { c.RootURL = "ftp://example.com/" }, wantErr: ErrInvalidRootURL},
		{name: "board offset zero", modify: func(c *Config) { c.BeginFromBoard = 0 }, wantErr: ErrInvalidBeginFromBoard},
		{name: "topic offset zero", modify: func(c *Config) { c.BeginFromTopic = 0 }, wantErr: ErrInvalidBeginFromTopic},
		{name: "both listings", modify: func(c *Config) { c.PrintBoards, c.PrintTopics = true, true }, wantErr: ErrConflictingListings},
		{name: "zero board page", modify: func(c *Config) { c.BoardPageSize = 0 }, wantErr: ErrInvalidPageSize},
		{name: "negative listing cap", modify: func(c *Config) { c.MaxListingPages = -1 }, wantErr: ErrInvalidMaxListingPages},
		{name: "inverted window", modify: func(c *Config) { c.MinRetryDelay = 2 * time.Second }, wantErr: ErrInvalidRetryWindow},
		{name: "zero retries", modify: func(c *Config) { c.MaxRetries = 0 }, wantErr: ErrInvalidMaxRetries},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "zero body size", modify: func(c *Config) { c.MaxBodySize = 0 }, wantErr: ErrInvalidMaxBodySize},
		{name: "negative interval", modify: func(c *Config) { c.RequestInterval = -time.Second }, wantErr: ErrInvalidRequestInterval},
		{name: "zero drain", modify: func(c *Config) { c.DrainInterval = 0 }, wantErr: ErrInvalidDrainInterval},
		{name: "negative write retries", modify: func(c *Config) { c.WriteRetries = -1 }, wantErr: ErrInvalidWriteRetries},
		{name: "unknown report", modify: func(c *Config) { c.ReportFormat = "pdf" }, wantErr: ErrInvalidReportFormat},
		{name: "verbose and quiet", modify: func(c *Config) { c.Verbose, c.Quiet = true, true }, wantErr: ErrConflictingLogLevels},
		{name: "proxy and tor", modify: func(c *Config) { c.ProxyAddress, c.UseTor = "127.0.0.1:9050", true }, wantErr: ErrConflictingTransports},
		{name: "bad proxy", modify: func(c *Config) { c.ProxyAddress = "localhost" }, wantErr: transport.ErrInvalidProxyAddress},
		{
			name: "unknown heuristic",
			modify: func(c *Config) {
				c.Heuristics = map[heuristics.Stream]heuristics.StageNames{
					heuristics.StreamMessages: {Transforms: []string{"shout"}},
				}
			},
			wantErr: heuristics.ErrUnknownStage,
		},
		{name: "zero write retries allowed", modify: func(c *Config) { c.WriteRetries = 0 }, wantErr: nil},
		{name: "listing cap allowed", modify: func(c *Config) { c.MaxListingPages = 2 }, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("full file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `root: https://forum.example/
output: ./data
crawl:
  boardPageSize: 50
  maxListingPages: 0
fetch:
  minRetryDelay: 200ms
  maxRetryDelay: 2s
  maxRetries: 7
  requestInterval: 500ms
  cookie: PHPSESSID=abc
  headers:
    Accept-Language: ru
writer:
  drainInterval: 25ms
  writeRetries: 0
heuristics:
  topics:
    transforms: [trim]
report: markdown
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() failed: %v", err)
		}

		cfg := NewConfig()
		cfg.MaxListingPages = 3
		cf.Apply(cfg)

		if cfg.RootURL != "https://forum.example/" || cfg.OutputDir != "./data" {
			t.Errorf("unexpected root/output: %q %q", cfg.RootURL, cfg.OutputDir)
		}
		if cfg.BoardPageSize != 50 || cfg.TopicPageSize != 20 {
			t.Errorf("unexpected page sizes: %d %d", cfg.BoardPageSize, cfg.TopicPageSize)
		}
		if cfg.MaxListingPages != 0 {
			t.Errorf("explicit zero listing cap must be applied, got %d", cfg.MaxListingPages)
		}
		if cfg.MinRetryDelay != 200*time.Millisecond || cfg.MaxRetryDelay != 2*time.Second || cfg.MaxRetries != 7 {
			t.Errorf("unexpected retry settings: %s %s %d", cfg.MinRetryDelay, cfg.MaxRetryDelay, cfg.MaxRetries)
		}
		if cfg.RequestInterval != 500*time.Millisecond {
			t.Errorf("unexpected request interval %s", cfg.RequestInterval)
		}
		if cfg.Cookie != "PHPSESSID=abc" || cfg.Headers["Accept-Language"] != "ru" {
			t.Errorf("unexpected cookie/headers: %q %v", cfg.Cookie, cfg.Headers)
		}
		if cfg.DrainInterval != 25*time.Millisecond || cfg.WriteRetries != 0 {
			t.Errorf("unexpected writer settings: %s %d", cfg.DrainInterval, cfg.WriteRetries)
		}
		if cfg.WriteRetryDelay != 50*time.Millisecond {
			t.Errorf("unset write retry delay must keep default, got %s", cfg.WriteRetryDelay)
		}
		if cfg.ReportFormat != ReportMarkdown {
			t.Errorf("unexpected report format %q", cfg.ReportFormat)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("applied config must be valid: %v", err)
		}

		set, err := cfg.HeuristicSet()
		if err != nil {
			t.Fatal(err)
		}
		if got, _ := set.Process(heuristics.StreamTopics, "  title  "); got != "title" {
			t.Errorf("expected configured topic pipeline, got %q", got)
		}
		if got, _ := set.Process(heuristics.StreamMessages, " m "); got != "m\n\n" {
			t.Errorf("expected default message pipeline, got %q", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("fetch: [unclosed"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadConfigFile(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("fetch:\n  timeout: soon\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid duration")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("root: https://x.example/\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("XDGDataDir() = %q, expected suffix %q", XDGDataDir(), AppName)
	}
	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("XDGConfigDir() = %q, expected suffix %q", XDGConfigDir(), AppName)
	}
}
