package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/boardcrawl/internal/config"
	applog "github.com/nao1215/boardcrawl/internal/log"
)

// NewRootCmd creates the root command. Running it without a subcommand
// starts a crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boardcrawl",
		Short: "Crawl a forum into per-board text files",
		Long: `boardcrawl walks every board of a bitcointalk-style forum, one request at a
time, and appends topic titles to topics/<board>.txt and post bodies to
messages/<board>.txt under the output directory.

Failed requests are retried with a random delay. After too many consecutive
failures the crawl stops and prints the --beginFromBoard/--beginFromTopic
flags that continue from where it stopped.

Examples:
  # Crawl the whole forum into ./corpus
  boardcrawl -o ./corpus

  # Resume at the 12th board, 340th topic
  boardcrawl -o ./corpus --beginFromBoard 12 --beginFromTopic 340

  # List the boards with their positions
  boardcrawl --print-boards

  # Crawl through a local Tor client
  boardcrawl --proxy 127.0.0.1:9050`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON lines")
	cmd.PersistentFlags().String("log-file", "", "Also write logs to this file (rotated by size)")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .boardcrawl in current directory, XDG config dir or home)")
	cmd.PersistentFlags().String("data-dir", config.XDGDataDir(), "Directory of the run history database")

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Base directory of the messages/ and topics/ files")
	cmd.Flags().Int("beginFromBoard", 1, "Position of the first board to crawl (1-based)")
	cmd.Flags().Int("beginFromTopic", 1, "Position of the first topic on the first board (1-based)")
	cmd.Flags().Bool("print-boards", false, "List the boards and exit")
	cmd.Flags().Bool("print-topics", false, "List the topics of the --beginFromBoard board and exit")
	cmd.Flags().String("root", config.DefaultRootURL, "Forum index URL")
	cmd.Flags().Int("max-listing-pages", 0, "Read at most this many listing pages per board (0 reads all)")
	cmd.Flags().Int("max-retries", 0, "Consecutive failed requests before the crawl stops (default 100)")
	cmd.Flags().Duration("request-interval", 0, "Minimum time between requests (0 disables the limit)")
	cmd.Flags().Duration("timeout", 0, "Timeout of a single request (default 60s)")
	cmd.Flags().String("user-agent", "", "User-Agent header sent with every request")
	cmd.Flags().String("cookie", "", "Cookie header sent with every request")
	cmd.Flags().String("proxy", "", "Route requests through this SOCKS5 proxy (host:port)")
	cmd.Flags().Bool("tor", false, "Start an embedded Tor daemon and route requests through it")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout, "Timeout for embedded Tor startup")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the crawl")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().String("report", config.ReportText, "Summary printed after the run: text, markdown, json or none")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "boardcrawl:", err)
		os.Exit(1)
	}
}

// runRootCmd executes a crawl.
func runRootCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := setupLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close() //nolint:errcheck // nothing to do on close failure
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PrintBoards || cfg.PrintTopics {
		return runListing(ctx, cfg, logger, cmd.OutOrStdout())
	}
	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig layers defaults, the configuration file and the flags the user
// set, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	if path := config.FindConfigFile(configPath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies the flags that were set on the command line into cfg.
// Flags left at their defaults do not override the configuration file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var errs []error

	str := func(name string, dst *string) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			return
		}
		v, err := flags.GetString(name)
		errs = append(errs, err)
		*dst = v
	}
	boolean := func(name string, dst *bool) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			return
		}
		v, err := flags.GetBool(name)
		errs = append(errs, err)
		*dst = v
	}
	integer := func(name string, dst *int) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			return
		}
		v, err := flags.GetInt(name)
		errs = append(errs, err)
		*dst = v
	}
	duration := func(name string, dst *time.Duration) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			return
		}
		v, err := flags.GetDuration(name)
		errs = append(errs, err)
		*dst = v
	}

	boolean("verbose", &cfg.Verbose)
	boolean("quiet", &cfg.Quiet)
	boolean("json-log", &cfg.JSONLog)
	str("log-file", &cfg.LogFile)
	str("data-dir", &cfg.DBDir)

	str("output", &cfg.OutputDir)
	integer("beginFromBoard", &cfg.BeginFromBoard)
	integer("beginFromTopic", &cfg.BeginFromTopic)
	boolean("print-boards", &cfg.PrintBoards)
	boolean("print-topics", &cfg.PrintTopics)
	str("root", &cfg.RootURL)
	integer("max-listing-pages", &cfg.MaxListingPages)
	integer("max-retries", &cfg.MaxRetries)
	duration("request-interval", &cfg.RequestInterval)
	duration("timeout", &cfg.Timeout)
	str("user-agent", &cfg.UserAgent)
	str("cookie", &cfg.Cookie)
	str("proxy", &cfg.ProxyAddress)
	boolean("tor", &cfg.UseTor)
	duration("tor-timeout", &cfg.TorStartupTimeout)
	str("metrics-addr", &cfg.MetricsAddr)
	str("report", &cfg.ReportFormat)

	if flags.Lookup("no-history") != nil && flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		errs = append(errs, err)
		cfg.SaveHistory = !noHistory
	}

	return errors.Join(errs...)
}

// setupLogger builds the logger selected by cfg on w.
func setupLogger(w io.Writer, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	return applog.New(w, applog.Options{
		Level: applog.Level(cfg.Verbose, cfg.Quiet),
		JSON:  cfg.JSONLog,
		File:  cfg.LogFile,
	})
}
