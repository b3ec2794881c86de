package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/text-summarizer/internal/api"
	"github.com/strrl/text-summarizer/internal/config"
	"github.com/strrl/text-summarizer/internal/journal"
	"github.com/strrl/text-summarizer/internal/logging"
	"github.com/strrl/text-summarizer/internal/tui"
)

// app carries the settings resolved before any subcommand runs
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "text-summarizer",
		Short: "Summarize text with a remote summarization service",
		Long: `text-summarizer is a TUI for sending text to a summarization service,
browsing the summaries of the current session and exporting them.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		RunE:               a.runTUI,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyAPIURL, "", "Summarization service base URL (env SUMMARIZER_API_URL)")
	flags.String(config.KeyMode, config.ModeDev, "Run mode: dev or prod (env SUMMARIZER_MODE)")
	flags.String(config.KeyExportDir, ".", "Directory for exported summaries (env SUMMARIZER_EXPORT_DIR)")
	flags.String(config.KeyLogFile, "", "Write logs to this file (env SUMMARIZER_LOG_FILE)")
	flags.String(config.KeyLogLevel, "info", "Log level: debug, info, warn or error (env LOG_LEVEL)")
	flags.Duration(config.KeyTimeout, 0, "Per-request timeout, 0 keeps the transport default")

	rootCmd.AddCommand(NewSummarizeCommand(a))
	rootCmd.AddCommand(NewHealthCommand(a))
	rootCmd.AddCommand(NewInfoCommand(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	config.LoadDotEnv()

	if err := a.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logger, closeLog, err := logging.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closeLog = closeLog

	logger.Debug("configuration loaded",
		slog.String("mode", cfg.Mode),
		slog.String("api_url", cfg.APIURL),
		slog.String("export_dir", cfg.ExportDir),
		slog.Duration("timeout", cfg.Timeout))
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}

// client builds the API client, refusing to run without a base URL
func (a *app) client() (*api.Client, error) {
	if a.cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: set --api-url or SUMMARIZER_API_URL in %s mode", api.ErrNoBaseURL, a.cfg.Mode)
	}
	return api.NewClient(a.cfg.APIURL,
		api.WithTimeout(a.cfg.Timeout),
		api.WithLogger(a.logger),
	), nil
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Statistics are optional, the panel works without them
	j, err := journal.Open(ctx)
	if err != nil {
		a.logger.Warn("journal unavailable", slog.Any("error", err))
		j = nil
	} else {
		defer func() {
			if err := j.Close(); err != nil {
				a.logger.Warn("failed to close journal", slog.Any("error", err))
			}
		}()
	}

	if err := tui.Run(ctx, tui.Options{
		Client:    client,
		Journal:   j,
		Logger:    a.logger,
		ExportDir: a.cfg.ExportDir,
	}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
