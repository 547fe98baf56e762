package cmd

import (
	"fmt"
	"os"

	"github.com/andrew/doc-chat/pkg/config"
	"github.com/andrew/doc-chat/pkg/docservice"
	"github.com/andrew/doc-chat/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

// app holds what every command needs once flags are parsed
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *docservice.HTTPClient
}

var current app

// rootCmd runs the interactive chat when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "doc-chat",
	Short: "Chat with a document through a document question-answering service",
	Long: `doc-chat uploads a document to a document question-answering service
and lets you ask questions about it from the terminal.

Settings are read from the environment (or a .env file) and can be
overridden with flags.`,
	Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current.logger != nil {
			_ = current.logger.Sync()
		}
	},
	RunE: runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceErrors = true

	// Global flags
	rootCmd.PersistentFlags().String("service-url", "", "document service base URL (env DOC_SERVICE_URL)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "request timeout, 0 for none (env DOC_SERVICE_TIMEOUT)")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (env DOC_CHAT_LOG_FILE)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "debug logging to stderr (env DOC_CHAT_DEBUG)")

	addChatFlags(rootCmd)
}

// setup loads configuration, applies flag overrides and builds the logger
// and service client
func setup(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyFlags(cmd, cfg)

	logger := logging.New(logging.Options{FilePath: cfg.Log.FilePath, Debug: cfg.Log.Debug})
	client, err := docservice.NewClient(docservice.Config{
		BaseURL: cfg.Service.URL,
		Timeout: cfg.Service.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("starting",
		zap.String("command", cmd.Name()),
		zap.String("service", cfg.Service.URL),
		zap.Duration("timeout", cfg.Service.Timeout))

	current = app{cfg: cfg, logger: logger, client: client}
	return nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("service-url") {
		cfg.Service.URL, _ = flags.GetString("service-url")
	}
	if flags.Changed("timeout") {
		cfg.Service.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("log-file") {
		cfg.Log.FilePath, _ = flags.GetString("log-file")
	}
	if flags.Changed("debug") {
		cfg.Log.Debug, _ = flags.GetBool("debug")
	}
	if f := flags.Lookup("watch"); f != nil && f.Changed {
		cfg.WatchDir = f.Value.String()
	}
}
