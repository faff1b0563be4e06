package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vedsharma/pingforge/internal/config"
	"github.com/vedsharma/pingforge/internal/format"
	httpclient "github.com/vedsharma/pingforge/internal/http"
	"github.com/vedsharma/pingforge/internal/mask"
	"github.com/vedsharma/pingforge/internal/remote"
	"github.com/vedsharma/pingforge/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "pingforge",
	Short: "Compose API requests and inspect captured webhooks",
	Long: `pingforge is a command-line HTTP client and webhook inspector.

Send templated requests against any API, keep history and collections,
and watch the requests captured by your pingforge sessions live.

Examples:
  pingforge get https://api.example.com/users
  pingforge post '{{base}}/users' -e staging -d '{"name": "{{user}}"}'
  pingforge capture watch a1b2c3d4 --method POST
  pingforge replay a1b2c3d4 <request-id> https://localhost.test/hook`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var (
	cfgFile  string
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pingforge.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show response headers")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := v.BindPFlag(config.KeyLogLevel, cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return err
	}
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logger = newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	if cfg.Created {
		logger.Info("created default config file", "path", cfg.File)
	}
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// exitOnError prints action and err, then exits. Expired credentials get a
// hint instead of the raw error.
func exitOnError(action string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, remote.ErrUnauthorized) {
		format.PrintError(fmt.Sprintf("%s: not authorized", action))
		format.PrintInfo(fmt.Sprintf("Set a fresh api_token in %s or PINGFORGE_API_TOKEN", cfg.File))
		os.Exit(1)
	}
	format.PrintError(fmt.Sprintf("%s: %v", action, err))
	os.Exit(1)
}

// signalContext is cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func openStore() *storage.SQLiteStorage {
	store, err := storage.NewStorage(cfg.DataDir)
	exitOnError("Failed to open workspace", err)
	return store
}

func settingsFile() *config.SettingsFile {
	return config.NewSettingsFile(cfg.DataDir)
}

func newMasker() *mask.Masker {
	m, err := mask.NewMasker(settingsFile())
	exitOnError("Failed to load masking settings", err)
	return m
}

func newBackend() *remote.Client {
	c, err := remote.NewClient(cfg.APIURL,
		remote.WithStreamURL(cfg.WSURL),
		remote.WithToken(cfg.APIToken),
		remote.WithTimeout(cfg.Timeout),
		remote.WithLogger(logger),
	)
	exitOnError("Invalid api_url", err)
	return c
}

func newHTTPClient() *httpclient.Client {
	return httpclient.NewClient(httpclient.WithTimeout(cfg.Timeout), httpclient.WithLogger(logger))
}
