package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/storefront/internal/core/config"
	"github.com/vietddude/storefront/internal/infra/api"
	"github.com/vietddude/storefront/internal/infra/api/apierr"
	"github.com/vietddude/storefront/internal/infra/api/cache"
)

// options carries the state shared by every command.
type options struct {
	cfgPath string
	apiURL  string
	isDebug bool
	jsonOut bool
	cfg     *config.AppConfig
	client  *api.Client
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Marketplace storefront client",
		Long:          `Storefront browses a multi-vendor marketplace: products, shops, categories and search.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.client != nil {
				_ = opts.client.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "marketplace API base URL (overrides config and "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().BoolVar(&opts.isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(
		newProductsCmd(opts),
		newProductCmd(opts),
		newShopsCmd(opts),
		newShopCmd(opts),
		newCategoriesCmd(opts),
		newCitiesCmd(opts),
		newStatsCmd(opts),
		newSuggestCmd(opts),
		newSearchCmd(opts),
		newHomeCmd(opts),
		newServeCmd(opts),
		newMockAPICmd(opts),
	)
	return rootCmd
}

// Execute runs the CLI until it finishes or receives SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func (o *options) setup() error {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return err
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	o.cfg = cfg

	// Setup logging
	slogLevel := slog.LevelInfo
	switch {
	case o.isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	if cfg.Logging.Format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})))
	} else {
		stylelog.InitDefault(&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
	}

	c, err := cache.New(cfg.Cache, cfg.Redis)
	if err != nil {
		slog.Warn("Response cache disabled", "backend", cfg.Cache.Backend, "error", err)
		c = nil
	}

	o.client = api.NewClient(api.Config{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		Retry:          cfg.API.Retry,
		RateLimit:      cfg.API.RateLimit,
		Burst:          cfg.API.Burst,
		Cache:          c,
		CacheTTL:       cfg.Cache.TTL,
		MinQueryLength: cfg.Search.MinQueryLength,
	})
	slog.Debug("Client ready", "base_url", cfg.API.BaseURL, "cache", cfg.Cache.Backend)
	return nil
}

// failure turns a hook error into a CLI error carrying the user-facing text.
func failure(err error) error {
	if err == nil {
		return nil
	}
	if apierr.IsCanceled(err) || errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return errors.New(apierr.UserMessage(err))
}
