package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/housewatch/config"
	"sjsage522/housewatch/helpers"
	"sjsage522/housewatch/internal/crawler"
	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/services/cache"
	"sjsage522/housewatch/services/notifier"
	"sjsage522/housewatch/services/publisher"
	"sjsage522/housewatch/services/store"
	"sjsage522/housewatch/services/worker"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Options holds the command-line flags
type Options struct {
	Once           bool
	Interval       int
	NotifyFirstRun bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "housewatch",
		Short: "Watch listing searches and notify about new listings",
		Long: `housewatch polls the configured search pages, extracts listing links,
and sends a Telegram (or email) notification for every listing it has not
seen before. Seen listings are kept in a local JSON file or in Redis.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Once, "once", false, "run a single check and exit")
	cmd.Flags().IntVar(&opts.Interval, "interval", 0, "seconds between checks (default: single run, or CRAWL_INTERVAL_SECONDS)")
	cmd.Flags().BoolVar(&opts.NotifyFirstRun, "notify-first-run", false, "send notifications on the very first run too")

	cmd.AddCommand(newSourcesCommand())

	return cmd
}

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured listing sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			for _, src := range cfg.Sources {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", src.Name, src.EffectiveDomain(), src.QueryURL)
			}
			return nil
		},
	}
}

func run(ctx context.Context, opts *Options) error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	interval := cfg.CrawlInterval
	if opts.Interval > 0 {
		interval = time.Duration(opts.Interval) * time.Second
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("sources", len(cfg.Sources)).
		Str("state_backend", cfg.StateBackend).
		Dur("interval", interval).
		Bool("telegram", cfg.TelegramEnabled()).
		Bool("email", cfg.EmailEnabled()).
		Msg("Starting application")

	// Set up signal handling
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := initializeServices(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize services")
		return err
	}
	defer services.Cleanup()

	crawlers, err := crawler.CreateCrawlers(cfg, services.Fetcher, services.Cache)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create crawlers")
		return err
	}

	w := worker.NewWorker(crawlers, services.Store, services.Notifier, services.Publisher)
	suppressFirstRun := !opts.NotifyFirstRun

	if opts.Once || interval <= 0 {
		_, err := w.RunCycle(ctx, suppressFirstRun)
		return err
	}

	w.Start(ctx, suppressFirstRun, interval)
	log.Info().Msg("Shutting down gracefully...")
	return nil
}

// Services holds all the initialized services
type Services struct {
	Fetcher   *helpers.Fetcher
	Cache     cache.CacheService
	Store     store.Store
	Notifier  notifier.Notifier
	Publisher publisher.Publisher

	closers []func() error
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			logger.Warn("Failed to close service: %v", err)
		}
	}
}

// initializeServices initializes all required services
func initializeServices(cfg *config.Config) (*Services, error) {
	services := &Services{}

	services.Fetcher = helpers.NewFetcher(helpers.FetcherConfig{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timeout:        cfg.FetchTimeout,
		Retry: helpers.RetryPolicy{
			MaxRetries: cfg.FetchRetries,
			Backoff:    helpers.LinearBackoff(cfg.FetchBackoff),
		},
		Limiter: helpers.NewHostLimiter(cfg.FetchRatePerSec, 1),
	})

	services.Cache = cache.New(cfg.MemcacheAddr)
	if cfg.MemcacheAddr != "" {
		logger.Info("Using Memcache at %s for source cooldowns", cfg.MemcacheAddr)
	}

	switch cfg.StateBackend {
	case config.StateBackendRedis:
		redisStore := store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStateKey)
		services.Store = redisStore
		services.closers = append(services.closers, redisStore.Close)
		logger.Info("Keeping state in Redis at %s (DB: %d, key: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStateKey)
	default:
		services.Store = store.NewFileStore(cfg.StateFile)
		logger.Info("Keeping state in %s", cfg.StateFile)
	}

	channels := notifier.Multi{
		notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramAPIBase, cfg.NotifyTimeout),
	}
	if cfg.EmailEnabled() {
		channels = append(channels, notifier.NewEmailNotifier(notifier.EmailConfig{
			SMTPServer: cfg.SMTPHost,
			SMTPPort:   cfg.SMTPPort,
			SMTPUser:   cfg.SMTPUser,
			SMTPPass:   cfg.SMTPPass,
			FromEmail:  cfg.EmailFrom,
			ToEmail:    cfg.EmailTo,
		}, cfg.NotifyTimeout))
	}
	services.Notifier = channels

	if cfg.RedisAddr != "" && cfg.RedisStream != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		services.Publisher = redisPublisher
		services.closers = append(services.closers, redisPublisher.Close)

		logger.Info("Publishing listing events to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}
