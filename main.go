package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"weedlens/config"
	"weedlens/internal/bootstrap"
	"weedlens/internal/httpapi"
	"weedlens/internal/session"
	"weedlens/internal/storage"
	"weedlens/internal/vision"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Warn().Err(err).Msg("sentry initialization failed")
		} else {
			log.Info().Msg("sentry initialized")
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("dbPath", cfg.DBPath).Msg("failed to open store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	analyzer := newAnalyzer(ctx, cfg)
	analyzer = vision.NewCachedAnalyzer(analyzer, store)

	sessions := session.NewManager()
	loader := bootstrap.NewLoader(cfg.DefaultImageURL)
	api := httpapi.NewServer(sessions, analyzer, loader, store, cfg.RateLimitPerMinute)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// newAnalyzer picks the configured provider. A missing API key does not stop
// startup; the returned analyzer reports it on first use instead.
func newAnalyzer(ctx context.Context, cfg config.Config) vision.Analyzer {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY is not set, analysis will fail until it is provided")
			return vision.Unconfigured("OPENAI_API_KEY")
		}
		log.Info().Str("model", cfg.Model).Msg("openai vision analyzer initialized")
		return vision.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.Model)
	default:
		if cfg.GeminiAPIKey == "" {
			log.Warn().Msg("GEMINI_API_KEY is not set, analysis will fail until it is provided")
			return vision.Unconfigured("GEMINI_API_KEY")
		}
		analyzer, err := vision.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize gemini analyzer, analysis will fail")
			return vision.Unconfigured("GEMINI_API_KEY")
		}
		log.Info().Str("model", cfg.Model).Msg("gemini vision analyzer initialized")
		return analyzer
	}
}
