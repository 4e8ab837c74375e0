package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"scribe/internal/adapter/repo"
	"scribe/internal/http/handlers"
	httpapi "scribe/internal/http/httpapi"
	"scribe/internal/infra"
	"scribe/internal/ledger"
	"scribe/internal/pipeline"
	"scribe/internal/providers/ai"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	// The AI backend is selected once at startup; handlers only ever see
	// the capability interfaces.
	var (
		stt      ai.SpeechToText
		rewriter ai.TextRewriter
	)
	switch cfg.AIProvider {
	case "openai":
		client, err := ai.NewOpenAIClient(ai.OpenAIOptions{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			Organization:    cfg.OpenAIOrg,
			TranscribeModel: cfg.TranscribeModel,
			RewriteModel:    cfg.RewriteModel,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure openai client")
		}
		stt, rewriter = client, client
	default:
		logger.Fatal().Str("provider", cfg.AIProvider).Msg("unsupported AI provider")
	}

	subs := repo.NewSubscriptionRepository(dbpool)
	transcripts := repo.NewTranscriptRepository(dbpool)
	prompts := repo.NewPromptRepository(dbpool)

	ledgerSvc := ledger.NewService(ledger.Options{
		Subscriptions: subs,
		Logger:        logger,
	})

	pipe := pipeline.New(pipeline.Options{
		SpeechToText:   stt,
		Rewriter:       rewriter,
		Transcripts:    transcripts,
		Meter:          ledgerSvc,
		Logger:         logger,
		EnforceBalance: cfg.EnforceBalance,
	})

	app := &handlers.App{
		Config:      cfg,
		Logger:      logger,
		Pipeline:    pipe,
		Ledger:      ledgerSvc,
		Transcripts: transcripts,
		Prompts:     prompts,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
