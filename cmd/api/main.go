package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"adstudio/internal/assets"
	"adstudio/internal/credits"
	"adstudio/internal/http/handlers"
	httpapi "adstudio/internal/http/httpapi"
	"adstudio/internal/infra"
	"adstudio/internal/infra/credentials"
	"adstudio/internal/pipeline"
	"adstudio/internal/progress"
	"adstudio/internal/providers/genai"
	"adstudio/internal/storage"
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
	runner := infra.NewSQLRunner(dbpool, logger)

	// The API key can come from the environment or from the credentials
	// table; the table wins so keys can be rotated without a redeploy.
	apiKey := cfg.GeminiAPIKey
	if stored, err := credentials.NewStore(runner).GeminiAPIKey(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to read stored gemini key, using environment")
	} else if stored != "" {
		apiKey = stored
	}

	model, err := genai.NewClient(genai.Options{
		APIKey:     apiKey,
		BaseURL:    cfg.GeminiBaseURL,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModelStandard,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build model client")
	}

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open asset storage")
	}

	var sink progress.Sink = progress.NewMemorySink()
	redisClient, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		sink = progress.NewRedisSink(redisClient, logger)
	}

	ledger := credits.NewPGLedger(runner)
	assetStore := assets.NewStore(runner)

	orch, err := pipeline.NewOrchestrator(pipeline.Options{
		Model:         model,
		Ledger:        ledger,
		Progress:      sink,
		Store:         files,
		Recorder:      assetStore,
		Logger:        logger,
		StandardModel: cfg.ImageModelStandard,
		ProModel:      cfg.ImageModelPro,
		MaxConcurrent: int64(cfg.MaxConcurrentGenerations),
		RetryAttempts: cfg.SynthRetryAttempts,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	app := &handlers.App{
		Config:       cfg,
		Logger:       logger,
		Ledger:       ledger,
		Model:        model,
		Orchestrator: orch,
		Progress:     sink,
		Assets:       assetStore,
		Files:        files,
	}
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
