package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sandevgo/polychat/internal/config"
	"github.com/sandevgo/polychat/internal/providers/llm"
	"github.com/sandevgo/polychat/internal/providers/rag"
	"github.com/sandevgo/polychat/internal/retriever"
	"github.com/sandevgo/polychat/internal/service/audio"
	"github.com/sandevgo/polychat/internal/service/chat"
	"github.com/sandevgo/polychat/internal/service/command"
	"github.com/sandevgo/polychat/internal/storage/sqlite"
	"github.com/sandevgo/polychat/internal/transport/cli"
	"github.com/sandevgo/polychat/pkg/log"
	"github.com/sandevgo/polychat/pkg/srv"
)

func NewServices(ctx context.Context, stop func()) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	appCfg := config.NewAppConfig(ctx)

	if err := initEnv(ctx, appCfg.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	providerCfg := config.NewProviderConfig(ctx)
	audioCfg := config.NewAudioConfig(ctx)

	// Storage
	db, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	messagesRepo := sqlite.NewMessagesRepo(db)
	settingsRepo := sqlite.NewSettingsRepo(db)
	chunksRepo := sqlite.NewChunksRepo(db)

	// Backend registry
	registry, err := llm.NewRegistry(providerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize llm registry")
	}

	// RAG pipeline and retriever
	embedder := rag.NewOllamaEmbedder(providerCfg.OllamaBaseURL, providerCfg.EmbeddingModel)
	extractor, err := rag.NewPDFExtractor()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize pdf extractor")
	}
	pipeline := rag.NewPipeline(extractor, embedder, chunksRepo, settingsRepo)
	ret := retriever.New(embedder, chunksRepo)

	// Commands
	pulls := command.NewPullService(registry)
	router := command.NewRouter(registry, pulls)

	transcriber := audio.NewTranscriber(audioCfg)

	orchestrator := chat.NewOrchestrator(
		registry,
		messagesRepo,
		settingsRepo,
		ret,
		transcriber,
		router,
	)

	// Transports
	if appCfg.EnableCLI {
		readLine, err := cli.NewReadLine(appCfg, orchestrator, pipeline, messagesRepo, stop)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize cli transport")
		}
		services = append(services, readLine)
	}

	return services
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, error) {
	return sqlite.NewDB(ctx, cfg.GetDatabasePath())
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
