package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/codeseed-ai/codeseed/internal/config"
	"github.com/codeseed-ai/codeseed/internal/core"
	"github.com/codeseed-ai/codeseed/internal/core/auth"
	db "github.com/codeseed-ai/codeseed/internal/core/database"
	"github.com/codeseed-ai/codeseed/internal/core/llm"
	objectclient "github.com/codeseed-ai/codeseed/internal/core/object-client"
	"github.com/codeseed-ai/codeseed/internal/services"
)

// App owns every long-lived dependency and the HTTP server.
type App struct {
	DBClient core.DbClient
	Server   *Server
	Logger   *zap.Logger
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var (
		dbClient  *db.DatabaseClient
		objClient *objectclient.S3Client
		llmClient *llm.GeminiLLM
		embedder  *llm.GeminiEmbedder
	)

	// Independent clients initialize in parallel.
	g, gCtx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		var err error
		dbClient, err = db.NewDatabaseClient(gCtx, cfg)
		return err
	})
	g.Go(func() error {
		var err error
		llmClient, err = llm.NewGeminiLLM(gCtx, cfg.AIAPIKey)
		return err
	})
	g.Go(func() error {
		var err error
		embedder, err = llm.NewGeminiEmbedder(gCtx, cfg.AIAPIKey, cfg.EmbedModel)
		return err
	})
	g.Go(func() error {
		// Object storage is optional; publishing is disabled without it.
		c, err := objectclient.NewS3Client(gCtx, cfg)
		if err != nil {
			logger.Warn("object storage unavailable, publishing disabled", zap.Error(err))
			return nil
		}
		objClient = c
		return nil
	})
	if err := g.Wait(); err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Info("infrastructure ready")

	var mailer core.Mailer
	if cfg.SMTPHost != "" {
		mailer = auth.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SenderEmail)
	} else {
		logger.Warn("SMTP unconfigured, mail goes to the log")
		mailer = auth.NewLogMailer(logger)
	}

	authSvc := services.NewAuthService(dbClient, mailer, cfg.GoogleClientID, logger)
	chatSvc := services.NewChatService(dbClient, llmClient, embedder, cfg.GenModels, logger)

	var publishSvc *services.PublishService
	if objClient != nil {
		publishSvc = services.NewPublishService(objClient, objClient.Bucket(), logger)
	}

	server := NewServer(cfg, logger, authSvc, chatSvc, publishSvc)

	return &App{DBClient: dbClient, Server: server, Logger: logger}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
