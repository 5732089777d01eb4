package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"incident-backend/internal/classify"
	"incident-backend/internal/documents"
	"incident-backend/internal/extraction"
	"incident-backend/internal/llm"
	"incident-backend/internal/llm/anthropic"
	"incident-backend/internal/llm/ollama"
	"incident-backend/internal/llm/openai"
	"incident-backend/internal/queue"
	"incident-backend/internal/quotes"
	"incident-backend/internal/shared/config"
	"incident-backend/internal/shared/server"
	"incident-backend/internal/shared/storage/db"
	"incident-backend/internal/shared/storage/object"
	localstore "incident-backend/internal/shared/storage/object/local"
	s3store "incident-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	LLM               llm.Client
	DocumentsRepo     documents.Repo
	QuotesRepo        quotes.Repo
	DocumentsService  *documents.Service
	ExtractionService *extraction.Service
	DocumentsHandler  *documents.Handler
	ExtractionHandler *extraction.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		DocumentsHandler:  app.DocumentsHandler,
		ExtractionHandler: app.ExtractionHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("IR_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

// buildLLM assembles the provider chain in preference order: a local Ollama
// server when configured, then hosted fallbacks for which credentials exist.
// An empty chain is allowed; extraction runs then fail with a clear error
// while ingestion keeps working.
func buildLLM(cfg config.Config) (llm.Client, error) {
	var clients []llm.Client

	if strings.TrimSpace(cfg.OllamaBaseURL) != "" {
		client, err := ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		client, err := openai.NewClient(key, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
		client, err := anthropic.NewClient(key, cfg.AnthropicModel)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	if len(clients) == 0 {
		log.Printf("bootstrap: no model providers configured; extraction will be unavailable")
	}
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	return llm.NewChain(timeout, clients...), nil
}

func buildServices(app *App) error {
	var docRepo documents.Repo
	var quoteRepo quotes.Repo

	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		quoteRepo = &quotes.PGRepo{DB: app.DB}
	} else {
		docMem := documents.NewMemoryRepo()
		quoteMem := quotes.NewMemoryRepo()
		quoteMem.MarkProcessed = docMem.MarkProcessed
		docRepo = docMem
		quoteRepo = quoteMem
	}

	model, err := buildLLM(app.Config)
	if err != nil {
		return err
	}

	classifier := classify.New(model, app.Config.MinSentenceLen, app.Config.MinConfidence)
	docSvc := documents.NewService(app.Store, docRepo)
	extractSvc := extraction.NewService(docRepo, quoteRepo, classifier, app.Config.BatchSize, app.Config.ExtractionVersion)

	app.LLM = model
	app.DocumentsRepo = docRepo
	app.QuotesRepo = quoteRepo
	app.DocumentsService = docSvc
	app.ExtractionService = extractSvc
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.ExtractionHandler = extraction.NewHandler(extractSvc, app.Queue, quoteRepo)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
