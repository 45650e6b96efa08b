package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"shortlister/internal/config"
	"shortlister/internal/handlers"
	"shortlister/internal/logger"
	"shortlister/internal/models"
	"shortlister/internal/repositories"
	"shortlister/internal/services"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	requisites, err := loadRequisites(cfg)
	if err != nil {
		zlog.Fatal("failed to load requisites", zap.Error(err))
	}

	pipelineCfg := services.PipelineConfig{
		Requisites:        requisites,
		ChunkSize:         cfg.Pipeline.ChunkSize,
		ChunkOverlap:      cfg.Pipeline.ChunkOverlap,
		MinDocumentChars:  cfg.Pipeline.MinDocumentChars,
		EvidenceK:         cfg.Pipeline.EvidenceK,
		ExtractionRetries: cfg.Pipeline.ExtractionRetries,
		JudgeRetries:      cfg.Pipeline.JudgeRetries,
		SummaryRetries:    cfg.Pipeline.SummaryRetries,
		IndexAttempts:     cfg.Pipeline.IndexAttempts,
		IndexRetryDelay:   cfg.Pipeline.IndexRetryDelay,
		EvalConcurrency:   cfg.Pipeline.EvalConcurrency,
		MaxTokens:         cfg.LLM.MaxTokens,
		Temperature:       cfg.LLM.Temperature,
		StrengthThreshold: cfg.Pipeline.StrengthThreshold,
		GapThreshold:      cfg.Pipeline.GapThreshold,
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	zlog.Info("database connected")

	candidateRepo := repositories.NewCandidateRepository(db)
	jobRepo := repositories.NewEvaluationJobRepository(db)
	resultRepo := repositories.NewResultRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		zlog.Fatal("failed to create upload directory", zap.Error(err))
	}

	extractor := services.NewPDFExtractor()

	llmClient, err := services.NewLLMClient(services.LLMOptions{
		Provider:         cfg.LLM.Provider,
		GeminiAPIKey:     cfg.LLM.GeminiAPIKey,
		GeminiModel:      cfg.LLM.GeminiModel,
		GeminiEmbedModel: cfg.LLM.GeminiEmbedModel,
		OllamaURL:        cfg.LLM.OllamaURL,
		OllamaModel:      cfg.LLM.OllamaModel,
		OllamaEmbedModel: cfg.LLM.OllamaEmbedModel,
		RequestTimeout:   cfg.LLM.RequestTimeout,
	})
	if err != nil {
		zlog.Fatal("failed to initialize llm client", zap.Error(err))
	}
	zlog.Info("llm client ready", zap.String("provider", cfg.LLM.Provider))

	vectorStore, err := services.NewQdrantStore(
		cfg.Qdrant.URL,
		cfg.Qdrant.APIKey,
		cfg.Qdrant.Collection,
		cfg.Qdrant.VectorSize,
		cfg.Qdrant.Timeout,
		zlog,
	)
	if err != nil {
		zlog.Fatal("failed to initialize qdrant", zap.Error(err))
	}
	if err := vectorStore.EnsureCollection(context.Background()); err != nil {
		zlog.Fatal("failed to ensure qdrant collection", zap.Error(err))
	}
	zlog.Info("vector store ready", zap.String("collection", cfg.Qdrant.Collection))

	prompts := services.NewPromptBuilder()
	chunker := services.NewChunker(pipelineCfg)
	indexer := services.NewChunkIndexer(llmClient, vectorStore, pipelineCfg, zlog)
	retriever := services.NewRetriever(llmClient, vectorStore, zlog)
	factExtractor := services.NewFactExtractor(llmClient, prompts, pipelineCfg, zlog)
	criterionEvaluator := services.NewCriterionEvaluator(retriever, llmClient, prompts, pipelineCfg, zlog)
	summaryGenerator := services.NewSummaryGenerator(llmClient, prompts, pipelineCfg, zlog)

	orchestrator, err := services.NewOrchestrator(
		pipelineCfg,
		chunker,
		indexer,
		factExtractor,
		criterionEvaluator,
		summaryGenerator,
		vectorStore,
		candidateRepo,
		resultRepo,
		zlog,
	)
	if err != nil {
		zlog.Fatal("invalid pipeline configuration", zap.Error(err))
	}
	zlog.Info("pipeline ready", zap.Int("requisites", len(requisites)))

	worker := services.NewWorker(jobRepo, orchestrator, cfg.Worker.Concurrency, cfg.Worker.PollInterval, zlog)
	worker.Start(context.Background())

	uploadHandler := handlers.NewUploadHandler(
		candidateRepo,
		storageService,
		extractor,
		orchestrator,
		cfg.Storage.MaxFileSize,
		zlog,
	)
	evaluateHandler := handlers.NewEvaluationHandler(jobRepo, candidateRepo, worker)
	resultHandler := handlers.NewResultHandler(jobRepo, resultRepo)

	app := fiber.New(fiber.Config{
		AppName:      "Resume Shortlister API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"provider": cfg.LLM.Provider,
			"time":     time.Now(),
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/evaluate", evaluateHandler.HandleEvaluate)
	api.Get("/result/:id", resultHandler.HandleGetJob)
	api.Get("/results", resultHandler.HandleListResults)
	api.Get("/results/:id", resultHandler.HandleGetResult)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Shortlister API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/evaluate",
				"GET /api/v1/result/:id",
				"GET /api/v1/results",
				"GET /api/v1/results/:id",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			zlog.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

func loadRequisites(cfg *config.Config) ([]models.Requisite, error) {
	if cfg.Pipeline.RequisitesFile != "" {
		return config.LoadRequisites(cfg.Pipeline.RequisitesFile)
	}
	return config.DefaultRequisites(), nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
