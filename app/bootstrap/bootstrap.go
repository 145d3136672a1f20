package bootstrap

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hrhub/backend-go/app/controllers"
	"github.com/hrhub/backend-go/app/middleware"
	"github.com/hrhub/backend-go/internal/auth"
	"github.com/hrhub/backend-go/internal/config"
	"github.com/hrhub/backend-go/internal/database"
	"github.com/hrhub/backend-go/internal/kafka"
	"github.com/hrhub/backend-go/internal/knowledge"
	"github.com/hrhub/backend-go/internal/logger"
	"github.com/hrhub/backend-go/internal/repository"
	"github.com/hrhub/backend-go/internal/services"
	"github.com/hrhub/backend-go/internal/storage"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks []func() error

	VectorStore knowledge.VectorStore
	Embedder    knowledge.Embedder
}

// Init bootstraps configuration, logger, database connections and the
// retrieval pipeline required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	app := &App{}

	// Initialize database.
	if _, err := database.InitDB(); err != nil {
		return nil, err
	}
	app.cleanupTasks = append(app.cleanupTasks, database.CloseDB)

	// Initialize Redis (optional). Failure shouldn't block the app.
	if _, err := database.InitRedis(); err != nil {
		logger.Warn("Failed to initialize Redis", zap.Error(err))
	} else {
		app.cleanupTasks = append(app.cleanupTasks, database.CloseRedis)
	}

	// Initialize MinIO (optional). Failure shouldn't block the app.
	minioService, err := storage.NewMinIOService()
	if err != nil {
		logger.Warn("Failed to initialize MinIO", zap.Error(err))
		minioService = nil
	}

	// Vector store: shared handle with process lifecycle. Milvus keeps the
	// index across restarts, the in-memory store starts empty.
	store, err := buildVectorStore(cfg)
	if err != nil {
		return nil, err
	}
	app.VectorStore = store

	// Embedding and chat clients share the OpenAI credentials.
	embedder := knowledge.NewOpenAIEmbedder(cfg.Knowledge.Embedding.APIKey, cfg.Knowledge.Embedding.Model)
	app.Embedder = embedder
	if !embedder.Ready() {
		logger.Warn("Embedding provider not configured, queries will return degraded answers")
	}
	chatClient := knowledge.NewOpenAIChatClient(
		cfg.Knowledge.Chat.APIKey,
		cfg.Knowledge.Chat.Model,
		cfg.Knowledge.Chat.MaxTokens,
		float32(cfg.Knowledge.Chat.Temperature),
	)

	// Retrieval pipeline.
	parsers := knowledge.NewParserRegistry()
	chunker := knowledge.NewSectionChunker(
		cfg.Knowledge.MinSectionLength,
		cfg.Knowledge.MaxSectionLength,
		cfg.Knowledge.MaxChunkLength,
	)
	ingestor := knowledge.NewIngestor(parsers, chunker, embedder, store)
	retriever := knowledge.NewRetriever(embedder, store, cfg.Knowledge.TopK)
	composer := knowledge.NewAnswerComposer(chatClient)
	recommender := knowledge.NewFormRecommender()

	// Repositories.
	policyRepo := repository.NewPolicyRepository(database.DB)
	formRepo := repository.NewFormRepository(database.DB)
	queryRepo := repository.NewQueryRepository(database.DB)
	userRepo := repository.NewUserRepository(database.DB)

	// JWT authentication.
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	middleware.InitAuth(jwtService)

	// Initialize Kafka (optional). Failure shouldn't block the app.
	if cfg.Kafka.Enabled {
		if err := kafka.InitProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			logger.Warn("Failed to initialize Kafka producer", zap.Error(err))
		} else {
			app.cleanupTasks = append(app.cleanupTasks, func() error {
				if producer := kafka.GetProducer(); producer != nil {
					return producer.Close()
				}
				return nil
			})
		}
	}

	// Services.
	controllers.Init(controllers.Services{
		Query:     services.NewQueryService(retriever, composer, recommender, formRepo, queryRepo, time.Duration(cfg.Knowledge.QueryTimeout)*time.Second),
		Policy:    services.NewPolicyService(policyRepo, ingestor, store, parsers, chunker, minioService, ""),
		Form:      services.NewFormService(formRepo),
		User:      services.NewUserService(userRepo, jwtService),
		Analytics: services.NewAnalyticsService(queryRepo),
		Admin:     services.NewAdminService(policyRepo, formRepo, userRepo, queryRepo, store, cfg.Knowledge.BackupDir),
	})

	return app, nil
}

func buildVectorStore(cfg *config.Config) (knowledge.VectorStore, error) {
	if cfg.Knowledge.VectorStore.Provider != "milvus" {
		logger.Info("Using in-memory vector store")
		return knowledge.NewMemoryVectorStore(), nil
	}

	mc := cfg.Knowledge.VectorStore.Milvus
	store, err := knowledge.NewMilvusVectorStore(knowledge.MilvusOptions{
		Address:    mc.Address,
		Username:   mc.Username,
		Password:   mc.Password,
		Collection: mc.Collection,
		Database:   mc.Database,
		UseTLS:     mc.TLS,
		VectorSize: mc.VectorSize,
		Distance:   mc.Distance,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to Milvus",
		zap.String("address", mc.Address),
		zap.String("collection", mc.Collection))
	return store, nil
}

// Shutdown flushes logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}
	logger.Sync()
}
