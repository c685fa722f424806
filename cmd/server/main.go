package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"propchat/internal/config"
	"propchat/internal/handler"
	"propchat/internal/ingest"
	"propchat/internal/repository"
	"propchat/internal/service"
	"propchat/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("Property Chat API")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection (vector index)
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Initialize AI client
	aiClient := service.NewOpenAIClient(&cfg.OpenAI)
	if cfg.OpenAI.Enabled {
		log.Printf("✅ AI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Embedding model: %s (%d dims)", cfg.OpenAI.EmbeddingModel, cfg.OpenAI.EmbeddingDimensions)
	} else {
		log.Println("⚠️  OpenAI is disabled - intent classification and retrieval will degrade")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI features")
	}

	// Initialize object storage (intent side channel + manual ingestion)
	var intentStore service.IntentStore
	objectStore, err := storage.NewClient(&cfg.Minio)
	if err != nil {
		log.Printf("⚠️  Object storage unavailable, intent records will not be persisted: %v", err)
	} else {
		if err := objectStore.EnsureBucket(context.Background(), cfg.Minio.IntentsBucket); err != nil {
			log.Printf("⚠️  Failed to ensure intents bucket: %v", err)
		}
		intentStore = objectStore
		log.Printf("✅ Object storage connected (%s)", cfg.Minio.Endpoint)
	}

	// Initialize services
	intentExtractor := service.NewIntentExtractor(aiClient)
	chatService := service.NewChatService(repo, aiClient, intentExtractor, intentStore, cfg.Search.TopK)

	log.Println("✅ Services initialized")

	// Initialize handlers
	chatHandler := handler.NewChatHandler(chatService)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "property-chat",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/chat", chatHandler.Chat)

		// Manual ingestion trigger, available when object storage is up
		if objectStore != nil {
			pipeline := ingest.NewPipeline(objectStore, aiClient, repo)
			ingestHandler := handler.NewIngestHandler(pipeline)
			apiV1.POST("/ingest", ingestHandler.Trigger)
		}
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)

	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
