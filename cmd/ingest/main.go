package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"propchat/internal/config"
	"propchat/internal/ingest"
	"propchat/internal/repository"
	"propchat/internal/service"
	"propchat/internal/storage"
)

func main() {
	log.Printf("Property Chat Ingestion Worker")
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

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
	if !cfg.OpenAI.Enabled {
		log.Fatal("OPENAI_API_KEY is required: ingestion cannot embed documents without it")
	}

	// Initialize object storage
	objectStore, err := storage.NewClient(&cfg.Minio)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	log.Printf("✅ Object storage connected (%s)", cfg.Minio.Endpoint)

	pipeline := ingest.NewPipeline(objectStore, aiClient, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop listening on interrupt
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down ingestion worker...")
		cancel()
	}()

	log.Printf("👂 Listening for new objects in bucket %s", cfg.Minio.ListingsBucket)

	// One event, one sequential ingestion run
	for event := range objectStore.ListenObjectCreated(ctx, cfg.Minio.ListingsBucket) {
		summary, err := pipeline.ProcessObject(ctx, event.Bucket, event.Key)
		if err != nil {
			log.Printf("Ingestion failed for %s/%s: %v", event.Bucket, event.Key, err)
			continue
		}
		log.Printf("Ingested %s/%s: %d processed, %d failed, %d total",
			event.Bucket, event.Key, summary.Processed, summary.Failed, summary.Total)
	}

	log.Println("✅ Ingestion worker stopped")
}
