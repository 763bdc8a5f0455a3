// Command process-video runs the ingestion pipeline for one video from the
// command line. It is also the re-invocation path for videos that ended up
// in the failed state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/videolang/videolang/internal/ai"
	"github.com/videolang/videolang/internal/database"
	"github.com/videolang/videolang/internal/ingest"
	"github.com/videolang/videolang/internal/media"
)

func main() {
	var videoID = flag.String("id", "", "Video ID to process")
	flag.Parse()

	if *videoID == "" {
		log.Fatal("Please provide video ID with -id flag")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	var dbConfig database.Config
	dbConfig.Type = getEnv("DB_TYPE", "sqlite")
	if dbConfig.Type == "postgres" {
		dbConfig.Host = getEnv("DB_HOST", "localhost")
		port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
		if err != nil {
			log.Fatal("Invalid DB_PORT:", err)
		}
		dbConfig.Port = port
		dbConfig.User = getEnv("DB_USER", "videolang")
		dbConfig.Password = getEnv("DB_PASSWORD", "videolang_dev")
		dbConfig.Name = getEnv("DB_NAME", "videolang")
	} else {
		dbConfig.SQLitePath = getEnv("DB_PATH", "./videolang.db")
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	videoRepo := database.NewVideoRepository(db)

	video, err := videoRepo.GetVideoByID(context.Background(), *videoID)
	if err != nil {
		log.Fatal("Failed to get video:", err)
	}
	fmt.Printf("Processing video: %s (%s)\n", video.Title, video.Status)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY must be set")
	}
	client := ai.NewOpenAIClient(apiKey)

	sampler, err := media.NewSampler(512)
	if err != nil {
		log.Fatal("Failed to initialize frame sampler:", err)
	}

	orchestrator := ingest.NewOrchestrator(
		media.NewFetcher(),
		ingest.NewSamplerOpener(sampler),
		ingest.NewAnalyzer(client, 4),
		client,
		videoRepo,
	)

	if err := orchestrator.Process(context.Background(), *videoID); err != nil {
		log.Fatal("Processing failed:", err)
	}

	processed, err := videoRepo.GetVideoByID(context.Background(), *videoID)
	if err != nil {
		log.Fatal("Failed to reload video:", err)
	}
	fmt.Printf("Done. Status: %s, %d visual frames\n", processed.Status, len(processed.VisualAnalysis))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
