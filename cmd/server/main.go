package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/videolang/videolang/internal/ai"
	"github.com/videolang/videolang/internal/api"
	"github.com/videolang/videolang/internal/auth"
	"github.com/videolang/videolang/internal/database"
	"github.com/videolang/videolang/internal/ingest"
	"github.com/videolang/videolang/internal/media"
	"github.com/videolang/videolang/internal/qa"
	"github.com/videolang/videolang/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:"+port)
	uploadDir := getEnv("UPLOAD_DIR", "./uploads")

	maxSize, err := strconv.ParseInt(getEnv("MAX_UPLOAD_SIZE", "104857600"), 10, 64)
	if err != nil {
		log.Fatal("Invalid MAX_UPLOAD_SIZE:", err)
	}

	maxDuration, err := strconv.ParseFloat(getEnv("MAX_VIDEO_DURATION", "180"), 64)
	if err != nil {
		log.Fatal("Invalid MAX_VIDEO_DURATION:", err)
	}

	frameSize, err := strconv.Atoi(getEnv("FRAME_SIZE", "512"))
	if err != nil {
		log.Fatal("Invalid FRAME_SIZE:", err)
	}

	visionWorkers, err := strconv.Atoi(getEnv("VISION_WORKERS", "4"))
	if err != nil {
		log.Fatal("Invalid VISION_WORKERS:", err)
	}

	var dbConfig database.Config
	dbConfig.Type = getEnv("DB_TYPE", "sqlite")
	if dbConfig.Type == "postgres" {
		dbConfig.Host = getEnv("DB_HOST", "localhost")
		dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
		if err != nil {
			log.Fatal("Invalid DB_PORT:", err)
		}
		dbConfig.Port = dbPort
		dbConfig.User = getEnv("DB_USER", "videolang")
		dbConfig.Password = getEnv("DB_PASSWORD", "videolang_dev")
		dbConfig.Name = getEnv("DB_NAME", "videolang")
	} else {
		dbConfig.SQLitePath = getEnv("DB_PATH", "./videolang.db")
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	migrationsPath := getEnv("MIGRATIONS_PATH", "./migrations")
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	localStorage, err := storage.NewLocalStorage(uploadDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY must be set")
	}

	var client *ai.OpenAIClient
	if baseURLOverride := os.Getenv("OPENAI_BASE_URL"); baseURLOverride != "" {
		client = ai.NewOpenAIClientWithBaseURL(apiKey, baseURLOverride)
	} else {
		client = ai.NewOpenAIClient(apiKey)
	}

	sampler, err := media.NewSampler(frameSize)
	if err != nil {
		log.Fatal("Failed to initialize frame sampler:", err)
	}

	videoRepo := database.NewVideoRepository(db)
	questionRepo := database.NewQuestionRepository(db)

	orchestrator := ingest.NewOrchestrator(
		media.NewFetcher(),
		ingest.NewSamplerOpener(sampler),
		ingest.NewAnalyzer(client, visionWorkers),
		client,
		videoRepo,
	)
	orchestrator.MaxDuration = maxDuration

	app := &api.App{
		VideoRepo:     videoRepo,
		QuestionRepo:  questionRepo,
		Storage:       localStorage,
		UploadURLs:    storage.NewLocalProvider(baseURL),
		Users:         &auth.HeaderProvider{DefaultUser: getEnv("DEFAULT_USER_ID", "local")},
		Ingestor:      orchestrator,
		Answerer:      qa.NewAnswerer(client, questionRepo),
		MaxUploadSize: maxSize,
	}

	router := api.NewRouter(app)

	log.Printf("Server starting on port %s", port)
	log.Printf("Upload directory: %s", uploadDir)
	log.Printf("Database type: %s", dbConfig.Type)
	log.Printf("Max upload size: %d bytes", maxSize)
	log.Printf("Max video duration: %.0fs", maxDuration)

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
