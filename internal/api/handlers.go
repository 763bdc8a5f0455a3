package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/videolang/videolang/internal/auth"
	"github.com/videolang/videolang/internal/database"
	"github.com/videolang/videolang/internal/models"
	"github.com/videolang/videolang/internal/qa"
	"github.com/videolang/videolang/internal/storage"
)

// Ingestor runs the ingestion pipeline for a registered video.
type Ingestor interface {
	Process(ctx context.Context, videoID string) error
}

// QuestionAnswerer answers one question against a processed video.
type QuestionAnswerer interface {
	Ask(ctx context.Context, video *models.Video, question string) (*models.VideoQuestion, error)
}

type App struct {
	VideoRepo     *database.VideoRepository
	QuestionRepo  *database.QuestionRepository
	Storage       storage.Storage
	UploadURLs    storage.UploadURLProvider
	Users         auth.UserProvider
	Ingestor      Ingestor
	Answerer      QuestionAnswerer
	MaxUploadSize int64
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// UploadURLHandler issues a direct-upload URL pair for a filename.
func (app *App) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	uploadURL, fileURL, err := app.UploadURLs.UploadURL(req.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"upload_url": uploadURL,
		"file_url":   fileURL,
	})
}

// DirectUploadHandler receives the raw video bytes at a previously issued
// upload URL.
func (app *App) DirectUploadHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)
	if err := app.Storage.SaveAs(r.Body, name); err != nil {
		log.Printf("[API] Upload of %s failed: %v", name, err)
		writeError(w, http.StatusBadRequest, "failed to store upload")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// ServeUploadHandler streams a stored upload back, Range requests included.
// The ingestion fetcher reads videos through this endpoint.
func (app *App) ServeUploadHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		http.NotFound(w, r)
		return
	}

	file, err := app.Storage.OpenFile(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	var modTime time.Time
	if f, ok := file.(interface{ Stat() (os.FileInfo, error) }); ok {
		if stat, err := f.Stat(); err == nil {
			modTime = stat.ModTime()
		}
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, name, modTime, file)
}

// CreateVideoHandler registers an uploaded video and kicks off its ingestion
// pipeline. Registration returns immediately; processing is decoupled and
// surfaces only through the video's status.
func (app *App) CreateVideoHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.Users.CurrentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req struct {
		Title   string `json:"title"`
		FileURL string `json:"file_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.FileURL == "" {
		writeError(w, http.StatusBadRequest, "file_url is required")
		return
	}

	video := models.NewVideo(req.Title, req.FileURL, userID)
	if err := app.VideoRepo.InsertVideo(r.Context(), video); err != nil {
		log.Printf("[API] Failed to insert video: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save video")
		return
	}

	go func(id string) {
		if err := app.Ingestor.Process(context.Background(), id); err != nil {
			log.Printf("[API] Ingestion of video %s failed: %v", id, err)
		}
	}(video.ID)

	writeJSON(w, http.StatusCreated, video)
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.Users.CurrentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	videos, err := app.VideoRepo.ListVideosByUser(r.Context(), userID)
	if err != nil {
		log.Printf("[API] Failed to list videos: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list videos")
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	writeJSON(w, http.StatusOK, videos)
}

func (app *App) GetVideoHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.videoFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, video)
}

// AskQuestionHandler answers a question against a processed video,
// synchronously. Question failures are user-visible, unlike pipeline
// failures.
func (app *App) AskQuestionHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.videoFromRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	record, err := app.Answerer.Ask(r.Context(), video, req.Question)
	if err != nil {
		var notReady *qa.NotReadyError
		var parseErr *qa.ParseError
		switch {
		case errors.As(err, &notReady):
			writeError(w, http.StatusConflict, "video has not been processed yet")
		case errors.As(err, &parseErr):
			log.Printf("[API] Malformed answer for video %s: %v", video.ID, err)
			writeError(w, http.StatusBadGateway, "could not interpret model answer")
		default:
			log.Printf("[API] Question on video %s failed: %v", video.ID, err)
			writeError(w, http.StatusBadGateway, "failed to answer question")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":    record.Answer,
		"timestamp": record.Timestamp,
	})
}

func (app *App) ListQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	video, ok := app.videoFromRequest(w, r)
	if !ok {
		return
	}

	questions, err := app.QuestionRepo.ListQuestionsByVideo(r.Context(), video.ID)
	if err != nil {
		log.Printf("[API] Failed to list questions: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list questions")
		return
	}
	if questions == nil {
		questions = []models.VideoQuestion{}
	}

	writeJSON(w, http.StatusOK, questions)
}

func (app *App) videoFromRequest(w http.ResponseWriter, r *http.Request) (*models.Video, bool) {
	videoID := chi.URLParam(r, "id")
	if videoID == "" {
		http.NotFound(w, r)
		return nil, false
	}

	video, err := app.VideoRepo.GetVideoByID(r.Context(), videoID)
	if errors.Is(err, database.ErrVideoNotFound) {
		writeError(w, http.StatusNotFound, "video not found")
		return nil, false
	}
	if err != nil {
		log.Printf("[API] Failed to get video %s: %v", videoID, err)
		writeError(w, http.StatusInternalServerError, "failed to get video")
		return nil, false
	}
	return video, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
