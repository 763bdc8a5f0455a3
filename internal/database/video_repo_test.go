package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/videolang/videolang/internal/models"
)

func TestVideoRepository_InsertAndGet(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	ctx := context.Background()

	video := models.NewVideo("Test Video", "http://example.com/v.mp4", "user-1")
	if err := repo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	got, err := repo.GetVideoByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve video: %v", err)
	}

	if got.Title != video.Title {
		t.Errorf("Expected title %s, got %s", video.Title, got.Title)
	}
	if got.FileURL != video.FileURL {
		t.Errorf("Expected file URL %s, got %s", video.FileURL, got.FileURL)
	}
	if got.Status != models.StatusPending {
		t.Errorf("New video should be pending, got %s", got.Status)
	}
	if got.Processed {
		t.Error("New video should not be processed")
	}
	if got.Transcript != nil {
		t.Error("New video should not have a transcript")
	}
	if got.VisualAnalysis != nil {
		t.Error("New video should not have a visual analysis")
	}
}

func TestVideoRepository_GetNotFound(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))

	_, err := repo.GetVideoByID(context.Background(), "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("Expected ErrVideoNotFound, got %v", err)
	}
}

func TestVideoRepository_MarkProcessed(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	ctx := context.Background()

	video := models.NewVideo("Test", "http://example.com/v.mp4", "user-1")
	if err := repo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	frames := []models.VisualFrame{
		{Timestamp: 0, Description: "an empty street"},
		{Timestamp: 1, Description: "a car enters"},
	}
	if err := repo.MarkProcessed(ctx, video.ID, "hello world", frames); err != nil {
		t.Fatalf("Failed to mark processed: %v", err)
	}

	got, err := repo.GetVideoByID(ctx, video.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve video: %v", err)
	}

	if got.Status != models.StatusProcessed || !got.Processed {
		t.Errorf("Expected processed state, got %s", got.Status)
	}
	if got.Transcript == nil || *got.Transcript != "hello world" {
		t.Errorf("Transcript mismatch: %v", got.Transcript)
	}
	if len(got.VisualAnalysis) != 2 {
		t.Fatalf("Expected 2 visual frames, got %d", len(got.VisualAnalysis))
	}
	if got.VisualAnalysis[1].Description != "a car enters" {
		t.Errorf("Visual frame round-trip mismatch: %+v", got.VisualAnalysis[1])
	}
}

func TestVideoRepository_MarkProcessedEmptyTimeline(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	ctx := context.Background()

	video := models.NewVideo("Test", "http://example.com/v.mp4", "user-1")
	if err := repo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	if err := repo.MarkProcessed(ctx, video.ID, "audio only", nil); err != nil {
		t.Fatalf("Failed to mark processed: %v", err)
	}

	got, _ := repo.GetVideoByID(ctx, video.ID)
	if !got.Processed {
		t.Error("Processing success must not be gated on vision results")
	}
	if got.VisualAnalysis != nil {
		t.Errorf("Expected absent visual analysis, got %v", got.VisualAnalysis)
	}
}

func TestVideoRepository_MarkFailed(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	ctx := context.Background()

	video := models.NewVideo("Test", "http://example.com/v.mp4", "user-1")
	if err := repo.InsertVideo(ctx, video); err != nil {
		t.Fatalf("Failed to insert video: %v", err)
	}

	if err := repo.SetStatus(ctx, video.ID, models.StatusProcessing); err != nil {
		t.Fatalf("Failed to set status: %v", err)
	}
	if err := repo.MarkFailed(ctx, video.ID); err != nil {
		t.Fatalf("Failed to mark failed: %v", err)
	}

	got, _ := repo.GetVideoByID(ctx, video.ID)
	if got.Status != models.StatusFailed {
		t.Errorf("Expected failed status, got %s", got.Status)
	}
	if got.Processed {
		t.Error("Failed video must not be processed")
	}
	if got.Transcript != nil {
		t.Error("Failed video must not have a transcript")
	}
}

func TestVideoRepository_TransitionsRequireExistingRow(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.SetStatus(ctx, "missing", models.StatusProcessing); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("SetStatus on missing row: expected ErrVideoNotFound, got %v", err)
	}
	if err := repo.MarkProcessed(ctx, "missing", "t", nil); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("MarkProcessed on missing row: expected ErrVideoNotFound, got %v", err)
	}
	if err := repo.MarkFailed(ctx, "missing"); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("MarkFailed on missing row: expected ErrVideoNotFound, got %v", err)
	}
}

func TestVideoRepository_ListVideosByUser(t *testing.T) {
	repo := NewVideoRepository(setupTestDB(t))
	ctx := context.Background()

	first := models.NewVideo("First", "http://example.com/1.mp4", "user-1")
	first.UploadedAt = time.Now().Add(-time.Hour)
	second := models.NewVideo("Second", "http://example.com/2.mp4", "user-1")
	other := models.NewVideo("Other", "http://example.com/3.mp4", "user-2")

	for _, v := range []*models.Video{first, second, other} {
		if err := repo.InsertVideo(ctx, v); err != nil {
			t.Fatalf("Failed to insert video: %v", err)
		}
	}

	videos, err := repo.ListVideosByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("Failed to list videos: %v", err)
	}

	if len(videos) != 2 {
		t.Fatalf("Expected 2 videos for user-1, got %d", len(videos))
	}
	if videos[0].Title != "Second" || videos[1].Title != "First" {
		t.Errorf("Videos not ordered newest first: %s, %s", videos[0].Title, videos[1].Title)
	}
}
