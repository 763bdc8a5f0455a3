package models

import (
	"time"

	"github.com/google/uuid"
)

// Video processing states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// VisualFrame is one entry of a video's visual timeline: what the vision
// model saw at a whole-second mark. Stored as an ordered JSON array on the
// video row, not as its own table.
type VisualFrame struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

type Video struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	FileURL        string        `json:"file_url"`
	Transcript     *string       `json:"transcript"`
	VisualAnalysis []VisualFrame `json:"visual_analysis,omitempty"`
	Status         string        `json:"status"`
	Processed      bool          `json:"processed"`
	UserID         string        `json:"user_id"`
	UploadedAt     time.Time     `json:"uploaded_at"`
}

func NewVideo(title, fileURL, userID string) *Video {
	return &Video{
		ID:         uuid.New().String(),
		Title:      title,
		FileURL:    fileURL,
		Status:     StatusPending,
		UserID:     userID,
		UploadedAt: time.Now(),
	}
}

// HasTranscript reports whether the video finished processing with a usable
// transcript, the precondition for question answering.
func (v *Video) HasTranscript() bool {
	return v.Processed && v.Transcript != nil && *v.Transcript != ""
}
