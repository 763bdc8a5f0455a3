package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoQuestion is one answered question against a processed video.
// Immutable once created.
type VideoQuestion struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	Question  string    `json:"question"`
	Timestamp float64   `json:"timestamp"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

func NewVideoQuestion(videoID, question string, timestamp float64, answer string) *VideoQuestion {
	return &VideoQuestion{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		Question:  question,
		Timestamp: timestamp,
		Answer:    answer,
		CreatedAt: time.Now(),
	}
}
