package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/videolang/videolang/internal/models"
)

var ErrVideoNotFound = errors.New("video not found")

type VideoRepository struct {
	db *DB
}

func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) InsertVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (id, title, file_url, transcript, visual_analysis, status, processed, user_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	analysisJSON, err := marshalAnalysis(video.VisualAnalysis)
	if err != nil {
		return err
	}

	_, err = r.db.conn.ExecContext(ctx, query,
		video.ID,
		video.Title,
		video.FileURL,
		video.Transcript,
		analysisJSON,
		video.Status,
		video.Processed,
		video.UserID,
		video.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *VideoRepository) GetVideoByID(ctx context.Context, id string) (*models.Video, error) {
	query := `
		SELECT id, title, file_url, transcript, visual_analysis, status, processed, user_id, uploaded_at
		FROM videos
		WHERE id = $1`

	video, err := scanVideo(r.db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

func (r *VideoRepository) ListVideosByUser(ctx context.Context, userID string) ([]models.Video, error) {
	query := `
		SELECT id, title, file_url, transcript, visual_analysis, status, processed, user_id, uploaded_at
		FROM videos
		WHERE user_id = $1
		ORDER BY uploaded_at DESC`

	rows, err := r.db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}

// SetStatus records a non-terminal state transition, e.g. pending to
// processing.
func (r *VideoRepository) SetStatus(ctx context.Context, id, status string) error {
	result, err := r.db.conn.ExecContext(ctx,
		`UPDATE videos SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update video status: %w", err)
	}
	return requireRow(result)
}

// MarkProcessed finalizes a successful pipeline run in a single write:
// transcript set, visual timeline attached (possibly empty) and the video
// flipped to processed.
func (r *VideoRepository) MarkProcessed(ctx context.Context, id, transcript string, frames []models.VisualFrame) error {
	analysisJSON, err := marshalAnalysis(frames)
	if err != nil {
		return err
	}

	query := `
		UPDATE videos
		SET transcript = $1, visual_analysis = $2, status = $3, processed = $4
		WHERE id = $5`

	result, err := r.db.conn.ExecContext(ctx, query,
		transcript, analysisJSON, models.StatusProcessed, true, id)
	if err != nil {
		return fmt.Errorf("failed to mark video processed: %w", err)
	}
	return requireRow(result)
}

// MarkFailed finalizes a failed pipeline run: no transcript, no timeline,
// processed stays false.
func (r *VideoRepository) MarkFailed(ctx context.Context, id string) error {
	query := `
		UPDATE videos
		SET transcript = NULL, visual_analysis = NULL, status = $1, processed = $2
		WHERE id = $3`

	result, err := r.db.conn.ExecContext(ctx, query, models.StatusFailed, false, id)
	if err != nil {
		return fmt.Errorf("failed to mark video failed: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// marshalAnalysis serializes the visual timeline for storage. An empty
// timeline is stored as NULL, matching the unprocessed/degraded cases.
func marshalAnalysis(frames []models.VisualFrame) (sql.NullString, error) {
	if len(frames) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(frames)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal visual analysis: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var (
		video      models.Video
		transcript sql.NullString
		analysis   sql.NullString
	)

	err := row.Scan(
		&video.ID,
		&video.Title,
		&video.FileURL,
		&transcript,
		&analysis,
		&video.Status,
		&video.Processed,
		&video.UserID,
		&video.UploadedAt,
	)
	if err != nil {
		return nil, err
	}

	if transcript.Valid {
		video.Transcript = &transcript.String
	}
	if analysis.Valid && analysis.String != "" {
		if err := json.Unmarshal([]byte(analysis.String), &video.VisualAnalysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal visual analysis: %w", err)
		}
	}
	return &video, nil
}
