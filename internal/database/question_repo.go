package database

import (
	"context"
	"fmt"

	"github.com/videolang/videolang/internal/models"
)

type QuestionRepository struct {
	db *DB
}

func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *models.VideoQuestion) error {
	query := `
		INSERT INTO video_questions (id, video_id, question, timestamp, answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.conn.ExecContext(ctx, query,
		q.ID,
		q.VideoID,
		q.Question,
		q.Timestamp,
		q.Answer,
		q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) ListQuestionsByVideo(ctx context.Context, videoID string) ([]models.VideoQuestion, error) {
	query := `
		SELECT id, video_id, question, timestamp, answer, created_at
		FROM video_questions
		WHERE video_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.conn.QueryContext(ctx, query, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.VideoQuestion
	for rows.Next() {
		var q models.VideoQuestion
		err := rows.Scan(&q.ID, &q.VideoID, &q.Question, &q.Timestamp, &q.Answer, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
