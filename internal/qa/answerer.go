package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/videolang/videolang/internal/ai"
	"github.com/videolang/videolang/internal/models"
)

const systemPrompt = "You are a helpful assistant answering questions about videos."

// NotReadyError is returned when a question targets a video that has not
// been processed yet.
type NotReadyError struct {
	VideoID string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("video %s has not been processed yet", e.VideoID)
}

// ParseError is returned when the reasoning service's response does not
// follow the required two-line Timestamp/Answer format.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

// QuestionStore persists answered questions.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, q *models.VideoQuestion) error
}

// Answerer answers natural-language questions against a processed video's
// transcript and visual timeline.
type Answerer struct {
	reasoning ai.ReasoningService
	questions QuestionStore
}

func NewAnswerer(reasoning ai.ReasoningService, questions QuestionStore) *Answerer {
	return &Answerer{reasoning: reasoning, questions: questions}
}

// Ask answers one question. The video must have a transcript; otherwise the
// reasoning service is never called and a NotReadyError is returned. On
// success the answer is persisted and returned.
func (a *Answerer) Ask(ctx context.Context, video *models.Video, question string) (*models.VideoQuestion, error) {
	if !video.HasTranscript() {
		return nil, &NotReadyError{VideoID: video.ID}
	}

	prompt, err := buildPrompt(video, question)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	raw, err := a.reasoning.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("reasoning request failed: %w", err)
	}

	timestamp, answer, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	record := models.NewVideoQuestion(video.ID, question, timestamp, answer)
	if err := a.questions.CreateQuestion(ctx, record); err != nil {
		return nil, fmt.Errorf("saving question: %w", err)
	}
	return record, nil
}

func buildPrompt(video *models.Video, question string) (string, error) {
	timeline := video.VisualAnalysis
	if timeline == nil {
		timeline = []models.VisualFrame{}
	}
	timelineJSON, err := json.Marshal(timeline)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are given the transcript and a per-second visual timeline of a video.\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(*video.Transcript)
	b.WriteString("\n\nVisual timeline (JSON array of {timestamp, description}):\n")
	b.Write(timelineJSON)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nFind the single most relevant timestamp in seconds and answer the question.\n")
	b.WriteString("Respond in exactly two lines:\n")
	b.WriteString("Timestamp: <number>\n")
	b.WriteString("Answer: <text>\n")
	return b.String(), nil
}

// parseResponse validates the two-line Timestamp/Answer contract. Whitespace
// around lines and labels is tolerated; missing labels or a non-numeric
// timestamp are not.
func parseResponse(raw string) (float64, string, error) {
	trimmed := strings.TrimSpace(raw)
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return 0, "", &ParseError{Raw: raw, Reason: "expected two lines"}
	}

	tsValue, ok := cutLabel(lines[0], "Timestamp")
	if !ok {
		return 0, "", &ParseError{Raw: raw, Reason: `first line is not "Timestamp: <number>"`}
	}
	timestamp, err := strconv.ParseFloat(tsValue, 64)
	if err != nil {
		return 0, "", &ParseError{Raw: raw, Reason: fmt.Sprintf("timestamp %q is not numeric", tsValue)}
	}
	if timestamp < 0 {
		return 0, "", &ParseError{Raw: raw, Reason: fmt.Sprintf("timestamp %v is negative", timestamp)}
	}

	answer, ok := cutLabel(lines[1], "Answer")
	if !ok {
		return 0, "", &ParseError{Raw: raw, Reason: `second line is not "Answer: <text>"`}
	}
	// The answer may run onto further lines.
	if len(lines) > 2 {
		rest := strings.TrimSpace(strings.Join(lines[2:], "\n"))
		if rest != "" {
			answer = answer + "\n" + rest
		}
	}
	if answer == "" {
		return 0, "", &ParseError{Raw: raw, Reason: "empty answer"}
	}

	return timestamp, answer, nil
}

func cutLabel(line, label string) (string, bool) {
	name, value, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok || !strings.EqualFold(strings.TrimSpace(name), label) {
		return "", false
	}
	return strings.TrimSpace(value), true
}
