package ai

import (
	"context"
	"fmt"
)

// The external model capabilities the pipeline depends on. Injected so tests
// can substitute fakes.

// TranscriptionService turns a local media file into a full-text transcript.
type TranscriptionService interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}

// VisionService returns a short textual description of a single JPEG frame.
type VisionService interface {
	DescribeFrame(ctx context.Context, jpegData []byte) (string, error)
}

// ReasoningService answers a free-form prompt under a system instruction.
type ReasoningService interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// TranscriptionError marks a failed transcription call. Unlike per-frame
// vision errors it is fatal to the ingestion pipeline.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
