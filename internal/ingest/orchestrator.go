package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/videolang/videolang/internal/ai"
	"github.com/videolang/videolang/internal/media"
	"github.com/videolang/videolang/internal/models"
)

// MediaFetcher materializes a video's remote bytes as a scoped local file.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (*media.LocalMedia, error)
}

// FrameOpener opens a local video file as a frame sequence.
type FrameOpener interface {
	Open(ctx context.Context, videoPath string) (FrameSource, error)
}

// VideoStore is the slice of the video repository the pipeline needs.
type VideoStore interface {
	GetVideoByID(ctx context.Context, id string) (*models.Video, error)
	SetStatus(ctx context.Context, id, status string) error
	MarkProcessed(ctx context.Context, id, transcript string, frames []models.VisualFrame) error
	MarkFailed(ctx context.Context, id string) error
}

// NewSamplerOpener adapts *media.Sampler to the FrameOpener interface.
func NewSamplerOpener(s *media.Sampler) FrameOpener {
	return samplerOpener{s}
}

type samplerOpener struct {
	sampler *media.Sampler
}

func (o samplerOpener) Open(ctx context.Context, videoPath string) (FrameSource, error) {
	return o.sampler.Open(ctx, videoPath)
}

// Orchestrator runs the ingestion pipeline for one video:
// fetch -> sample/describe frames -> transcribe -> persist.
//
// State machine: pending -> processing -> processed | failed. Transcription
// failure is terminal; vision failure only degrades the result. The local
// media copy is released on every exit path.
type Orchestrator struct {
	fetcher     MediaFetcher
	opener      FrameOpener
	analyzer    *Analyzer
	transcriber ai.TranscriptionService
	videos      VideoStore

	// MaxDuration rejects videos longer than this many seconds before any
	// model calls are spent on them. Zero disables the cap.
	MaxDuration float64
}

func NewOrchestrator(
	fetcher MediaFetcher,
	opener FrameOpener,
	analyzer *Analyzer,
	transcriber ai.TranscriptionService,
	videos VideoStore,
) *Orchestrator {
	return &Orchestrator{
		fetcher:     fetcher,
		opener:      opener,
		analyzer:    analyzer,
		transcriber: transcriber,
		videos:      videos,
	}
}

// Process runs the pipeline to a terminal state. The returned error reports
// why a video failed; callers decoupled from processing only log it. A
// failure is always scoped to this one video.
func (o *Orchestrator) Process(ctx context.Context, videoID string) (err error) {
	video, err := o.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("getting video: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			o.fail(videoID, err)
		}
	}()

	if err := o.videos.SetStatus(ctx, videoID, models.StatusProcessing); err != nil {
		return fmt.Errorf("marking video processing: %w", err)
	}

	log.Printf("[INGEST] Processing video %s (%s)", videoID, video.FileURL)

	local, err := o.fetcher.Fetch(ctx, video.FileURL)
	if err != nil {
		o.fail(videoID, err)
		return err
	}
	defer func() {
		if releaseErr := local.Release(); releaseErr != nil {
			log.Printf("[INGEST] Failed to release media for video %s: %v", videoID, releaseErr)
		}
	}()

	seq, err := o.opener.Open(ctx, local.Path)
	if err != nil {
		o.fail(videoID, err)
		return err
	}
	defer seq.Close()

	if o.MaxDuration > 0 && seq.Duration() > o.MaxDuration {
		err = fmt.Errorf("video duration %.1fs exceeds limit of %.0fs", seq.Duration(), o.MaxDuration)
		o.fail(videoID, err)
		return err
	}

	log.Printf("[INGEST] Video %s duration %.2fs, analyzing frames", videoID, seq.Duration())
	frames := o.analyzer.Analyze(ctx, seq)
	log.Printf("[INGEST] Video %s: %d frames described", videoID, len(frames))

	transcript, err := o.transcriber.Transcribe(ctx, local.Path)
	if err != nil {
		o.fail(videoID, err)
		return err
	}

	if err := o.videos.MarkProcessed(ctx, videoID, transcript, frames); err != nil {
		o.fail(videoID, err)
		return fmt.Errorf("persisting analysis: %w", err)
	}

	log.Printf("[INGEST] Video %s processed", videoID)
	return nil
}

// fail records the terminal failed state. It uses a fresh context so the
// transition is recorded even when the pipeline died by cancellation.
func (o *Orchestrator) fail(videoID string, cause error) {
	log.Printf("[INGEST] Video %s failed: %v", videoID, cause)
	if err := o.videos.MarkFailed(context.Background(), videoID); err != nil {
		log.Printf("[INGEST] Failed to mark video %s failed: %v", videoID, err)
	}
}
