package ingest

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/videolang/videolang/internal/ai"
	"github.com/videolang/videolang/internal/media"
	"github.com/videolang/videolang/internal/models"
)

// FrameSource is the sampled-frame stream the analyzer consumes.
// *media.FrameSeq satisfies it via NewSamplerOpener; tests substitute fakes.
type FrameSource interface {
	Next() bool
	Frame() media.Frame
	Err() error
	Duration() float64
	Close() error
}

const defaultAnalyzerWorkers = 4

// Analyzer builds a video's visual timeline by describing each sampled frame
// through the vision service. Frame descriptions are independent, so a small
// worker pool runs them concurrently; output stays ordered by timestamp.
type Analyzer struct {
	vision  ai.VisionService
	workers int
}

func NewAnalyzer(vision ai.VisionService, workers int) *Analyzer {
	if workers <= 0 {
		workers = defaultAnalyzerWorkers
	}
	return &Analyzer{vision: vision, workers: workers}
}

// Analyze describes every frame the source yields. Per-frame failures are
// logged and skipped; a total failure yields an empty timeline, never an
// error. Visual analysis enhances a video, it is not a precondition for
// ingesting one.
func (a *Analyzer) Analyze(ctx context.Context, frames FrameSource) []models.VisualFrame {
	jobs := make(chan media.Frame)

	var (
		mu      sync.Mutex
		results []models.VisualFrame
		wg      sync.WaitGroup
	)

	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for frame := range jobs {
				description, err := a.vision.DescribeFrame(ctx, frame.JPEG)
				if err != nil {
					log.Printf("[ANALYZE] Skipping frame at %.0fs: %v", frame.Timestamp, err)
					continue
				}
				if description == "" {
					continue
				}
				mu.Lock()
				results = append(results, models.VisualFrame{
					Timestamp:   frame.Timestamp,
					Description: description,
				})
				mu.Unlock()
			}
		}()
	}

	for frames.Next() {
		select {
		case jobs <- frames.Frame():
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if err := frames.Err(); err != nil {
		log.Printf("[ANALYZE] Frame sequence ended early: %v", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp < results[j].Timestamp
	})
	return results
}
