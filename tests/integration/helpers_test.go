package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/videolang/videolang/internal/api"
	"github.com/videolang/videolang/internal/auth"
	"github.com/videolang/videolang/internal/database"
	"github.com/videolang/videolang/internal/ingest"
	"github.com/videolang/videolang/internal/media"
	"github.com/videolang/videolang/internal/qa"
	"github.com/videolang/videolang/internal/storage"
)

// The external model services are faked; everything else (router, repos,
// storage, fetcher, orchestrator, answerer) is real.

type fakeVision struct {
	err error
}

func (f *fakeVision) DescribeFrame(ctx context.Context, jpegData []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "frame " + string(jpegData), nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeReasoning struct {
	response string
}

func (f *fakeReasoning) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f.response, nil
}

// fakeOpener stands in for the ffmpeg sampler so the suite runs without
// media binaries or real video files.
type fakeOpener struct {
	frameCount int
	duration   float64
}

func (f *fakeOpener) Open(ctx context.Context, videoPath string) (ingest.FrameSource, error) {
	frames := make([]media.Frame, f.frameCount)
	for i := range frames {
		frames[i] = media.Frame{Timestamp: float64(i), JPEG: []byte(fmt.Sprintf("%d", i))}
	}
	return &sliceFrameSource{frames: frames, duration: f.duration}, nil
}

type sliceFrameSource struct {
	frames   []media.Frame
	duration float64
	pos      int
}

func (s *sliceFrameSource) Next() bool {
	if s.pos >= len(s.frames) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceFrameSource) Frame() media.Frame { return s.frames[s.pos-1] }
func (s *sliceFrameSource) Err() error         { return nil }
func (s *sliceFrameSource) Duration() float64  { return s.duration }
func (s *sliceFrameSource) Close() error       { return nil }

type env struct {
	server       *httptest.Server
	app          *api.App
	vision       *fakeVision
	transcriber  *fakeTranscriber
	reasoning    *fakeReasoning
	orchestrator *ingest.Orchestrator
}

func setupEnv(t *testing.T) *env {
	t.Helper()

	db, err := database.NewDB(database.Config{Type: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	localStorage, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	vision := &fakeVision{}
	transcriber := &fakeTranscriber{text: "hello world"}
	reasoning := &fakeReasoning{response: "Timestamp: 1\nAnswer: Someone waves."}

	videoRepo := database.NewVideoRepository(db)
	questionRepo := database.NewQuestionRepository(db)

	orchestrator := ingest.NewOrchestrator(
		media.NewFetcherWithDir(t.TempDir()),
		&fakeOpener{frameCount: 3, duration: 3.2},
		ingest.NewAnalyzer(vision, 2),
		transcriber,
		videoRepo,
	)

	app := &api.App{
		VideoRepo:     videoRepo,
		QuestionRepo:  questionRepo,
		Storage:       localStorage,
		Users:         &auth.HeaderProvider{DefaultUser: "it-user"},
		Ingestor:      orchestrator,
		Answerer:      qa.NewAnswerer(reasoning, questionRepo),
		MaxUploadSize: 1 << 20,
	}

	server := httptest.NewServer(api.NewRouter(app))
	t.Cleanup(server.Close)

	// The local upload provider must point at this test server so the
	// fetcher can read uploads back over HTTP.
	app.UploadURLs = storage.NewLocalProvider(server.URL)

	return &env{
		server:       server,
		app:          app,
		vision:       vision,
		transcriber:  transcriber,
		reasoning:    reasoning,
		orchestrator: orchestrator,
	}
}
