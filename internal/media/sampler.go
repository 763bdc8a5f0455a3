package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DecodeError marks a video whose container or codec could not be opened, or
// whose frame rate is unusable.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Frame is a single sampled video frame: the whole-second timestamp it was
// taken at and its JPEG encoding.
type Frame struct {
	Timestamp float64
	JPEG      []byte
}

// Sampler extracts one frame per whole-second boundary from a local video
// file using ffmpeg, probing stream metadata with ffprobe.
type Sampler struct {
	ffmpegPath  string
	ffprobePath string
	frameSize   int
}

func NewSampler(frameSize int) (*Sampler, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	if frameSize <= 0 {
		frameSize = 512
	}
	return &Sampler{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		frameSize:   frameSize,
	}, nil
}

// Open probes the video and returns a lazy frame sequence. Frames are
// extracted one at a time as the caller iterates, not up front.
func (s *Sampler) Open(ctx context.Context, videoPath string) (*FrameSeq, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, &DecodeError{Path: videoPath, Err: err}
	}

	fps, totalFrames, formatDuration, err := s.probe(ctx, videoPath)
	if err != nil {
		return nil, &DecodeError{Path: videoPath, Err: err}
	}
	if fps <= 0 {
		return nil, &DecodeError{Path: videoPath, Err: fmt.Errorf("invalid frame rate %f", fps)}
	}

	// duration = total_frames / fps when the container reports a frame
	// count, otherwise the format-level duration.
	duration := formatDuration
	if totalFrames > 0 {
		duration = float64(totalFrames) / fps
	}
	if duration <= 0 {
		return nil, &DecodeError{Path: videoPath, Err: fmt.Errorf("invalid duration %f", duration)}
	}

	tempDir, err := os.MkdirTemp("", "videolang-frames-")
	if err != nil {
		return nil, &DecodeError{Path: videoPath, Err: err}
	}

	return &FrameSeq{
		sampler:   s,
		ctx:       ctx,
		videoPath: videoPath,
		tempDir:   tempDir,
		duration:  duration,
		seconds:   scheduleSeconds(duration),
	}, nil
}

// probe returns the stream's frame rate, total frame count (0 if the
// container does not report one) and format-level duration in seconds.
func (s *Sampler) probe(ctx context.Context, videoPath string) (fps float64, totalFrames int64, duration float64, err error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		videoPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	for _, line := range strings.Split(stdout.String(), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "r_frame_rate":
			fps, err = parseRate(value)
			if err != nil {
				return 0, 0, 0, err
			}
		case "nb_frames":
			if n, parseErr := strconv.ParseInt(value, 10, 64); parseErr == nil {
				totalFrames = n
			}
		case "duration":
			if d, parseErr := strconv.ParseFloat(value, 64); parseErr == nil {
				duration = d
			}
		}
	}

	if fps == 0 {
		return 0, 0, 0, fmt.Errorf("frame rate not reported")
	}
	return fps, totalFrames, duration, nil
}

// parseRate parses an ffprobe rational frame rate such as "30000/1001" or a
// plain "25". A zero numerator or denominator is an error.
func parseRate(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if num, den, ok := strings.Cut(value, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q: %w", value, err)
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q: %w", value, err)
		}
		if d == 0 || n == 0 {
			return 0, fmt.Errorf("zero frame rate %q", value)
		}
		return n / d, nil
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q: %w", value, err)
	}
	if f == 0 {
		return 0, fmt.Errorf("zero frame rate %q", value)
	}
	return f, nil
}

// scheduleSeconds lists the whole-second timestamps to sample: every integer
// second strictly below the duration. A 3.2s video samples 0, 1, 2, 3.
func scheduleSeconds(duration float64) []int {
	var seconds []int
	for s := 0; float64(s) < duration; s++ {
		seconds = append(seconds, s)
	}
	return seconds
}

// FrameSeq iterates the sampled frames of one video in timestamp order.
// Usage follows sql.Rows: Next, Frame, then Err after the loop.
type FrameSeq struct {
	sampler   *Sampler
	ctx       context.Context
	videoPath string
	tempDir   string
	duration  float64
	seconds   []int
	pos       int
	current   Frame
	err       error
	closed    bool
}

// Duration is the probed video length in seconds. Informational, used for
// progress reporting.
func (fs *FrameSeq) Duration() float64 {
	return fs.duration
}

// Len is the number of whole-second samples the sequence will attempt.
func (fs *FrameSeq) Len() int {
	return len(fs.seconds)
}

// Next advances to the next extractable frame. Individual extraction
// failures are logged and skipped; only context cancellation stops the
// sequence with an error.
func (fs *FrameSeq) Next() bool {
	if fs.closed || fs.err != nil {
		return false
	}

	for fs.pos < len(fs.seconds) {
		second := fs.seconds[fs.pos]
		fs.pos++

		if err := fs.ctx.Err(); err != nil {
			fs.err = err
			return false
		}

		jpeg, err := fs.sampler.extractFrame(fs.ctx, fs.videoPath, fs.tempDir, second)
		if err != nil {
			log.Printf("[SAMPLER] Skipping frame at %ds: %v", second, err)
			continue
		}

		fs.current = Frame{Timestamp: float64(second), JPEG: jpeg}
		return true
	}
	return false
}

func (fs *FrameSeq) Frame() Frame {
	return fs.current
}

func (fs *FrameSeq) Err() error {
	return fs.err
}

// Close removes the sequence's scratch frames. Safe to call more than once.
func (fs *FrameSeq) Close() error {
	if fs.closed {
		return nil
	}
	fs.closed = true
	return os.RemoveAll(fs.tempDir)
}

func (s *Sampler) extractFrame(ctx context.Context, videoPath, tempDir string, second int) ([]byte, error) {
	outPath := filepath.Join(tempDir, fmt.Sprintf("frame_%04d.jpg", second))
	defer os.Remove(outPath)

	scale := fmt.Sprintf("scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
		s.frameSize, s.frameSize)

	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-ss", strconv.Itoa(second),
		"-i", videoPath,
		"-vframes", "1",
		"-vf", scale,
		"-q:v", "2",
		"-f", "mjpeg",
		"-y",
		outPath)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction at %ds failed: %w (%s)",
			second, err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted frame: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("ffmpeg produced an empty frame at %ds", second)
	}
	return data, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
