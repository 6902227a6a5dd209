// Package frames turns an uploaded video into still images with ffmpeg.
package frames

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wheelscan/go-wheel-trainer/internal/logger"
)

// FramePattern is the ffmpeg output pattern; frames are numbered from 001.
const FramePattern = "frame-%03d.png"

// ErrNoFrames is returned when ffmpeg succeeds but writes nothing.
var ErrNoFrames = errors.New("no frames extracted from video")

// Options configures an Extractor.
type Options struct {
	FFmpegPath string
	// FrameRate samples the video at this many frames per second; 0 keeps every frame.
	FrameRate float64
	// MaxFrames caps the number of frames written; 0 means unlimited.
	MaxFrames int
}

// Extractor runs ffmpeg to split a video into PNG frames.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor, defaulting the binary to "ffmpeg".
func NewExtractor(opts Options) *Extractor {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	return &Extractor{opts: opts}
}

// Extract writes the frames of videoPath into outDir and returns their paths in
// frame order.
func (e *Extractor) Extract(ctx context.Context, videoPath, outDir string) ([]string, error) {
	ctx = logger.WithComponent(logger.WithStage(ctx, logger.LogStages.FrameExtraction), logger.ComponentNames.Extractor)

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}

	args := e.args(videoPath, outDir)
	cmd := exec.CommandContext(ctx, e.opts.FFmpegPath, args...)
	stderr := newTailBuffer(4096)
	cmd.Stderr = stderr

	start := time.Now()
	logger.DebugCtx(ctx, "Running ffmpeg", "binary", e.opts.FFmpegPath, "args", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("frame extraction cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	paths, err := ListFrames(outDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoFrames
	}

	logger.InfoCtx(ctx, "Frames extracted",
		"frame_count", len(paths),
		"duration_ms", time.Since(start).Milliseconds())
	return paths, nil
}

func (e *Extractor) args(videoPath, outDir string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", videoPath}
	if e.opts.FrameRate > 0 {
		args = append(args, "-vf", "fps="+strconv.FormatFloat(e.opts.FrameRate, 'f', -1, 64))
	}
	if e.opts.MaxFrames > 0 {
		args = append(args, "-frames:v", strconv.Itoa(e.opts.MaxFrames))
	}
	return append(args, filepath.Join(outDir, FramePattern))
}

// ListFrames returns the frame files in dir ordered by frame number.
func ListFrames(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		return frameNumber(matches[i]) < frameNumber(matches[j])
	})
	return matches, nil
}

// frameNumber parses the counter out of frame-NNN.png; beyond 999 ffmpeg
// widens the field, so lexical order is not enough.
func frameNumber(path string) int {
	name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), "frame-"), ".png")
	n, err := strconv.Atoi(name)
	if err != nil {
		return -1
	}
	return n
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
