package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-c64term/c64term/backend"
	"github.com/valerio/go-c64term/c64term/debug"
	"github.com/valerio/go-c64term/c64term/input"
	"github.com/valerio/go-c64term/c64term/video"
)

// Backend implements the Backend interface for automated testing and batch processing
type Backend struct {
	config         backend.BackendConfig
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
	snapshots      []string
}

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N frames
	Directory string // Directory to save snapshots
	Scale     int    // Integer upscaling factor
	BaseName  string // Program name for snapshot filenames
}

func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config

	out := config.LogOutput
	if out == nil {
		out = os.Stderr
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	slog.SetDefault(slog.New(handler))

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

// Update counts the frame, saves snapshots and requests quit once the frame
// limit is reached.
func (h *Backend) Update(frame *video.FrameBuffer) ([]input.Event, error) {
	h.frameCount++

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%30 == 0 {
		slog.Info("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.maxFrames <= 0 || h.frameCount < h.maxFrames {
		return nil, nil
	}

	// Save final snapshot if enabled and we haven't just saved one
	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
		h.saveSnapshot(frame)
	}

	if h.snapshotConfig.Enabled {
		slog.Info("Headless execution completed", "frames", h.frameCount, "png_snapshots_saved_to", h.snapshotConfig.Directory)
	} else {
		slog.Info("Headless execution completed", "frames", h.frameCount)
	}
	return []input.Event{input.QuitEvent}, nil
}

// Frames returns the number of frames processed.
func (h *Backend) Frames() int {
	return h.frameCount
}

// Snapshots returns the paths of the snapshots written so far.
func (h *Backend) Snapshots() []string {
	return h.snapshots
}

func (h *Backend) Cleanup() error {
	return nil
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters
func CreateSnapshotConfig(interval int, directory string, scale int, programPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
		Scale:    max(scale, 1),
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "c64term-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	config.BaseName = "c64"
	if programPath != "" {
		name := filepath.Base(programPath)
		config.BaseName = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return config, nil
}

func (h *Backend) saveSnapshot(frame *video.FrameBuffer) {
	baseName := fmt.Sprintf("%s_frame_%d", h.snapshotConfig.BaseName, h.frameCount)

	path, err := debug.SaveFramePNGToDir(frame, baseName, h.snapshotConfig.Directory, h.snapshotConfig.Scale)
	if err != nil {
		slog.Error("Failed to save PNG snapshot", "frame", h.frameCount, "error", err)
		return
	}
	h.snapshots = append(h.snapshots, path)
}

var _ backend.Backend = (*Backend)(nil)
