// Package config holds the runtime settings of c64term. Defaults are
// overridden by an optional YAML file, which is in turn overridden by
// command line flags.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valerio/go-c64term/c64term/audio"
	"github.com/valerio/go-c64term/c64term/kitty"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// DefaultLoadFrame is the frame after which a program given on the command
// line is injected, three seconds at 30 Hz so the machine has booted.
const DefaultLoadFrame = 90

// Config is the complete set of runtime settings.
type Config struct {
	Display  Display  `yaml:"display"`
	Audio    Audio    `yaml:"audio"`
	Input    Input    `yaml:"input"`
	Headless Headless `yaml:"headless"`

	// LoadFrame is the frame after which the program is loaded.
	LoadFrame int  `yaml:"load_frame"`
	Debug     bool `yaml:"debug"`
}

// Display configures the graphics transport.
type Display struct {
	Mode      string `yaml:"mode"`
	ChunkSize int    `yaml:"chunk_size"`
	// ImageID pins the image id, zero picks a random one.
	ImageID uint32 `yaml:"image_id"`
}

// Audio configures the audio sink.
type Audio struct {
	Backend       string `yaml:"backend"`
	SampleRate    int    `yaml:"sample_rate"`
	PeriodSamples int    `yaml:"period_samples"`
	QueueCapacity int    `yaml:"queue_capacity"`
	WAVPath       string `yaml:"wav_path"`
}

// Input configures keyboard translation.
type Input struct {
	InvertCase bool `yaml:"invert_case"`
}

// Headless configures runs without a terminal.
type Headless struct {
	Enabled          bool   `yaml:"enabled"`
	Frames           int    `yaml:"frames"`
	SnapshotInterval int    `yaml:"snapshot_interval"`
	SnapshotDir      string `yaml:"snapshot_dir"`
	SnapshotScale    int    `yaml:"snapshot_scale"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	a := audio.DefaultOptions()
	return Config{
		Display: Display{
			Mode:      kitty.DialectDirect.String(),
			ChunkSize: kitty.DefaultChunkSize,
		},
		Audio: Audio{
			Backend:       a.Backend,
			SampleRate:    a.SampleRate,
			PeriodSamples: a.PeriodSamples,
			QueueCapacity: a.QueueCapacity,
			WAVPath:       a.WAVPath,
		},
		Input: Input{InvertCase: true},
		Headless: Headless{
			Frames:        300,
			SnapshotScale: 1,
		},
		LoadFrame: DefaultLoadFrame,
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := c.Dialect(); err != nil {
		return fmt.Errorf("%w: display.mode: %w", ErrInvalid, err)
	}
	if c.Display.ChunkSize < 1 {
		return fmt.Errorf("%w: display.chunk_size must be at least 1, got %d", ErrInvalid, c.Display.ChunkSize)
	}
	if !audio.ValidBackend(c.Audio.Backend) {
		return fmt.Errorf("%w: audio.backend: %w: %q", ErrInvalid, audio.ErrUnknownBackend, c.Audio.Backend)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: audio.sample_rate must be positive, got %d", ErrInvalid, c.Audio.SampleRate)
	}
	if c.Audio.PeriodSamples < 0 || c.Audio.QueueCapacity < 0 {
		return fmt.Errorf("%w: audio period and queue sizes cannot be negative", ErrInvalid)
	}
	if c.Audio.QueueCapacity > 0 && c.Audio.PeriodSamples > c.Audio.QueueCapacity {
		return fmt.Errorf("%w: audio.period_samples %d exceeds queue capacity %d", ErrInvalid, c.Audio.PeriodSamples, c.Audio.QueueCapacity)
	}
	if c.Headless.Enabled && c.Headless.Frames <= 0 {
		return fmt.Errorf("%w: headless.frames must be positive, got %d", ErrInvalid, c.Headless.Frames)
	}
	if c.Headless.SnapshotInterval < 0 {
		return fmt.Errorf("%w: headless.snapshot_interval cannot be negative", ErrInvalid)
	}
	if c.Headless.SnapshotScale < 1 {
		return fmt.Errorf("%w: headless.snapshot_scale must be at least 1, got %d", ErrInvalid, c.Headless.SnapshotScale)
	}
	if c.LoadFrame < 0 {
		return fmt.Errorf("%w: load_frame cannot be negative", ErrInvalid)
	}
	return nil
}

// Dialect returns the parsed display mode.
func (c Config) Dialect() (kitty.Dialect, error) {
	return kitty.ParseDialect(c.Display.Mode)
}

// KittyConfig returns the transport settings.
func (c Config) KittyConfig() (kitty.Config, error) {
	d, err := c.Dialect()
	if err != nil {
		return kitty.Config{}, err
	}
	return kitty.Config{
		Dialect:   d,
		ChunkSize: c.Display.ChunkSize,
		ImageID:   c.Display.ImageID,
	}, nil
}

// AudioOptions returns the sink settings. Headless runs write WAV output as
// fast as the emulation produces it.
func (c Config) AudioOptions() audio.Options {
	return audio.Options{
		Backend:       c.Audio.Backend,
		SampleRate:    c.Audio.SampleRate,
		PeriodSamples: c.Audio.PeriodSamples,
		QueueCapacity: c.Audio.QueueCapacity,
		WAVPath:       c.Audio.WAVPath,
		Realtime:      !c.Headless.Enabled,
	}
}
