//go:build !nooto

package audio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoSink is the callback style backend: oto's own goroutine pulls from a
// Reader whenever the platform needs more data.
type otoSink struct {
	queue  *Queue
	reader *Reader
	opts   Options

	ctx    *oto.Context
	player *oto.Player
}

func newOtoSink(queue *Queue, opts Options) Sink {
	return &otoSink{
		queue:  queue,
		reader: NewReader(queue),
		opts:   opts,
	}
}

func (s *otoSink) Init() error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   s.opts.SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(s.opts.PeriodSamples) * time.Second / time.Duration(s.opts.SampleRate),
	})
	if err != nil {
		return fmt.Errorf("failed to create audio context: %w", err)
	}
	<-ready

	s.ctx = ctx
	s.player = ctx.NewPlayer(s.reader)
	s.player.SetBufferSize(s.opts.PeriodSamples * 2)
	s.player.Play()

	slog.Info("Audio playback started", "backend", BackendOto, "rate", s.opts.SampleRate)
	return nil
}

func (s *otoSink) PushSamples(samples []float32) {
	s.queue.PushSamples(samples)
}

func (s *otoSink) Close() error {
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	if err != nil {
		return fmt.Errorf("failed to close audio player: %w", err)
	}
	return nil
}
