//go:build nooto

package audio

import "fmt"

// otoSink stub for builds without the oto backend
type otoSink struct{}

func newOtoSink(*Queue, Options) Sink {
	return &otoSink{}
}

func (s *otoSink) Init() error {
	return fmt.Errorf("oto audio backend not available - compile without -tags nooto")
}

func (s *otoSink) PushSamples([]float32) {}

func (s *otoSink) Close() error {
	return nil
}
