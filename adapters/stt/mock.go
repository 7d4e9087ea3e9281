package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vaanihq/vaani/domain/repositories"
)

// Mock is a recognizer for local runs and tests: it "recognizes" whatever
// transcript it was configured with, emitted as one fragment per Stream call.
type Mock struct {
	// Transcript fragments returned in order, one per audio chunk.
	Fragments []string
}

// NewMock creates a mock recognizer.
func NewMock(fragments ...string) *Mock {
	return &Mock{Fragments: fragments}
}

// InitTranscribeStreaming implements repositories.SpeechToText.
func (m *Mock) InitTranscribeStreaming(_ context.Context, _ repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	return &mockStream{
		fragments: m.Fragments,
		results:   make(chan string, len(m.Fragments)+1),
	}, nil
}

type mockStream struct {
	mu        sync.Mutex
	fragments []string
	emitted   []string
	next      int
	results   chan string
	ended     bool
}

func (s *mockStream) Stream(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return fmt.Errorf("session already ended")
	}
	if len(data) == 0 || s.next >= len(s.fragments) {
		return nil
	}
	fragment := s.fragments[s.next]
	s.next++
	s.emitted = append(s.emitted, fragment)
	s.results <- fragment
	return nil
}

func (s *mockStream) Results() <-chan string {
	return s.results
}

func (s *mockStream) End() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return "", fmt.Errorf("session already ended")
	}
	s.ended = true
	close(s.results)
	if len(s.emitted) == 0 {
		return "", fmt.Errorf("no audio data received")
	}
	return strings.Join(s.emitted, " "), nil
}
