// Package stt adapts Google Cloud Speech-to-Text streaming recognition to
// the SpeechToText interface. Finalized result fragments are emitted as they
// arrive so the input pipeline can start before the caller stops talking.
package stt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud.
type GoogleSpeechToText struct {
	logger *zap.Logger
}

// NewGoogle creates the recognizer adapter. Credentials come from the
// standard GOOGLE_APPLICATION_CREDENTIALS environment.
func NewGoogle(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

// InitTranscribeStreaming opens a streaming recognition session.
func (g *GoogleSpeechToText) InitTranscribeStreaming(ctx context.Context, config repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open recognize stream: %w", err)
	}

	encoding, err := audioEncoding(config.Encoding)
	if err != nil {
		stream.CloseSend()
		client.Close()
		return nil, err
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        encoding,
					SampleRateHertz: int32(config.SampleRate),
					LanguageCode:    config.Language,
				},
				// Finalized fragments feed the pipeline as they arrive.
				InterimResults: false,
			},
		},
	}); err != nil {
		stream.CloseSend()
		client.Close()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	s := &googleStream{
		client:  client,
		stream:  stream,
		ctx:     ctx,
		logger:  g.logger,
		results: make(chan string, 8),
		errc:    make(chan error, 1),
	}
	go s.receive()
	return s, nil
}

type googleStream struct {
	client  *speech.Client
	stream  speechpb.Speech_StreamingRecognizeClient
	ctx     context.Context
	logger  *zap.Logger
	results chan string
	errc    chan error

	mu       sync.Mutex
	segments []string
	sent     bool
}

// Stream feeds one audio chunk into the session.
func (s *googleStream) Stream(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	s.mu.Lock()
	s.sent = true
	s.mu.Unlock()

	if err := s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

// Results returns the channel of finalized text fragments.
func (s *googleStream) Results() <-chan string {
	return s.results
}

// End closes the session and returns the full transcription.
func (s *googleStream) End() (string, error) {
	defer s.client.Close()

	s.mu.Lock()
	sent := s.sent
	s.mu.Unlock()
	if !sent {
		return "", fmt.Errorf("no audio data received")
	}

	if err := s.stream.CloseSend(); err != nil {
		return "", fmt.Errorf("failed to close send stream: %w", err)
	}

	select {
	case <-s.ctx.Done():
		return "", fmt.Errorf("context cancelled while waiting for transcription: %w", s.ctx.Err())
	case err := <-s.errc:
		if err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	transcript := strings.TrimSpace(strings.Join(s.segments, " "))
	if transcript == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}
	return transcript, nil
}

// receive pulls recognition responses until the stream ends, publishing each
// finalized fragment.
func (s *googleStream) receive() {
	defer close(s.results)
	defer close(s.errc)

	for {
		resp, err := s.stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.logger.Error("recognition stream failed", zap.Error(err))
			s.errc <- fmt.Errorf("failed to receive recognition response: %w", err)
			return
		}

		for _, result := range resp.Results {
			if !result.IsFinal || len(result.Alternatives) == 0 {
				continue
			}
			fragment := result.Alternatives[0].Transcript
			s.mu.Lock()
			s.segments = append(s.segments, fragment)
			s.mu.Unlock()

			select {
			case s.results <- fragment:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

func audioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
			fmt.Errorf("unsupported audio encoding: %s", encoding)
	}
}
