package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/pipeline"
)

// turnStreamer is the slice of TurnService the voice session needs.
type turnStreamer interface {
	ProcessTurnStream(ctx context.Context, userText string, pc entities.ProcessContext) (<-chan pipeline.Item, error)
}

// AudioSegment is one synthesized response sentence. Audio chunks stream on
// Audio; the channel closes when the sentence is fully synthesized.
type AudioSegment struct {
	Seq   int
	Text  string
	Audio <-chan []byte
}

// VoiceSessionService runs full audio-in/audio-out turns: recognition,
// the text pipeline, and synthesis of each response sentence.
type VoiceSessionService struct {
	recognizer  repositories.SpeechToText
	synthesizer repositories.TextToSpeech
	turns       turnStreamer
	logger      *zap.Logger
}

// NewVoiceSessionService wires recognizer and synthesizer around the turn
// service.
func NewVoiceSessionService(
	recognizer repositories.SpeechToText,
	synthesizer repositories.TextToSpeech,
	turns turnStreamer,
	logger *zap.Logger,
) *VoiceSessionService {
	return &VoiceSessionService{
		recognizer:  recognizer,
		synthesizer: synthesizer,
		turns:       turns,
		logger:      logger,
	}
}

// ProcessAudioTurn consumes the caller's audio until the input channel
// closes, then streams back one AudioSegment per response sentence. Sentences
// a synthesis failure hits are skipped with a log entry; the voice must keep
// going even if one segment is lost.
func (s *VoiceSessionService) ProcessAudioTurn(
	ctx context.Context,
	audio <-chan []byte,
	audioCfg repositories.AudioConfig,
	pc entities.ProcessContext,
) (<-chan AudioSegment, error) {
	session, err := s.recognizer.InitTranscribeStreaming(ctx, audioCfg)
	if err != nil {
		return nil, fmt.Errorf("opening recognition session: %w", err)
	}

	for chunk := range audio {
		if err := session.Stream(chunk); err != nil {
			return nil, fmt.Errorf("streaming audio: %w", err)
		}
	}
	transcript, err := session.End()
	if err != nil {
		return nil, fmt.Errorf("closing recognition session: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("recognition produced no text")
	}

	items, err := s.turns.ProcessTurnStream(ctx, transcript, pc)
	if err != nil {
		return nil, err
	}

	segments := make(chan AudioSegment)
	go func() {
		defer close(segments)
		for item := range items {
			chunks, err := s.synthesizer.SynthesizeSentence(ctx, item.Text)
			if err != nil {
				s.logger.Error("synthesis failed, skipping sentence",
					zap.Int("seq", item.Seq),
					zap.String("turnID", pc.TurnID),
					zap.Error(err))
				continue
			}
			select {
			case segments <- AudioSegment{Seq: item.Seq, Text: item.Text, Audio: chunks}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return segments, nil
}
