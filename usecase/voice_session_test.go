package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/pipeline"
)

type fakeRecognizer struct {
	fragments []string
	initErr   error
}

func (f *fakeRecognizer) InitTranscribeStreaming(ctx context.Context, cfg repositories.AudioConfig) (repositories.SpeechToTextStreaming, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &fakeRecognition{fragments: f.fragments}, nil
}

type fakeRecognition struct {
	fragments []string
	fed       int
	results   chan string
}

func (f *fakeRecognition) Stream(data []byte) error {
	f.fed += len(data)
	return nil
}

func (f *fakeRecognition) Results() <-chan string {
	if f.results == nil {
		f.results = make(chan string)
		close(f.results)
	}
	return f.results
}

func (f *fakeRecognition) End() (string, error) {
	return strings.Join(f.fragments, " "), nil
}

type fakeSynthesizer struct {
	sentences []string
	failOn    string
}

func (f *fakeSynthesizer) SynthesizeSentence(ctx context.Context, sentence string) (<-chan []byte, error) {
	if sentence == f.failOn {
		return nil, errors.New("synthesis backend unavailable")
	}
	f.sentences = append(f.sentences, sentence)
	out := make(chan []byte, 2)
	out <- []byte(sentence)
	out <- []byte("...")
	close(out)
	return out, nil
}

type fakeTurnStreamer struct {
	lastText  string
	sentences []string
}

func (f *fakeTurnStreamer) ProcessTurnStream(ctx context.Context, userText string, pc entities.ProcessContext) (<-chan pipeline.Item, error) {
	f.lastText = userText
	out := make(chan pipeline.Item, len(f.sentences))
	for i, s := range f.sentences {
		out <- pipeline.Item{Seq: i, Text: s}
	}
	close(out)
	return out, nil
}

func feedAudio(chunks ...[]byte) <-chan []byte {
	out := make(chan []byte, len(chunks))
	for _, c := range chunks {
		out <- c
	}
	close(out)
	return out
}

func TestProcessAudioTurnEndToEnd(t *testing.T) {
	turns := &fakeTurnStreamer{sentences: []string{"Namaste.", "Aap kaise hain?"}}
	synth := &fakeSynthesizer{}
	svc := NewVoiceSessionService(
		&fakeRecognizer{fragments: []string{"mujhe loan", "chahiye"}},
		synth,
		turns,
		zaptest.NewLogger(t),
	)

	pc := entities.NewProcessContext(entities.LanguageHindi, "lending", "")
	segments, err := svc.ProcessAudioTurn(context.Background(),
		feedAudio([]byte{1, 2}, []byte{3, 4}),
		repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "hi-IN"},
		pc)
	if err != nil {
		t.Fatalf("ProcessAudioTurn returned error: %v", err)
	}

	var got []AudioSegment
	for seg := range segments {
		var audio bytes.Buffer
		for chunk := range seg.Audio {
			audio.Write(chunk)
		}
		if audio.Len() == 0 {
			t.Errorf("segment %d carried no audio", seg.Seq)
		}
		got = append(got, seg)
	}

	if turns.lastText != "mujhe loan chahiye" {
		t.Errorf("turn service received %q", turns.lastText)
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	if got[0].Text != "Namaste." || got[1].Text != "Aap kaise hain?" {
		t.Errorf("segments = %q, %q", got[0].Text, got[1].Text)
	}
}

func TestProcessAudioTurnSkipsFailedSynthesis(t *testing.T) {
	turns := &fakeTurnStreamer{sentences: []string{"First.", "Second.", "Third."}}
	synth := &fakeSynthesizer{failOn: "Second."}
	svc := NewVoiceSessionService(
		&fakeRecognizer{fragments: []string{"hello"}},
		synth,
		turns,
		zaptest.NewLogger(t),
	)

	pc := entities.NewProcessContext(entities.LanguageEnglish, "lending", "")
	segments, err := svc.ProcessAudioTurn(context.Background(),
		feedAudio([]byte{1}),
		repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "en-IN"},
		pc)
	if err != nil {
		t.Fatalf("ProcessAudioTurn returned error: %v", err)
	}

	var texts []string
	for seg := range segments {
		for range seg.Audio {
		}
		texts = append(texts, seg.Text)
	}
	if len(texts) != 2 || texts[0] != "First." || texts[1] != "Third." {
		t.Errorf("texts = %v", texts)
	}
}

func TestProcessAudioTurnEmptyTranscriptFails(t *testing.T) {
	svc := NewVoiceSessionService(
		&fakeRecognizer{},
		&fakeSynthesizer{},
		&fakeTurnStreamer{},
		zaptest.NewLogger(t),
	)

	pc := entities.NewProcessContext(entities.LanguageHindi, "lending", "")
	_, err := svc.ProcessAudioTurn(context.Background(),
		feedAudio([]byte{1}),
		repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "hi-IN"},
		pc)
	if err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestProcessAudioTurnRecognizerInitFailure(t *testing.T) {
	svc := NewVoiceSessionService(
		&fakeRecognizer{initErr: errors.New("credentials missing")},
		&fakeSynthesizer{},
		&fakeTurnStreamer{},
		zaptest.NewLogger(t),
	)

	pc := entities.NewProcessContext(entities.LanguageHindi, "lending", "")
	_, err := svc.ProcessAudioTurn(context.Background(), feedAudio(),
		repositories.AudioConfig{}, pc)
	if err == nil {
		t.Fatal("expected error when recognition session cannot open")
	}
}
