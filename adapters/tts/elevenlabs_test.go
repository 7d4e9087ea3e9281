package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNewElevenLabsRequiresAPIKey(t *testing.T) {
	_, err := NewElevenLabs(Config{}, zaptest.NewLogger(t))
	if err == nil {
		t.Error("expected error when API key is not set")
	}
}

func TestNewElevenLabsAppliesDefaults(t *testing.T) {
	e, err := NewElevenLabs(Config{APIKey: "test-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}
	if e.cfg.VoiceID != defaultVoiceID {
		t.Errorf("voice ID = %q", e.cfg.VoiceID)
	}
	if e.cfg.ModelID != defaultModelID {
		t.Errorf("model ID = %q", e.cfg.ModelID)
	}
	if e.cfg.Stability != defaultStability || e.cfg.Clarity != defaultClarity {
		t.Errorf("voice settings = %f / %f", e.cfg.Stability, e.cfg.Clarity)
	}
}

func TestNewElevenLabsRejectsBadSettings(t *testing.T) {
	_, err := NewElevenLabs(Config{APIKey: "k", Stability: 1.5}, zaptest.NewLogger(t))
	if err == nil {
		t.Error("expected error for out-of-range stability")
	}
}

func TestSynthesizeSentenceRejectsEmptyText(t *testing.T) {
	e, err := NewElevenLabs(Config{APIKey: "test-key"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}
	if _, err := e.SynthesizeSentence(context.Background(), "   "); err == nil {
		t.Error("expected error for whitespace-only sentence")
	}
}

func TestSynthesizeSentenceStreamsAudio(t *testing.T) {
	var gotRequest synthesisRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write(make([]byte, 4096))
	}))
	defer server.Close()

	e, err := NewElevenLabs(Config{APIKey: "test-key", BaseURL: server.URL, ChunkSize: 1024}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}

	audio, err := e.SynthesizeSentence(context.Background(), "Your loan is approved.")
	if err != nil {
		t.Fatalf("SynthesizeSentence: %v", err)
	}

	total := 0
	for chunk := range audio {
		if len(chunk) == 0 {
			t.Error("received empty audio chunk")
		}
		total += len(chunk)
	}
	if total != 4096 {
		t.Errorf("received %d bytes, want 4096", total)
	}
	if gotRequest.Text != "Your loan is approved." {
		t.Errorf("request text = %q", gotRequest.Text)
	}
}

func TestSynthesizeSentenceClosesOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	e, err := NewElevenLabs(Config{APIKey: "test-key", BaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}

	audio, err := e.SynthesizeSentence(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("SynthesizeSentence: %v", err)
	}
	for range audio {
		t.Error("no audio expected on server error")
	}
}
