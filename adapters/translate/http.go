// Package translate adapts remote machine-translation services to the
// TranslationBackend interface.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vaanihq/vaani/domain/entities"
	"github.com/vaanihq/vaani/domain/repositories"
)

// HTTPConfig configures the REST translation backend.
type HTTPConfig struct {
	Endpoint string
	APIKey   string
	// RequestsPerSecond throttles outbound calls; the provider enforces its
	// own quota and returns 429s past it.
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// HTTPBackend calls a JSON-over-HTTP translation service.
type HTTPBackend struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ repositories.TranslationBackend = (*HTTPBackend)(nil)

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source_language"`
	Target string `json:"target_language"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
	Error          string `json:"error,omitempty"`
}

// NewHTTPBackend creates the backend with a client-side rate limiter.
func NewHTTPBackend(cfg HTTPConfig, logger *zap.Logger) (*HTTPBackend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("translation endpoint is required")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &HTTPBackend{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  logger,
	}, nil
}

func (b *HTTPBackend) Name() string { return "http" }

// Translate sends one text unit for translation, waiting for a rate-limiter
// slot first so a burst of sentences cannot trip the provider's quota.
func (b *HTTPBackend) Translate(ctx context.Context, text string, from, to entities.Language) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limit: %w", err)
	}

	body, err := json.Marshal(translateRequest{
		Text:   text,
		Source: string(from),
		Target: string(to),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling translation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("translation service returned %d: %s", resp.StatusCode, string(errBody))
	}

	var parsed translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding translation response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("translation service error: %s", parsed.Error)
	}
	if parsed.TranslatedText == "" {
		return "", fmt.Errorf("translation service returned empty text")
	}
	return parsed.TranslatedText, nil
}
