// Package config loads the service configuration: secrets and endpoints from
// the environment (.env in development), and the pipeline rule set from a
// YAML file. Both are read once at startup; the resulting structures are
// shared read-only.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vaanihq/vaani/stages/compliance"
)

// Env holds environment-sourced settings.
type Env struct {
	Port          string
	JWTSecret     string
	GeminiAPIKey  string
	GeminiModel   string
	MongoURI      string
	MongoDatabase string

	TranslateEndpoint         string
	TranslateAPIKey           string
	TranslateFallbackEndpoint string
	TranslateRequestsPerSec   float64

	GoogleSpeechCredentials string
	TTSEndpoint             string
	TTSAPIKey               string

	PipelineConfigPath string
}

// LoadEnv reads .env when present, then the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	env := Env{
		Port:                      getEnv("PORT", "8080"),
		JWTSecret:                 os.Getenv("JWT_SECRET"),
		GeminiAPIKey:              os.Getenv("GEMINI_API_KEY"),
		GeminiModel:               getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		MongoURI:                  getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:             getEnv("MONGODB_DATABASE", "vaani"),
		TranslateEndpoint:         os.Getenv("TRANSLATE_ENDPOINT"),
		TranslateAPIKey:           os.Getenv("TRANSLATE_API_KEY"),
		TranslateFallbackEndpoint: os.Getenv("TRANSLATE_FALLBACK_ENDPOINT"),
		GoogleSpeechCredentials:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		TTSEndpoint:               os.Getenv("TTS_ENDPOINT"),
		TTSAPIKey:                 os.Getenv("TTS_API_KEY"),
		PipelineConfigPath:        getEnv("PIPELINE_CONFIG", "configs/pipeline.yaml"),
	}

	env.TranslateRequestsPerSec = 10
	if raw := os.Getenv("TRANSLATE_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Env{}, fmt.Errorf("invalid TRANSLATE_RPS %q: %w", raw, err)
		}
		env.TranslateRequestsPerSec = rps
	}

	if env.JWTSecret == "" {
		return Env{}, fmt.Errorf("JWT_SECRET is required")
	}
	return env, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Pipeline is the YAML-shaped pipeline configuration for one domain.
type Pipeline struct {
	Domain string `yaml:"domain"`

	Grammar struct {
		Enabled         bool    `yaml:"enabled"`
		Temperature     float32 `yaml:"temperature"`
		MaxTokens       int     `yaml:"max_tokens"`
		TimeoutMS       int     `yaml:"timeout_ms"`
		MaxEditDistance int     `yaml:"max_edit_distance"`
		Vocabulary      struct {
			Terms       []string          `yaml:"terms"`
			Phrases     []string          `yaml:"phrases"`
			Corrections map[string]string `yaml:"corrections"`
		} `yaml:"vocabulary"`
	} `yaml:"grammar"`

	Translator struct {
		Enabled   bool `yaml:"enabled"`
		TimeoutMS int  `yaml:"timeout_ms"`
	} `yaml:"translator"`

	Compliance struct {
		Enabled   bool               `yaml:"enabled"`
		Strict    bool               `yaml:"strict"`
		TimeoutMS int                `yaml:"timeout_ms"`
		Rules     compliance.RuleSet `yaml:"rules"`
	} `yaml:"compliance"`

	PII struct {
		Enabled       bool     `yaml:"enabled"`
		VisibleSuffix int      `yaml:"visible_suffix"`
		AllowedTypes  []string `yaml:"allowed_types"`
	} `yaml:"pii"`

	Simplifier struct {
		Enabled            bool              `yaml:"enabled"`
		MaxSentenceWords   int               `yaml:"max_sentence_words"`
		Glossary           map[string]string `yaml:"glossary"`
		AllowedPunctuation string            `yaml:"allowed_punctuation"`
	} `yaml:"simplifier"`
}

// LoadPipeline parses the pipeline YAML file.
func LoadPipeline(path string) (Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("reading pipeline config: %w", err)
	}
	return ParsePipeline(raw)
}

// ParsePipeline parses pipeline configuration from YAML bytes.
func ParsePipeline(raw []byte) (Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Pipeline{}, fmt.Errorf("parsing pipeline config: %w", err)
	}
	if p.Domain == "" {
		return Pipeline{}, fmt.Errorf("pipeline config: domain is required")
	}
	return p, nil
}

// GrammarTimeout returns the configured grammar timeout, defaulted.
func (p Pipeline) GrammarTimeout() time.Duration {
	return msOrDefault(p.Grammar.TimeoutMS, 2*time.Second)
}

// TranslatorTimeout returns the configured translator timeout, defaulted.
func (p Pipeline) TranslatorTimeout() time.Duration {
	return msOrDefault(p.Translator.TimeoutMS, 3*time.Second)
}

// ComplianceTimeout returns the configured rewrite timeout, defaulted.
func (p Pipeline) ComplianceTimeout() time.Duration {
	return msOrDefault(p.Compliance.TimeoutMS, 3*time.Second)
}

func msOrDefault(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
