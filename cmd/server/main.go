package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/vaanihq/vaani/adapters/llm"
	"github.com/vaanihq/vaani/adapters/mongo"
	"github.com/vaanihq/vaani/adapters/stt"
	"github.com/vaanihq/vaani/adapters/translate"
	"github.com/vaanihq/vaani/adapters/tts"
	"github.com/vaanihq/vaani/domain/repositories"
	"github.com/vaanihq/vaani/internal/api"
	"github.com/vaanihq/vaani/internal/auth"
	"github.com/vaanihq/vaani/internal/config"
	"github.com/vaanihq/vaani/internal/websocket"
	"github.com/vaanihq/vaani/stages"
	stagetranslate "github.com/vaanihq/vaani/stages/translate"
	"github.com/vaanihq/vaani/usecase"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	env, err := config.LoadEnv()
	if err != nil {
		logger.Fatal("loading environment", zap.Error(err))
	}
	pipelineCfg, err := config.LoadPipeline(env.PipelineConfigPath)
	if err != nil {
		logger.Fatal("loading pipeline configuration",
			zap.String("path", env.PipelineConfigPath),
			zap.Error(err))
	}

	ctx := context.Background()

	// Reasoning model. Without an API key the mock keeps local runs working.
	var model repositories.LanguageModel
	if env.GeminiAPIKey != "" {
		model, err = llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey: env.GeminiAPIKey,
			Model:  env.GeminiModel,
		}, logger)
		if err != nil {
			logger.Fatal("initializing language model", zap.Error(err))
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock language model")
		model = llm.NewMock()
	}

	translator := buildTranslator(env, logger)

	input, output, err := stages.Build(pipelineCfg, stages.Dependencies{
		LLM:        model,
		Translator: translator,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("building pipelines", zap.Error(err))
	}
	redactor := stages.NewRedactor(pipelineCfg, logger)

	// Turn persistence is optional; a missing Mongo keeps turns unlogged.
	var turnLog repositories.TurnLogRepository
	if env.MongoURI != "" {
		client, err := mongo.NewClient(env.MongoURI, env.MongoDatabase, logger)
		if err != nil {
			logger.Warn("mongo unavailable, turn logging disabled", zap.Error(err))
		} else {
			turnLog = mongo.NewTurnLogRepository(client.Database)
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				client.Close(shutdownCtx)
			}()
		}
	}

	turnService := usecase.NewTurnService(input, output, model, redactor, turnLog, logger)
	voiceService := usecase.NewVoiceSessionService(
		buildRecognizer(env, logger),
		buildSynthesizer(env, logger),
		turnService,
		logger,
	)

	authenticator, err := auth.New(env.JWTSecret, 24*time.Hour)
	if err != nil {
		logger.Fatal("initializing authenticator", zap.Error(err))
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := websocket.NewHub(turnService, voiceService, logger)
	go hub.Run(hubCtx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, authenticator, turnService, hub, pipelineCfg.Domain, logger)

	go func() {
		if err := e.Start(":" + env.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	logger.Info("server started",
		zap.String("port", env.Port),
		zap.String("domain", pipelineCfg.Domain))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
}

// buildRecognizer returns the Google recognizer when credentials are
// present. The mock recognizes nothing; audio turns then fail with a turn
// error instead of crashing the server.
func buildRecognizer(env config.Env, logger *zap.Logger) repositories.SpeechToText {
	if env.GoogleSpeechCredentials == "" {
		logger.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, using mock recognizer")
		return stt.NewMock()
	}
	return stt.NewGoogle(logger)
}

// buildSynthesizer returns the ElevenLabs synthesizer when an API key is
// present, and the echoing mock otherwise.
func buildSynthesizer(env config.Env, logger *zap.Logger) repositories.TextToSpeech {
	if env.TTSAPIKey == "" {
		logger.Warn("TTS_API_KEY not set, using mock synthesizer")
		return tts.NewMock()
	}
	synth, err := tts.NewElevenLabs(tts.Config{
		APIKey:  env.TTSAPIKey,
		BaseURL: env.TTSEndpoint,
	}, logger)
	if err != nil {
		logger.Fatal("initializing synthesizer", zap.Error(err))
	}
	return synth
}

// buildTranslator picks the configured HTTP backend, layering the fallback
// endpoint behind the primary when both are set. Without an endpoint the
// identity mock keeps the pipeline runnable.
func buildTranslator(env config.Env, logger *zap.Logger) repositories.TranslationBackend {
	if env.TranslateEndpoint == "" {
		logger.Warn("TRANSLATE_ENDPOINT not set, using identity translator")
		return translate.NewMock()
	}

	primary, err := translate.NewHTTPBackend(translate.HTTPConfig{
		Endpoint:          env.TranslateEndpoint,
		APIKey:            env.TranslateAPIKey,
		RequestsPerSecond: env.TranslateRequestsPerSec,
	}, logger)
	if err != nil {
		logger.Fatal("initializing translation backend", zap.Error(err))
	}
	if env.TranslateFallbackEndpoint == "" {
		return primary
	}

	secondary, err := translate.NewHTTPBackend(translate.HTTPConfig{
		Endpoint:          env.TranslateFallbackEndpoint,
		APIKey:            env.TranslateAPIKey,
		RequestsPerSecond: env.TranslateRequestsPerSec,
	}, logger)
	if err != nil {
		logger.Fatal("initializing fallback translation backend", zap.Error(err))
	}
	return stagetranslate.NewFallbackBackend(primary, secondary, logger)
}
