package app

import (
	"context"
	"fmt"
	"log/slog"

	"engram/internal/config"
	"engram/internal/extractor"
	"engram/internal/infrastructure/article"
	"engram/internal/infrastructure/llm"
	"engram/internal/infrastructure/noteindex"
	"engram/internal/infrastructure/telegram"
	"engram/internal/infrastructure/vault"
	"engram/internal/infrastructure/whisper"
	"engram/internal/infrastructure/youtube"
	"engram/internal/logging"
	"engram/internal/ports"
	"engram/internal/usecase"
)

// Application wires configs to the dialogue controller and bot lifecycle.
type Application struct {
	cfg   config.Config
	bot   *telegram.Bot
	index *noteindex.Index
}

// New builds a runnable application instance. All collaborators are
// constructed here once and injected; there is no global state.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var transcriber ports.Transcriber
	if cfg.Whisper.APIKey != "" {
		transcriber = whisper.NewTranscriber(cfg.Whisper.APIKey, cfg.Whisper.Model,
			baseLogger.With("component", "whisper"))
	}

	// Registration order is the dispatch priority: the video matcher must
	// come before the generic article matcher.
	registry := extractor.NewRegistry(baseLogger.With("component", "registry"))
	registry.Register(youtube.NewExtractor(nil, transcriber, baseLogger.With("component", "extractor.youtube")))
	registry.Register(article.NewExtractor(nil, baseLogger.With("component", "extractor.article")))

	router, err := llm.NewRouter(cfg.LLM, baseLogger.With("component", "llm"))
	if err != nil {
		return nil, fmt.Errorf("build llm router: %w", err)
	}

	sink := vault.New(cfg.Vault, baseLogger.With("component", "vault"))

	var index *noteindex.Index
	if cfg.Vault.IndexPath != "" {
		index, err = noteindex.Open(cfg.Vault.IndexPath)
		if err != nil {
			return nil, fmt.Errorf("open note index: %w", err)
		}
	}

	controller := usecase.NewController(usecase.ControllerDeps{
		Source: registry,
		LLM:    router,
		Sink:   sink,
		Index:  index,
		Logger: baseLogger.With("component", "dialog"),
	})

	bot := telegram.NewBot(cfg.Telegram.BotToken, controller, baseLogger.With("component", "telegram"))

	return &Application{cfg: cfg, bot: bot, index: index}, nil
}

// Run polls the bot until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if a.index != nil {
			_ = a.index.Close()
		}
	}()
	return a.bot.Run(ctx)
}
