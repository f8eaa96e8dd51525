package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/chat"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/config"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/httpserver"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/llm"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/search"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/telegram"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)
	llmClient := llm.NewOpenAIClient(cfg.OpenAI, httpClient, logger)

	var store chat.ConversationStore
	switch strings.ToLower(cfg.Store.Type) {
	case "memory":
		store = chat.NewMemoryStore()
	default:
		sqliteStore, err := chat.OpenSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	// Search augmentation stays off unless both Google keys are present.
	var searcher chat.Searcher
	if cfg.Search.APIKey != "" && cfg.Search.CSEID != "" {
		searcher = search.NewClient(cfg.Search, httpClient, logger)
	}

	composer := chat.NewComposer(llmClient, cfg.Chat.MaxHistoryChars, cfg.Chat.SummaryFallbackTurns, logger)
	chatService := chat.NewService(chat.ServiceConfig{
		Store:        store,
		Completer:    llmClient,
		Composer:     composer,
		Search:       searcher,
		HistoryLimit: cfg.Chat.HistoryLimit,
		Logger:       logger,
	})

	botClient := telegram.NewClient(cfg.Telegram, httpClient, logger)
	webhookHandler := telegram.NewWebhookHandler(telegram.WebhookDeps{
		Chat:          chatService,
		Images:        llmClient,
		Bot:           botClient,
		Cooldown:      telegram.NewCooldownGate(cfg.Chat.Cooldown),
		Logger:        logger,
		WebhookSecret: cfg.Telegram.WebhookSecret,
	})

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:          logger,
		TelegramHandler: webhookHandler,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
