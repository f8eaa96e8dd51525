package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/middleware"
)

type RouterDeps struct {
	Logger          *slog.Logger
	TelegramHandler http.Handler
}

// NewRouter assembles the chi router with the shared middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Post("/telegram/webhook", deps.TelegramHandler.ServeHTTP)

	return r
}
