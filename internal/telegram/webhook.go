package telegram

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/httpserver"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/llm"
)

// ChatService is the turn orchestrator surface the webhook depends on.
type ChatService interface {
	Respond(ctx context.Context, userID int64, message string) (string, error)
	ClearHistory(ctx context.Context, userID int64) error
}

type ImageService interface {
	GenerateImage(ctx context.Context, prompt string) (llm.ImageResult, error)
}

type WebhookDeps struct {
	Chat          ChatService
	Images        ImageService
	Bot           BotClient
	Cooldown      *CooldownGate
	Logger        *slog.Logger
	WebhookSecret string
}

// WebhookHandler receives Telegram updates and applies the conversational
// heuristics (group filter, cooldown, greeting shortcut, troll stickers)
// before handing the message to the chat service.
type WebhookHandler struct {
	chat          ChatService
	images        ImageService
	bot           BotClient
	cooldown      *CooldownGate
	logger        *slog.Logger
	webhookSecret string
}

func NewWebhookHandler(deps WebhookDeps) *WebhookHandler {
	return &WebhookHandler{
		chat:          deps.Chat,
		images:        deps.Images,
		bot:           deps.Bot,
		cooldown:      deps.Cooldown,
		logger:        deps.Logger,
		webhookSecret: deps.WebhookSecret,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		if secret := r.Header.Get("X-Telegram-Bot-Api-Secret-Token"); secret != h.webhookSecret {
			httpserver.WriteJSONError(w, http.StatusForbidden, "forbidden", "invalid webhook secret")
			return
		}
	}

	var upd Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httpserver.WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse update")
		return
	}
	if upd.Message == nil || upd.Message.From == nil || upd.Message.From.IsBot {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := r.Context()
	text := strings.TrimSpace(upd.Message.Text)
	if text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, upd.Message, text)
	} else {
		h.handleText(ctx, upd.Message, text)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"ok":true}`))
}

func (h *WebhookHandler) handleCommand(ctx context.Context, msg *Message, text string) {
	parts := strings.SplitN(text, " ", 2)
	cmd := strings.TrimSpace(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	// Commands may arrive as /cmd@botname in groups.
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}

	switch cmd {
	case "/start":
		h.reply(ctx, msg, "Xin chào "+msg.From.FirstName+"! Mình là trợ lý ảo — gõ gì đó đi nhé. Gõ /help để xem lệnh.")
	case "/help":
		h.reply(ctx, msg, helpText)
	case "/reset":
		if err := h.chat.ClearHistory(ctx, msg.From.ID); err != nil {
			h.logError("clear history failed", err)
			h.reply(ctx, msg, "❌ Không xóa được lịch sử. Thử lại nhé.")
			return
		}
		h.reply(ctx, msg, "🧹 Đã xóa lịch sử chat của bạn rồi. Bắt đầu lại nhé!")
	case "/draw":
		h.handleDraw(ctx, msg, arg)
	default:
		h.reply(ctx, msg, "Lệnh không tồn tại. Gõ /help để xem hướng dẫn.")
	}
}

func (h *WebhookHandler) handleText(ctx context.Context, msg *Message, text string) {
	if h.isUnaddressedGroupChatter(ctx, msg, text) {
		return
	}
	// Silent drop inside the cooldown window.
	if h.cooldown != nil && !h.cooldown.Allow(msg.From.ID) {
		return
	}

	// Greeting shortcut: canned reply, no completion call, nothing persisted.
	if isGreeting(text) {
		h.reply(ctx, msg, greetingReplies[rand.Intn(len(greetingReplies))])
		return
	}

	if hasTrollWord(text) {
		sticker := trollStickers[rand.Intn(len(trollStickers))]
		if err := h.bot.SendSticker(ctx, msg.Chat.ID, sticker, msg.MessageID); err != nil {
			h.logError("send sticker failed", err)
		}
	}

	if err := h.bot.SendChatAction(ctx, msg.Chat.ID, ActionTyping); err != nil {
		h.logError("send chat action failed", err)
	}

	reply, err := h.chat.Respond(ctx, msg.From.ID, text)
	if err != nil {
		h.logError("respond failed", err)
		return
	}
	h.reply(ctx, msg, reply)
}

func (h *WebhookHandler) handleDraw(ctx context.Context, msg *Message, prompt string) {
	if h.cooldown != nil && !h.cooldown.Allow(msg.From.ID) {
		return
	}
	if prompt == "" {
		h.reply(ctx, msg, "🎨 Gõ: /draw [mô tả]. Ví dụ: /draw Người phụ nữ mặc áo dài ngồi trong quán cà phê")
		return
	}

	h.reply(ctx, msg, "🖌️ Đang tạo ảnh... (có thể mất vài giây)")
	if err := h.bot.SendChatAction(ctx, msg.Chat.ID, ActionUploadPhoto); err != nil {
		h.logError("send chat action failed", err)
	}

	img, err := h.images.GenerateImage(ctx, prompt)
	if err != nil {
		h.logError("image generation failed", err)
		h.reply(ctx, msg, "❌ Không tạo được ảnh. Thử mô tả khác nhé.")
		return
	}

	caption := "✨ Ảnh: " + prompt
	switch {
	case img.URL != "":
		err = h.bot.SendPhotoURL(ctx, msg.Chat.ID, img.URL, caption)
	case img.B64JSON != "":
		var data []byte
		data, err = base64.StdEncoding.DecodeString(img.B64JSON)
		if err == nil {
			err = h.bot.SendPhotoBytes(ctx, msg.Chat.ID, data, caption)
		}
	default:
		h.reply(ctx, msg, "❌ Không tạo được ảnh. Thử mô tả khác nhé.")
		return
	}
	if err != nil {
		h.logError("send photo failed", err)
		h.reply(ctx, msg, "❌ Gửi ảnh lỗi. Bạn có thể thử lại.")
	}
}

// isUnaddressedGroupChatter reports whether a group message neither mentions
// the bot nor replies to it, in which case it is ignored.
func (h *WebhookHandler) isUnaddressedGroupChatter(ctx context.Context, msg *Message, text string) bool {
	if msg.Chat.Type != "group" && msg.Chat.Type != "supergroup" {
		return false
	}

	username, err := h.bot.Username(ctx)
	if err != nil {
		h.logError("resolve bot username failed", err)
		return true
	}

	if strings.Contains(text, "@"+username) {
		return false
	}
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil && reply.From.Username == username {
		return false
	}
	return true
}

func (h *WebhookHandler) reply(ctx context.Context, msg *Message, text string) {
	if err := h.bot.SendMessage(ctx, msg.Chat.ID, text, msg.MessageID); err != nil {
		h.logError("send message failed", err)
	}
}

func (h *WebhookHandler) logError(message string, err error) {
	if h.logger != nil {
		h.logger.Error(message, slog.String("error", err.Error()))
	}
}
