package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/config"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/retry"
)

const (
	ActionTyping      = "typing"
	ActionUploadPhoto = "upload_photo"
)

type BotClient interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error
	SendSticker(ctx context.Context, chatID int64, fileID string, replyTo int64) error
	SendPhotoURL(ctx context.Context, chatID int64, photoURL, caption string) error
	SendPhotoBytes(ctx context.Context, chatID int64, data []byte, caption string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
	Username(ctx context.Context) (string, error)
}

type HTTPBotClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger

	mu       sync.Mutex
	username string
}

func NewClient(cfg config.TelegramConfig, httpClient *http.Client, logger *slog.Logger) *HTTPBotClient {
	return &HTTPBotClient{
		token:      cfg.BotToken,
		baseURL:    cfg.APIBaseURL,
		httpClient: httpClient,
		policy:     retry.DefaultPolicy(),
		logger:     logger,
	}
}

type sendMessageRequest struct {
	ChatID           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ReplyToMessageID int64  `json:"reply_to_message_id,omitempty"`
}

type sendStickerRequest struct {
	ChatID           int64  `json:"chat_id"`
	Sticker          string `json:"sticker"`
	ReplyToMessageID int64  `json:"reply_to_message_id,omitempty"`
}

type sendPhotoRequest struct {
	ChatID  int64  `json:"chat_id"`
	Photo   string `json:"photo"`
	Caption string `json:"caption,omitempty"`
}

type sendChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

func (c *HTTPBotClient) SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error {
	return c.postJSON(ctx, "sendMessage", sendMessageRequest{
		ChatID:           chatID,
		Text:             text,
		ReplyToMessageID: replyTo,
	})
}

func (c *HTTPBotClient) SendSticker(ctx context.Context, chatID int64, fileID string, replyTo int64) error {
	return c.postJSON(ctx, "sendSticker", sendStickerRequest{
		ChatID:           chatID,
		Sticker:          fileID,
		ReplyToMessageID: replyTo,
	})
}

func (c *HTTPBotClient) SendPhotoURL(ctx context.Context, chatID int64, photoURL, caption string) error {
	return c.postJSON(ctx, "sendPhoto", sendPhotoRequest{
		ChatID:  chatID,
		Photo:   photoURL,
		Caption: caption,
	})
}

// SendPhotoBytes uploads inline image data as a multipart form. Uploads are
// not retried: the body is consumed per attempt and duplicate photos are
// worse than a missing one.
func (c *HTTPBotClient) SendPhotoBytes(ctx context.Context, chatID int64, data []byte, caption string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption field: %w", err)
		}
	}
	part, err := w.CreateFormFile("photo", "image.png")
	if err != nil {
		return fmt.Errorf("create photo part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write photo data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &buf)
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	return checkAPIResponse(resp.StatusCode, body)
}

func (c *HTTPBotClient) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.postJSON(ctx, "sendChatAction", sendChatActionRequest{
		ChatID: chatID,
		Action: action,
	})
}

// Username returns the bot's own username, fetched once via getMe and cached
// for the process lifetime.
func (c *HTTPBotClient) Username(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.username != "" {
		return c.username, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getMe"), nil)
	if err != nil {
		return "", fmt.Errorf("build telegram request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute telegram request: %w", err)
	}
	defer resp.Body.Close()

	var parsed getMeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode getMe response: %w", err)
	}
	if !parsed.Ok {
		return "", fmt.Errorf("telegram api error on getMe")
	}

	c.username = parsed.Result.Username
	return c.username, nil
}

func (c *HTTPBotClient) postJSON(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram request: %w", err)
	}

	resp, respBody, err := retry.DoHTTP(ctx, c.policy, c.logger, func(ctx context.Context) (*http.Response, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
		if err != nil {
			return nil, nil, fmt.Errorf("build telegram request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("execute telegram request: %w", err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp, nil, fmt.Errorf("read telegram response: %w", err)
		}
		return resp, data, nil
	})
	if err != nil {
		return err
	}

	return checkAPIResponse(resp.StatusCode, respBody)
}

func (c *HTTPBotClient) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func checkAPIResponse(status int, body []byte) error {
	if status >= 300 {
		return fmt.Errorf("telegram api status %d: %s", status, string(body))
	}
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if !parsed.Ok {
		return fmt.Errorf("telegram api error: %s", parsed.Description)
	}
	return nil
}
