package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/config"
)

var ErrEmptyPrompt = errors.New("no messages to complete")

// OpenAIClient talks to an OpenAI-compatible API for chat completions and
// image generation. Transient failures (429, 5xx, network) are retried a
// fixed number of times with linear backoff.
type OpenAIClient struct {
	api        *openai.Client
	chatModel  string
	imageModel string
	retryCount int
	backoff    time.Duration
	logger     *slog.Logger
}

func NewOpenAIClient(cfg config.OpenAIConfig, httpClient *http.Client, logger *slog.Logger) *OpenAIClient {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		apiCfg.HTTPClient = httpClient
	}

	return &OpenAIClient{
		api:        openai.NewClientWithConfig(apiCfg),
		chatModel:  cfg.ChatModel,
		imageModel: cfg.ImageModel,
		retryCount: 2,
		backoff:    500 * time.Millisecond,
		logger:     logger,
	}
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error) {
	if len(messages) == 0 {
		return "", ErrEmptyPrompt
	}

	req := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
				return "", errors.New("empty response from model")
			}
			return resp.Choices[0].Message.Content, nil
		}
		if !isTransient(err) || attempt == c.retryCount {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		lastErr = err
		if c.logger != nil {
			c.logger.Warn("completion retry",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt+1)):
		}
	}
	return "", fmt.Errorf("chat completion: %w", lastErr)
}

func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt string) (ImageResult, error) {
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Model:  c.imageModel,
		Prompt: prompt,
		Size:   openai.CreateImageSize1024x1024,
		N:      1,
	})
	if err != nil {
		return ImageResult{}, fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return ImageResult{}, errors.New("empty image response")
	}
	return ImageResult{
		URL:     resp.Data[0].URL,
		B64JSON: resp.Data[0].B64JSON,
	}, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	// Plain transport errors are worth one more try.
	return true
}
