package llm

import "context"

// Message is one entry of a composed prompt sent to the completion API.
type Message struct {
	Role    string
	Content string
}

type Options struct {
	Temperature float32
	MaxTokens   int
}

// Client is the minimal completion API surface the bot depends on.
type Client interface {
	ChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error)
}

// ImageResult carries either a hosted URL or inline base64 PNG data,
// depending on what the image API returned.
type ImageResult struct {
	URL     string
	B64JSON string
}

type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string) (ImageResult, error)
}
