package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/llm"
)

const (
	// SummaryPrefix tags the synthetic system turn that replaces an
	// over-budget history.
	SummaryPrefix = "[HISTORY SUMMARY] "

	summarizeSystemPrompt = "Bạn là một trợ lý tóm tắt hội thoại."
	summarizeInstruction  = "Tóm tắt ngắn (3-6 dòng) nội dung chính của đoạn hội thoại sau, giữ các thông tin quan trọng:\n\n"
)

// Composer bounds a replayed history to a character budget. Histories within
// budget pass through unchanged; larger ones are compressed into a single
// summary turn by one completion call, falling back to plain truncation when
// that call fails.
type Composer struct {
	summarizer    llm.Client
	maxChars      int
	fallbackTurns int
	logger        *slog.Logger
}

func NewComposer(summarizer llm.Client, maxChars, fallbackTurns int, logger *slog.Logger) *Composer {
	return &Composer{
		summarizer:    summarizer,
		maxChars:      maxChars,
		fallbackTurns: fallbackTurns,
		logger:        logger,
	}
}

// Compose never fails: summarization is attempted at most once and any fault
// degrades silently to the most recent fallbackTurns turns.
func (c *Composer) Compose(ctx context.Context, turns []Turn) []Turn {
	if len(turns) == 0 {
		return turns
	}

	joined := joinTurns(turns)
	if len(joined) <= c.maxChars {
		return turns
	}

	summary, err := c.summarize(ctx, joined)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("falling back to truncated history",
				slog.String("error", fmt.Errorf("%w: %v", ErrSummarize, err).Error()),
				slog.Int("kept_turns", c.fallbackTurns))
		}
		if len(turns) > c.fallbackTurns {
			return turns[len(turns)-c.fallbackTurns:]
		}
		return turns
	}

	return []Turn{{
		UserID:  turns[0].UserID,
		Role:    RoleSystem,
		Content: SummaryPrefix + summary,
	}}
}

func (c *Composer) summarize(ctx context.Context, joined string) (string, error) {
	out, err := c.summarizer.ChatCompletion(ctx, []llm.Message{
		{Role: RoleSystem, Content: summarizeSystemPrompt},
		{Role: RoleUser, Content: summarizeInstruction + joined},
	}, llm.Options{Temperature: 0.2})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func joinTurns(turns []Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}
