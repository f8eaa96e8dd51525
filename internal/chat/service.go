package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/llm"
)

// DefaultSystemPrompt is the fixed instruction prepended to every composed
// prompt.
const DefaultSystemPrompt = "Bạn là một trợ lý tiếng Việt thông minh, thân thiện, dí dỏm (Gen Z style). " +
	"Trả lời ngắn gọn, rõ ràng, thích ứng với bối cảnh. " +
	"Khi cần, hỏi thêm 1 câu để làm rõ. Dùng emoji phù hợp, nhưng không lạm dụng."

// ApologyReply is returned when the completion API fails. The cause is
// logged, never shown.
const ApologyReply = "❌ Mình bị lỗi khi xử lý. Thử lại nhé."

// WebResultPrefix tags the system turn carrying a web search result.
const WebResultPrefix = "[WEB SEARCH RESULT]\n"

// Searcher is the augmentation stage: a pure trigger predicate plus the
// search call itself.
type Searcher interface {
	Needs(message string) bool
	Search(ctx context.Context, query string) (string, error)
}

// Service orchestrates one conversational turn: read history, bound it,
// optionally augment with a web search, call the completion API once, and
// persist the user/assistant pair.
type Service struct {
	store        ConversationStore
	completer    llm.Client
	composer     *Composer
	search       Searcher
	systemPrompt string
	historyLimit int
	logger       *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

type ServiceConfig struct {
	Store        ConversationStore
	Completer    llm.Client
	Composer     *Composer
	Search       Searcher // nil disables augmentation
	SystemPrompt string
	HistoryLimit int
	Logger       *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 30
	}
	return &Service{
		store:        cfg.Store,
		completer:    cfg.Completer,
		composer:     cfg.Composer,
		search:       cfg.Search,
		systemPrompt: systemPrompt,
		historyLimit: historyLimit,
		logger:       cfg.Logger,
		locks:        make(map[int64]*sync.Mutex),
	}
}

// Respond handles one user message and returns the reply text. Completion
// faults yield ApologyReply with nothing persisted for the attempt; the only
// error returned is context cancellation.
func (s *Service) Respond(ctx context.Context, userID int64, message string) (string, error) {
	// Serialize turns per user so concurrent messages from the same user
	// cannot interleave their history reads and writes. Distinct users
	// proceed in parallel.
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	history, err := s.store.Recent(ctx, userID, s.historyLimit)
	if err != nil {
		// Best effort: answer without context rather than not at all.
		s.logError("history read failed, continuing with empty history", err, userID)
		history = nil
	}

	composed := s.composer.Compose(ctx, history)

	messages := make([]llm.Message, 0, len(composed)+3)
	messages = append(messages, llm.Message{Role: RoleSystem, Content: s.systemPrompt})
	for _, t := range composed {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}

	if note := s.augment(ctx, userID, message); note != "" {
		messages = append(messages, llm.Message{Role: RoleSystem, Content: note})
	}

	messages = append(messages, llm.Message{Role: RoleUser, Content: message})

	reply, err := s.completer.ChatCompletion(ctx, messages, llm.Options{
		Temperature: 0.6,
		MaxTokens:   800,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logError("completion failed", fmt.Errorf("%w: %v", ErrCompletion, err), userID)
		return ApologyReply, nil
	}
	reply = strings.TrimSpace(reply)

	// Persist only after a successful completion; a failed call leaves no
	// record of this attempt beyond what augmentation already wrote.
	if err := s.store.Append(ctx, userID, RoleUser, message); err != nil {
		s.logError("persist user turn failed", err, userID)
	}
	if err := s.store.Append(ctx, userID, RoleAssistant, reply); err != nil {
		s.logError("persist assistant turn failed", err, userID)
	}

	return reply, nil
}

// ClearHistory removes all turns for the user, keeping the identity row.
func (s *Service) ClearHistory(ctx context.Context, userID int64) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.store.Clear(ctx, userID)
}

// augment runs the search stage when the trigger predicate fires. A
// non-empty result is persisted as a system turn so future replays see it.
// Search faults are absorbed: augmentation is skipped, never surfaced.
func (s *Service) augment(ctx context.Context, userID int64, message string) string {
	if s.search == nil || !s.search.Needs(message) {
		return ""
	}

	result, err := s.search.Search(ctx, message)
	if err != nil {
		s.logError("search failed, skipping augmentation", fmt.Errorf("%w: %v", ErrSearch, err), userID)
		return ""
	}
	if result == "" {
		return ""
	}

	note := WebResultPrefix + result
	if err := s.store.Append(ctx, userID, RoleSystem, note); err != nil {
		s.logError("persist search result failed", err, userID)
	}
	return note
}

func (s *Service) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *Service) logError(msg string, err error, userID int64) {
	if s.logger == nil {
		return
	}
	s.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.Int64("user_id", userID))
}
