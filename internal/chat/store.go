package chat

import "context"

// ConversationStore is the append-only log of per-user turns.
type ConversationStore interface {
	// Append inserts one turn for the user, creating the user identity on
	// first contact. The insert is atomic; timestamps are monotonically
	// non-decreasing per user.
	Append(ctx context.Context, userID int64, role, content string) error

	// Recent returns the limit most recent turns for the user, ordered
	// oldest to newest. Fewer turns are returned when fewer exist.
	Recent(ctx context.Context, userID int64, limit int) ([]Turn, error)

	// Clear deletes all turns for the user. The user identity is kept.
	// Clearing a user with no turns is not an error.
	Clear(ctx context.Context, userID int64) error
}
