package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSQLiteStore_AppendAndRecent(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if err := store.Append(ctx, 42, RoleUser, fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	turns, err := store.Recent(ctx, 42, 4)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got: %d", len(turns))
	}
	for i, want := range []string{"msg-2", "msg-3", "msg-4", "msg-5"} {
		if turns[i].Content != want {
			t.Errorf("turn %d: expected %q, got %q", i, want, turns[i].Content)
		}
		if turns[i].UserID != 42 {
			t.Errorf("turn %d: expected user 42, got %d", i, turns[i].UserID)
		}
	}
}

func TestSQLiteStore_UsersArePartitioned(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, 1, RoleUser, "from-one"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append(ctx, 2, RoleUser, "from-two"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := store.Recent(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "from-one" {
		t.Fatalf("unexpected turns for user 1: %v", turns)
	}
}

func TestSQLiteStore_ClearKeepsIdentity(t *testing.T) {
	store, _ := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, 9, RoleUser, "hello"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Clear(ctx, 9); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	turns, err := store.Recent(ctx, 9, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty history after clear, got: %d", len(turns))
	}

	var count int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM users WHERE user_id = 9`).Scan(&count); err != nil {
		t.Fatalf("count users failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected user identity to survive clear, got count: %d", count)
	}

	// Clearing again must still succeed.
	if err := store.Clear(ctx, 9); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	ctx := context.Background()

	store, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	if err := store.Append(ctx, 5, RoleAssistant, "persisted"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	turns, err := reopened.Recent(ctx, 5, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "persisted" || turns[0].Role != RoleAssistant {
		t.Fatalf("unexpected turns after reopen: %v", turns)
	}
}
