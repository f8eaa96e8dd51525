package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/config"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/retry"
)

func TestNeeds(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"giá vàng hôm nay là bao nhiêu", true},
		{"thời tiết Hà Nội", true},
		{"TIN TỨC mới nhất", true},
		{"kể mình nghe một câu chuyện vui", false},
		{"bạn khỏe không", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := Needs(tc.message); got != tc.want {
			t.Errorf("Needs(%q) = %v, want %v", tc.message, got, tc.want)
		}
	}
}

func TestNeeds_Deterministic(t *testing.T) {
	msg := "giá xăng hôm nay"
	first := Needs(msg)
	for i := 0; i < 50; i++ {
		if Needs(msg) != first {
			t.Fatalf("predicate changed its answer on iteration %d", i)
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.SearchConfig{
		APIKey:     "test-key",
		CSEID:      "test-cx",
		NumResults: 3,
	}, server.Client(), nil)
	client.endpoint = server.URL
	client.policy = retry.Policy{
		MaxAttempts: 2,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
	return client, server
}

func TestClient_SearchFormatsResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "giá vàng" {
			t.Errorf("unexpected query: %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected key: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"title":"Giá vàng","snippet":"SJC tăng","link":"https://a.example"},
			{"title":"Tỷ giá","snippet":"USD giảm","link":"https://b.example"}
		]}`))
	})

	out, err := client.Search(context.Background(), "giá vàng")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	blocks := strings.Split(out, "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %q", len(blocks), out)
	}
	if blocks[0] != "📌 Giá vàng\nSJC tăng\n🔗 https://a.example" {
		t.Errorf("unexpected first block: %q", blocks[0])
	}
}

func TestClient_SearchCapsResultCount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"title":"1","snippet":"a","link":"l1"},
			{"title":"2","snippet":"b","link":"l2"},
			{"title":"3","snippet":"c","link":"l3"},
			{"title":"4","snippet":"d","link":"l4"}
		]}`))
	})

	out, err := client.Search(context.Background(), "tin tức")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if got := len(strings.Split(out, "\n\n")); got != 3 {
		t.Errorf("expected 3 blocks, got %d", got)
	}
}

func TestClient_SearchEmptyItemsYieldsEmptyString(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	out, err := client.Search(context.Background(), "gì đó")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty result, got: %q", out)
	}
}

func TestClient_SearchFailureIsAnError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusForbidden)
	})

	out, err := client.Search(context.Background(), "giá vàng")
	if err == nil {
		t.Fatalf("expected error on non-200 response")
	}
	if out != "" {
		t.Errorf("failure must not produce prompt-eligible text, got: %q", out)
	}
}
