package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/HuanBui89/telegram-chatgpt-bot/internal/config"
	"github.com/HuanBui89/telegram-chatgpt-bot/internal/retry"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// Client queries Google Custom Search and formats the top results into one
// text block. Failures are returned as errors, never as text eligible for
// prompt inclusion.
type Client struct {
	apiKey     string
	cseID      string
	numResults int
	endpoint   string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

func NewClient(cfg config.SearchConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	numResults := cfg.NumResults
	if numResults <= 0 {
		numResults = 3
	}
	return &Client{
		apiKey:     cfg.APIKey,
		cseID:      cfg.CSEID,
		numResults: numResults,
		endpoint:   defaultEndpoint,
		httpClient: httpClient,
		policy:     retry.DefaultPolicy(),
		logger:     logger,
	}
}

// Needs implements the augmentation trigger predicate.
func (c *Client) Needs(message string) bool {
	return Needs(message)
}

// Search returns up to numResults results formatted as title, snippet and
// link, joined by blank lines. An empty result set yields "".
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cseID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.numResults))

	reqURL := c.endpoint + "?" + params.Encode()

	resp, body, err := retry.DoHTTP(ctx, c.policy, c.logger, func(ctx context.Context) (*http.Response, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("build search request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("execute search request: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp, nil, fmt.Errorf("read search response: %w", err)
		}
		return resp, body, nil
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	items := parsed.Items
	if len(items) > c.numResults {
		items = items[:c.numResults]
	}

	blocks := make([]string, 0, len(items))
	for _, item := range items {
		blocks = append(blocks, fmt.Sprintf("📌 %s\n%s\n🔗 %s", item.Title, item.Snippet, item.Link))
	}
	return strings.Join(blocks, "\n\n"), nil
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
