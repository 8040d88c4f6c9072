package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ghstars/gh-stars/pkg/types"
)

const (
	defaultBaseURL  = "https://api.github.com"
	defaultPageSize = 100

	// starAccept asks the API to wrap each repository with the time it
	// was starred.
	starAccept = "application/vnd.github.star+json"

	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Client fetches starred repositories from the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPageSize sets how many repositories to request per page
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= defaultPageSize {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger for page-level progress
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a GitHub API client. The token may be empty;
// unauthenticated requests work for public stars but hit a much lower
// rate limit.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:  defaultBaseURL,
		token:    token,
		pageSize: defaultPageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// starredItem is one element of the star+json listing
type starredItem struct {
	StarredAt time.Time `json:"starred_at"`
	Repo      apiRepo   `json:"repo"`
}

type apiRepo struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Language    *string   `json:"language"`
	Stargazers  int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	OpenIssues  int       `json:"open_issues_count"`
	HTMLURL     string    `json:"html_url"`
	Topics      []string  `json:"topics"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PushedAt    time.Time `json:"pushed_at"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// FetchStarred retrieves the complete starred listing for one user,
// following pagination to the end. Any page failure aborts the whole
// fetch so callers never merge a partial listing.
func (c *Client) FetchStarred(ctx context.Context, username string) ([]types.RepoRecord, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", types.ErrNotFound)
	}

	records := make([]types.RepoRecord, 0, c.pageSize)
	url := fmt.Sprintf("%s/users/%s/starred?per_page=%d", c.baseURL, username, c.pageSize)

	for page := 1; url != ""; page++ {
		items, next, err := c.fetchPage(ctx, url, username)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		for _, item := range items {
			records = append(records, toRecord(item))
		}

		c.logger.Debug("fetched star page",
			"user", username, "page", page, "count", len(items), "total", len(records))
		url = next
	}

	return records, nil
}

// fetchPage fetches one page, retrying transport errors and 5xx
// responses with exponential backoff. Client errors fail immediately.
func (c *Client) fetchPage(ctx context.Context, url, username string) ([]starredItem, string, error) {
	var items []starredItem
	var next string
	var lastErr error

	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		var retryable bool
		items, next, retryable, lastErr = c.doPage(ctx, url, username)
		if lastErr == nil {
			return items, next, nil
		}
		if !retryable {
			return nil, "", lastErr
		}
		if ctx.Err() != nil {
			return nil, "", fmt.Errorf("%w: %v", types.ErrNetwork, ctx.Err())
		}

		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, "", fmt.Errorf("%w: %v", types.ErrNetwork, ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
		}
	}
	return nil, "", lastErr
}

func (c *Client) doPage(ctx context.Context, url, username string) (items []starredItem, next string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("%w: %v", types.ErrNetwork, err)
	}
	req.Header.Set("Accept", starAccept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", true, fmt.Errorf("%w: %v", types.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// handled below
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, "", false, types.ErrAuthRequired
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", false, rateLimitError(resp)
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", false, fmt.Errorf("%w: user %s", types.ErrNotFound, username)
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", true, fmt.Errorf("%w: status %d: %s", types.ErrNetwork, resp.StatusCode, string(body))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", false, fmt.Errorf("%w: status %d: %s", types.ErrNetwork, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, "", false, fmt.Errorf("%w: decode response: %v", types.ErrNetwork, err)
	}
	return items, nextLink(resp.Header.Get("Link")), false, nil
}

func rateLimitError(resp *http.Response) error {
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if sec, err := strconv.ParseInt(reset, 10, 64); err == nil {
			return fmt.Errorf("%w: resets at %s", types.ErrRateLimited,
				time.Unix(sec, 0).UTC().Format(time.RFC3339))
		}
	}
	return types.ErrRateLimited
}

// nextLink extracts the rel="next" URL from a Link header, or "" when
// the current page is the last.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(part, ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) != `rel="next"` {
			continue
		}
		url := strings.TrimSpace(section[0])
		return strings.Trim(url, "<>")
	}
	return ""
}

func toRecord(item starredItem) types.RepoRecord {
	rec := types.RepoRecord{
		Owner:      item.Repo.Owner.Login,
		Name:       item.Repo.Name,
		Stars:      item.Repo.Stargazers,
		Forks:      item.Repo.Forks,
		OpenIssues: item.Repo.OpenIssues,
		URL:        item.Repo.HTMLURL,
		Topics:     item.Repo.Topics,
		CreatedAt:  item.Repo.CreatedAt,
		UpdatedAt:  item.Repo.UpdatedAt,
		PushedAt:   item.Repo.PushedAt,
		StarredAt:  item.StarredAt,
	}
	if item.Repo.Description != nil {
		rec.Description = *item.Repo.Description
	}
	if item.Repo.Language != nil {
		rec.Language = *item.Repo.Language
	}
	return rec
}
