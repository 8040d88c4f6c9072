package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ghstars/gh-stars/internal/searcher"
	"github.com/ghstars/gh-stars/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeCacheMissing   = -32001 // User has never been fetched
	ErrorCodeEmptyQuery     = -32004 // Query parameter is empty
	ErrorCodeNotFound       = -32005 // Repository not in cache
	ErrorCodeStaleReference = -32006 // Display number does not match the current listing
)

// handleSearchStars handles the search_stars tool invocation
func (s *Server) handleSearchStars(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	users, err := s.resolveUsers(ctx, getStringSlice(args, "users"))
	if err != nil {
		return nil, err
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Users:     users,
		Query:     query,
		Languages: getStringSlice(args, "languages"),
		Semantic:  getBoolDefault(args, "semantic", false),
		Limit:     limit,
	})
	if err != nil {
		return nil, domainError(err)
	}

	s.rememberListing(resp.Results)

	response := map[string]interface{}{
		"query":    query,
		"users":    users,
		"degraded": resp.Degraded,
		"count":    len(resp.Results),
		"results":  formatResults(resp.Results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListStars handles the list_stars tool invocation
func (s *Server) handleListStars(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 500 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 500", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	users, err := s.resolveUsers(ctx, getStringSlice(args, "users"))
	if err != nil {
		return nil, err
	}

	results, err := s.searcher.List(ctx, users, getStringSlice(args, "languages"))
	if err != nil {
		return nil, domainError(err)
	}
	if limit < len(results) {
		results = results[:limit]
	}

	s.rememberListing(results)

	response := map[string]interface{}{
		"users":   users,
		"count":   len(results),
		"results": formatResults(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleStarInfo handles the star_info tool invocation
func (s *Server) handleStarInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ref, ok := args["reference"].(string)
	if !ok || ref == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "reference parameter is required", map[string]interface{}{
			"param":  "reference",
			"reason": "missing or empty",
		})
	}

	users, err := s.resolveUsers(ctx, getStringSlice(args, "users"))
	if err != nil {
		return nil, err
	}

	rec, cachedFor, err := s.resolver.Resolve(ctx, users, ref, s.currentListing())
	if err != nil {
		return nil, domainError(err)
	}

	response := map[string]interface{}{
		"repo":        rec.Key(),
		"description": rec.Description,
		"language":    rec.Language,
		"stars":       rec.Stars,
		"forks":       rec.Forks,
		"open_issues": rec.OpenIssues,
		"url":         rec.URL,
		"topics":      rec.Topics,
		"created_at":  formatTime(rec.CreatedAt),
		"updated_at":  formatTime(rec.UpdatedAt),
		"pushed_at":   formatTime(rec.PushedAt),
		"starred_at":  formatTime(rec.StarredAt),
		"cached_for":  cachedFor,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListUsers handles the list_users tool invocation
func (s *Server) handleListUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list users", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		entries = append(entries, map[string]interface{}{
			"username":    u.Username,
			"repo_count":  u.RepoCount,
			"last_synced": formatTime(u.LastSynced),
		})
	}

	response := map[string]interface{}{
		"count": len(entries),
		"users": entries,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// resolveUsers expands an empty user list to every cached user.
func (s *Server) resolveUsers(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	cached, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list users", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if len(cached) == 0 {
		return nil, newMCPError(ErrorCodeCacheMissing, "no users cached, run gh-stars fetch first", nil)
	}

	users := make([]string, 0, len(cached))
	for _, u := range cached {
		users = append(users, u.Username)
	}
	return users, nil
}

// domainError maps domain sentinels onto MCP error codes.
func domainError(err error) error {
	switch {
	case errors.Is(err, types.ErrCacheMissing):
		return newMCPError(ErrorCodeCacheMissing, err.Error(), nil)
	case errors.Is(err, types.ErrStaleReference):
		return newMCPError(ErrorCodeStaleReference, err.Error(), nil)
	case errors.Is(err, types.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, err.Error(), nil)
	}
}

func formatResults(results []types.SearchResult) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]interface{}{
			"number":      r.DisplayNumber,
			"repo":        r.Record.Key(),
			"description": r.Record.Description,
			"language":    r.Record.Language,
			"stars":       r.Record.Stars,
			"url":         r.Record.URL,
			"score":       r.Score,
			"user":        r.MatchedUser,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
