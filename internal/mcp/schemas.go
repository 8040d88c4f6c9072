package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchStarsTool returns the tool definition for search_stars
func searchStarsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_stars",
		Description: "Search locally cached GitHub stars with keyword or semantic queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (keywords, or natural language in semantic mode)",
				},
				"users": map[string]interface{}{
					"type":        "array",
					"description": "Cached usernames to search; omit to search every cached user",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"semantic": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, rank by embedding similarity instead of keyword matching",
					"default":     false,
				},
				"languages": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to these primary languages",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     30,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// listStarsTool returns the tool definition for list_stars
func listStarsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_stars",
		Description: "List cached starred repositories, most recently starred first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"users": map[string]interface{}{
					"type":        "array",
					"description": "Cached usernames to list; omit for every cached user",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"languages": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to these primary languages",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return (1-500)",
					"default":     100,
					"minimum":     1,
					"maximum":     500,
				},
			},
		},
	}
}

// starInfoTool returns the tool definition for star_info
func starInfoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "star_info",
		Description: "Show full details of one cached repository, by owner/name or by the number shown in the last listing",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"reference": map[string]interface{}{
					"type":        "string",
					"description": "Repository reference: \"owner/name\" or a display number from the most recent search_stars/list_stars call",
				},
				"users": map[string]interface{}{
					"type":        "array",
					"description": "Cached usernames to look in; omit for every cached user",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"reference"},
		},
	}
}

// listUsersTool returns the tool definition for list_users
func listUsersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_users",
		Description: "List the GitHub users whose stars are cached locally",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
