// Package mcp exposes the star cache to editor assistants over the
// Model Context Protocol. The server speaks MCP on stdio and offers
// four tools: search_stars, list_stars, star_info and list_users. It
// never fetches from GitHub itself; the cache is read as-is.
//
// Display numbers shown in search_stars and list_stars output are
// scoped to the server session. star_info accepts such a number only
// while the listing that produced it is still the most recent one.
package mcp
