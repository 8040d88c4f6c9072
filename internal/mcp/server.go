package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ghstars/gh-stars/internal/config"
	"github.com/ghstars/gh-stars/internal/embedder"
	"github.com/ghstars/gh-stars/internal/resolver"
	"github.com/ghstars/gh-stars/internal/searcher"
	"github.com/ghstars/gh-stars/internal/store"
	"github.com/ghstars/gh-stars/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "gh-stars"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server exposes the star cache over the Model Context Protocol on
// stdio, so editor assistants can query cached stars without shelling
// out to the CLI.
type Server struct {
	mcp      *server.MCPServer
	store    *store.Store
	searcher *searcher.Searcher
	resolver *resolver.Resolver

	// Display numbers are scoped to this server session: star_info by
	// number resolves against the most recent listing produced here.
	mu          sync.Mutex
	lastListing []types.SearchResult
}

// NewServer creates an MCP server over the configured cache.
func NewServer(cfg *config.Config) (*Server, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	mcpServer := server.NewMCPServer(ServerName, ServerVersion)

	s := &Server{
		mcp:      mcpServer,
		store:    st,
		searcher: searcher.New(st, emb),
		resolver: resolver.New(st),
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchStarsTool(), s.handleSearchStars)
	s.mcp.AddTool(listStarsTool(), s.handleListStars)
	s.mcp.AddTool(starInfoTool(), s.handleStarInfo)
	s.mcp.AddTool(listUsersTool(), s.handleListUsers)
}

func (s *Server) rememberListing(listing []types.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastListing = listing
}

func (s *Server) currentListing() []types.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastListing
}
