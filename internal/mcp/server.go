package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/capmatch-mcp/internal/assembler"
	"github.com/dshills/capmatch-mcp/internal/catalog"
	"github.com/dshills/capmatch-mcp/internal/embedder"
	"github.com/dshills/capmatch-mcp/internal/health"
	"github.com/dshills/capmatch-mcp/internal/registry"
	"github.com/dshills/capmatch-mcp/internal/scorer"
	"github.com/dshills/capmatch-mcp/internal/searcher"
	"github.com/dshills/capmatch-mcp/internal/vectorindex"
)

const (
	// ServerName is the MCP server name
	ServerName = "capmatch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the catalog database
	DefaultDBPath = "~/.capmatch"
)

// Server wraps the MCP server with the engine's components.
type Server struct {
	mcp      *server.MCPServer
	catalog  *catalog.Catalog
	registry *registry.Registry
	index    vectorindex.Index
	provider embedder.Provider
	health   *health.Store
	searcher *searcher.Service
	selector *assembler.Selector
	scorer   *scorer.Scorer
}

// NewServer builds the whole engine: catalog -> registry (seeded) ->
// scorer/searcher/assembler -> MCP tool surface.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".capmatch")
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	cat, err := catalog.Open(filepath.Join(dbPath, "capmatch.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	provider, err := embedder.NewFromEnv()
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}

	idx := vectorindex.NewFlat(provider.Dimension())
	reg := registry.New(idx, registry.Config{})
	healthStore := health.NewStore()
	sc := scorer.New(healthStore, scorer.Config{})
	search := searcher.NewService(reg, idx, provider, sc, searcher.Config{})
	selector := assembler.New(assembler.Config{})

	// Seed the registry from the catalog. Records whose embedding no
	// longer matches the provider's dimension are skipped with a
	// warning rather than failing startup.
	mods, err := cat.LoadAll(context.Background())
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, mod := range mods {
		if err := reg.Add(mod); err != nil {
			log.Printf("skipping catalog module %s: %v", mod.ID, err)
		}
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		catalog:  cat,
		registry: reg,
		index:    idx,
		provider: provider,
		health:   healthStore,
		searcher: search,
		selector: selector,
		scorer:   sc,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.provider.Close()
		_ = s.catalog.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchModulesTool(), s.handleSearchModules)
	s.mcp.AddTool(assembleModulesTool(), s.handleAssembleModules)
	s.mcp.AddTool(registerModuleTool(), s.handleRegisterModule)
	s.mcp.AddTool(updatePerformanceTool(), s.handleUpdatePerformance)
	s.mcp.AddTool(removeModuleTool(), s.handleRemoveModule)
	s.mcp.AddTool(reportHostHealthTool(), s.handleReportHostHealth)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
