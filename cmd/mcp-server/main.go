// Command mcp-server runs the engine's MCP tool surface over stdio, for
// agents that talk MCP instead of raw GraphQL over HTTP.
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/config"
	"github.com/lumadb/graphql-engine/internal/engine"
	"github.com/lumadb/graphql-engine/internal/mcpserver"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/snapshot"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("GRAPHQL_ENGINE_CONFIG"))
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}

	snapshotStore := snapshot.NewStore(cfg.SnapshotPath, logger)
	eng := engine.New(logger, ndc.NewHTTPClient(), snapshotStore)

	raw, err := metadata.LoadJSON(cfg.MetadataPath)
	if err != nil {
		logger.Fatal("loading metadata", zap.Error(err))
	}
	if err := eng.Reload(raw); err != nil {
		logger.Fatal("resolving metadata", zap.Error(err))
	}

	role := metadata.Role(os.Getenv("GRAPHQL_ENGINE_MCP_ROLE"))
	if role == "" {
		role = metadata.Role("anonymous")
	}

	srv := mcpserver.New(eng, role, logger)
	if err := srv.ServeStdio(context.Background()); err != nil {
		logger.Fatal("mcp server stopped", zap.Error(err))
	}
}
