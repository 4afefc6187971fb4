// Command engine boots the federated GraphQL query engine: load config,
// resolve metadata, serve /graphql over fasthttp, and keep metadata fresh
// via internal/watch.
package main

import (
	"context"
	"log"
	"os"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/config"
	"github.com/lumadb/graphql-engine/internal/engine"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/snapshot"
	"github.com/lumadb/graphql-engine/internal/watch"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	configPath := os.Getenv("GRAPHQL_ENGINE_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}

	snapshotStore := snapshot.NewStore(cfg.SnapshotPath, logger)
	eng := engine.New(logger, ndc.NewHTTPClient(), snapshotStore)

	if err := loadAndReload(eng, cfg, logger); err != nil {
		logger.Fatal("initial metadata load failed", zap.Error(err))
	}

	reload := func(ctx context.Context) error {
		return loadAndReload(eng, cfg, logger)
	}

	watcher := watch.New(cfg, reload, logger)
	if err := watcher.Start(context.Background()); err != nil {
		logger.Error("starting metadata watcher", zap.Error(err))
	}
	defer watcher.Stop()

	srv := newServer(eng, cfg, reload, logger)
	logger.Info("starting graphql engine", zap.String("addr", cfg.ListenAddr))
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, srv.Handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// loadAndReload reads the authoring metadata document, falling back to
// the last persisted snapshot if the document can't be read (§7: a
// transient authoring-store outage should not crash a previously-healthy
// engine).
func loadAndReload(eng *engine.Engine, cfg config.Config, logger *zap.Logger) error {
	raw, err := metadata.LoadJSON(cfg.MetadataPath)
	if err != nil {
		logger.Warn("reading metadata document failed, trying snapshot", zap.Error(err))
		snap, ok, snapErr := snapshot.NewStore(cfg.SnapshotPath, logger).Load()
		if snapErr != nil || !ok {
			return err
		}
		raw = snap
	}
	return eng.Reload(raw)
}

type server struct {
	eng       *engine.Engine
	router    *router.Router
	logger    *zap.Logger
	jwtSecret []byte
	reload    watch.ReloadFunc
}

func newServer(eng *engine.Engine, cfg config.Config, reload watch.ReloadFunc, logger *zap.Logger) *server {
	s := &server{eng: eng, router: router.New(), logger: logger, jwtSecret: []byte(cfg.JWTSecret), reload: reload}
	s.router.POST("/graphql", s.handleGraphQL)
	s.router.GET("/admin/usage", s.handleAdminUsage)
	s.router.POST("/admin/reload", s.handleAdminReload)
	s.router.GET("/healthz", s.handleHealth)
	return s
}

func (s *server) Handler(ctx *fasthttp.RequestCtx) {
	s.router.Handler(ctx)
}
