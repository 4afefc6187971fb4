// Package engine wires metadata resolution, schema building, and request
// execution into the single entry point cmd/engine's server calls on every
// inbound GraphQL request (§3 Lifecycle).
package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/exec"
	"github.com/lumadb/graphql-engine/internal/ir"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/normalize"
	"github.com/lumadb/graphql-engine/internal/plan"
	"github.com/lumadb/graphql-engine/internal/resolve"
	"github.com/lumadb/graphql-engine/internal/response"
	"github.com/lumadb/graphql-engine/internal/schema"
	"github.com/lumadb/graphql-engine/internal/session"
	"github.com/lumadb/graphql-engine/internal/snapshot"
)

// Engine holds the currently-resolved metadata and everything derived
// from it, swapped atomically on reload (§3 invariant: a request always
// sees one consistent metadata snapshot end to end).
type Engine struct {
	logger   *zap.Logger
	client   ndc.Client
	snapshot *snapshot.Store

	mu      sync.RWMutex
	raw     metadata.Metadata
	md      *resolve.ResolvedMetadata
	builder *schema.Builder

	usageMu         sync.Mutex
	cumulativeUsage UsageReport
}

func New(logger *zap.Logger, client ndc.Client, snapshotStore *snapshot.Store) *Engine {
	return &Engine{logger: logger, client: client, snapshot: snapshotStore}
}

// Reload re-resolves raw and, on success, swaps it in and persists a
// snapshot. On failure the engine keeps serving the previous metadata
// (§7: a metadata authoring error must not take a healthy engine down).
func (e *Engine) Reload(raw metadata.Metadata) error {
	resolved, err := resolve.Resolve(raw, e.logger)
	if err != nil {
		return fmt.Errorf("resolving metadata: %w", err)
	}
	builder := schema.NewBuilder(resolved, e.logger)

	e.mu.Lock()
	e.raw = raw
	e.md = resolved
	e.builder = builder
	e.mu.Unlock()

	if e.snapshot != nil {
		if err := e.snapshot.Save(raw); err != nil {
			e.logger.Warn("failed to persist metadata snapshot", zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) state() (*resolve.ResolvedMetadata, *schema.Builder) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.md, e.builder
}

// ResolvedMetadata returns the currently resolved metadata, or nil before
// the first successful Reload. Exposed for read-only consumers outside
// the request path, such as internal/mcpserver's schema-discovery tools.
func (e *Engine) ResolvedMetadata() *resolve.ResolvedMetadata {
	md, _ := e.state()
	return md
}

// UsageReport summarizes model/command usage. Execute returns one tallied
// across a single request; CumulativeUsage returns the running total
// across all requests that the admin usage endpoint serves.
type UsageReport struct {
	Models   map[string]int
	Commands map[string]int
}

// Execute runs one GraphQL request end to end: role schema lookup,
// normalization, IR generation, planning, and execution (§3 Lifecycle).
func (e *Engine) Execute(ctx context.Context, sess session.Session, query, operationName string, variables map[string]interface{}) (response.Response, *UsageReport) {
	md, builder := e.state()
	if md == nil || builder == nil {
		return response.ErrorOnlyResponse("engine has no resolved metadata yet", nil), nil
	}

	roleSchema, err := builder.ForRole(sess.Role)
	if err != nil {
		return response.ErrorOnlyResponse(err.Error(), nil), nil
	}

	normalizer := normalize.New(roleSchema)
	normalized, err := normalizer.Normalize(query, operationName, variables)
	if err != nil {
		return response.ErrorOnlyResponse(err.Error(), nil), nil
	}

	generator := ir.NewGenerator(md, sess, e.logger)
	rootFields, usages, err := generator.Generate(normalized)
	if err != nil {
		return response.ErrorOnlyResponse(err.Error(), nil), nil
	}

	planner := plan.NewPlanner()
	queryPlan, err := planner.Plan(normalized.Kind, rootFields)
	if err != nil {
		return response.ErrorOnlyResponse(err.Error(), nil), nil
	}

	executor := exec.NewExecutor(md, e.client, e.logger)
	resp := executor.Execute(ctx, roleSchema, queryPlan, query, variables)

	report := &UsageReport{Models: map[string]int{}, Commands: map[string]int{}}
	for name, count := range usages.Models {
		report.Models[name.String()] = count
	}
	for name, count := range usages.Commands {
		report.Commands[name.String()] = count
	}
	e.recordUsage(report)
	return resp, report
}

func (e *Engine) recordUsage(report *UsageReport) {
	e.usageMu.Lock()
	defer e.usageMu.Unlock()
	if e.cumulativeUsage.Models == nil {
		e.cumulativeUsage.Models = map[string]int{}
		e.cumulativeUsage.Commands = map[string]int{}
	}
	for name, count := range report.Models {
		e.cumulativeUsage.Models[name] += count
	}
	for name, count := range report.Commands {
		e.cumulativeUsage.Commands[name] += count
	}
}

// CumulativeUsage returns model/command usage tallied across every
// request since boot, for the admin usage endpoint.
func (e *Engine) CumulativeUsage() UsageReport {
	e.usageMu.Lock()
	defer e.usageMu.Unlock()
	out := UsageReport{Models: make(map[string]int, len(e.cumulativeUsage.Models)), Commands: make(map[string]int, len(e.cumulativeUsage.Commands))}
	for k, v := range e.cumulativeUsage.Models {
		out.Models[k] = v
	}
	for k, v := range e.cumulativeUsage.Commands {
		out.Commands[k] = v
	}
	return out
}

// InvalidateSchemaCache drops every cached role schema, forcing the next
// request in each role to rebuild it from the currently resolved metadata.
func (e *Engine) InvalidateSchemaCache() {
	_, builder := e.state()
	if builder != nil {
		builder.Invalidate()
	}
}
