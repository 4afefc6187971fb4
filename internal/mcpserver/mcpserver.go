// Package mcpserver exposes the engine to AI agents as a set of MCP tools
// (execute_graphql, list_models, describe_model), the way the teacher's
// platform layer pairs its GraphQL engine with an MCP server for agent
// consumption.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/engine"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/session"
)

// Server wraps a mark3labs/mcp-go server around an Engine, giving an agent
// schema-discovery and query-execution tools instead of raw GraphQL.
type Server struct {
	eng    *engine.Engine
	role   metadata.Role
	logger *zap.Logger
	srv    *server.MCPServer
}

// New builds an MCP server whose tools execute against eng under role.
// role is fixed at construction, not supplied per-call, so a deployment
// hands each MCP server a role scoped to what its agent should see.
func New(eng *engine.Engine, role metadata.Role, logger *zap.Logger) *Server {
	s := &Server{
		eng:    eng,
		role:   role,
		logger: logger,
		srv:    server.NewMCPServer("graphql-engine", "1.0.0"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.srv.AddTool(mcp.NewTool(
		"execute_graphql",
		mcp.WithDescription("Execute a GraphQL query or mutation against the federated engine and return the JSON result. "+
			"Call list_models first if you don't already know the available fields."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The GraphQL query or mutation document")),
		mcp.WithString("operationName", mcp.Description("Operation name, required only if query defines more than one operation")),
	), s.handleExecuteGraphQL)

	s.srv.AddTool(mcp.NewTool(
		"list_models",
		mcp.WithDescription("List the models (GraphQL object types backed by a data connector) visible to the current role."),
	), s.handleListModels)

	s.srv.AddTool(mcp.NewTool(
		"describe_model",
		mcp.WithDescription("Describe a model's fields and their types, to help build a query against it."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name, as returned by list_models")),
	), s.handleDescribeModel)
}

// ServeStdio runs the MCP server over stdio and returns when the stdio
// server stops; ctx is not consulted.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.ServeStdio(s.srv)
}

func (s *Server) handleExecuteGraphQL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	operationName, _ := args["operationName"].(string)

	sess := session.Session{Role: s.role}
	resp, _ := s.eng.Execute(ctx, sess, query, operationName, nil)

	data, err := json.Marshal(resp)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleListModels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md := s.eng.ResolvedMetadata()
	if md == nil {
		return mcp.NewToolResultError("engine has no resolved metadata yet"), nil
	}
	names := make([]string, 0)
	for name := range md.Models {
		if _, ok := md.ModelSelectPermission(name, s.role); !ok {
			continue
		}
		names = append(names, name.String())
	}
	data, err := json.Marshal(struct {
		Models []string `json:"models"`
	}{Models: names})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleDescribeModel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md := s.eng.ResolvedMetadata()
	if md == nil {
		return mcp.NewToolResultError("engine has no resolved metadata yet"), nil
	}
	args := req.GetArguments()
	name, _ := args["model"].(string)
	if name == "" {
		return mcp.NewToolResultError("model is required"), nil
	}

	var found *metadata.ObjectType
	for qn, m := range md.Models {
		if qn.String() == name {
			if rt, ok := md.Types[m.ObjectType]; ok {
				found = rt.Object
			}
			break
		}
	}
	if found == nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown model %q", name)), nil
	}

	fields := make(map[string]string, len(found.Fields))
	for _, f := range found.Fields {
		fields[string(f.Name)] = f.Type.String()
	}
	data, err := json.Marshal(struct {
		Fields map[string]string `json:"fields"`
	}{Fields: fields})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
