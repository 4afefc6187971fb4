// Package exec executes a plan.QueryPlan against downstream data
// connectors and assembles the GraphQL response (§4.6, §5, §6). Remote
// relationships are batched: each relationship level sends one connector
// query carrying every parent row's join variables, issued sequentially.
package exec

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/plan"
	"github.com/lumadb/graphql-engine/internal/resolve"
	"github.com/lumadb/graphql-engine/internal/response"
	"github.com/lumadb/graphql-engine/internal/schema"
)

type Executor struct {
	md     *resolve.ResolvedMetadata
	client ndc.Client
	logger *zap.Logger
}

func NewExecutor(md *resolve.ResolvedMetadata, client ndc.Client, logger *zap.Logger) *Executor {
	return &Executor{md: md, client: client, logger: logger}
}

// Execute runs every root field of qp, in selection order, and assembles
// the ordered response object. Root field kinds answered by introspection
// passthrough share a single graphql.Do call against roleSchema.Schema,
// the same pattern pkg/platform/graphql/engine.go's Execute uses.
func (e *Executor) Execute(ctx context.Context, roleSchema *schema.RoleSchema, qp *plan.QueryPlan, rawQuery string, rawVariables map[string]any) response.Response {
	data := response.NewOrderedMap()
	var errs []response.GraphQLError

	var introspected *graphql.Result
	introspect := func() *graphql.Result {
		if introspected == nil {
			introspected = graphql.Do(graphql.Params{
				Schema:         roleSchema.Schema,
				RequestString:  rawQuery,
				VariableValues: rawVariables,
				Context:        ctx,
			})
		}
		return introspected
	}

	for _, entry := range qp.Entries {
		val, fieldErrs := e.executeNode(ctx, entry.Alias, entry.Node, introspect)
		data.Set(entry.Alias, val)
		errs = append(errs, fieldErrs...)
	}

	resp := response.DataResponse(data)
	resp.Errors = errs
	return resp
}

func (e *Executor) executeNode(ctx context.Context, alias string, node plan.NodeQueryPlan, introspect func() *graphql.Result) (any, []response.GraphQLError) {
	switch node.Kind {
	case plan.NodeTypeName, plan.NodeSchemaField, plan.NodeTypeField:
		result := introspect()
		if result == nil {
			return nil, []response.GraphQLError{response.NewFieldError("introspection execution failed", []any{alias}, nil)}
		}
		if len(result.Errors) > 0 {
			errs := make([]response.GraphQLError, 0, len(result.Errors))
			for _, fe := range result.Errors {
				errs = append(errs, response.NewFieldError(fe.Message, []any{alias}, nil))
			}
			return nil, errs
		}
		if m, ok := result.Data.(map[string]any); ok {
			return m[alias], nil
		}
		return nil, nil

	case plan.NodeRelayNodeSelect:
		if node.Query == nil {
			return nil, nil
		}
		return e.executeQueryExecution(ctx, alias, node.Query)

	case plan.NodeNDCQueryExecution:
		return e.executeQueryExecution(ctx, alias, node.Query)

	case plan.NodeNDCMutationExecution:
		return e.executeMutationExecution(ctx, alias, node.Mutation)

	default:
		return nil, []response.GraphQLError{response.NewFieldError(fmt.Sprintf("unknown plan node kind %d", node.Kind), []any{alias}, nil)}
	}
}

func (e *Executor) executeQueryExecution(ctx context.Context, alias string, qe *plan.NDCQueryExecution) (any, []response.GraphQLError) {
	endpoint, err := endpointFor(e.md, qe.ExecutionTree.RootConnector, false)
	if err != nil {
		return nil, []response.GraphQLError{response.NewFieldError(err.Error(), []any{alias}, nil)}
	}

	resp, err := e.client.Query(ctx, endpoint, qe.ExecutionTree.RootQuery)
	if err != nil {
		return nil, []response.GraphQLError{classifyError(err, []any{alias})}
	}

	var rows []map[string]any
	if len(resp) > 0 {
		rows = resp[0].Rows
	}

	if qe.SelectionSet == nil {
		// scalar command output: the connector returns a synthesized
		// "__value" column per row.
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0]["__value"], nil
	}

	assembled, errs := e.assembleSelection(ctx, qe.ExecutionTree.RootConnector, rows, qe.SelectionSet, qe.ExecutionTree.RemoteExecutions)
	return shapeResult(qe.ProcessResponseAs, assembled), errs
}

func (e *Executor) executeMutationExecution(ctx context.Context, alias string, mx *plan.NDCMutationExecution) (any, []response.GraphQLError) {
	endpoint, err := endpointFor(e.md, mx.DataConnector, true)
	if err != nil {
		return nil, []response.GraphQLError{response.NewFieldError(err.Error(), []any{alias}, nil)}
	}

	resp, err := e.client.Mutation(ctx, endpoint, mx.Request)
	if err != nil {
		return nil, []response.GraphQLError{classifyError(err, []any{alias})}
	}
	if len(resp.OperationResults) == 0 {
		return nil, []response.GraphQLError{response.NewFieldError("connector returned no operation result", []any{alias}, nil)}
	}
	opResult := resp.OperationResults[0]

	if mx.SelectionSet == nil {
		return opResult.Result, nil
	}

	assembled, errs := e.assembleSelection(ctx, mx.DataConnector, opResult.Returning, mx.SelectionSet, nil)
	return shapeResult(mx.ProcessResponseAs, assembled), errs
}

func shapeResult(process plan.ProcessResponseAs, assembled []*response.OrderedMap) any {
	switch process.Kind {
	case plan.ProcessAsArray:
		return assembled
	case plan.ProcessAsCommandResponse:
		if process.TypeContainer.IsList {
			return assembled
		}
		fallthrough
	default: // ProcessAsObject
		if len(assembled) == 0 {
			return nil
		}
		return assembled[0]
	}
}

func classifyError(err error, path []any) response.GraphQLError {
	var connErr *ndc.ConnectorError
	if errors.As(err, &connErr) {
		return response.NewFieldError(connErr.Message, path, map[string]any{"status_code": connErr.StatusCode})
	}
	return response.GraphQLError{Message: err.Error(), Path: path}
}
