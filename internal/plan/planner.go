package plan

import (
	"encoding/json"
	"fmt"

	"github.com/lumadb/graphql-engine/internal/ir"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/normalize"
)

// Planner lowers a request's IR into a QueryPlan, assigning shared JoinIds
// to structurally-equal remote joins (§4.5 Join-id assignment).
type Planner struct {
	joinCounter int
	joinCache   map[string]int
}

func NewPlanner() *Planner {
	return &Planner{joinCache: make(map[string]int)}
}

func (p *Planner) Plan(opKind normalize.OperationKind, fields []*ir.RootField) (*QueryPlan, error) {
	qp := &QueryPlan{}
	for _, rf := range fields {
		node, err := p.planRootField(opKind, rf)
		if err != nil {
			return nil, err
		}
		qp.Entries = append(qp.Entries, NodeEntry{Alias: rf.Alias, Node: node})
	}
	return qp, nil
}

func (p *Planner) planRootField(opKind normalize.OperationKind, rf *ir.RootField) (NodeQueryPlan, error) {
	switch rf.Kind {
	case ir.RootFieldTypeName:
		return NodeQueryPlan{Kind: NodeTypeName}, nil
	case ir.RootFieldSchemaField:
		return NodeQueryPlan{Kind: NodeSchemaField}, nil
	case ir.RootFieldTypeField:
		return NodeQueryPlan{Kind: NodeTypeField}, nil

	case ir.RootFieldModelSelectOne:
		exec, err := p.planModelQuery(rf.Model, ProcessResponseAs{Kind: ProcessAsObject})
		if err != nil {
			return NodeQueryPlan{}, err
		}
		return NodeQueryPlan{Kind: NodeNDCQueryExecution, Query: exec}, nil

	case ir.RootFieldModelSelectMany:
		exec, err := p.planModelQuery(rf.Model, ProcessResponseAs{Kind: ProcessAsArray})
		if err != nil {
			return NodeQueryPlan{}, err
		}
		return NodeQueryPlan{Kind: NodeNDCQueryExecution, Query: exec}, nil

	case ir.RootFieldRelayNodeSelect:
		if rf.Model == nil {
			return NodeQueryPlan{Kind: NodeRelayNodeSelect}, nil
		}
		exec, err := p.planModelQuery(rf.Model, ProcessResponseAs{Kind: ProcessAsObject})
		if err != nil {
			return NodeQueryPlan{}, err
		}
		return NodeQueryPlan{Kind: NodeRelayNodeSelect, Query: exec}, nil

	case ir.RootFieldCommand:
		return p.planCommand(opKind, rf.Command)

	default:
		return NodeQueryPlan{}, fmt.Errorf("%w: unexpected root field kind %d", ErrInternalEngineError, rf.Kind)
	}
}

func (p *Planner) planModelQuery(ms *ir.ModelSelection, process ProcessResponseAs) (*NDCQueryExecution, error) {
	query, collRels, joins, err := p.lowerModelSelection(ms)
	if err != nil {
		return nil, err
	}
	req := ndc.QueryRequest{
		Collection:              ms.Collection,
		Query:                   query,
		Arguments:               ms.Arguments,
		CollectionRelationships: collRels,
	}
	return &NDCQueryExecution{
		ExecutionTree: ExecutionTree{
			RootConnector:    ms.DataConnector,
			RootQuery:        req,
			RemoteExecutions: joins,
		},
		SelectionSet:      ms.Selection,
		ProcessResponseAs: process,
	}, nil
}

func (p *Planner) planCommand(opKind normalize.OperationKind, cmd *ir.CommandSelection) (NodeQueryPlan, error) {
	process := ProcessResponseAs{
		Kind:          ProcessAsCommandResponse,
		CommandName:   cmd.CommandName,
		TypeContainer: typeContainerFromRef(cmd.OutputType),
	}

	switch cmd.Kind {
	case metadata.CommandFunction:
		if opKind == normalize.OperationMutation {
			return NodeQueryPlan{}, fmt.Errorf("%w: function command %s cannot be lowered at a mutation root", ErrInternalEngineError, cmd.CommandName)
		}
		fields, collRels, joins, err := p.lowerSelectionFields(cmd.Selection)
		if err != nil {
			return NodeQueryPlan{}, err
		}
		req := ndc.QueryRequest{
			Collection:              cmd.FunctionOrProc,
			Query:                   ndc.Query{Fields: fields},
			Arguments:               cmd.Arguments,
			CollectionRelationships: collRels,
		}
		return NodeQueryPlan{Kind: NodeNDCQueryExecution, Query: &NDCQueryExecution{
			ExecutionTree:     ExecutionTree{RootConnector: cmd.DataConnector, RootQuery: req, RemoteExecutions: joins},
			SelectionSet:      cmd.Selection,
			ProcessResponseAs: process,
		}}, nil

	case metadata.CommandProcedure:
		if opKind == normalize.OperationQuery {
			return NodeQueryPlan{}, fmt.Errorf("%w: procedure command %s cannot be lowered at a query root", ErrInternalEngineError, cmd.CommandName)
		}
		fields, collRels, _, err := p.lowerSelectionFields(cmd.Selection)
		if err != nil {
			return NodeQueryPlan{}, err
		}
		req := ndc.MutationRequest{
			Operations: []ndc.MutationOperation{{
				Type:      ndc.MutationOperationProcedure,
				Name:      cmd.FunctionOrProc,
				Arguments: cmd.Arguments,
				Fields:    fields,
			}},
			CollectionRelationships: collRels,
		}
		return NodeQueryPlan{Kind: NodeNDCMutationExecution, Mutation: &NDCMutationExecution{
			DataConnector:     cmd.DataConnector,
			Request:           req,
			SelectionSet:      cmd.Selection,
			ProcessResponseAs: process,
		}}, nil

	default:
		return NodeQueryPlan{}, fmt.Errorf("%w: unknown command source kind", ErrInternalEngineError)
	}
}

// lowerModelSelection lowers one ModelSelection's own connector query,
// recursing through LocalRelationship edges only; RemoteRelationship edges
// become separate, independently-lowered target queries registered in the
// returned JoinLocations (§4.5 Query lowering).
func (p *Planner) lowerModelSelection(ms *ir.ModelSelection) (ndc.Query, map[string]ndc.Relationship, *JoinLocations, error) {
	fields, collRels, joins, err := p.lowerSelectionFields(ms.Selection)
	if err != nil {
		return ndc.Query{}, nil, nil, err
	}

	query := ndc.Query{Fields: fields}
	query.Predicate = ndc.Merge(ms.FilterClause)
	query.Limit = ms.Limit
	query.Offset = ms.Offset
	if len(ms.OrderBy) > 0 {
		query.OrderBy = &ndc.OrderBy{Elements: ms.OrderBy}
	}
	return query, collRels, joins, nil
}

func (p *Planner) lowerSelectionFields(sel *ir.ResultSelectionSet) (map[string]ndc.Field, map[string]ndc.Relationship, *JoinLocations, error) {
	fields := map[string]ndc.Field{}
	collRels := map[string]ndc.Relationship{}
	joins := newJoinLocations()

	if sel == nil {
		return fields, collRels, joins, nil
	}

	for _, rf := range sel.Fields {
		switch {
		case rf.Column != nil:
			fields[rf.Alias] = ndc.ColumnField(rf.Column.Column)

		case rf.TypeName != nil:
			// no connector field: the executor fills this statically.

		case rf.LocalRelationship != nil:
			lr := rf.LocalRelationship
			childQuery, childCollRels, childJoins, err := p.lowerModelSelection(lr.Query)
			if err != nil {
				return nil, nil, nil, err
			}
			fields[rf.Alias] = ndc.Field{Type: "relationship", Relationship: lr.Name, Query: &childQuery}
			collRels[lr.Name] = ndc.Relationship{
				TargetCollection: lr.Query.Collection,
				ColumnMapping:    lr.ColumnMapping,
				RelationshipType: cardinalityWireString(lr.Info.Cardinality),
			}
			for k, v := range childCollRels {
				collRels[k] = v
			}
			if !childJoins.isEmpty() {
				joins.Locations[rf.Alias] = &JoinLocationNode{Children: childJoins}
			}

		case rf.RemoteRelationship != nil:
			rr := rf.RemoteRelationship
			targetQuery, targetCollRels, targetJoins, err := p.lowerModelSelection(rr.TargetIR)
			if err != nil {
				return nil, nil, nil, err
			}
			// Bind the target query to its parent row via one
			// variable-comparison per join column (§4.5); the executor
			// supplies the actual variable values per row batch.
			joinPreds := make([]ndc.Expression, 0, len(rr.JoinColumns))
			for _, jc := range rr.JoinColumns {
				joinPreds = append(joinPreds, ndc.BinaryEqual(
					ndc.ComparisonTarget{Type: "column", Name: jc.TargetColumn},
					ndc.VariableValue(jc.SourceColumn),
				))
			}
			if targetQuery.Predicate != nil {
				joinPreds = append(joinPreds, *targetQuery.Predicate)
			}
			targetQuery.Predicate = ndc.Merge(joinPreds)

			targetReq := ndc.QueryRequest{
				Collection:              rr.TargetIR.Collection,
				Query:                   targetQuery,
				Arguments:               rr.TargetIR.Arguments,
				CollectionRelationships: targetCollRels,
			}
			for _, jc := range rr.JoinColumns {
				phantom := "__hasura_phantom_field__" + jc.SourceColumn
				fields[phantom] = ndc.ColumnField(jc.SourceColumn)
			}
			joinID := p.joinIDFor(rr.TargetDataConnector, targetReq)
			joins.Locations[rf.Alias] = &JoinLocationNode{
				Join: &RemoteJoin{
					JoinID:              joinID,
					TargetDataConnector: rr.TargetDataConnector,
					TargetNDCIR:         targetReq,
					JoinColumns:         rr.JoinColumns,
					Cardinality:         rr.Info.Cardinality,
					NestedJoins:         targetJoins,
				},
			}

		default:
			return nil, nil, nil, fmt.Errorf("%w: result field %s has no selection variant set", ErrInternalEngineError, rf.Alias)
		}
	}
	return fields, collRels, joins, nil
}

func cardinalityWireString(c metadata.RelationshipCardinality) string {
	if c == metadata.CardinalityArray {
		return "array"
	}
	return "object"
}

// joinIDFor assigns a JoinId, reusing one already assigned to a
// structurally-equal (connector, target IR) pair (§4.5, §8 property #5;
// §9 design note: canonical JSON serialization stands in for a proper hash).
func (p *Planner) joinIDFor(connector metadata.QualifiedName, req ndc.QueryRequest) int {
	key := canonicalJoinKey(connector, req)
	if id, ok := p.joinCache[key]; ok {
		return id
	}
	id := p.joinCounter
	p.joinCounter++
	p.joinCache[key] = id
	return id
}

func canonicalJoinKey(connector metadata.QualifiedName, req ndc.QueryRequest) string {
	b, err := json.Marshal(req)
	if err != nil {
		return connector.String()
	}
	return connector.String() + "|" + string(b)
}
