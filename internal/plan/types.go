// Package plan lowers the engine's intermediate representation into NDC
// wire requests (§4.5): ModelSelection/CommandSelection trees become
// ndc.QueryRequest/ndc.MutationRequest, remote relationships become phantom
// columns plus a JoinLocations tree of deferred follow-up queries.
package plan

import (
	"github.com/lumadb/graphql-engine/internal/ir"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
)

// QueryPlan is an ordered alias -> NodeQueryPlan mapping (§4.5), order
// preserved from the root selection for response assembly (§5 Ordering).
type QueryPlan struct {
	Entries []NodeEntry
}

type NodeEntry struct {
	Alias string
	Node  NodeQueryPlan
}

type NodeQueryPlanKind int

const (
	NodeTypeName NodeQueryPlanKind = iota
	NodeSchemaField
	NodeTypeField
	NodeNDCQueryExecution
	NodeNDCMutationExecution
	NodeRelayNodeSelect
)

// NodeQueryPlan is one root field's plan. Query is set for
// NodeNDCQueryExecution and (when permission allowed a lookup) for
// NodeRelayNodeSelect; nil Query under NodeRelayNodeSelect means the
// executor emits null directly (§4.6).
type NodeQueryPlan struct {
	Kind     NodeQueryPlanKind
	Query    *NDCQueryExecution
	Mutation *NDCMutationExecution
}

// ExecutionTree is one connector-bound query plus its deferred remote
// follow-ups (§4.5).
type ExecutionTree struct {
	RootConnector   metadata.QualifiedName
	RootQuery       ndc.QueryRequest
	RemoteExecutions *JoinLocations
}

// JoinLocations is a tree whose edges are alias strings and whose nodes
// optionally carry a RemoteJoin payload (§4.5).
type JoinLocations struct {
	Locations map[string]*JoinLocationNode
}

type JoinLocationNode struct {
	Join     *RemoteJoin
	Children *JoinLocations
}

func newJoinLocations() *JoinLocations {
	return &JoinLocations{Locations: make(map[string]*JoinLocationNode)}
}

func (j *JoinLocations) isEmpty() bool {
	return j == nil || len(j.Locations) == 0
}

// RemoteJoin is a deferred follow-up query against a different connector,
// bound by foreach over the parent's phantom join columns (§4.5, §4.6).
type RemoteJoin struct {
	JoinID              int
	TargetDataConnector metadata.QualifiedName
	TargetNDCIR         ndc.QueryRequest
	JoinColumns         []ir.JoinColumn
	Cardinality         metadata.RelationshipCardinality
	// NestedJoins carries remote joins found within the target subtree
	// itself, executed after TargetNDCIR's rows come back.
	NestedJoins *JoinLocations
}

type ProcessResponseAsKind int

const (
	ProcessAsArray ProcessResponseAsKind = iota
	ProcessAsObject
	ProcessAsCommandResponse
)

// ProcessResponseAs selects how the executor shapes a row set (§4.6).
type ProcessResponseAs struct {
	Kind          ProcessResponseAsKind
	CommandName   metadata.QualifiedName
	TypeContainer TypeContainer
}

// TypeContainer captures a declared output type's list nesting and
// nullability, used to shape a command's `returning` payload.
type TypeContainer struct {
	IsList          bool
	ElementNullable bool
	Nullable        bool
}

func typeContainerFromRef(t metadata.TypeReference) TypeContainer {
	tc := TypeContainer{Nullable: t.Nullable}
	if list, ok := t.Underlying.(metadata.ListType); ok {
		tc.IsList = true
		tc.ElementNullable = list.Of.Nullable
	}
	return tc
}

// NDCQueryExecution is the plan for a single /query round trip plus its
// remote-join fanout (§4.5).
type NDCQueryExecution struct {
	ExecutionTree     ExecutionTree
	SelectionSet      *ir.ResultSelectionSet
	ProcessResponseAs ProcessResponseAs
}

// NDCMutationExecution is the plan for a single /mutation round trip.
type NDCMutationExecution struct {
	DataConnector     metadata.QualifiedName
	Request           ndc.MutationRequest
	SelectionSet      *ir.ResultSelectionSet
	ProcessResponseAs ProcessResponseAs
}
