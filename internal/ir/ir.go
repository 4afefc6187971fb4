// Package ir builds the engine's intermediate representation from a
// NormalizedOperation (§4.4): per-root-field ModelSelection/CommandSelection
// trees with permission predicates folded in, global-ID columns synthesized,
// and session variables typecast against their target column. The planner
// (internal/plan) lowers this IR into NDC wire requests.
package ir

import (
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
)

// UsagesCounts tallies model/command usage for one request, including uses
// reached only through relationships (§4.4, §5 Shared state).
type UsagesCounts struct {
	Models   map[metadata.QualifiedName]int
	Commands map[metadata.QualifiedName]int
}

func NewUsagesCounts() *UsagesCounts {
	return &UsagesCounts{Models: make(map[metadata.QualifiedName]int), Commands: make(map[metadata.QualifiedName]int)}
}

func (u *UsagesCounts) incModel(name metadata.QualifiedName)   { u.Models[name]++ }
func (u *UsagesCounts) incCommand(name metadata.QualifiedName) { u.Commands[name]++ }

type RootFieldKind int

const (
	RootFieldTypeName RootFieldKind = iota
	RootFieldSchemaField
	RootFieldTypeField
	RootFieldModelSelectOne
	RootFieldModelSelectMany
	RootFieldCommand
	RootFieldRelayNodeSelect
)

// RootField is one top-level selection, carrying exactly the IR its Kind
// needs; Model is nil for a RelayNodeSelect the role lacks permission for
// (§4.4 Relay node: "Returns None if the role lacks permission").
type RootField struct {
	Alias   string
	Kind    RootFieldKind
	Model   *ModelSelection
	Command *CommandSelection
}

// ModelSelection is model_selection_ir's output (§4.4).
type ModelSelection struct {
	ModelName     metadata.QualifiedName
	DataConnector metadata.QualifiedName
	Collection    string
	Arguments     map[string]ndc.Argument
	FilterClause  []ndc.Expression
	Limit         *int
	Offset        *int
	OrderBy       []ndc.OrderByElement
	Selection     *ResultSelectionSet
}

// ResultSelectionSet is an ordered alias -> FieldSelection mapping.
type ResultSelectionSet struct {
	Fields []ResultField
	// ObjectTypeName is the GraphQL name of the object type this selection
	// set was made against, used by the executor to stamp the typename
	// component of a reconstructed global id, regardless of whether
	// __typename was itself selected (a selected __typename is answered
	// from that field's own TypeName).
	ObjectTypeName string
}

type ResultField struct {
	Alias              string
	Column             *ColumnSelection
	LocalRelationship  *LocalRelationshipSelection
	RemoteRelationship *RemoteRelationshipSelection
	// TypeName is set for a nested __typename selection, which the
	// connector never returns a column for; the executor fills it in
	// statically from the enclosing object type's GraphQL name.
	TypeName *TypeNameSelection
}

type ColumnSelection struct {
	Column string
}

type TypeNameSelection struct {
	GraphQLTypeName string
}

type LocalRelationshipSelection struct {
	Name string // collection_relationships key
	// ColumnMapping is source connector column -> target connector column,
	// resolved from the metadata field mapping at IR-generation time.
	ColumnMapping map[string]string
	Query         *ModelSelection
	Info          RelationshipInfo
}

type RemoteRelationshipSelection struct {
	TargetDataConnector metadata.QualifiedName
	TargetIR            *ModelSelection
	JoinColumns         []JoinColumn
	Info                RelationshipInfo
}

type JoinColumn struct {
	SourceColumn string
	TargetColumn string
}

type RelationshipInfo struct {
	Cardinality metadata.RelationshipCardinality
}

// CommandSelection is command_generate_ir's output (§4.4).
type CommandSelection struct {
	CommandName    metadata.QualifiedName
	DataConnector  metadata.QualifiedName
	Kind           metadata.CommandSourceKind
	FunctionOrProc string
	Arguments      map[string]ndc.Argument
	Selection      *ResultSelectionSet // nil when OutputType is a scalar
	OutputType     metadata.TypeReference
}
