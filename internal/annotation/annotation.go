// Package annotation defines the namespaced resolver metadata the schema
// builder attaches to every GraphQL type, field and argument, and that the
// normalizer carries forward onto a NormalizedOperation's field calls
// (§4.2, §4.3). The IR generator (internal/ir) dispatches on these kinds.
package annotation

import "github.com/lumadb/graphql-engine/internal/metadata"

type FieldKind int

const (
	FieldTypeName FieldKind = iota
	FieldSchemaField
	FieldTypeField
	FieldModelSelectOne
	FieldModelSelectMany
	FieldCommand
	FieldRelayNodeSelect
	// Object-field-level kinds, used on fields nested inside a selection.
	FieldColumn
	FieldRelationship
	// FieldGlobalID marks the synthesized "id" field of a type exposing a
	// global_id_source; the IR generator emits one underlying column per
	// GlobalIDFields entry, aliased __global_id_col_<alias>__<field>.
	FieldGlobalID
)

// Field is attached to a GraphQL field (root or nested) by the schema
// builder, naming which metadata entity and access path it resolves.
type Field struct {
	Kind             FieldKind
	ModelName        metadata.QualifiedName
	CommandName      metadata.QualifiedName
	Column           string
	RelationshipName string
	// UniqueIdentifier names the fields a select_unique root field's
	// arguments bind to, in order, for ModelSelectOne.
	UniqueIdentifier []metadata.FieldName
	// GlobalIDFields names the underlying fields composing a FieldGlobalID
	// field's synthesized value, in declaration order.
	GlobalIDFields []metadata.FieldName
}

type ArgumentKind int

const (
	ArgLimit ArgumentKind = iota
	ArgOffset
	ArgOrderBy
	ArgWhere
	ArgModelArguments
	ArgCommandArguments
	ArgSelectUniqueField
	ArgNodeID
)

// Argument is attached to a GraphQL argument, naming what IR-generation
// role it plays.
type Argument struct {
	Kind  ArgumentKind
	Field metadata.FieldName // for ArgSelectUniqueField
}
