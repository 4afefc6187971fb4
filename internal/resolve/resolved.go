// Package resolve validates raw metadata and produces ResolvedMetadata: an
// immutable, cross-reference-checked graph with column-bound permission
// predicates, ready for the schema builder and IR generator to borrow from
// (§4.1).
package resolve

import "github.com/lumadb/graphql-engine/internal/metadata"

// ResolvedDataConnector is a DataConnector with its capabilities normalized
// to the flat shape the rest of the engine consumes.
type ResolvedDataConnector struct {
	Name         metadata.QualifiedName
	URL          metadata.ConnectorURL
	Headers      map[string]metadata.HeaderValue
	Capabilities metadata.Capabilities
}

// ResolvedType is an ObjectType or ScalarType after cross-reference
// validation. Field-to-column mappings live on the model/command source
// that uses the type, not here, because the same object type can be
// reached through sources on different connectors with different column
// names.
type ResolvedType struct {
	Name       metadata.QualifiedName
	Object     *metadata.ObjectType
	Scalar     *metadata.ScalarType
	GlobalID   *GlobalIDInfo // non-nil iff some model declares itself the global_id_source for this type
}

type GlobalIDInfo struct {
	SourceModel metadata.QualifiedName
	Fields      []metadata.FieldName
}

// TypeMapping is the resolved field_mappings of §3: GraphQL field name to
// connector column.
type TypeMapping struct {
	FieldMappings map[metadata.FieldName]string
}

func (m TypeMapping) Column(field metadata.FieldName) (string, bool) {
	c, ok := m.FieldMappings[field]
	return c, ok
}

type ResolvedModelSource struct {
	DataConnector   metadata.QualifiedName
	Collection      string
	TypeMapping     TypeMapping
	ArgumentMapping map[string]string
}

// RelationshipKind caches whether a relationship's source and target
// models share a data connector (Local) or not (Remote), computed once at
// resolve time so the planner never recomputes connector equality.
type RelationshipKind int

const (
	RelationshipLocal RelationshipKind = iota
	RelationshipRemote
)

type RelationshipCapabilities struct {
	ForEach       bool // target connector supports query.variables
	Relationships bool // target connector supports relationships
}

type ResolvedRelationship struct {
	Name         string
	TargetModel  metadata.QualifiedName
	Cardinality  metadata.RelationshipCardinality
	Mapping      []metadata.RelationshipFieldMapping
	Capabilities RelationshipCapabilities
	Kind         RelationshipKind
}

type ResolvedModel struct {
	Name             metadata.QualifiedName
	ObjectType       metadata.QualifiedName
	Arguments        []metadata.ArgumentDefinition
	Source           ResolvedModelSource
	FilterableFields map[metadata.FieldName]metadata.FilterableField
	OrderableFields  map[metadata.FieldName]metadata.OrderableField
	GraphQL          metadata.ModelGraphQLExposure
	GlobalIDSource   bool
	Relationships    map[string]*ResolvedRelationship
}

type ResolvedCommand struct {
	Name           metadata.QualifiedName
	OutputType     metadata.TypeReference
	Arguments      []metadata.ArgumentDefinition
	DataConnector  metadata.QualifiedName
	Kind           metadata.CommandSourceKind
	FunctionOrProc string
	ArgumentMapping map[string]string
	// OutputTypeMapping is set when OutputType's named base type is a custom
	// object type, mapping its fields to the connector's returned columns.
	OutputTypeMapping *TypeMapping
	GraphQL           metadata.CommandGraphQLExposure
}

// ResolvedPredicate mirrors metadata.ModelPredicate with field names
// replaced by resolved connector columns and value positions typed against
// the comparison column.
type ResolvedPredicate struct {
	FieldComparison *ResolvedFieldComparison
	Relationship    *ResolvedRelationshipPredicate
	And             []ResolvedPredicate
	Or              []ResolvedPredicate
	Not             *ResolvedPredicate
}

type ResolvedFieldComparison struct {
	Column   string
	Operator metadata.ComparisonOperator
	Value    *ResolvedValueExpression
}

type ResolvedValueExpression struct {
	Literal         []byte
	SessionVariable metadata.SessionVariable
	TargetType      metadata.TypeReference
}

type ResolvedRelationshipPredicate struct {
	Name      string
	Predicate *ResolvedPredicate
}

type ResolvedModelPermission struct {
	AllowAll bool
	Filter   *ResolvedPredicate // nil iff AllowAll
}

type ResolvedMetadata struct {
	DataConnectors map[metadata.QualifiedName]*ResolvedDataConnector
	Types          map[metadata.QualifiedName]*ResolvedType
	Models         map[metadata.QualifiedName]*ResolvedModel
	Commands       map[metadata.QualifiedName]*ResolvedCommand

	// ModelPermissions[model][role] is the role's filter permission for
	// that model. A missing role entry means the role cannot select the
	// model at all (no root field / relationship edge is visible to it).
	ModelPermissions map[metadata.QualifiedName]map[metadata.Role]ResolvedModelPermission
	// CommandPermissions[command][role] reports allow_execution.
	CommandPermissions map[metadata.QualifiedName]map[metadata.Role]bool
	// TypePermissions[type][role] is the set of readable fields.
	TypePermissions map[metadata.QualifiedName]map[metadata.Role]map[metadata.FieldName]bool
}

func (r *ResolvedMetadata) ModelSelectPermission(model metadata.QualifiedName, role metadata.Role) (ResolvedModelPermission, bool) {
	roles, ok := r.ModelPermissions[model]
	if !ok {
		return ResolvedModelPermission{}, false
	}
	p, ok := roles[role]
	return p, ok
}

func (r *ResolvedMetadata) CommandAllowed(command metadata.QualifiedName, role metadata.Role) bool {
	roles, ok := r.CommandPermissions[command]
	if !ok {
		return false
	}
	return roles[role]
}

func (r *ResolvedMetadata) FieldReadable(objectType metadata.QualifiedName, role metadata.Role, field metadata.FieldName) bool {
	roles, ok := r.TypePermissions[objectType]
	if !ok {
		return false
	}
	fields, ok := roles[role]
	if !ok {
		return false
	}
	return fields[field]
}
