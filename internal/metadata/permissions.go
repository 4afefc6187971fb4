package metadata

import "encoding/json"

// ComparisonOperator is the operator half of a FieldComparison predicate
// node, e.g. "_eq", "_gt", "_is_null".
type ComparisonOperator string

const (
	OpEqual  ComparisonOperator = "_eq"
	OpIsNull ComparisonOperator = "_is_null"
)

// ValueExpression is either a literal JSON value or a reference to a
// session variable, resolved against the comparison column's type at
// IR-generation time.
type ValueExpression struct {
	Literal         json.RawMessage // nil if SessionVariable is set
	SessionVariable SessionVariable // "" if Literal is set
}

func (v ValueExpression) IsSessionVariable() bool { return v.SessionVariable != "" }

// ModelPredicate is the fixed predicate algebra of §3: field comparisons,
// (non-goal-excluded at lowering) relationship traversal, and boolean
// connectives.
type ModelPredicate struct {
	FieldComparison *FieldComparisonPredicate
	Relationship    *RelationshipPredicate
	And             []ModelPredicate
	Or              []ModelPredicate
	Not             *ModelPredicate
}

type FieldComparisonPredicate struct {
	Field    FieldName
	Operator ComparisonOperator
	Value    *ValueExpression // nil for unary operators like _is_null
}

// RelationshipPredicate traverses a named relationship before applying an
// optional nested predicate. Accepted in metadata, rejected at lowering
// time in this revision (§9) — Non-goals: "remote relationships in
// permission predicates"; local relationship predicates are simply
// unimplemented here and surface NotSupported.
type RelationshipPredicate struct {
	Name      string
	Predicate *ModelPredicate
}

// ModelFilterPermission is the sum type AllowAll | Filter(ModelPredicate).
// WasNull distinguishes an explicit `filter: null` from an absent `filter`
// key per the Open Question in §9(c): this implementation treats both as
// equivalent to AllowAll (see DESIGN.md), but keeps the flag so a stricter
// policy can be reinstated without a metadata schema change.
type ModelFilterPermission struct {
	AllowAll  bool
	Predicate *ModelPredicate
	WasNull   bool
}

type ModelPermission struct {
	Role   Role
	Filter ModelFilterPermission
}

type ModelPermissions struct {
	Model    QualifiedName
	PerRole  map[Role]ModelPermission
}

type CommandPermission struct {
	Role           Role
	AllowExecution bool
}

type CommandPermissions struct {
	Command QualifiedName
	PerRole map[Role]CommandPermission
}

// TypePermission lists the fields of an ObjectType a role may read.
type TypePermission struct {
	Role          Role
	AllowedFields map[FieldName]bool
}

type TypePermissions struct {
	ObjectType QualifiedName
	PerRole    map[Role]TypePermission
}
