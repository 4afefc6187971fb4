package metadata

// RelationshipCardinality is Object (one row) or Array (many rows).
type RelationshipCardinality int

const (
	CardinalityObject RelationshipCardinality = iota
	CardinalityArray
)

// RelationshipFieldMapping pins one source-object field to one
// target-model field. A source field may only appear in one mapping per
// relationship (§3 invariant, enforced by the resolver).
type RelationshipFieldMapping struct {
	SourceField FieldName
	TargetField FieldName
}

// RelationshipTarget is the relationship's destination. Only Model targets
// are supported in this revision (§3).
type RelationshipTarget struct {
	Model QualifiedName
}

// Relationship connects a source object type to a target model by a list
// of field-to-field mappings, with array or object cardinality.
type Relationship struct {
	Name        string
	SourceType  QualifiedName
	Target      RelationshipTarget
	Mapping     []RelationshipFieldMapping
	Cardinality RelationshipCardinality
}
