// Package metadata defines the declarative, pre-resolution input to the
// engine: data connectors, object/scalar types, models, commands,
// relationships and permissions, plus the GraphQL type-reference grammar
// used throughout to describe field and argument types.
package metadata

import "fmt"

// QualifiedName is a metadata entity name qualified by its subgraph.
type QualifiedName struct {
	Subgraph string
	Name     string
}

func NewQualifiedName(subgraph, name string) QualifiedName {
	return QualifiedName{Subgraph: subgraph, Name: name}
}

func (q QualifiedName) String() string {
	return fmt.Sprintf("%s/%s", q.Subgraph, q.Name)
}

// FieldName is the GraphQL-visible name of an object field.
type FieldName string

// Role is a GraphQL request's authorization role.
type Role string

// SessionVariable is the name of a session variable (e.g. "x-hasura-user-id").
type SessionVariable string
