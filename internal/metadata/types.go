package metadata

// ObjectField is one field of an ObjectType.
type ObjectField struct {
	Name FieldName
	Type TypeReference
}

// ObjectType is a named, structured GraphQL-visible type backed by a
// connector collection or command output.
type ObjectType struct {
	Name QualifiedName
	// GlobalIDFields, when non-empty, marks the field set that composes the
	// type's Relay global ID. At most one model per object type may declare
	// itself the global_id_source (§3 invariant 3).
	GlobalIDFields  []FieldName
	Fields          []ObjectField
	GraphQLTypeName string
}

func (o *ObjectType) FieldByName(name FieldName) (ObjectField, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ObjectField{}, false
}

// ScalarType is a named GraphQL scalar.
type ScalarType struct {
	Name        QualifiedName
	GraphQLName string
}

// ArgumentDefinition is one named, typed argument of a model or command.
type ArgumentDefinition struct {
	Name string
	Type TypeReference
}
