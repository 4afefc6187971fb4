package schema

import (
	"github.com/graphql-go/graphql"

	"github.com/lumadb/graphql-engine/internal/annotation"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// buildNodeInterfaceIfNeeded creates the Relay `Node` interface the first
// time it's needed; the schema only gets a `node(id: ID!): Node` root field
// when at least one model declares global_id_source (§4.2 Root types).
func (c *ctx) buildNodeInterfaceIfNeeded() {
	for _, t := range c.md.Types {
		if t.GlobalID != nil {
			c.nodeIface = graphql.NewInterface(graphql.InterfaceConfig{
				Name: "Node",
				Fields: graphql.Fields{
					"id": &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				},
				ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object { return nil },
			})
			return
		}
	}
}

// objectOutputType returns (building and caching) the GraphQL output type
// for objType, restricted to the fields role may read (§4.2 Visibility,
// Object fields: R ∈ type_permissions[R].allowed_fields).
func (c *ctx) objectOutputType(objType metadata.QualifiedName) (*graphql.Object, error) {
	if existing, ok := c.outputTypes[objType]; ok {
		return existing, nil
	}

	rt, ok := c.md.Types[objType]
	if !ok || rt.Object == nil {
		return nil, errUnknownObjectType(objType)
	}

	typeName := graphQLTypeName(rt.Object)

	// Pre-register a placeholder so recursive/mutually-referencing object
	// types (A has a relationship field of type A, or A<->B) terminate.
	placeholder := graphql.NewObject(graphql.ObjectConfig{
		Name:   typeName,
		Fields: graphql.Fields{},
	})
	c.outputTypes[objType] = placeholder

	fields := graphql.Fields{}
	hasGlobalID := rt.GlobalID != nil && c.roleCanReadGlobalID(rt)

	for _, f := range rt.Object.Fields {
		if !c.md.FieldReadable(objType, c.role, f.Name) {
			continue
		}
		gqlType, err := c.graphQLTypeForReference(f.Type)
		if err != nil {
			return nil, err
		}
		fields[string(f.Name)] = &graphql.Field{Type: gqlType}
		c.annotations.setField(typeName, string(f.Name), annotation.Field{Kind: annotation.FieldColumn, Column: string(f.Name)})
	}

	if hasGlobalID {
		fields["id"] = &graphql.Field{Type: graphql.NewNonNull(graphql.ID)}
		c.annotations.setField(typeName, "id", annotation.Field{Kind: annotation.FieldGlobalID, GlobalIDFields: rt.GlobalID.Fields})
	}

	// Relationship fields: find every model whose object type is objType
	// and fold in their visible relationships. Two models sharing an
	// object type contribute the union of their relationships; a
	// relationship visible via one model is reachable regardless of which
	// model actually produced the row, since the row shape is the object
	// type's shape.
	for _, model := range c.md.Models {
		if model.ObjectType != objType {
			continue
		}
		for relName, rel := range model.Relationships {
			if !c.relationshipVisible(model, rel) {
				continue
			}
			target, ok := c.md.Models[rel.TargetModel]
			if !ok {
				continue
			}
			targetType, err := c.objectOutputType(target.ObjectType)
			if err != nil {
				return nil, err
			}
			fieldType := graphql.Output(targetType)
			if rel.Cardinality == metadata.CardinalityArray {
				fieldType = graphql.NewList(targetType)
			}
			fields[relName] = &graphql.Field{Type: fieldType}
			c.annotations.setField(typeName, relName, annotation.Field{
				Kind: annotation.FieldRelationship, ModelName: model.Name, RelationshipName: relName,
			})
		}
	}

	obj := graphql.NewObject(graphql.ObjectConfig{
		Name:   typeName,
		Fields: fields,
		Interfaces: func() []*graphql.Interface {
			if hasGlobalID && c.nodeIface != nil {
				return []*graphql.Interface{c.nodeIface}
			}
			return nil
		}(),
	})
	c.outputTypes[objType] = obj
	return obj, nil
}

func (c *ctx) roleCanReadGlobalID(rt *resolve.ResolvedType) bool {
	if rt.GlobalID == nil {
		return false
	}
	for _, f := range rt.GlobalID.Fields {
		if !c.md.FieldReadable(rt.Name, c.role, f) {
			return false
		}
	}
	return true
}

// relationshipVisible implements §4.2: the role must have read on every
// field on both sides of the relationship mapping, and select permission
// on the target model.
func (c *ctx) relationshipVisible(source *resolve.ResolvedModel, rel *resolve.ResolvedRelationship) bool {
	if _, ok := c.md.ModelSelectPermission(rel.TargetModel, c.role); !ok {
		return false
	}
	target, ok := c.md.Models[rel.TargetModel]
	if !ok {
		return false
	}
	for _, m := range rel.Mapping {
		if !c.md.FieldReadable(source.ObjectType, c.role, m.SourceField) {
			return false
		}
		if !c.md.FieldReadable(target.ObjectType, c.role, m.TargetField) {
			return false
		}
	}
	return true
}

func graphQLTypeName(o *metadata.ObjectType) string {
	if o.GraphQLTypeName != "" {
		return o.GraphQLTypeName
	}
	return o.Name.Name
}

type unknownObjectTypeError struct{ name metadata.QualifiedName }

func (e *unknownObjectTypeError) Error() string {
	return "schema: unknown object type " + e.name.String()
}

func errUnknownObjectType(name metadata.QualifiedName) error {
	return &unknownObjectTypeError{name: name}
}
