package schema

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// graphQLInputTypeForReference converts a TypeReference in argument
// position to a graphql-go Input type. Custom object types are not valid
// argument types in this revision (models/commands only take scalar and
// list-of-scalar arguments); encountering one is an authoring error
// surfaced as a build-time error rather than silently falling back.
func (c *ctx) graphQLInputTypeForReference(t metadata.TypeReference) (graphql.Input, error) {
	var inner graphql.Input
	switch b := t.Underlying.(type) {
	case metadata.NamedType:
		if builtin := builtinScalar(string(b)); builtin != nil {
			inner = builtin.(graphql.Input)
			break
		}
		rt := c.findTypeByName(string(b))
		if rt != nil && rt.Object != nil {
			return nil, fmt.Errorf("schema: object type %s cannot appear in argument position", b)
		}
		inner = jsonScalar
	case metadata.ListType:
		elem, err := c.graphQLInputTypeForReference(b.Of)
		if err != nil {
			return nil, err
		}
		inner = graphql.NewList(elem)
	}
	if !t.Nullable {
		return graphql.NewNonNull(inner), nil
	}
	return inner, nil
}

// whereInputType builds the boolean-algebra `where` input for a filterable
// model (§4.2 Arguments): `_and`, `_or`, `_not`, plus one nullable
// comparison input per filterable field.
func (c *ctx) whereInputType(model *resolve.ResolvedModel) (*graphql.InputObject, error) {
	name := model.GraphQL.FilterTypeName
	if name == "" {
		name = model.Name.Name + "BoolExp"
	}

	comparisonFields := graphql.InputObjectConfigFieldMap{}
	for fieldName, ff := range model.FilterableFields {
		compName := name + "_" + string(fieldName) + "_comparison"
		compFields := graphql.InputObjectConfigFieldMap{}
		for _, op := range ff.Operators {
			compFields[op] = &graphql.InputObjectFieldConfig{Type: jsonScalar}
		}
		compFields["_is_null"] = &graphql.InputObjectFieldConfig{Type: graphql.Boolean}
		comparisonFields[string(fieldName)] = &graphql.InputObjectFieldConfig{
			Type: graphql.NewInputObject(graphql.InputObjectConfig{Name: compName, Fields: compFields}),
		}
	}

	var boolExp *graphql.InputObject
	boolExp = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: (graphql.InputObjectConfigFieldMapThunk)(func() graphql.InputObjectConfigFieldMap {
			fields := graphql.InputObjectConfigFieldMap{}
			for k, v := range comparisonFields {
				fields[k] = v
			}
			fields["_and"] = &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(boolExp))}
			fields["_or"] = &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(boolExp))}
			fields["_not"] = &graphql.InputObjectFieldConfig{Type: boolExp}
			return fields
		}),
	})
	return boolExp, nil
}

// orderByInputType builds the `order_by` input for an orderable model.
func (c *ctx) orderByInputType(model *resolve.ResolvedModel) *graphql.InputObject {
	name := model.GraphQL.OrderByTypeName
	if name == "" {
		name = model.Name.Name + "OrderBy"
	}
	fields := graphql.InputObjectConfigFieldMap{}
	orderDirEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: name + "Direction",
		Values: graphql.EnumValueConfigMap{
			"Asc":  &graphql.EnumValueConfig{Value: "Asc"},
			"Desc": &graphql.EnumValueConfig{Value: "Desc"},
		},
	})
	for fieldName := range model.OrderableFields {
		fields[string(fieldName)] = &graphql.InputObjectFieldConfig{Type: orderDirEnum}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{Name: name, Fields: fields})
}

// argumentsInputType builds a required input object with one required
// field per declared argument, used for a model's `args` and for command
// arguments (§4.2 Arguments).
func (c *ctx) argumentsInputType(typeName string, args []metadata.ArgumentDefinition) (*graphql.InputObject, error) {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, a := range args {
		t, err := c.graphQLInputTypeForReference(a.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		if _, ok := t.(*graphql.NonNull); !ok {
			t = graphql.NewNonNull(t)
		}
		fields[a.Name] = &graphql.InputObjectFieldConfig{Type: t}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{Name: typeName, Fields: fields}), nil
}
