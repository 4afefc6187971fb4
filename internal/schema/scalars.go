package schema

import (
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// jsonScalar is the generic passthrough scalar used for custom scalar
// metadata types without a more specific GraphQL mapping, grounded on
// pkg/platform/graphql/engine.go's "JSON" scalar. Values arriving through
// variables pass through unchanged; of inline literals only strings are
// accepted, and any other literal kind parses to nil.
var jsonScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "An arbitrary JSON value.",
	Serialize:   func(value interface{}) interface{} { return value },
	ParseValue:  func(value interface{}) interface{} { return value },
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			return v.Value
		default:
			return nil
		}
	},
})

func builtinScalar(name string) graphql.Output {
	switch name {
	case "ID":
		return graphql.ID
	case "Int":
		return graphql.Int
	case "Float":
		return graphql.Float
	case "Boolean":
		return graphql.Boolean
	case "String":
		return graphql.String
	}
	return nil
}

// graphQLTypeForReference converts a metadata.TypeReference (output
// position) into a graphql-go Output type, recursing into custom object
// types via objectOutputType.
func (c *ctx) graphQLTypeForReference(t metadata.TypeReference) (graphql.Output, error) {
	var inner graphql.Output
	switch b := t.Underlying.(type) {
	case metadata.NamedType:
		if builtin := builtinScalar(string(b)); builtin != nil {
			inner = builtin
			break
		}
		// Could be a custom scalar or an object type; object types are
		// namespaced per subgraph, so search resolved types by base name.
		rt := c.findTypeByName(string(b))
		if rt == nil {
			inner = jsonScalar
			break
		}
		if rt.Object != nil {
			obj, err := c.objectOutputType(rt.Name)
			if err != nil {
				return nil, err
			}
			inner = obj
		} else {
			inner = jsonScalar
		}
	case metadata.ListType:
		elem, err := c.graphQLTypeForReference(b.Of)
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

func (c *ctx) findTypeByName(name string) *resolve.ResolvedType {
	for qn, rt := range c.md.Types {
		if qn.Name == name {
			return rt
		}
	}
	return nil
}
