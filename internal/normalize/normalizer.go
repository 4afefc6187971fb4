package normalize

import (
	"fmt"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/lumadb/graphql-engine/internal/annotation"
	"github.com/lumadb/graphql-engine/internal/schema"
)

// Normalizer resolves a query document against one role's cached schema.
type Normalizer struct {
	roleSchema *schema.RoleSchema
}

func New(roleSchema *schema.RoleSchema) *Normalizer {
	return &Normalizer{roleSchema: roleSchema}
}

// Normalize parses query, selects the named (or sole) operation, and walks
// its selection set into a NormalizedOperation. operationName may be empty
// when the document contains exactly one operation.
func (n *Normalizer) Normalize(query string, operationName string, variables map[string]interface{}) (*NormalizedOperation, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}

	var kind OperationKind
	var rootTypeName string
	switch op.Operation {
	case "query":
		kind, rootTypeName = OperationQuery, "Query"
	case "mutation":
		kind, rootTypeName = OperationMutation, "Mutation"
	case "subscription":
		return nil, ErrSubscriptionsNotSupported
	default:
		return nil, fmt.Errorf("%w: unknown operation type %q", ErrValidationFailed, op.Operation)
	}

	fragments := collectFragments(doc)

	root, err := n.walkSelectionSet(op.GetSelectionSet(), rootTypeName, fragments, variables)
	if err != nil {
		return nil, err
	}

	return &NormalizedOperation{
		Kind:         kind,
		Root:         root,
		RawQuery:     query,
		RawVariables: variables,
	}, nil
}

func selectOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, error) {
	var ops []*ast.OperationDefinition
	for _, d := range doc.Definitions {
		if op, ok := d.(*ast.OperationDefinition); ok {
			ops = append(ops, op)
		}
	}
	if operationName != "" {
		for _, op := range ops {
			if op.Name != nil && op.Name.Value == operationName {
				return op, nil
			}
		}
		return nil, fmt.Errorf("%w: unknown operation %q", ErrValidationFailed, operationName)
	}
	switch len(ops) {
	case 0:
		return nil, fmt.Errorf("%w: document contains no operations", ErrValidationFailed)
	case 1:
		return ops[0], nil
	default:
		return nil, fmt.Errorf("%w: operationName required when document has multiple operations", ErrValidationFailed)
	}
}

func collectFragments(doc *ast.Document) map[string]*ast.FragmentDefinition {
	out := make(map[string]*ast.FragmentDefinition)
	for _, d := range doc.Definitions {
		if fd, ok := d.(*ast.FragmentDefinition); ok {
			out[fd.Name.Value] = fd
		}
	}
	return out
}

// walkSelectionSet flattens fragment spreads and inline fragments into a
// single ordered field list; typeName names the GraphQL object type the
// selection is made against, used both for annotation lookups and to
// resolve the next level's type when a field has a nested selection.
func (n *Normalizer) walkSelectionSet(
	set *ast.SelectionSet,
	typeName string,
	fragments map[string]*ast.FragmentDefinition,
	variables map[string]interface{},
) (*SelectionSet, error) {
	result := &SelectionSet{}
	if set == nil {
		return result, nil
	}

	for _, sel := range set.Selections {
		switch s := sel.(type) {
		case *ast.Field:
			fc, err := n.buildFieldCall(s, typeName, fragments, variables)
			if err != nil {
				return nil, err
			}
			result.Fields = append(result.Fields, fc)

		case *ast.FragmentSpread:
			fd, ok := fragments[s.Name.Value]
			if !ok {
				return nil, fmt.Errorf("%w: unknown fragment %q", ErrValidationFailed, s.Name.Value)
			}
			cond := typeName
			if fd.TypeCondition != nil {
				cond = fd.TypeCondition.Name.Value
			}
			sub, err := n.walkSelectionSet(fd.SelectionSet, cond, fragments, variables)
			if err != nil {
				return nil, err
			}
			result.Fields = append(result.Fields, sub.Fields...)

		case *ast.InlineFragment:
			cond := typeName
			if s.TypeCondition != nil {
				cond = s.TypeCondition.Name.Value
			}
			sub, err := n.walkSelectionSet(s.SelectionSet, cond, fragments, variables)
			if err != nil {
				return nil, err
			}
			result.Fields = append(result.Fields, sub.Fields...)

		default:
			return nil, fmt.Errorf("%w: unsupported selection node %T", ErrValidationFailed, sel)
		}
	}
	return result, nil
}

func (n *Normalizer) buildFieldCall(
	f *ast.Field,
	typeName string,
	fragments map[string]*ast.FragmentDefinition,
	variables map[string]interface{},
) (*FieldCall, error) {
	name := f.Name.Value
	alias := name
	if f.Alias != nil {
		alias = f.Alias.Value
	}

	ann, ok := introspectionAnnotation(name)
	if !ok {
		ann, ok = n.roleSchema.Annotations.Field(typeName, name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q on %q", ErrValidationFailed, name, typeName)
		}
	}

	args := make(map[string]ArgumentValue, len(f.Arguments))
	for _, a := range f.Arguments {
		val, err := n.valueFromAST(a.Value, variables)
		if err != nil {
			return nil, err
		}
		argAnn, _ := n.roleSchema.Annotations.Argument(typeName, name, a.Name.Value)
		args[a.Name.Value] = ArgumentValue{Annotation: argAnn, Value: val}
	}

	var nested *SelectionSet
	if f.SelectionSet != nil {
		nextType := n.fieldTypeName(typeName, name)
		sub, err := n.walkSelectionSet(f.SelectionSet, nextType, fragments, variables)
		if err != nil {
			return nil, err
		}
		nested = sub
	}

	return &FieldCall{Alias: alias, Name: name, Annotation: ann, Arguments: args, Selection: nested}, nil
}

// introspectionAnnotation handles the three GraphQL-builtin fields that the
// schema builder never annotates, since graphql-go supplies them itself.
func introspectionAnnotation(name string) (annotation.Field, bool) {
	switch name {
	case "__typename":
		return annotation.Field{Kind: annotation.FieldTypeName}, true
	case "__schema":
		return annotation.Field{Kind: annotation.FieldSchemaField}, true
	case "__type":
		return annotation.Field{Kind: annotation.FieldTypeField}, true
	}
	return annotation.Field{}, false
}

// fieldTypeName resolves the named GraphQL output type a field's selection
// set is made against, unwrapping NonNull/List wrappers.
func (n *Normalizer) fieldTypeName(typeName, fieldName string) string {
	t := n.roleSchema.Schema.Type(typeName)
	obj, ok := t.(*graphql.Object)
	if !ok {
		return ""
	}
	fd, ok := obj.Fields()[fieldName]
	if !ok {
		return ""
	}
	return unwrapNamedTypeName(fd.Type)
}

func unwrapNamedTypeName(t graphql.Type) string {
	for {
		switch inner := t.(type) {
		case *graphql.NonNull:
			t = inner.OfType
		case *graphql.List:
			t = inner.OfType
		default:
			return t.Name()
		}
	}
}

func (n *Normalizer) valueFromAST(v ast.Value, variables map[string]interface{}) (interface{}, error) {
	switch val := v.(type) {
	case *ast.Variable:
		name := val.Name.Value
		vv, ok := variables[name]
		if !ok {
			return nil, fmt.Errorf("%w: undefined variable $%s", ErrValidationFailed, name)
		}
		return vv, nil
	case *ast.IntValue:
		i, err := strconv.ParseInt(val.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid integer literal %q", ErrValidationFailed, val.Value)
		}
		return i, nil
	case *ast.FloatValue:
		f, err := strconv.ParseFloat(val.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid float literal %q", ErrValidationFailed, val.Value)
		}
		return f, nil
	case *ast.StringValue:
		return val.Value, nil
	case *ast.BooleanValue:
		return val.Value, nil
	case *ast.EnumValue:
		return val.Value, nil
	case *ast.NullValue:
		return nil, nil
	case *ast.ListValue:
		out := make([]interface{}, 0, len(val.Values))
		for _, e := range val.Values {
			cv, err := n.valueFromAST(e, variables)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	case *ast.ObjectValue:
		out := make(map[string]interface{}, len(val.Fields))
		for _, f := range val.Fields {
			cv, err := n.valueFromAST(f.Value, variables)
			if err != nil {
				return nil, err
			}
			out[f.Name.Value] = cv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported argument value node %T", ErrValidationFailed, v)
	}
}
