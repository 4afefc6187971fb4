package schema

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/lumadb/graphql-engine/internal/annotation"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// buildModelQueryFields attaches a model's select_unique and (at most one)
// select_many root fields to queryFields (§4.2 Root types), skipping the
// model entirely if its output object type carries no readable fields.
func (c *ctx) buildModelQueryFields(model *resolve.ResolvedModel, queryFields graphql.Fields) error {
	outputType, err := c.objectOutputType(model.ObjectType)
	if err != nil {
		return fmt.Errorf("model %s: %w", model.Name, err)
	}
	if len(outputType.Fields()) == 0 {
		return nil
	}
	objType, ok := c.md.Types[model.ObjectType]
	if !ok || objType.Object == nil {
		return errUnknownObjectType(model.ObjectType)
	}

	var argsInput *graphql.InputObject
	if len(model.Arguments) > 0 {
		argsInput, err = c.argumentsInputType(model.Name.Name+"_args", model.Arguments)
		if err != nil {
			return fmt.Errorf("model %s: %w", model.Name, err)
		}
	}

selectUniqueLoop:
	for _, su := range model.GraphQL.SelectUniques {
		args := graphql.FieldConfigArgument{}
		for _, fieldName := range su.UniqueIdentifier {
			// A role lacking read on any identifier field cannot be handed a
			// selector built from it (§4.2: "for select_unique the role must
			// also have read on every unique-identifier field of the source
			// type"); the whole root field disappears rather than exposing a
			// selector missing one of its key columns.
			if !c.md.FieldReadable(model.ObjectType, c.role, fieldName) {
				continue selectUniqueLoop
			}
			of, ok := objType.Object.FieldByName(fieldName)
			if !ok {
				return fmt.Errorf("model %s: select_unique %s references unknown field %s", model.Name, su.QueryRootField, fieldName)
			}
			inputType, err := c.graphQLInputTypeForReference(of.Type)
			if err != nil {
				return fmt.Errorf("model %s: %w", model.Name, err)
			}
			args[string(fieldName)] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(inputType)}
			c.annotations.setArgument("Query", su.QueryRootField, string(fieldName), annotation.Argument{
				Kind: annotation.ArgSelectUniqueField, Field: fieldName,
			})
		}
		if argsInput != nil {
			args["args"] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(argsInput)}
			c.annotations.setArgument("Query", su.QueryRootField, "args", annotation.Argument{Kind: annotation.ArgModelArguments})
		}

		queryFields[su.QueryRootField] = &graphql.Field{Type: outputType, Args: args, Resolve: staticNilResolver}
		c.annotations.setField("Query", su.QueryRootField, annotation.Field{
			Kind: annotation.FieldModelSelectOne, ModelName: model.Name, UniqueIdentifier: su.UniqueIdentifier,
		})
	}

	if sm := model.GraphQL.SelectMany; sm != nil {
		args := graphql.FieldConfigArgument{
			"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
			"offset": &graphql.ArgumentConfig{Type: graphql.Int},
		}
		c.annotations.setArgument("Query", sm.QueryRootField, "limit", annotation.Argument{Kind: annotation.ArgLimit})
		c.annotations.setArgument("Query", sm.QueryRootField, "offset", annotation.Argument{Kind: annotation.ArgOffset})

		if len(model.FilterableFields) > 0 {
			where, err := c.whereInputType(model)
			if err != nil {
				return fmt.Errorf("model %s: %w", model.Name, err)
			}
			args["where"] = &graphql.ArgumentConfig{Type: where}
			c.annotations.setArgument("Query", sm.QueryRootField, "where", annotation.Argument{Kind: annotation.ArgWhere})
		}
		if len(model.OrderableFields) > 0 {
			orderBy := c.orderByInputType(model)
			args["order_by"] = &graphql.ArgumentConfig{Type: graphql.NewList(graphql.NewNonNull(orderBy))}
			c.annotations.setArgument("Query", sm.QueryRootField, "order_by", annotation.Argument{Kind: annotation.ArgOrderBy})
		}
		if argsInput != nil {
			args["args"] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(argsInput)}
			c.annotations.setArgument("Query", sm.QueryRootField, "args", annotation.Argument{Kind: annotation.ArgModelArguments})
		}

		queryFields[sm.QueryRootField] = &graphql.Field{
			Type:    graphql.NewList(outputType),
			Args:    args,
			Resolve: staticNilResolver,
		}
		c.annotations.setField("Query", sm.QueryRootField, annotation.Field{Kind: annotation.FieldModelSelectMany, ModelName: model.Name})
	}

	return nil
}

// buildCommandField builds a command's single root field (§4.2 Root types).
// rootTypeName is "Query" or "Mutation", matching where the caller will
// attach the returned field, so the annotation index is keyed consistently.
func (c *ctx) buildCommandField(cmd *resolve.ResolvedCommand, rootTypeName string) (*graphql.Field, error) {
	outputType, err := c.graphQLTypeForReference(cmd.OutputType)
	if err != nil {
		return nil, fmt.Errorf("command %s: %w", cmd.Name, err)
	}

	args := graphql.FieldConfigArgument{}
	if len(cmd.Arguments) > 0 {
		argsInput, err := c.argumentsInputType(cmd.Name.Name+"_args", cmd.Arguments)
		if err != nil {
			return nil, fmt.Errorf("command %s: %w", cmd.Name, err)
		}
		args["args"] = &graphql.ArgumentConfig{Type: graphql.NewNonNull(argsInput)}
		c.annotations.setArgument(rootTypeName, cmd.GraphQL.RootFieldName, "args", annotation.Argument{Kind: annotation.ArgCommandArguments})
	}

	field := &graphql.Field{Type: outputType, Args: args, Resolve: staticNilResolver}
	c.annotations.setField(rootTypeName, cmd.GraphQL.RootFieldName, annotation.Field{Kind: annotation.FieldCommand, CommandName: cmd.Name})
	return field, nil
}
