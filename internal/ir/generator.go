package ir

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/annotation"
	"github.com/lumadb/graphql-engine/internal/globalid"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/normalize"
	"github.com/lumadb/graphql-engine/internal/resolve"
	"github.com/lumadb/graphql-engine/internal/session"
)

// Generator dispatches a NormalizedOperation's root fields into IR (§4.4).
type Generator struct {
	md      *resolve.ResolvedMetadata
	session session.Session
	logger  *zap.Logger
}

func NewGenerator(md *resolve.ResolvedMetadata, sess session.Session, logger *zap.Logger) *Generator {
	return &Generator{md: md, session: sess, logger: logger}
}

// Generate lowers every root field of op into a RootField, in selection
// order, plus the UsagesCounts accumulated across the whole request.
func (g *Generator) Generate(op *normalize.NormalizedOperation) ([]*RootField, *UsagesCounts, error) {
	usages := NewUsagesCounts()
	fields := make([]*RootField, 0, len(op.Root.Fields))

	for _, fc := range op.Root.Fields {
		rf, err := g.generateRootField(fc, usages)
		if err != nil {
			return nil, nil, err
		}
		fields = append(fields, rf)
	}
	return fields, usages, nil
}

func (g *Generator) generateRootField(fc *normalize.FieldCall, usages *UsagesCounts) (*RootField, error) {
	switch fc.Annotation.Kind {
	case annotation.FieldTypeName:
		return &RootField{Alias: fc.Alias, Kind: RootFieldTypeName}, nil
	case annotation.FieldSchemaField:
		return &RootField{Alias: fc.Alias, Kind: RootFieldSchemaField}, nil
	case annotation.FieldTypeField:
		return &RootField{Alias: fc.Alias, Kind: RootFieldTypeField}, nil
	case annotation.FieldModelSelectOne:
		return g.modelSelectOne(fc, usages)
	case annotation.FieldModelSelectMany:
		return g.modelSelectMany(fc, usages)
	case annotation.FieldCommand:
		return g.command(fc, usages)
	case annotation.FieldRelayNodeSelect:
		return g.relayNode(fc, usages)
	default:
		return nil, fmt.Errorf("%w: unexpected root field annotation kind %d", ErrInternalEngineError, fc.Annotation.Kind)
	}
}

func (g *Generator) modelSelectOne(fc *normalize.FieldCall, usages *UsagesCounts) (*RootField, error) {
	model, ok := g.md.Models[fc.Annotation.ModelName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %s", ErrInternalEngineError, fc.Annotation.ModelName)
	}

	filterClause, err := g.permissionFilter(model)
	if err != nil {
		return nil, err
	}
	for _, fieldName := range fc.Annotation.UniqueIdentifier {
		argVal, ok := fc.Arguments[string(fieldName)]
		if !ok {
			return nil, fmt.Errorf("%w: select_unique argument %s missing", ErrInternalEngineError, fieldName)
		}
		column, ok := model.Source.TypeMapping.Column(fieldName)
		if !ok {
			column = string(fieldName)
		}
		filterClause = append(filterClause, ndc.BinaryEqual(ndc.ComparisonTarget{Type: "column", Name: column}, ndc.ScalarValue(argVal.Value)))
	}

	arguments, err := g.modelArguments(model, fc.Arguments)
	if err != nil {
		return nil, err
	}

	selection, err := g.buildResultSelectionSet(fc.Selection, model, usages)
	if err != nil {
		return nil, err
	}
	usages.incModel(model.Name)

	return &RootField{
		Alias: fc.Alias,
		Kind:  RootFieldModelSelectOne,
		Model: &ModelSelection{
			ModelName:     model.Name,
			DataConnector: model.Source.DataConnector,
			Collection:    model.Source.Collection,
			Arguments:     arguments,
			FilterClause:  filterClause,
			Selection:     selection,
		},
	}, nil
}

func (g *Generator) modelSelectMany(fc *normalize.FieldCall, usages *UsagesCounts) (*RootField, error) {
	model, ok := g.md.Models[fc.Annotation.ModelName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %s", ErrInternalEngineError, fc.Annotation.ModelName)
	}

	filterClause, err := g.permissionFilter(model)
	if err != nil {
		return nil, err
	}

	var limit, offset *int
	var orderBy []ndc.OrderByElement

	if av, ok := fc.Arguments["limit"]; ok && av.Value != nil {
		l, err := toInt(av.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: limit: %v", ErrInternalDeveloperError, err)
		}
		limit = &l
	}
	if av, ok := fc.Arguments["offset"]; ok && av.Value != nil {
		o, err := toInt(av.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: offset: %v", ErrInternalDeveloperError, err)
		}
		offset = &o
	}
	if av, ok := fc.Arguments["where"]; ok && av.Value != nil {
		whereMap, ok := av.Value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: where argument must be an object", ErrInternalDeveloperError)
		}
		userFilter, err := g.lowerWhereInput(model, whereMap)
		if err != nil {
			return nil, err
		}
		if userFilter != nil {
			filterClause = append(filterClause, *userFilter)
		}
	}
	if av, ok := fc.Arguments["order_by"]; ok && av.Value != nil {
		orderBy, err = lowerOrderBy(model, av.Value)
		if err != nil {
			return nil, err
		}
	}

	arguments, err := g.modelArguments(model, fc.Arguments)
	if err != nil {
		return nil, err
	}

	selection, err := g.buildResultSelectionSet(fc.Selection, model, usages)
	if err != nil {
		return nil, err
	}
	usages.incModel(model.Name)

	return &RootField{
		Alias: fc.Alias,
		Kind:  RootFieldModelSelectMany,
		Model: &ModelSelection{
			ModelName:     model.Name,
			DataConnector: model.Source.DataConnector,
			Collection:    model.Source.Collection,
			Arguments:     arguments,
			FilterClause:  filterClause,
			Limit:         limit,
			Offset:        offset,
			OrderBy:       orderBy,
			Selection:     selection,
		},
	}, nil
}

func (g *Generator) command(fc *normalize.FieldCall, usages *UsagesCounts) (*RootField, error) {
	cmd, ok := g.md.Commands[fc.Annotation.CommandName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %s", ErrInternalEngineError, fc.Annotation.CommandName)
	}

	arguments := make(map[string]ndc.Argument)
	if av, ok := fc.Arguments["args"]; ok {
		m, ok := av.Value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: command args must be an object", ErrInternalDeveloperError)
		}
		for name, val := range m {
			ndcName := name
			if mapped, ok := cmd.ArgumentMapping[name]; ok {
				ndcName = mapped
			}
			arguments[ndcName] = ndc.LiteralArgument(val)
		}
	}

	var selection *ResultSelectionSet
	if fc.Selection != nil {
		rt := g.findResolvedTypeForOutput(cmd.OutputType)
		if rt == nil || rt.Object == nil {
			return nil, fmt.Errorf("%w: command %s output type has no selectable fields", ErrInternalEngineError, cmd.Name)
		}
		model := g.syntheticModelForType(rt, cmd.OutputTypeMapping)
		sel, err := g.buildResultSelectionSet(fc.Selection, model, usages)
		if err != nil {
			return nil, err
		}
		selection = sel
	}

	usages.incCommand(cmd.Name)
	return &RootField{
		Alias: fc.Alias,
		Kind:  RootFieldCommand,
		Command: &CommandSelection{
			CommandName:    cmd.Name,
			DataConnector:  cmd.DataConnector,
			Kind:           cmd.Kind,
			FunctionOrProc: cmd.FunctionOrProc,
			Arguments:      arguments,
			Selection:      selection,
			OutputType:     cmd.OutputType,
		},
	}, nil
}

func (g *Generator) relayNode(fc *normalize.FieldCall, usages *UsagesCounts) (*RootField, error) {
	idArg, ok := fc.Arguments["id"]
	if !ok {
		return nil, fmt.Errorf("%w: node field missing id argument", ErrInternalEngineError)
	}
	raw, ok := idArg.Value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: node id argument must be a string", ErrInternalDeveloperError)
	}
	gid, err := globalid.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalDeveloperError, err)
	}

	rt := g.findResolvedTypeByGraphQLName(gid.TypeName)
	if rt == nil || rt.GlobalID == nil {
		return &RootField{Alias: fc.Alias, Kind: RootFieldRelayNodeSelect}, nil
	}

	model, ok := g.md.Models[rt.GlobalID.SourceModel]
	if !ok {
		return nil, fmt.Errorf("%w: global id source model %s not found", ErrInternalEngineError, rt.GlobalID.SourceModel)
	}

	if _, ok := g.md.ModelSelectPermission(model.Name, g.session.Role); !ok {
		return &RootField{Alias: fc.Alias, Kind: RootFieldRelayNodeSelect}, nil
	}

	if len(gid.ID) != len(rt.GlobalID.Fields) {
		return nil, fmt.Errorf("%w: global id field set does not match source model %s", ErrInternalDeveloperError, model.Name)
	}

	filterClause, err := g.permissionFilter(model)
	if err != nil {
		return nil, err
	}
	for _, field := range rt.GlobalID.Fields {
		val, ok := gid.ID[string(field)]
		if !ok {
			return nil, fmt.Errorf("%w: global id missing field %s", ErrInternalDeveloperError, field)
		}
		column, ok := model.Source.TypeMapping.Column(field)
		if !ok {
			column = string(field)
		}
		filterClause = append(filterClause, ndc.BinaryEqual(ndc.ComparisonTarget{Type: "column", Name: column}, ndc.ScalarValue(val)))
	}

	selection, err := g.buildResultSelectionSet(fc.Selection, model, usages)
	if err != nil {
		return nil, err
	}
	usages.incModel(model.Name)

	return &RootField{
		Alias: fc.Alias,
		Kind:  RootFieldRelayNodeSelect,
		Model: &ModelSelection{
			ModelName:     model.Name,
			DataConnector: model.Source.DataConnector,
			Collection:    model.Source.Collection,
			FilterClause:  filterClause,
			Selection:     selection,
		},
	}, nil
}

// permissionFilter returns the single-element (or empty) filter clause
// contributed by the role's ModelPermission, pushed before any user filter
// (§4.4 Permission fold).
func (g *Generator) permissionFilter(model *resolve.ResolvedModel) ([]ndc.Expression, error) {
	perm, ok := g.md.ModelSelectPermission(model.Name, g.session.Role)
	if !ok {
		return nil, fmt.Errorf("%w: role %s has no select permission on model %s", ErrInternalEngineError, g.session.Role, model.Name)
	}
	if perm.AllowAll || perm.Filter == nil {
		return nil, nil
	}
	e, err := g.lowerResolvedPredicate(perm.Filter)
	if err != nil {
		return nil, err
	}
	return []ndc.Expression{e}, nil
}

func (g *Generator) modelArguments(model *resolve.ResolvedModel, args map[string]normalize.ArgumentValue) (map[string]ndc.Argument, error) {
	out := make(map[string]ndc.Argument)
	av, ok := args["args"]
	if !ok {
		return out, nil
	}
	m, ok := av.Value.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: model args must be an object", ErrInternalDeveloperError)
	}
	for name, val := range m {
		ndcName := name
		if mapped, ok := model.Source.ArgumentMapping[name]; ok {
			ndcName = mapped
		}
		out[ndcName] = ndc.LiteralArgument(val)
	}
	return out, nil
}

func lowerOrderBy(model *resolve.ResolvedModel, val interface{}) ([]ndc.OrderByElement, error) {
	list, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: order_by must be a list", ErrInternalDeveloperError)
	}
	var out []ndc.OrderByElement
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: order_by element must be an object", ErrInternalDeveloperError)
		}
		for key, dirVal := range entry {
			fieldName := metadata.FieldName(key)
			if _, ok := model.OrderableFields[fieldName]; !ok {
				return nil, fmt.Errorf("%w: field %s is not orderable on model %s", ErrInternalDeveloperError, key, model.Name)
			}
			dirStr, ok := dirVal.(string)
			if !ok {
				return nil, fmt.Errorf("%w: order_by direction must be a string", ErrInternalDeveloperError)
			}
			column, ok := model.Source.TypeMapping.Column(fieldName)
			if !ok {
				column = string(fieldName)
			}
			dir := ndc.Asc
			if dirStr == string(metadata.OrderDesc) {
				dir = ndc.Desc
			}
			out = append(out, ndc.OrderByElement{Target: ndc.OrderByTarget{Type: "column", Name: column}, OrderDirection: dir})
		}
	}
	return out, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func (g *Generator) findResolvedTypeByGraphQLName(name string) *resolve.ResolvedType {
	for _, rt := range g.md.Types {
		if rt.Object == nil {
			continue
		}
		gname := rt.Object.GraphQLTypeName
		if gname == "" {
			gname = rt.Object.Name.Name
		}
		if gname == name {
			return rt
		}
	}
	return nil
}

func (g *Generator) findResolvedTypeForOutput(t metadata.TypeReference) *resolve.ResolvedType {
	named, ok := t.Underlying.(metadata.NamedType)
	if !ok {
		return nil
	}
	for _, rt := range g.md.Types {
		if rt.Name.Name == string(named) {
			return rt
		}
	}
	return nil
}

// syntheticModelForType builds a throwaway ResolvedModel so
// buildResultSelectionSet can be reused for a command's object-typed
// output, which has no model of its own, source column mapping only.
func (g *Generator) syntheticModelForType(rt *resolve.ResolvedType, mapping *resolve.TypeMapping) *resolve.ResolvedModel {
	tm := resolve.TypeMapping{}
	if mapping != nil {
		tm = *mapping
	}
	return &resolve.ResolvedModel{
		Name:       rt.Name,
		ObjectType: rt.Name,
		Source:     resolve.ResolvedModelSource{TypeMapping: tm},
	}
}
