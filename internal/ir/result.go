package ir

import (
	"fmt"
	"strings"

	"github.com/lumadb/graphql-engine/internal/annotation"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/normalize"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// buildResultSelectionSet lowers a normalized selection set made against
// model's object type into an ordered ResultSelectionSet (§4.4 Model
// select). model may be synthetic (commands, see syntheticModelForType).
func (g *Generator) buildResultSelectionSet(sel *normalize.SelectionSet, model *resolve.ResolvedModel, usages *UsagesCounts) (*ResultSelectionSet, error) {
	if sel == nil {
		return nil, nil
	}

	out := &ResultSelectionSet{ObjectTypeName: g.objectGraphQLTypeName(model.ObjectType)}
	for _, fc := range sel.Fields {
		switch fc.Annotation.Kind {
		case annotation.FieldTypeName:
			out.Fields = append(out.Fields, ResultField{
				Alias:    fc.Alias,
				TypeName: &TypeNameSelection{GraphQLTypeName: g.objectGraphQLTypeName(model.ObjectType)},
			})

		case annotation.FieldColumn:
			column, ok := model.Source.TypeMapping.Column(metadata.FieldName(fc.Annotation.Column))
			if !ok {
				column = fc.Annotation.Column
			}
			out.Fields = append(out.Fields, ResultField{Alias: fc.Alias, Column: &ColumnSelection{Column: column}})

		case annotation.FieldGlobalID:
			for _, field := range fc.Annotation.GlobalIDFields {
				column, ok := model.Source.TypeMapping.Column(field)
				if !ok {
					column = string(field)
				}
				out.Fields = append(out.Fields, ResultField{
					Alias:  globalIDColumnAlias(fc.Alias, field),
					Column: &ColumnSelection{Column: column},
				})
			}

		case annotation.FieldRelationship:
			rf, err := g.buildRelationshipField(fc, model, usages)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, *rf)

		default:
			return nil, fmt.Errorf("%w: unexpected nested field annotation kind %d", ErrInternalEngineError, fc.Annotation.Kind)
		}
	}
	return out, nil
}

// globalIDColumnAlias names the synthesized column carrying one component
// of a global ID (§4.4 Model select).
func globalIDColumnAlias(fieldAlias string, field metadata.FieldName) string {
	return fmt.Sprintf("__global_id_col_%s__%s", fieldAlias, field)
}

const globalIDColumnPrefix = "__global_id_col_"

// ParseGlobalIDColumnAlias recognizes an alias produced by
// globalIDColumnAlias, splitting it back into the GraphQL field alias and
// the underlying metadata field name. Used by the executor to reassemble
// the synthesized columns of a FieldGlobalID selection into one global id.
func ParseGlobalIDColumnAlias(alias string) (fieldAlias string, field metadata.FieldName, ok bool) {
	if !strings.HasPrefix(alias, globalIDColumnPrefix) {
		return "", "", false
	}
	rest := alias[len(globalIDColumnPrefix):]
	sep := strings.Index(rest, "__")
	if sep < 0 {
		return "", "", false
	}
	return rest[:sep], metadata.FieldName(rest[sep+2:]), true
}

func (g *Generator) buildRelationshipField(fc *normalize.FieldCall, source *resolve.ResolvedModel, usages *UsagesCounts) (*ResultField, error) {
	rel, ok := source.Relationships[fc.Annotation.RelationshipName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown relationship %s on model %s", ErrInternalEngineError, fc.Annotation.RelationshipName, source.Name)
	}
	target, ok := g.md.Models[rel.TargetModel]
	if !ok {
		return nil, fmt.Errorf("%w: unknown target model %s for relationship %s", ErrInternalEngineError, rel.TargetModel, rel.Name)
	}

	childFilter, err := g.permissionFilter(target)
	if err != nil {
		return nil, err
	}
	childSelection, err := g.buildResultSelectionSet(fc.Selection, target, usages)
	if err != nil {
		return nil, err
	}
	usages.incModel(target.Name)

	childMS := &ModelSelection{
		ModelName:     target.Name,
		DataConnector: target.Source.DataConnector,
		Collection:    target.Source.Collection,
		FilterClause:  childFilter,
		Selection:     childSelection,
	}
	info := RelationshipInfo{Cardinality: rel.Cardinality}

	if rel.Kind == resolve.RelationshipLocal {
		columnMapping := make(map[string]string, len(rel.Mapping))
		for _, m := range rel.Mapping {
			srcCol, ok := source.Source.TypeMapping.Column(m.SourceField)
			if !ok {
				srcCol = string(m.SourceField)
			}
			tgtCol, ok := target.Source.TypeMapping.Column(m.TargetField)
			if !ok {
				tgtCol = string(m.TargetField)
			}
			columnMapping[srcCol] = tgtCol
		}
		return &ResultField{
			Alias: fc.Alias,
			LocalRelationship: &LocalRelationshipSelection{
				Name:          rel.Name,
				ColumnMapping: columnMapping,
				Query:         childMS,
				Info:          info,
			},
		}, nil
	}

	joinColumns := make([]JoinColumn, 0, len(rel.Mapping))
	for _, m := range rel.Mapping {
		srcCol, ok := source.Source.TypeMapping.Column(m.SourceField)
		if !ok {
			srcCol = string(m.SourceField)
		}
		tgtCol, ok := target.Source.TypeMapping.Column(m.TargetField)
		if !ok {
			tgtCol = string(m.TargetField)
		}
		joinColumns = append(joinColumns, JoinColumn{SourceColumn: srcCol, TargetColumn: tgtCol})
	}

	return &ResultField{
		Alias: fc.Alias,
		RemoteRelationship: &RemoteRelationshipSelection{
			TargetDataConnector: target.Source.DataConnector,
			TargetIR:            childMS,
			JoinColumns:         joinColumns,
			Info:                info,
		},
	}, nil
}

func (g *Generator) objectGraphQLTypeName(objType metadata.QualifiedName) string {
	rt, ok := g.md.Types[objType]
	if !ok || rt.Object == nil {
		return objType.Name
	}
	if rt.Object.GraphQLTypeName != "" {
		return rt.Object.GraphQLTypeName
	}
	return rt.Object.Name.Name
}
