package resolve

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/metadata"
)

// Resolve validates raw metadata and produces a ResolvedMetadata, following
// the five-step algorithm of §4.1: connectors, then types, then models,
// then relationships, then permissions. Any failure aborts resolution;
// partial metadata is never returned (§4.1 Failure policy).
func Resolve(md metadata.Metadata, logger *zap.Logger) (*ResolvedMetadata, error) {
	r := &ResolvedMetadata{
		DataConnectors:     make(map[metadata.QualifiedName]*ResolvedDataConnector),
		Types:              make(map[metadata.QualifiedName]*ResolvedType),
		Models:             make(map[metadata.QualifiedName]*ResolvedModel),
		Commands:           make(map[metadata.QualifiedName]*ResolvedCommand),
		ModelPermissions:   make(map[metadata.QualifiedName]map[metadata.Role]ResolvedModelPermission),
		CommandPermissions: make(map[metadata.QualifiedName]map[metadata.Role]bool),
		TypePermissions:    make(map[metadata.QualifiedName]map[metadata.Role]map[metadata.FieldName]bool),
	}

	if err := resolveConnectors(md, r); err != nil {
		return nil, err
	}
	if err := resolveTypes(md, r); err != nil {
		return nil, err
	}
	if err := resolveModels(md, r); err != nil {
		return nil, err
	}
	if err := resolveCommands(md, r); err != nil {
		return nil, err
	}
	if err := resolveRelationships(md, r); err != nil {
		return nil, err
	}
	if err := resolvePermissions(md, r); err != nil {
		return nil, err
	}

	logger.Info("metadata resolved",
		zap.Int("connectors", len(r.DataConnectors)),
		zap.Int("types", len(r.Types)),
		zap.Int("models", len(r.Models)),
		zap.Int("commands", len(r.Commands)),
	)
	return r, nil
}

// step 1: data connectors have no dependencies.
func resolveConnectors(md metadata.Metadata, r *ResolvedMetadata) error {
	for i := range md.DataConnectors {
		c := md.DataConnectors[i]
		r.DataConnectors[c.Name] = &ResolvedDataConnector{
			Name:         c.Name,
			URL:          c.URL,
			Headers:      c.Headers,
			Capabilities: c.Capabilities(),
		}
	}
	return nil
}

// step 2: object and scalar types, establishing a slot for each type's
// eventual global-ID info (filled in during model resolution).
func resolveTypes(md metadata.Metadata, r *ResolvedMetadata) error {
	for i := range md.ObjectTypes {
		ot := md.ObjectTypes[i]
		r.Types[ot.Name] = &ResolvedType{Name: ot.Name, Object: &ot}
	}
	for i := range md.ScalarTypes {
		st := md.ScalarTypes[i]
		r.Types[st.Name] = &ResolvedType{Name: st.Name, Scalar: &st}
	}
	return nil
}

// step 3: models - attach sources, type mappings, argument mappings; wire
// global_id_source bookkeeping with invariant 3 (at most one source per
// object type, non-empty global id fields that are columns).
func resolveModels(md metadata.Metadata, r *ResolvedMetadata) error {
	for i := range md.Models {
		m := md.Models[i]

		objType, ok := r.Types[m.ObjectType]
		if !ok || objType.Object == nil {
			return fmt.Errorf("%w: model %s references object type %s", ErrUnknownObjectType, m.Name, m.ObjectType)
		}

		if m.Source == nil {
			return fmt.Errorf("%w: model %s has no source", ErrUnknownModelDataConnector, m.Name)
		}
		connector, ok := r.DataConnectors[m.Source.DataConnector]
		if !ok {
			return fmt.Errorf("%w: model %s source connector %s", ErrUnknownModelDataConnector, m.Name, m.Source.DataConnector)
		}
		_ = connector

		fieldMappings := make(map[metadata.FieldName]string, len(m.Source.FieldMapping))
		for field, col := range m.Source.FieldMapping {
			if _, ok := objType.Object.FieldByName(field); !ok {
				return fmt.Errorf("%w: model %s maps unknown field %s", ErrUnknownFieldOnObjectType, m.Name, field)
			}
			fieldMappings[field] = col
		}

		filterable := make(map[metadata.FieldName]metadata.FilterableField, len(m.FilterableFields))
		for _, ff := range m.FilterableFields {
			filterable[ff.Field] = ff
		}
		orderable := make(map[metadata.FieldName]metadata.OrderableField, len(m.OrderableFields))
		for _, of := range m.OrderableFields {
			orderable[of.Field] = of
		}

		rm := &ResolvedModel{
			Name:       m.Name,
			ObjectType: m.ObjectType,
			Arguments:  m.Arguments,
			Source: ResolvedModelSource{
				DataConnector:   m.Source.DataConnector,
				Collection:      m.Source.Collection,
				TypeMapping:     TypeMapping{FieldMappings: fieldMappings},
				ArgumentMapping: m.Source.ArgumentMapping,
			},
			FilterableFields: filterable,
			OrderableFields:  orderable,
			GraphQL:          m.GraphQL,
			GlobalIDSource:   m.GlobalIDSource,
			Relationships:    make(map[string]*ResolvedRelationship),
		}
		r.Models[m.Name] = rm

		if m.GlobalIDSource {
			if len(objType.Object.GlobalIDFields) == 0 {
				return fmt.Errorf("%w: model %s", ErrEmptyGlobalIDFields, m.Name)
			}
			if objType.GlobalID != nil {
				return fmt.Errorf("%w: object type %s claimed by both %s and %s",
					ErrDuplicateGlobalIDSource, m.ObjectType, objType.GlobalID.SourceModel, m.Name)
			}
			for _, gf := range objType.Object.GlobalIDFields {
				if _, ok := fieldMappings[gf]; !ok {
					return fmt.Errorf("%w: global id field %s of model %s is not a mapped column",
						ErrUnknownFieldOnObjectType, gf, m.Name)
				}
			}
			objType.GlobalID = &GlobalIDInfo{SourceModel: m.Name, Fields: objType.Object.GlobalIDFields}
		}
	}
	return nil
}

func resolveCommands(md metadata.Metadata, r *ResolvedMetadata) error {
	for i := range md.Commands {
		c := md.Commands[i]
		if c.Source == nil {
			return fmt.Errorf("%w: command %s has no source", ErrUnknownModelDataConnector, c.Name)
		}
		if _, ok := r.DataConnectors[c.Source.DataConnector]; !ok {
			return fmt.Errorf("%w: command %s source connector %s", ErrUnknownModelDataConnector, c.Name, c.Source.DataConnector)
		}

		var outMapping *TypeMapping
		if named, ok := baseNamed(c.OutputType); ok {
			if rt, ok := r.Types[metadata.QualifiedName{Subgraph: c.Name.Subgraph, Name: string(named)}]; ok && rt.Object != nil {
				// A command's output object fields always map by identity
				// (GraphQL field name equals connector column name); the
				// command's ArgumentMapping is not consulted here.
				fm := make(map[metadata.FieldName]string, len(rt.Object.Fields))
				for _, f := range rt.Object.Fields {
					fm[f.Name] = string(f.Name)
				}
				outMapping = &TypeMapping{FieldMappings: fm}
			}
		}

		r.Commands[c.Name] = &ResolvedCommand{
			Name:              c.Name,
			OutputType:        c.OutputType,
			Arguments:         c.Arguments,
			DataConnector:     c.Source.DataConnector,
			Kind:              c.Source.Kind,
			FunctionOrProc:    c.Source.Name,
			ArgumentMapping:   c.Source.ArgumentMapping,
			OutputTypeMapping: outMapping,
			GraphQL:           c.GraphQL,
		}
	}
	return nil
}

func baseNamed(t metadata.TypeReference) (metadata.NamedType, bool) {
	switch b := t.Underlying.(type) {
	case metadata.NamedType:
		return b, true
	case metadata.ListType:
		return baseNamed(b.Of)
	}
	return "", false
}

// step 4: relationships, after models so targets can be validated.
func resolveRelationships(md metadata.Metadata, r *ResolvedMetadata) error {
	for i := range md.Relationships {
		rel := md.Relationships[i]

		sourceType, ok := r.Types[rel.SourceType]
		if !ok || sourceType.Object == nil {
			return fmt.Errorf("%w: relationship %s source type %s", ErrUnknownObjectType, rel.Name, rel.SourceType)
		}

		targetModel, ok := r.Models[rel.Target.Model]
		if !ok {
			return fmt.Errorf("%w: relationship %s target %s", ErrUnknownTargetModel, rel.Name, rel.Target.Model)
		}

		// Find every source model whose object type matches; a relationship
		// is exposed from each of them.
		sourceModels := modelsWithObjectType(r, rel.SourceType)
		if len(sourceModels) == 0 {
			return fmt.Errorf("%w: relationship %s source type %s is not used by any model", ErrUnknownObjectType, rel.Name, rel.SourceType)
		}

		if len(rel.Mapping) == 0 {
			return fmt.Errorf("%w: relationship %s", ErrEmptyFieldPath, rel.Name)
		}

		seenSourceFields := make(map[metadata.FieldName]bool, len(rel.Mapping))
		targetObjType := r.Types[targetModel.ObjectType]
		for _, fm := range rel.Mapping {
			if _, ok := sourceType.Object.FieldByName(fm.SourceField); !ok {
				return fmt.Errorf("%w: relationship %s field %s", ErrUnknownSourceFieldInRelationshipMapping, rel.Name, fm.SourceField)
			}
			if seenSourceFields[fm.SourceField] {
				return fmt.Errorf("%w: relationship %s field %s", ErrMappingExistsInRelationship, rel.Name, fm.SourceField)
			}
			seenSourceFields[fm.SourceField] = true

			if targetObjType == nil || targetObjType.Object == nil {
				return fmt.Errorf("%w: relationship %s target object type", ErrUnknownObjectType, rel.Name)
			}
			if _, ok := targetObjType.Object.FieldByName(fm.TargetField); !ok {
				return fmt.Errorf("%w: relationship %s target field %s", ErrUnknownFieldOnObjectType, rel.Name, fm.TargetField)
			}
		}

		targetConnector := r.DataConnectors[targetModel.Source.DataConnector]
		if targetConnector != nil && !targetConnector.Capabilities.QueryVariables {
			// Invariant 4: a target model with no query.variables capability
			// may not be the target of a relationship (foreach required for
			// remote joins; required unconditionally here since even local
			// relationships may later be split remote by re-platforming).
			return fmt.Errorf("%w: relationship %s target %s", ErrRelationshipTargetDoesNotSupportForEach, rel.Name, rel.Target.Model)
		}

		caps := ResolvedRelationshipCapabilities(targetConnector)

		for _, sm := range sourceModels {
			kind := RelationshipLocal
			if sm.Source.DataConnector != targetModel.Source.DataConnector {
				kind = RelationshipRemote
			}
			sm.Relationships[rel.Name] = &ResolvedRelationship{
				Name:         rel.Name,
				TargetModel:  rel.Target.Model,
				Cardinality:  rel.Cardinality,
				Mapping:      rel.Mapping,
				Capabilities: caps,
				Kind:         kind,
			}
		}
	}
	return nil
}

func ResolvedRelationshipCapabilities(c *ResolvedDataConnector) RelationshipCapabilities {
	if c == nil {
		return RelationshipCapabilities{}
	}
	return RelationshipCapabilities{ForEach: c.Capabilities.QueryVariables, Relationships: c.Capabilities.Relationships}
}

func modelsWithObjectType(r *ResolvedMetadata, objType metadata.QualifiedName) []*ResolvedModel {
	var out []*ResolvedModel
	for _, m := range r.Models {
		if m.ObjectType == objType {
			out = append(out, m)
		}
	}
	return out
}

// step 5: permissions, last, lowering ModelPredicate against field mappings
// into column-bound ResolvedPredicate nodes.
func resolvePermissions(md metadata.Metadata, r *ResolvedMetadata) error {
	for i := range md.TypePermissions {
		tp := md.TypePermissions[i]
		if _, ok := r.Types[tp.ObjectType]; !ok {
			return fmt.Errorf("%w: type permissions for %s", ErrUnknownObjectType, tp.ObjectType)
		}
		roles := make(map[metadata.Role]map[metadata.FieldName]bool, len(tp.PerRole))
		for role, perm := range tp.PerRole {
			fields := make(map[metadata.FieldName]bool, len(perm.AllowedFields))
			for f, allowed := range perm.AllowedFields {
				if allowed {
					fields[f] = true
				}
			}
			roles[role] = fields
		}
		r.TypePermissions[tp.ObjectType] = roles
	}

	for i := range md.CommandPerms {
		cp := md.CommandPerms[i]
		if _, ok := r.Commands[cp.Command]; !ok {
			return fmt.Errorf("%w: command permissions for %s", ErrUnknownModelDataConnector, cp.Command)
		}
		roles := make(map[metadata.Role]bool, len(cp.PerRole))
		for role, perm := range cp.PerRole {
			roles[role] = perm.AllowExecution
		}
		r.CommandPermissions[cp.Command] = roles
	}

	for i := range md.ModelPermissions {
		mp := md.ModelPermissions[i]
		model, ok := r.Models[mp.Model]
		if !ok {
			return fmt.Errorf("%w: model permissions for %s", ErrUnknownModelDataConnector, mp.Model)
		}
		roles := make(map[metadata.Role]ResolvedModelPermission, len(mp.PerRole))
		for role, perm := range mp.PerRole {
			if perm.Filter.AllowAll || perm.Filter.WasNull {
				// §9(c): omission and explicit `filter: null` are both
				// treated as AllowAll in this implementation.
				roles[role] = ResolvedModelPermission{AllowAll: true}
				continue
			}
			resolved, err := lowerPredicate(model, *perm.Filter.Predicate, md.Flags)
			if err != nil {
				return fmt.Errorf("model %s role %s: %w", mp.Model, role, err)
			}
			roles[role] = ResolvedModelPermission{Filter: resolved}
		}
		r.ModelPermissions[mp.Model] = roles
	}
	return nil
}

func lowerPredicate(model *ResolvedModel, p metadata.ModelPredicate, flags metadata.ResolveFlags) (*ResolvedPredicate, error) {
	switch {
	case p.FieldComparison != nil:
		col, ok := model.Source.TypeMapping.Column(p.FieldComparison.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFieldOnObjectType, p.FieldComparison.Field)
		}
		var value *ResolvedValueExpression
		if v := p.FieldComparison.Value; v != nil {
			value = &ResolvedValueExpression{
				Literal:         []byte(v.Literal),
				SessionVariable: v.SessionVariable,
			}
		}
		return &ResolvedPredicate{FieldComparison: &ResolvedFieldComparison{
			Column:   col,
			Operator: p.FieldComparison.Operator,
			Value:    value,
		}}, nil

	case p.Relationship != nil:
		if !flags.AllowRelationshipPredicates {
			return nil, NotSupported("relationship predicates in ModelPermissions are rejected in this revision")
		}
		return nil, NotSupported("relationship predicates in ModelPermissions")

	case len(p.And) > 0:
		out := make([]ResolvedPredicate, 0, len(p.And))
		for _, sub := range p.And {
			r, err := lowerPredicate(model, sub, flags)
			if err != nil {
				return nil, err
			}
			out = append(out, *r)
		}
		return &ResolvedPredicate{And: out}, nil

	case len(p.Or) > 0:
		out := make([]ResolvedPredicate, 0, len(p.Or))
		for _, sub := range p.Or {
			r, err := lowerPredicate(model, sub, flags)
			if err != nil {
				return nil, err
			}
			out = append(out, *r)
		}
		return &ResolvedPredicate{Or: out}, nil

	case p.Not != nil:
		r, err := lowerPredicate(model, *p.Not, flags)
		if err != nil {
			return nil, err
		}
		return &ResolvedPredicate{Not: r}, nil
	}
	return nil, fmt.Errorf("empty predicate node")
}
