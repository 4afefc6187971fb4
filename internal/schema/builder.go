// Package schema builds a role-aware GraphQL schema from ResolvedMetadata
// (§4.2), using graphql-go/graphql the way pkg/platform/graphql/engine.go
// and _examples/reveald-graphql/schema.go do: an object-type cache plus one
// pass per concern (filters, order-bys, outputs, roots).
//
// graphql-go has no native per-role visibility concept, so a schema is
// built once per role and cached (§3 invariant 5: a field is reachable
// from role R only via permission-checked access paths — enforced here by
// simply never emitting the field/type/argument when R lacks the
// permission, rather than emitting it and hiding it at runtime).
package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/annotation"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// AnnotationIndex maps GraphQL type/field/argument names back to the
// resolver metadata the IR generator needs, since graphql-go fields carry
// only a Resolve closure, not arbitrary typed side-data.
type AnnotationIndex struct {
	Fields    map[string]map[string]annotation.Field
	Arguments map[string]map[string]map[string]annotation.Argument
}

func newAnnotationIndex() *AnnotationIndex {
	return &AnnotationIndex{
		Fields:    make(map[string]map[string]annotation.Field),
		Arguments: make(map[string]map[string]map[string]annotation.Argument),
	}
}

func (a *AnnotationIndex) setField(typeName, fieldName string, f annotation.Field) {
	m, ok := a.Fields[typeName]
	if !ok {
		m = make(map[string]annotation.Field)
		a.Fields[typeName] = m
	}
	m[fieldName] = f
}

func (a *AnnotationIndex) setArgument(typeName, fieldName, argName string, arg annotation.Argument) {
	byField, ok := a.Arguments[typeName]
	if !ok {
		byField = make(map[string]map[string]annotation.Argument)
		a.Arguments[typeName] = byField
	}
	byArg, ok := byField[fieldName]
	if !ok {
		byArg = make(map[string]annotation.Argument)
		byField[fieldName] = byArg
	}
	byArg[argName] = arg
}

func (a *AnnotationIndex) Field(typeName, fieldName string) (annotation.Field, bool) {
	m, ok := a.Fields[typeName]
	if !ok {
		return annotation.Field{}, false
	}
	f, ok := m[fieldName]
	return f, ok
}

func (a *AnnotationIndex) Argument(typeName, fieldName, argName string) (annotation.Argument, bool) {
	byField, ok := a.Arguments[typeName]
	if !ok {
		return annotation.Argument{}, false
	}
	byArg, ok := byField[fieldName]
	if !ok {
		return annotation.Argument{}, false
	}
	arg, ok := byArg[argName]
	return arg, ok
}

// RoleSchema is one role's complete, cached GraphQL schema plus the
// annotation side-table the normalizer consults.
type RoleSchema struct {
	Role        metadata.Role
	Schema      graphql.Schema
	Annotations *AnnotationIndex
}

// Builder constructs and caches RoleSchemas from a fixed ResolvedMetadata.
type Builder struct {
	md     *resolve.ResolvedMetadata
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[metadata.Role]*RoleSchema
}

func NewBuilder(md *resolve.ResolvedMetadata, logger *zap.Logger) *Builder {
	return &Builder{md: md, logger: logger, cache: make(map[metadata.Role]*RoleSchema)}
}

// ForRole returns (building and caching, if needed) the schema visible to
// role.
func (b *Builder) ForRole(role metadata.Role) (*RoleSchema, error) {
	b.mu.RLock()
	if rs, ok := b.cache[role]; ok {
		b.mu.RUnlock()
		return rs, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if rs, ok := b.cache[role]; ok {
		return rs, nil
	}

	rs, err := b.build(role)
	if err != nil {
		return nil, err
	}
	b.cache[role] = rs
	b.logger.Info("built role schema", zap.String("role", string(role)))
	return rs, nil
}

// Invalidate drops every cached RoleSchema, forcing a rebuild against
// (presumably) newer ResolvedMetadata on next ForRole call.
func (b *Builder) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[metadata.Role]*RoleSchema)
}

type ctx struct {
	role        metadata.Role
	md          *resolve.ResolvedMetadata
	annotations *AnnotationIndex
	outputTypes map[metadata.QualifiedName]*graphql.Object
	nodeIface   *graphql.Interface
	logger      *zap.Logger
}

func (b *Builder) build(role metadata.Role) (*RoleSchema, error) {
	c := &ctx{
		role:        role,
		md:          b.md,
		annotations: newAnnotationIndex(),
		outputTypes: make(map[metadata.QualifiedName]*graphql.Object),
		logger:      b.logger,
	}

	c.buildNodeInterfaceIfNeeded()

	queryFields := graphql.Fields{}
	mutationFields := graphql.Fields{}

	for _, name := range sortedModelNames(c.md) {
		model := c.md.Models[name]
		if _, ok := c.md.ModelSelectPermission(name, role); !ok {
			continue // role has no ModelPermission entry: invisible entirely
		}
		if err := c.buildModelQueryFields(model, queryFields); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedCommandNames(c.md) {
		cmd := c.md.Commands[name]
		if !c.md.CommandAllowed(name, role) {
			continue
		}
		rootTypeName := "Query"
		if cmd.GraphQL.RootFieldKind == metadata.RootFieldMutation {
			rootTypeName = "Mutation"
		}
		field, err := c.buildCommandField(cmd, rootTypeName)
		if err != nil {
			return nil, err
		}
		switch cmd.GraphQL.RootFieldKind {
		case metadata.RootFieldQuery:
			queryFields[cmd.GraphQL.RootFieldName] = field
		case metadata.RootFieldMutation:
			mutationFields[cmd.GraphQL.RootFieldName] = field
		}
	}

	if c.nodeIface != nil {
		queryFields["node"] = &graphql.Field{
			Type: c.nodeIface,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
			},
			Resolve: staticNilResolver,
		}
		c.annotations.setField("Query", "node", annotation.Field{Kind: annotation.FieldRelayNodeSelect})
		c.annotations.setArgument("Query", "node", "id", annotation.Argument{Kind: annotation.ArgNodeID})
	}

	schemaConfig := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: queryFields}),
	}
	if len(mutationFields) > 0 {
		schemaConfig.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutationFields})
	}

	sch, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return nil, fmt.Errorf("building schema for role %s: %w", role, err)
	}

	return &RoleSchema{Role: role, Schema: sch, Annotations: c.annotations}, nil
}

func staticNilResolver(p graphql.ResolveParams) (interface{}, error) { return nil, nil }

func sortedModelNames(md *resolve.ResolvedMetadata) []metadata.QualifiedName {
	names := make([]metadata.QualifiedName, 0, len(md.Models))
	for n := range md.Models {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
	return names
}

func sortedCommandNames(md *resolve.ResolvedMetadata) []metadata.QualifiedName {
	names := make([]metadata.QualifiedName, 0, len(md.Commands))
	for n := range md.Commands {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
	return names
}
