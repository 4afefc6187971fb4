package schema

import (
	"testing"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// usersFixture builds a minimal ResolvedMetadata with one model, Users(id,
// status), filterable on status, exposing one select_unique
// (users_by_id, keyed on id) and one select_many (users).
func usersFixture() (metadata.QualifiedName, *resolve.ResolvedMetadata) {
	usersName := metadata.NewQualifiedName("app", "Users")
	objType := &metadata.ObjectType{
		Name: usersName,
		Fields: []metadata.ObjectField{
			{Name: "id", Type: metadata.TypeReference{Underlying: metadata.NamedType("ID")}},
			{Name: "status", Type: metadata.TypeReference{Underlying: metadata.NamedType("String")}},
		},
	}

	model := &resolve.ResolvedModel{
		Name:       usersName,
		ObjectType: usersName,
		Source: resolve.ResolvedModelSource{
			DataConnector: metadata.NewQualifiedName("app", "pg"),
			Collection:    "Users",
		},
		FilterableFields: map[metadata.FieldName]metadata.FilterableField{
			"status": {Field: "status", Operators: []string{"_eq"}},
		},
		GraphQL: metadata.ModelGraphQLExposure{
			SelectUniques: []metadata.SelectUniqueExposure{
				{QueryRootField: "users_by_id", UniqueIdentifier: []metadata.FieldName{"id"}},
			},
			SelectMany: &metadata.SelectManyExposure{QueryRootField: "users"},
		},
	}

	md := &resolve.ResolvedMetadata{
		Types:  map[metadata.QualifiedName]*resolve.ResolvedType{usersName: {Name: usersName, Object: objType}},
		Models: map[metadata.QualifiedName]*resolve.ResolvedModel{usersName: model},
		ModelPermissions: map[metadata.QualifiedName]map[metadata.Role]resolve.ResolvedModelPermission{
			usersName: {
				"viewer_no_id": {AllowAll: true},
				"viewer_full":  {AllowAll: true},
			},
		},
		TypePermissions: map[metadata.QualifiedName]map[metadata.Role]map[metadata.FieldName]bool{
			usersName: {
				// can select the model, but cannot read the id field itself.
				"viewer_no_id": {"status": true},
				"viewer_full":  {"id": true, "status": true},
			},
		},
	}
	return usersName, md
}

func TestBuildModelQueryFieldsGatesSelectUniqueOnFieldReadable(t *testing.T) {
	_, md := usersFixture()
	builder := NewBuilder(md, zap.NewNop())

	rs, err := builder.ForRole("viewer_no_id")
	if err != nil {
		t.Fatalf("ForRole(viewer_no_id): %v", err)
	}
	queryFields := rs.Schema.QueryType().Fields()
	if _, ok := queryFields["users_by_id"]; ok {
		t.Fatalf("users_by_id should not be exposed to a role lacking read on the id field")
	}
	if _, ok := queryFields["users"]; !ok {
		t.Fatalf("users (select_many) should still be exposed")
	}
}

func TestBuildModelQueryFieldsExposesSelectUniqueWhenFieldReadable(t *testing.T) {
	_, md := usersFixture()
	builder := NewBuilder(md, zap.NewNop())

	rs, err := builder.ForRole("viewer_full")
	if err != nil {
		t.Fatalf("ForRole(viewer_full): %v", err)
	}
	queryFields := rs.Schema.QueryType().Fields()
	field, ok := queryFields["users_by_id"]
	if !ok {
		t.Fatalf("users_by_id should be exposed to a role that can read id")
	}
	var hasIDArg bool
	for _, arg := range field.Args {
		if arg.Name() == "id" {
			hasIDArg = true
		}
	}
	if !hasIDArg {
		t.Fatalf("users_by_id should carry an id argument when the role can read id")
	}
}

func TestObjectOutputTypeOmitsUnreadableFields(t *testing.T) {
	_, md := usersFixture()
	builder := NewBuilder(md, zap.NewNop())

	rs, err := builder.ForRole("viewer_no_id")
	if err != nil {
		t.Fatalf("ForRole: %v", err)
	}
	usersType, ok := rs.Schema.TypeMap()["Users"].(*graphql.Object)
	if !ok {
		t.Fatalf("expected a Users object type in the schema")
	}
	fields := usersType.Fields()
	if _, ok := fields["id"]; ok {
		t.Fatalf("id field should be omitted for a role lacking read on it")
	}
	if _, ok := fields["status"]; !ok {
		t.Fatalf("status field should be present")
	}
}

// TestWhereInputTypeSelfReferenceDoesNotCollideSchemaConstruction is a
// regression test: a boolExp input with _and/_or/_not referencing a
// freshly-built type of the same name (rather than itself) makes
// graphql.NewSchema fail with "Schema must contain uniquely named types"
// for any role that can see a filterable model.
func TestWhereInputTypeSelfReferenceDoesNotCollideSchemaConstruction(t *testing.T) {
	_, md := usersFixture()
	builder := NewBuilder(md, zap.NewNop())

	rs, err := builder.ForRole("viewer_full")
	if err != nil {
		t.Fatalf("ForRole: %v", err)
	}

	queryFields := rs.Schema.QueryType().Fields()
	usersField, ok := queryFields["users"]
	if !ok {
		t.Fatalf("users field missing")
	}
	var where *graphql.Argument
	for _, arg := range usersField.Args {
		if arg.Name() == "where" {
			where = arg
		}
	}
	if where == nil {
		t.Fatalf("users field should carry a where argument")
	}
	boolExp, ok := where.Type.(*graphql.InputObject)
	if !ok {
		t.Fatalf("where argument should be an input object, got %T", where.Type)
	}
	andField, ok := boolExp.Fields()["_and"]
	if !ok {
		t.Fatalf("where input should carry an _and field")
	}
	list, ok := andField.Type.(*graphql.List)
	if !ok {
		t.Fatalf("_and should be a list type, got %T", andField.Type)
	}
	nonNull, ok := list.OfType.(*graphql.NonNull)
	if !ok {
		t.Fatalf("_and element should be non-null, got %T", list.OfType)
	}
	if nonNull.OfType != boolExp {
		t.Fatalf("_and element type %q should be the same boolExp type %q", nonNull.OfType.Name(), boolExp.Name())
	}
}
