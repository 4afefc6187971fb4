package ir

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/annotation"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/normalize"
	"github.com/lumadb/graphql-engine/internal/resolve"
	"github.com/lumadb/graphql-engine/internal/session"
)

func usersModel(name metadata.QualifiedName) *resolve.ResolvedModel {
	return &resolve.ResolvedModel{
		Name:       name,
		ObjectType: name,
		Source: resolve.ResolvedModelSource{
			DataConnector: metadata.NewQualifiedName("app", "pg"),
			Collection:    "Users",
			TypeMapping: resolve.TypeMapping{FieldMappings: map[metadata.FieldName]string{
				"id": "id", "tenant_id": "tenant_id", "status": "status",
			}},
		},
		FilterableFields: map[metadata.FieldName]metadata.FilterableField{
			"status": {Field: "status", Operators: []string{"_eq"}},
		},
	}
}

// tenantFilterPermission builds the ModelPermission S5 describes: Filter(tenant_id = $x-tenant).
func tenantFilterPermission(t *testing.T) resolve.ResolvedModelPermission {
	return resolve.ResolvedModelPermission{
		Filter: &resolve.ResolvedPredicate{
			FieldComparison: &resolve.ResolvedFieldComparison{
				Column:   "tenant_id",
				Operator: metadata.OpEqual,
				Value:    &resolve.ResolvedValueExpression{SessionVariable: "x-tenant", TargetType: mustType(t, "Int")},
			},
		},
	}
}

// TestModelSelectManyPermissionFoldOrdering is scenario S5: the role's
// ModelPermission filter must appear before the caller's `where` filter in
// the resulting FilterClause, so a user filter can never widen what the
// permission predicate narrowed.
func TestModelSelectManyPermissionFoldOrdering(t *testing.T) {
	usersName := metadata.NewQualifiedName("app", "Users")
	model := usersModel(usersName)

	md := &resolve.ResolvedMetadata{
		Models: map[metadata.QualifiedName]*resolve.ResolvedModel{usersName: model},
		ModelPermissions: map[metadata.QualifiedName]map[metadata.Role]resolve.ResolvedModelPermission{
			usersName: {"viewer": tenantFilterPermission(t)},
		},
	}
	sess := session.Session{Role: "viewer", Variables: map[metadata.SessionVariable]string{"x-tenant": "7"}}
	g := NewGenerator(md, sess, zap.NewNop())

	fc := &normalize.FieldCall{
		Alias:      "users",
		Annotation: annotation.Field{Kind: annotation.FieldModelSelectMany, ModelName: usersName},
		Arguments: map[string]normalize.ArgumentValue{
			"where": {Value: map[string]interface{}{"status": map[string]interface{}{"_eq": "ok"}}},
		},
	}

	rf, err := g.generateRootField(fc, NewUsagesCounts())
	if err != nil {
		t.Fatalf("generateRootField: %v", err)
	}
	if rf.Model == nil {
		t.Fatalf("got nil ModelSelection")
	}
	clause := rf.Model.FilterClause
	if len(clause) != 2 {
		t.Fatalf("got %d filter clauses, want 2 (permission, then user filter)", len(clause))
	}
	if clause[0].Column == nil || clause[0].Column.Name != "tenant_id" {
		t.Fatalf("first clause = %+v, want the permission predicate on tenant_id", clause[0])
	}
	if clause[1].Column == nil || clause[1].Column.Name != "status" {
		t.Fatalf("second clause = %+v, want the user filter on status", clause[1])
	}
}

func TestModelSelectManyRoleWithAllowAllHasNoPermissionClause(t *testing.T) {
	usersName := metadata.NewQualifiedName("app", "Users")
	model := usersModel(usersName)

	md := &resolve.ResolvedMetadata{
		Models: map[metadata.QualifiedName]*resolve.ResolvedModel{usersName: model},
		ModelPermissions: map[metadata.QualifiedName]map[metadata.Role]resolve.ResolvedModelPermission{
			usersName: {"admin": {AllowAll: true}},
		},
	}
	g := NewGenerator(md, session.Session{Role: "admin"}, zap.NewNop())

	fc := &normalize.FieldCall{
		Alias:      "users",
		Annotation: annotation.Field{Kind: annotation.FieldModelSelectMany, ModelName: usersName},
	}

	rf, err := g.generateRootField(fc, NewUsagesCounts())
	if err != nil {
		t.Fatalf("generateRootField: %v", err)
	}
	if len(rf.Model.FilterClause) != 0 {
		t.Fatalf("got %d filter clauses, want 0 for an AllowAll role with no user filter", len(rf.Model.FilterClause))
	}
}

func TestModelSelectOneBuildsEqualityFilterPerIdentifierField(t *testing.T) {
	usersName := metadata.NewQualifiedName("app", "Users")
	model := usersModel(usersName)

	md := &resolve.ResolvedMetadata{
		Models: map[metadata.QualifiedName]*resolve.ResolvedModel{usersName: model},
		ModelPermissions: map[metadata.QualifiedName]map[metadata.Role]resolve.ResolvedModelPermission{
			usersName: {"viewer": {AllowAll: true}},
		},
	}
	g := NewGenerator(md, session.Session{Role: "viewer"}, zap.NewNop())

	fc := &normalize.FieldCall{
		Alias: "users_by_id",
		Annotation: annotation.Field{
			Kind:             annotation.FieldModelSelectOne,
			ModelName:        usersName,
			UniqueIdentifier: []metadata.FieldName{"id"},
		},
		Arguments: map[string]normalize.ArgumentValue{
			"id": {Value: 1},
		},
	}

	rf, err := g.generateRootField(fc, NewUsagesCounts())
	if err != nil {
		t.Fatalf("generateRootField: %v", err)
	}
	clause := rf.Model.FilterClause
	if len(clause) != 1 {
		t.Fatalf("got %d filter clauses, want 1", len(clause))
	}
	if clause[0].Type != ndc.ExprBinaryComparison || clause[0].Column.Name != "id" || clause[0].Operator != ndc.BinaryOpEqual {
		t.Fatalf("got %+v, want Equal(id, 1)", clause[0])
	}
}

func TestModelSelectOneMissingPermissionIsInternalEngineError(t *testing.T) {
	usersName := metadata.NewQualifiedName("app", "Users")
	model := usersModel(usersName)

	md := &resolve.ResolvedMetadata{
		Models:           map[metadata.QualifiedName]*resolve.ResolvedModel{usersName: model},
		ModelPermissions: map[metadata.QualifiedName]map[metadata.Role]resolve.ResolvedModelPermission{},
	}
	g := NewGenerator(md, session.Session{Role: "anonymous"}, zap.NewNop())

	fc := &normalize.FieldCall{
		Alias: "users_by_id",
		Annotation: annotation.Field{
			Kind:             annotation.FieldModelSelectOne,
			ModelName:        usersName,
			UniqueIdentifier: []metadata.FieldName{"id"},
		},
		Arguments: map[string]normalize.ArgumentValue{"id": {Value: 1}},
	}

	if _, err := g.generateRootField(fc, NewUsagesCounts()); !errors.Is(err, ErrInternalEngineError) {
		t.Fatalf("expected ErrInternalEngineError for a role lacking select permission, got %v", err)
	}
}
