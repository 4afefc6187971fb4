package ir

import (
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/resolve"
	"github.com/lumadb/graphql-engine/internal/session"
)

func mustType(t *testing.T, s string) metadata.TypeReference {
	t.Helper()
	tr, err := metadata.ParseTypeReference(s)
	if err != nil {
		t.Fatalf("ParseTypeReference(%q): %v", s, err)
	}
	return tr
}

func newTestGenerator(sess session.Session) *Generator {
	return NewGenerator(&resolve.ResolvedMetadata{}, sess, zap.NewNop())
}

func TestLowerResolvedPredicateFieldComparison(t *testing.T) {
	g := newTestGenerator(session.Session{})

	lit, _ := json.Marshal("ok")
	p := &resolve.ResolvedPredicate{
		FieldComparison: &resolve.ResolvedFieldComparison{
			Column:   "status",
			Operator: metadata.OpEqual,
			Value:    &resolve.ResolvedValueExpression{Literal: lit, TargetType: mustType(t, "String")},
		},
	}

	got, err := g.lowerResolvedPredicate(p)
	if err != nil {
		t.Fatalf("lowerResolvedPredicate: %v", err)
	}
	if got.Type != ndc.ExprBinaryComparison || got.Operator != ndc.BinaryOpEqual {
		t.Fatalf("got %+v, want a binary equal comparison", got)
	}
	if got.Column == nil || got.Column.Name != "status" {
		t.Fatalf("got column %+v, want status", got.Column)
	}
}

func TestLowerResolvedPredicateIsNull(t *testing.T) {
	g := newTestGenerator(session.Session{})

	p := &resolve.ResolvedPredicate{
		FieldComparison: &resolve.ResolvedFieldComparison{Column: "deleted_at", Operator: metadata.OpIsNull},
	}

	got, err := g.lowerResolvedPredicate(p)
	if err != nil {
		t.Fatalf("lowerResolvedPredicate: %v", err)
	}
	if got.Type != ndc.ExprUnaryComparison || got.Operator != ndc.UnaryOpIsNull {
		t.Fatalf("got %+v, want an is_null unary comparison", got)
	}
}

func TestLowerResolvedPredicateRelationshipNotSupported(t *testing.T) {
	g := newTestGenerator(session.Session{})

	p := &resolve.ResolvedPredicate{Relationship: &resolve.ResolvedRelationshipPredicate{Name: "posts"}}

	_, err := g.lowerResolvedPredicate(p)
	var notSupported *resolve.NotSupportedError
	if !errors.As(err, &notSupported) {
		t.Fatalf("got %v, want a *resolve.NotSupportedError", err)
	}
}

func TestLowerResolvedPredicateAndOrNot(t *testing.T) {
	g := newTestGenerator(session.Session{})

	leaf := func(col string) resolve.ResolvedPredicate {
		return resolve.ResolvedPredicate{
			FieldComparison: &resolve.ResolvedFieldComparison{Column: col, Operator: metadata.OpIsNull},
		}
	}

	tests := []struct {
		name     string
		p        *resolve.ResolvedPredicate
		wantType string
		wantLen  int
	}{
		{"and", &resolve.ResolvedPredicate{And: []resolve.ResolvedPredicate{leaf("a"), leaf("b")}}, ndc.ExprAnd, 2},
		{"or", &resolve.ResolvedPredicate{Or: []resolve.ResolvedPredicate{leaf("a"), leaf("b")}}, ndc.ExprOr, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.lowerResolvedPredicate(tt.p)
			if err != nil {
				t.Fatalf("lowerResolvedPredicate: %v", err)
			}
			if got.Type != tt.wantType {
				t.Fatalf("got type %q, want %q", got.Type, tt.wantType)
			}
			if len(got.Expressions) != tt.wantLen {
				t.Fatalf("got %d sub-expressions, want %d", len(got.Expressions), tt.wantLen)
			}
		})
	}

	notLeaf := leaf("a")
	got, err := g.lowerResolvedPredicate(&resolve.ResolvedPredicate{Not: &notLeaf})
	if err != nil {
		t.Fatalf("lowerResolvedPredicate: %v", err)
	}
	if got.Type != ndc.ExprNot || got.Expression_ == nil {
		t.Fatalf("got %+v, want a not expression wrapping the leaf", got)
	}
}

func TestResolveValueExpressionSessionVariable(t *testing.T) {
	g := newTestGenerator(session.Session{Variables: map[metadata.SessionVariable]string{"x-tenant": "7"}})

	v, err := g.resolveValueExpression(&resolve.ResolvedValueExpression{
		SessionVariable: "x-tenant",
		TargetType:      mustType(t, "Int"),
	})
	if err != nil {
		t.Fatalf("resolveValueExpression: %v", err)
	}
	if string(v.Value) != "7" {
		t.Fatalf("got value %s, want 7", v.Value)
	}
}

func TestResolveValueExpressionMissingSessionVariable(t *testing.T) {
	g := newTestGenerator(session.Session{})

	_, err := g.resolveValueExpression(&resolve.ResolvedValueExpression{
		SessionVariable: "x-tenant",
		TargetType:      mustType(t, "Int"),
	})
	if !errors.Is(err, ErrInternalDeveloperError) {
		t.Fatalf("got %v, want ErrInternalDeveloperError", err)
	}
}

func TestTypecastSessionVariable(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		target  string
		want    string
		wantErr error
	}{
		{"int ok", "42", "Int", "42", nil},
		{"int bad", "notanumber", "Int", "", ErrVariableTypeCast},
		{"float ok", "3.5", "Float", "3.5", nil},
		{"bool true", "true", "Boolean", "true", nil},
		{"bool bad", "yes", "Boolean", "", ErrVariableTypeCast},
		{"string", "hello", "String", `"hello"`, nil},
		{"array cast rejected", "1", "[Int!]!", "", ErrVariableArrayTypeCast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := mustType(t, tt.target)
			got, err := typecastSessionVariable(tt.raw, target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got err %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("typecastSessionVariable: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLowerWhereInputEmptyIsNil(t *testing.T) {
	g := newTestGenerator(session.Session{})
	model := &resolve.ResolvedModel{Name: metadata.NewQualifiedName("app", "Users")}

	got, err := g.lowerWhereInput(model, map[string]interface{}{})
	if err != nil {
		t.Fatalf("lowerWhereInput: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil for an empty where", got)
	}
}

func TestLowerWhereInputFieldComparison(t *testing.T) {
	g := newTestGenerator(session.Session{})
	model := &resolve.ResolvedModel{
		Name: metadata.NewQualifiedName("app", "Users"),
		FilterableFields: map[metadata.FieldName]metadata.FilterableField{
			"status": {Field: "status", Operators: []string{"_eq"}},
		},
		Source: resolve.ResolvedModelSource{TypeMapping: resolve.TypeMapping{
			FieldMappings: map[metadata.FieldName]string{"status": "status"},
		}},
	}

	got, err := g.lowerWhereInput(model, map[string]interface{}{
		"status": map[string]interface{}{"_eq": "ok"},
	})
	if err != nil {
		t.Fatalf("lowerWhereInput: %v", err)
	}
	if got == nil {
		t.Fatalf("got nil, want a predicate")
	}
	if got.Type != ndc.ExprBinaryComparison || got.Column.Name != "status" {
		t.Fatalf("got %+v, want a binary comparison on status", *got)
	}
}

func TestLowerWhereInputRejectsDisallowedOperator(t *testing.T) {
	g := newTestGenerator(session.Session{})
	model := &resolve.ResolvedModel{
		Name: metadata.NewQualifiedName("app", "Users"),
		FilterableFields: map[metadata.FieldName]metadata.FilterableField{
			"status": {Field: "status", Operators: []string{"_eq"}},
		},
	}

	_, err := g.lowerWhereInput(model, map[string]interface{}{
		"status": map[string]interface{}{"_gt": "ok"},
	})
	if !errors.Is(err, ErrInternalDeveloperError) {
		t.Fatalf("got %v, want ErrInternalDeveloperError", err)
	}
}
