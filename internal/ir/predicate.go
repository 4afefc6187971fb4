package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/ndc"
	"github.com/lumadb/graphql-engine/internal/resolve"
)

// lowerResolvedPredicate lowers a role's permission predicate (§4.4
// Permission fold). Relationship predicates parse but are rejected here
// per §9's design note, surfaced as resolve.NotSupported.
func (g *Generator) lowerResolvedPredicate(p *resolve.ResolvedPredicate) (ndc.Expression, error) {
	switch {
	case p.FieldComparison != nil:
		fc := p.FieldComparison
		col := ndc.ComparisonTarget{Type: "column", Name: fc.Column}
		if fc.Operator == metadata.OpIsNull {
			return ndc.IsNull(col), nil
		}
		val, err := g.resolveValueExpression(fc.Value)
		if err != nil {
			return ndc.Expression{}, err
		}
		return ndc.BinaryOp(col, ndcOperatorFor(fc.Operator), val), nil

	case p.Relationship != nil:
		return ndc.Expression{}, resolve.NotSupported("relationship predicates are not supported during IR lowering")

	case len(p.And) > 0:
		exprs := make([]ndc.Expression, 0, len(p.And))
		for i := range p.And {
			e, err := g.lowerResolvedPredicate(&p.And[i])
			if err != nil {
				return ndc.Expression{}, err
			}
			exprs = append(exprs, e)
		}
		return ndc.And(exprs...), nil

	case len(p.Or) > 0:
		exprs := make([]ndc.Expression, 0, len(p.Or))
		for i := range p.Or {
			e, err := g.lowerResolvedPredicate(&p.Or[i])
			if err != nil {
				return ndc.Expression{}, err
			}
			exprs = append(exprs, e)
		}
		return ndc.Or(exprs...), nil

	case p.Not != nil:
		inner, err := g.lowerResolvedPredicate(p.Not)
		if err != nil {
			return ndc.Expression{}, err
		}
		return ndc.Not(inner), nil

	default:
		return ndc.Expression{}, fmt.Errorf("%w: empty resolved predicate", ErrInternalEngineError)
	}
}

func ndcOperatorFor(op metadata.ComparisonOperator) string {
	if op == metadata.OpEqual {
		return ndc.BinaryOpEqual
	}
	return string(op)
}

func (g *Generator) resolveValueExpression(v *resolve.ResolvedValueExpression) (ndc.ComparisonValue, error) {
	if v == nil {
		return ndc.ComparisonValue{}, fmt.Errorf("%w: comparison missing a value", ErrInternalEngineError)
	}
	if v.SessionVariable != "" {
		raw, ok := g.session.Variable(v.SessionVariable)
		if !ok {
			return ndc.ComparisonValue{}, fmt.Errorf("%w: session variable %s is not present on this request", ErrInternalDeveloperError, v.SessionVariable)
		}
		cast, err := typecastSessionVariable(raw, v.TargetType)
		if err != nil {
			return ndc.ComparisonValue{}, err
		}
		return ndc.ComparisonValue{Type: "scalar", Value: cast}, nil
	}
	return ndc.ComparisonValue{Type: "scalar", Value: v.Literal}, nil
}

// typecastSessionVariable casts a session variable's string value against
// target's declared scalar type (§4.4 Permission fold).
func typecastSessionVariable(raw string, target metadata.TypeReference) (json.RawMessage, error) {
	if _, isList := target.Underlying.(metadata.ListType); isList {
		return nil, ErrVariableArrayTypeCast
	}
	named, ok := target.Underlying.(metadata.NamedType)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported target type for session variable cast", ErrInternalEngineError)
	}

	switch string(named) {
	case "Int":
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as Int", ErrVariableTypeCast, raw)
		}
		return json.Marshal(i)
	case "Float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q as Float", ErrVariableTypeCast, raw)
		}
		return json.Marshal(f)
	case "Boolean":
		switch raw {
		case "true":
			return json.Marshal(true)
		case "false":
			return json.Marshal(false)
		default:
			return nil, fmt.Errorf("%w: %q as Boolean", ErrVariableTypeCast, raw)
		}
	case "String", "ID":
		return json.Marshal(raw)
	default:
		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return json.RawMessage(raw), nil
		}
		return json.Marshal(raw)
	}
}

// lowerWhereInput lowers a GraphQL `where` argument value into an NDC
// predicate (§8 Boundary behaviors: `where: {}` adds no predicate;
// `_is_null: false` negates IsNull).
func (g *Generator) lowerWhereInput(model *resolve.ResolvedModel, where map[string]interface{}) (*ndc.Expression, error) {
	if len(where) == 0 {
		return nil, nil
	}

	var parts []ndc.Expression
	for key, val := range where {
		switch key {
		case "_and", "_or":
			list, ok := val.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: %s expects a list", ErrInternalDeveloperError, key)
			}
			var sub []ndc.Expression
			for _, item := range list {
				m, ok := item.(map[string]interface{})
				if !ok {
					return nil, fmt.Errorf("%w: %s element must be an object", ErrInternalDeveloperError, key)
				}
				e, err := g.lowerWhereInput(model, m)
				if err != nil {
					return nil, err
				}
				if e != nil {
					sub = append(sub, *e)
				}
			}
			if key == "_and" {
				parts = append(parts, ndc.And(sub...))
			} else {
				parts = append(parts, ndc.Or(sub...))
			}

		case "_not":
			m, ok := val.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: _not expects an object", ErrInternalDeveloperError)
			}
			e, err := g.lowerWhereInput(model, m)
			if err != nil {
				return nil, err
			}
			if e != nil {
				parts = append(parts, ndc.Not(*e))
			}

		default:
			fieldName := metadata.FieldName(key)
			ff, ok := model.FilterableFields[fieldName]
			if !ok {
				return nil, fmt.Errorf("%w: field %s is not filterable on model %s", ErrInternalDeveloperError, key, model.Name)
			}
			compMap, ok := val.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: comparison value for %s must be an object", ErrInternalDeveloperError, key)
			}
			column, ok := model.Source.TypeMapping.Column(fieldName)
			if !ok {
				column = string(fieldName)
			}
			for op, opVal := range compMap {
				e, err := lowerFieldComparison(ndc.ComparisonTarget{Type: "column", Name: column}, op, opVal, ff)
				if err != nil {
					return nil, err
				}
				parts = append(parts, e)
			}
		}
	}
	return ndc.Merge(parts), nil
}

func lowerFieldComparison(col ndc.ComparisonTarget, op string, val interface{}, ff metadata.FilterableField) (ndc.Expression, error) {
	if op == "_is_null" {
		b, ok := val.(bool)
		if !ok {
			return ndc.Expression{}, fmt.Errorf("%w: _is_null expects a boolean", ErrInternalDeveloperError)
		}
		if b {
			return ndc.IsNull(col), nil
		}
		return ndc.Not(ndc.IsNull(col)), nil
	}

	allowed := false
	for _, o := range ff.Operators {
		if o == op {
			allowed = true
			break
		}
	}
	if !allowed {
		return ndc.Expression{}, fmt.Errorf("%w: operator %s not allowed on field %s", ErrInternalDeveloperError, op, ff.Field)
	}

	ndcOp := strings.TrimPrefix(op, "_")
	if op == "_eq" {
		ndcOp = ndc.BinaryOpEqual
	}
	return ndc.BinaryOp(col, ndcOp, ndc.ScalarValue(val)), nil
}
