package exec

import (
	"context"

	"github.com/lumadb/graphql-engine/internal/globalid"
	"github.com/lumadb/graphql-engine/internal/ir"
	"github.com/lumadb/graphql-engine/internal/metadata"
	"github.com/lumadb/graphql-engine/internal/plan"
	"github.com/lumadb/graphql-engine/internal/response"
)

// assembleSelection turns one connector's raw rows into ordered response
// objects, one per row, resolving nested local relationships from the
// already-returned nested row sets and fanning out nested remote
// relationships as batched follow-up connector queries (§4.6).
func (e *Executor) assembleSelection(ctx context.Context, connector metadata.QualifiedName, rows []map[string]any, sel *ir.ResultSelectionSet, joins *plan.JoinLocations) ([]*response.OrderedMap, []response.GraphQLError) {
	out := make([]*response.OrderedMap, len(rows))
	for i := range rows {
		out[i] = response.NewOrderedMap()
	}
	var errs []response.GraphQLError
	if sel == nil {
		return out, errs
	}

	fields := sel.Fields
	for i := 0; i < len(fields); i++ {
		rf := fields[i]

		switch {
		case rf.Column != nil:
			if alias, _, ok := ir.ParseGlobalIDColumnAlias(rf.Alias); ok {
				group := []ir.ResultField{rf}
				j := i + 1
				for j < len(fields) {
					rf2 := fields[j]
					if rf2.Column == nil {
						break
					}
					a2, _, ok2 := ir.ParseGlobalIDColumnAlias(rf2.Alias)
					if !ok2 || a2 != alias {
						break
					}
					group = append(group, rf2)
					j++
				}
				e.assembleGlobalID(out, rows, alias, sel.ObjectTypeName, group, &errs)
				i = j - 1
				continue
			}
			for r, row := range rows {
				out[r].Set(rf.Alias, row[rf.Column.Column])
			}

		case rf.TypeName != nil:
			for r := range rows {
				out[r].Set(rf.Alias, rf.TypeName.GraphQLTypeName)
			}

		case rf.LocalRelationship != nil:
			e.assembleLocalRelationship(ctx, out, rows, rf, joins)

		case rf.RemoteRelationship != nil:
			fieldErrs := e.assembleRemoteRelationship(ctx, out, rows, rf, joins)
			errs = append(errs, fieldErrs...)
		}
	}
	return out, errs
}

// assembleGlobalID reconstructs one Relay global id per row from its
// synthesized columns and stamps the base64 cursor under alias.
func (e *Executor) assembleGlobalID(out []*response.OrderedMap, rows []map[string]any, alias, typeName string, group []ir.ResultField, errs *[]response.GraphQLError) {
	for r, row := range rows {
		idParts := make(map[string]any, len(group))
		for _, g := range group {
			_, field, ok := ir.ParseGlobalIDColumnAlias(g.Alias)
			if !ok {
				continue
			}
			idParts[string(field)] = row[g.Column.Column]
		}
		encoded, err := globalid.Encode(globalid.GlobalID{TypeName: typeName, ID: idParts})
		if err != nil {
			*errs = append(*errs, response.NewFieldError(err.Error(), []any{alias}, nil))
			continue
		}
		out[r].Set(alias, encoded)
	}
}

func (e *Executor) assembleLocalRelationship(ctx context.Context, out []*response.OrderedMap, rows []map[string]any, rf ir.ResultField, joins *plan.JoinLocations) {
	lr := rf.LocalRelationship
	var childJoins *plan.JoinLocations
	if joins != nil {
		if node, ok := joins.Locations[rf.Alias]; ok {
			childJoins = node.Children
		}
	}

	groups := make([][]map[string]any, len(rows))
	for i, row := range rows {
		groups[i] = extractNestedRows(row[rf.Alias])
	}

	childResults, _ := e.assembleNestedGroups(ctx, lr.Query.DataConnector, groups, lr.Query.Selection, childJoins)
	for i := range rows {
		if lr.Info.Cardinality == metadata.CardinalityArray {
			out[i].Set(rf.Alias, childResults[i])
		} else if len(childResults[i]) > 0 {
			out[i].Set(rf.Alias, childResults[i][0])
		} else {
			out[i].Set(rf.Alias, nil)
		}
	}
}

func (e *Executor) assembleRemoteRelationship(ctx context.Context, out []*response.OrderedMap, rows []map[string]any, rf ir.ResultField, joins *plan.JoinLocations) []response.GraphQLError {
	rr := rf.RemoteRelationship
	if joins == nil {
		return []response.GraphQLError{response.NewFieldError("missing remote join plan", []any{rf.Alias}, nil)}
	}
	node, ok := joins.Locations[rf.Alias]
	if !ok || node.Join == nil {
		return []response.GraphQLError{response.NewFieldError("missing remote join plan", []any{rf.Alias}, nil)}
	}
	join := node.Join

	variables := make([]map[string]any, len(rows))
	for i, row := range rows {
		vars := make(map[string]any, len(join.JoinColumns))
		for _, jc := range join.JoinColumns {
			vars[jc.SourceColumn] = row["__hasura_phantom_field__"+jc.SourceColumn]
		}
		variables[i] = vars
	}

	req := join.TargetNDCIR
	req.Variables = variables

	endpoint, err := endpointFor(e.md, join.TargetDataConnector, false)
	if err != nil {
		return []response.GraphQLError{response.NewFieldError(err.Error(), []any{rf.Alias}, nil)}
	}

	resp, err := e.client.Query(ctx, endpoint, req)
	if err != nil {
		return []response.GraphQLError{classifyError(err, []any{rf.Alias})}
	}

	groups := make([][]map[string]any, len(rows))
	for i := range rows {
		if i < len(resp) {
			groups[i] = resp[i].Rows
		}
	}

	childResults, errs := e.assembleNestedGroups(ctx, rr.TargetDataConnector, groups, rr.TargetIR.Selection, join.NestedJoins)
	for i := range rows {
		if rr.Info.Cardinality == metadata.CardinalityArray {
			out[i].Set(rf.Alias, childResults[i])
		} else if len(childResults[i]) > 0 {
			out[i].Set(rf.Alias, childResults[i][0])
		} else {
			out[i].Set(rf.Alias, nil)
		}
	}
	return errs
}

// assembleNestedGroups flattens variable-length per-row nested row groups
// into one batch, assembles it once (so a remote join nested further down
// still fans out in a single round trip across every outer row), and
// splits the results back into their original groups.
func (e *Executor) assembleNestedGroups(ctx context.Context, connector metadata.QualifiedName, groups [][]map[string]any, sel *ir.ResultSelectionSet, joins *plan.JoinLocations) ([][]*response.OrderedMap, []response.GraphQLError) {
	var flat []map[string]any
	counts := make([]int, len(groups))
	for i, g := range groups {
		counts[i] = len(g)
		flat = append(flat, g...)
	}

	assembled, errs := e.assembleSelection(ctx, connector, flat, sel, joins)

	out := make([][]*response.OrderedMap, len(groups))
	pos := 0
	for i, c := range counts {
		out[i] = assembled[pos : pos+c]
		pos += c
	}
	return out, errs
}

func extractNestedRows(v any) []map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	rowsRaw, ok := m["rows"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(rowsRaw))
	for _, r := range rowsRaw {
		if rm, ok := r.(map[string]any); ok {
			out = append(out, rm)
		}
	}
	return out
}
