package planner

import (
	"fmt"
	"strings"
)

// matchClause renders the graph pattern for the join set. Without the
// fixture join the game node stays anonymous and unbound, so the query
// aggregates relationship properties without touching match context, the
// cheap path for simple cumulative counters.
func matchClause(joins map[Relation]bool) string {
	if joins[RelationFixture] {
		return "MATCH (p:Player)-[a:PLAYED_IN]->(g:Game)"
	}
	return "MATCH (p:Player)-[a:PLAYED_IN]->()"
}

// whereClause renders the ordered predicate list. Range predicates render
// only the bounds present in the parameter map.
func whereClause(preds []Predicate, params map[string]any) string {
	var conds []string
	for _, pred := range preds {
		switch pred.Kind {
		case PredicateEquality:
			conds = append(conds, fmt.Sprintf("%s = $%s", pred.Field, pred.Param))
		case PredicateRange:
			if _, ok := params[pred.Param+"From"]; ok {
				conds = append(conds, fmt.Sprintf("%s >= $%sFrom", pred.Field, pred.Param))
			}
			if _, ok := params[pred.Param+"To"]; ok {
				conds = append(conds, fmt.Sprintf("%s <= $%sTo", pred.Field, pred.Param))
			}
		case PredicateMembership:
			conds = append(conds, fmt.Sprintf("%s IN $%s", pred.Field, pred.Param))
		case PredicateExistence:
			// Existence predicates carry their full rendered condition.
			conds = append(conds, pred.Field)
		}
	}
	if len(conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conds, " AND ")
}

// renderQuery assembles a full statement from its clauses, skipping empties.
func renderQuery(clauses ...string) string {
	var parts []string
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}
