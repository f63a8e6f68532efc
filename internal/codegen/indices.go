package codegen

import (
	"sort"

	"github.com/percival-lang/percival-go/internal/ast"
)

// makeIndices synthesizes the minimal index set needed to execute every
// join in the program. Each rule body (and, recursively, each aggregate
// subquery) is walked left to right with a live set of bound identifiers;
// a fact field is bound when its value is a literal, host expression,
// aggregate, or already-bound identifier. A fact with at least one bound
// field needs an index on exactly that bound-field set. Indices are
// deduplicated by (relation, bound set) and returned in canonical order.
//
// The walk here must mirror the bound/free decisions of clause
// compilation: every index looked up while emitting a rule has to exist.
func makeIndices(prog *ast.Program) []Index {
	seen := make(map[string]Index)
	for _, rule := range prog.Rules {
		vars := make(map[string]bool)
		collectIndices(rule.Clauses, vars, seen)
		for _, field := range rule.Goal.Fields() {
			collectValueIndices(rule.Goal.Props[field], vars, seen)
		}
	}

	signatures := make([]string, 0, len(seen))
	for signature := range seen {
		signatures = append(signatures, signature)
	}
	sort.Strings(signatures)

	indices := make([]Index, 0, len(seen))
	for _, signature := range signatures {
		indices = append(indices, seen[signature])
	}
	return indices
}

func collectIndices(clauses []ast.Clause, vars map[string]bool, seen map[string]Index) {
	for _, clause := range clauses {
		switch c := clause.(type) {
		case *ast.Fact:
			var bound []string
			for _, field := range c.Fields() {
				switch v := c.Props[field].(type) {
				case *ast.Id:
					if vars[v.Name] {
						bound = append(bound, field)
					} else {
						vars[v.Name] = true
					}
				default:
					collectValueIndices(v, vars, seen)
					bound = append(bound, field)
				}
			}
			if len(bound) > 0 {
				ix := Index{Name: c.Name, Bound: bound}
				seen[ix.signature()] = ix
			}
		case *ast.Binding:
			collectValueIndices(c.Value, vars, seen)
			vars[c.Name] = true
		case *ast.Expr:
		}
	}
}

// collectValueIndices recurses into aggregate subqueries. The subquery
// sees the enclosing bindings but its own additions are scoped, matching
// the cloned context used during compilation.
func collectValueIndices(value ast.Value, vars map[string]bool, seen map[string]Index) {
	agg, ok := value.(*ast.Aggregate)
	if !ok {
		return
	}
	subVars := make(map[string]bool, len(vars))
	for name := range vars {
		subVars[name] = true
	}
	collectIndices(agg.Subquery, subVars, seen)
}
