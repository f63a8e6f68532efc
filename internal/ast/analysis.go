package ast

import "sort"

// Results returns the sorted names of all relations produced by this
// program, i.e. every relation appearing as a rule goal.
func (p *Program) Results() []string {
	set := make(map[string]bool)
	for _, rule := range p.Rules {
		set[rule.Goal.Name] = true
	}
	return sortedNames(set)
}

// ImportNames returns the sorted names of all imported relations.
func (p *Program) ImportNames() []string {
	set := make(map[string]bool)
	for _, imp := range p.Imports {
		set[imp.Name] = true
	}
	return sortedNames(set)
}

// Deps returns the sorted names of all external relations this program
// reads: relations referenced in some clause (including aggregate
// subqueries) that are neither results nor imports.
func (p *Program) Deps() []string {
	local := make(map[string]bool)
	for _, rule := range p.Rules {
		local[rule.Goal.Name] = true
	}
	for _, imp := range p.Imports {
		local[imp.Name] = true
	}

	deps := make(map[string]bool)
	var walkClauses func(clauses []Clause)
	walkValue := func(value Value) {
		if agg, ok := value.(*Aggregate); ok {
			walkClauses(agg.Subquery)
		}
	}
	walkClauses = func(clauses []Clause) {
		for _, clause := range clauses {
			switch c := clause.(type) {
			case *Fact:
				if !local[c.Name] {
					deps[c.Name] = true
				}
				for _, field := range c.Fields() {
					walkValue(c.Props[field])
				}
			case *Binding:
				walkValue(c.Value)
			case *Expr:
			}
		}
	}
	for _, rule := range p.Rules {
		walkClauses(rule.Clauses)
		// Goal props can hold aggregates whose subqueries read relations.
		for _, field := range rule.Goal.Fields() {
			walkValue(rule.Goal.Props[field])
		}
	}
	return sortedNames(deps)
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
