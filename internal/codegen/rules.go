package codegen

import (
	"fmt"
	"strings"

	"github.com/percival-lang/percival-go/internal/ast"
)

// aggregateOperators is the closed set of supported aggregate operators,
// mirrored by the runtime's `__percival.aggregates` namespace.
var aggregateOperators = map[string]bool{
	"count": true,
	"sum":   true,
	"mean":  true,
	"min":   true,
	"max":   true,
}

// compileRules emits every rule's semi-naive variants in program order.
func (c *compiler) compileRules(ctx *context) (string, error) {
	var rules []string
	for _, rule := range c.prog.Rules {
		code, err := c.compileRule(ctx, rule)
		if err != nil {
			return "", err
		}
		rules = append(rules, code)
	}
	return strings.Join(rules, "\n"), nil
}

// compileRule emits one loop nest per recursive body fact: in each
// variant, that fact iterates the previous iteration's delta while every
// other fact uses its full set or index. The union of the variants is
// exactly the set of derivations that use at least one new tuple. A rule
// whose body reads only static inputs cannot produce anything new after
// the first pass, so its single variant runs under the first-iteration
// guard.
func (c *compiler) compileRule(ctx *context, rule *ast.Rule) (string, error) {
	var recursive []int
	for i, clause := range rule.Clauses {
		if fact, ok := clause.(*ast.Fact); ok && c.results[fact.Name] {
			recursive = append(recursive, i)
		}
	}

	if len(recursive) == 0 {
		variant, err := c.compileRuleVariant(ctx, rule, -1)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("if (%s) {\n%s\n}", varFirstIter, variant), nil
	}

	variants := make([]string, 0, len(recursive))
	for _, pos := range recursive {
		variant, err := c.compileRuleVariant(ctx, rule, pos)
		if err != nil {
			return "", err
		}
		variants = append(variants, variant)
	}
	return strings.Join(variants, "\n"), nil
}

// compileRuleVariant compiles the rule body with clause updatePos reading
// from the delta (-1 for the non-recursive variant), then constructs the
// goal tuple and adds it to the accumulator unless already derived.
func (c *compiler) compileRuleVariant(ctx *context, rule *ast.Rule, updatePos int) (string, error) {
	ctx = ctx.clone()

	var b strings.Builder
	b.WriteString("{\n")
	for i, clause := range rule.Clauses {
		code, err := c.compileClause(ctx, clause, i == updatePos)
		if err != nil {
			return "", err
		}
		b.WriteString(code)
		b.WriteString("\n")
	}

	goalVar := ctx.gensym("goal")
	goalObj, err := c.compileFields(ctx, rule.Goal)
	if err != nil {
		return "", err
	}
	setName, err := ctx.lookup(setID(rule.Goal.Name))
	if err != nil {
		return "", err
	}
	newName, err := ctx.lookup(newID(rule.Goal.Name))
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "const %s = %s.Map(%s);\n", goalVar, varImmutable, goalObj)
	fmt.Fprintf(&b, "if (!%s.includes(%s)) %s.add(%s);", setName, goalVar, newName, goalVar)
	b.WriteString(strings.Repeat("\n}", len(rule.Clauses)+1))

	return b.String(), nil
}

// compileClause emits one body clause. Every clause opens exactly one
// block; the rule variant closes them all after the goal.
func (c *compiler) compileClause(ctx *context, clause ast.Clause, isUpdate bool) (string, error) {
	switch cl := clause.(type) {
	case *ast.Fact:
		return c.compileFactClause(ctx, cl, isUpdate)

	case *ast.Expr:
		return fmt.Sprintf("if ((%s)) {", cl.Source), nil

	case *ast.Binding:
		if ctx.has(localID(cl.Name)) {
			return "", newError(ErrDuplicateVariable,
				"variable %q is already bound in this scope", cl.Name)
		}
		value, err := c.compileValue(ctx, cl.Value)
		if err != nil {
			return "", err
		}
		ctx.add(localID(cl.Name), cl.Name)
		return fmt.Sprintf("{\nconst %s = %s;", cl.Name, value), nil

	default:
		return "", newError(ErrUndefinedVariable, "unknown clause variant %T", clause)
	}
}

// compileFactClause emits the loop for one fact pattern. Fields are
// visited in canonical order: a field whose value is bound joins the key
// projection, an unbound identifier becomes a local binding read from the
// iterated tuple. With no bound fields the full set (or delta) is
// scanned; otherwise the matching index bucket is looked up, defaulting
// to empty when absent.
func (c *compiler) compileFactClause(ctx *context, fact *ast.Fact, isUpdate bool) (string, error) {
	objVar := ctx.gensym("obj")

	var boundFields []string
	var setters []string
	for _, field := range fact.Fields() {
		value := fact.Props[field]
		if ctx.isBound(value) {
			boundFields = append(boundFields, field)
			continue
		}
		id := value.(*ast.Id)
		setters = append(setters, fmt.Sprintf("const %s = %s.get('%s');", id.Name, objVar, field))
		ctx.add(localID(id.Name), id.Name)
	}

	var header string
	if len(boundFields) == 0 {
		source := setID(fact.Name)
		if isUpdate {
			source = updateID(fact.Name)
		}
		sourceName, err := ctx.lookup(source)
		if err != nil {
			return "", err
		}
		header = fmt.Sprintf("for (const %s of %s) {", objVar, sourceName)
	} else {
		ix := Index{Name: fact.Name, Bound: boundFields}
		id := indexID(ix)
		if isUpdate {
			id = indexUpdateID(ix)
		}
		indexName, err := ctx.lookup(id)
		if err != nil {
			return "", err
		}
		key, err := compileObjectErr(boundFields, func(field string) (string, error) {
			return c.compileValue(ctx, fact.Props[field])
		})
		if err != nil {
			return "", err
		}
		header = fmt.Sprintf("for (const %s of %s.get(%s.Map(%s)) ?? []) {",
			objVar, indexName, varImmutable, key)
	}

	if len(setters) == 0 {
		return header, nil
	}
	return header + "\n" + strings.Join(setters, "\n"), nil
}

// compileFields renders a fact's props as an object literal in canonical
// field order, so identical field sets always produce identical keys.
func (c *compiler) compileFields(ctx *context, fact *ast.Fact) (string, error) {
	return compileObjectErr(fact.Fields(), func(field string) (string, error) {
		return c.compileValue(ctx, fact.Props[field])
	})
}

// compileValue renders a value in expression position.
func (c *compiler) compileValue(ctx *context, value ast.Value) (string, error) {
	switch v := value.(type) {
	case *ast.Id:
		return ctx.lookup(localID(v.Name))
	case *ast.Number:
		return v.Text, nil
	case *ast.String:
		return `"` + v.Text + `"`, nil
	case *ast.Boolean:
		if v.Value {
			return "true", nil
		}
		return "false", nil
	case *ast.Expr:
		return "(" + v.Source + ")", nil
	case *ast.Aggregate:
		return c.compileAggregate(ctx, v)
	default:
		return "", newError(ErrUndefinedVariable, "unknown value variant %T", value)
	}
}

// compileAggregate emits an immediately-invoked function that collects
// the subquery's values into a list and applies the operator. The
// subquery runs in a cloned context: enclosing bindings stay visible,
// additions remain scoped. The subquery must not read a relation derived
// by this program, which is what keeps aggregates stratified below the
// fixpoint.
func (c *compiler) compileAggregate(ctx *context, agg *ast.Aggregate) (string, error) {
	if !aggregateOperators[agg.Operator] {
		return "", newError(ErrUnknownAggregate,
			"unknown aggregate operator %q", agg.Operator)
	}
	if name := c.findResultRef(agg.Subquery); name != "" {
		return "", newError(ErrCircularReference,
			"aggregate subquery references %q, which is derived by this program", name)
	}

	sub := ctx.clone()
	resultsVar := sub.gensym("agg_results")

	var b strings.Builder
	b.WriteString("(() => {\n")
	fmt.Fprintf(&b, "const %s = [];\n", resultsVar)
	for _, clause := range agg.Subquery {
		code, err := c.compileClause(sub, clause, false)
		if err != nil {
			return "", err
		}
		b.WriteString(code)
		b.WriteString("\n")
	}
	value, err := c.compileValue(sub, agg.Value)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "%s.push(%s);", resultsVar, value)
	b.WriteString(strings.Repeat("\n}", len(agg.Subquery)))
	fmt.Fprintf(&b, "\nreturn %s.aggregates.%s(%s);\n", internalPrefix, agg.Operator, resultsVar)
	b.WriteString("})()")
	return b.String(), nil
}

// findResultRef returns the first result relation referenced anywhere in
// the clause list, or "" when there is none.
func (c *compiler) findResultRef(clauses []ast.Clause) string {
	for _, clause := range clauses {
		switch cl := clause.(type) {
		case *ast.Fact:
			if c.results[cl.Name] {
				return cl.Name
			}
			for _, field := range cl.Fields() {
				if agg, ok := cl.Props[field].(*ast.Aggregate); ok {
					if name := c.findResultRef(agg.Subquery); name != "" {
						return name
					}
				}
			}
		case *ast.Binding:
			if agg, ok := cl.Value.(*ast.Aggregate); ok {
				if name := c.findResultRef(agg.Subquery); name != "" {
					return name
				}
			}
		case *ast.Expr:
		}
	}
	return ""
}
