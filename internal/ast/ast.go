// Package ast defines the abstract syntax tree for the Percival language.
//
// The tree is built once by the parser and never mutated afterward. Clause,
// Value, and Literal are closed sums expressed as marker-method interfaces;
// code that consumes them switches over every variant.
package ast

import (
	"sort"
	"strings"
)

// Program is the root node: an ordered sequence of rules and imports.
type Program struct {
	Rules   []*Rule
	Imports []*Import
}

// Rule is a single Horn clause. An empty clause list denotes a ground fact.
type Rule struct {
	Goal    *Fact
	Clauses []Clause
}

// Fact is a relation reference with named field values. Props is logically
// unordered; Fields returns the canonical (sorted) order used everywhere a
// deterministic traversal is needed.
type Fact struct {
	Name  string
	Props map[string]Value
}

// Fields returns the fact's field names in canonical sorted order.
func (f *Fact) Fields() []string {
	fields := make([]string, 0, len(f.Props))
	for name := range f.Props {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// Import binds a relation name to external data identified by a URI.
// The URI scheme determines the load strategy at code generation.
type Import struct {
	Name string
	URI  string
}

// Clause is one premise in a rule body: a fact pattern, a raw host
// expression used as a filter, or a local variable binding.
type Clause interface {
	clauseNode()
	String() string
}

// Binding introduces a local variable within a rule body.
type Binding struct {
	Name  string
	Value Value
}

// Value is a field or binding value: an identifier, a literal, a raw host
// expression, or an aggregate over a subquery.
type Value interface {
	valueNode()
	String() string
}

// Id is a variable reference, bound or free depending on clause position.
type Id struct {
	Name string
}

// Expr is a raw host-language expression, kept as uninterpreted text.
// It can appear both as a value and as a boolean filter clause.
type Expr struct {
	Source string
}

// Aggregate applies an operator to the values produced by a subquery.
type Aggregate struct {
	Operator string
	Value    Value
	Subquery []Clause
}

// Literal is a constant value. Number and String carry the original
// lexeme: escape sequences are not evaluated by the compiler.
type Literal interface {
	Value
	literalNode()
}

// Number is a numeric literal, preserved as written.
type Number struct {
	Text string
}

// String is a string literal without its quotes, escapes verbatim.
type String struct {
	Text string
}

// Boolean is a true/false literal.
type Boolean struct {
	Value bool
}

func (*Fact) clauseNode()    {}
func (*Expr) clauseNode()    {}
func (*Binding) clauseNode() {}

func (*Id) valueNode()        {}
func (*Expr) valueNode()      {}
func (*Aggregate) valueNode() {}
func (*Number) valueNode()    {}
func (*String) valueNode()    {}
func (*Boolean) valueNode()   {}

func (*Number) literalNode()  {}
func (*String) literalNode()  {}
func (*Boolean) literalNode() {}

// String renders the fact in surface syntax with canonical field order.
func (f *Fact) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString("(")
	for i, field := range f.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(f.Props[field].String())
	}
	b.WriteString(")")
	return b.String()
}

func (b *Binding) String() string {
	return b.Name + " = " + b.Value.String()
}

func (i *Id) String() string { return i.Name }

func (e *Expr) String() string { return "`" + e.Source + "`" }

func (a *Aggregate) String() string {
	var b strings.Builder
	b.WriteString(a.Operator)
	b.WriteString("[")
	b.WriteString(a.Value.String())
	b.WriteString("] { ")
	for i, clause := range a.Subquery {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(clause.String())
	}
	b.WriteString(" }")
	return b.String()
}

func (n *Number) String() string  { return n.Text }
func (s *String) String() string  { return "\"" + s.Text + "\"" }
func (bl *Boolean) String() string {
	if bl.Value {
		return "true"
	}
	return "false"
}

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Goal.String())
	if len(r.Clauses) > 0 {
		b.WriteString(" :- ")
		for i, clause := range r.Clauses {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(clause.String())
		}
	}
	b.WriteString(".")
	return b.String()
}

func (p *Program) String() string {
	var b strings.Builder
	for _, imp := range p.Imports {
		b.WriteString("import ")
		b.WriteString(imp.Name)
		b.WriteString(" from \"")
		b.WriteString(imp.URI)
		b.WriteString("\"\n")
	}
	for _, rule := range p.Rules {
		b.WriteString(rule.String())
		b.WriteString("\n")
	}
	return b.String()
}
