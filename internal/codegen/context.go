package codegen

import (
	"fmt"
	"strings"

	"github.com/percival-lang/percival-go/internal/ast"
)

// Index describes an index on a subset of a relation's fields: a map from
// the bound-field projection of a tuple to the tuples agreeing on it.
type Index struct {
	// Name of the relation being indexed.
	Name string

	// Bound fields of the relation, in canonical sorted order.
	Bound []string
}

// signature is the deduplication and ordering key for an index.
func (ix Index) signature() string {
	return ix.Name + "(" + strings.Join(ix.Bound, ",") + ")"
}

// varKind discriminates the abstract identities tracked by the context.
type varKind int

const (
	// kindSet is the immutable set of tuples of a relation.
	kindSet varKind = iota
	// kindUpdate is the delta added in the previous iteration.
	kindUpdate
	// kindNew is the mutable accumulator for the current iteration.
	kindNew
	// kindIndex is the full index of a relation on a bound-field set.
	kindIndex
	// kindIndexUpdate is the incremental index over the last delta.
	kindIndexUpdate
	// kindVar is a local Datalog variable binding.
	kindVar
)

// varID is an abstract identity for a variable in the emitted program.
type varID struct {
	kind varKind
	name string // relation name, variable name, or index signature
}

func setID(name string) varID         { return varID{kindSet, name} }
func updateID(name string) varID      { return varID{kindUpdate, name} }
func newID(name string) varID         { return varID{kindNew, name} }
func localID(name string) varID       { return varID{kindVar, name} }
func indexID(ix Index) varID          { return varID{kindIndex, ix.signature()} }
func indexUpdateID(ix Index) varID    { return varID{kindIndexUpdate, ix.signature()} }

// context maps abstract identities to the JavaScript identifiers emitted
// for them. Entering a nested scope clones the map, so additions in an
// aggregate subquery or a rule variant never leak back out. The counter
// is shared across clones: emitted identifiers are unique per compilation.
type context struct {
	vars    map[varID]string
	counter *int
}

func newContext() *context {
	counter := 0
	return &context{
		vars:    make(map[varID]string),
		counter: &counter,
	}
}

// clone returns an independent copy sharing the gensym counter.
func (c *context) clone() *context {
	vars := make(map[varID]string, len(c.vars))
	for id, name := range c.vars {
		vars[id] = name
	}
	return &context{vars: vars, counter: c.counter}
}

// gensym produces a new, globally unique symbol for compilation.
func (c *context) gensym(slug string) string {
	n := *c.counter
	*c.counter++
	return fmt.Sprintf("%s_%s_%d", internalPrefix, slug, n)
}

// add records the JavaScript identifier for an identity. Callers check
// has() first where a duplicate is a user error.
func (c *context) add(id varID, jsName string) {
	c.vars[id] = jsName
}

// has reports whether the identity is already mapped.
func (c *context) has(id varID) bool {
	_, ok := c.vars[id]
	return ok
}

// lookup returns the JavaScript identifier for an identity.
func (c *context) lookup(id varID) (string, error) {
	name, ok := c.vars[id]
	if !ok {
		return "", newError(ErrUndefinedVariable,
			"could not find definition for %q in context", id.name)
	}
	return name, nil
}

// isBound reports whether a fact value is bound in the current context.
// Literals, host expressions, and aggregates are always bound; an
// identifier is bound when a preceding clause constrained it.
func (c *context) isBound(value ast.Value) bool {
	if id, ok := value.(*ast.Id); ok {
		return c.has(localID(id.Name))
	}
	return true
}
