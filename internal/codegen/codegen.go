// Package codegen emits a JavaScript function body that evaluates a
// Percival program with semi-naive bottom-up fixpoint iteration.
//
// The emitted body is bound by the runtime to an async function receiving
// `__percival_deps`; it relies on the `__percival.Immutable`,
// `__percival.load`, and `__percival.aggregates` namespaces supplied by
// the host. Compilation is purely functional over the AST: the same
// program always produces byte-identical output.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/percival-lang/percival-go/internal/ast"
)

const (
	internalPrefix = "__percival"

	varDeps      = "__percival_deps"
	varImports   = "__percival_imports"
	varImmutable = "__percival.Immutable"
	varLoad      = "__percival.load"
	varFirstIter = "__percival_first_iteration"
)

// Compile generates a JavaScript function body evaluating the program.
// It fails fast: the first error aborts and is returned alone.
func Compile(prog *ast.Program) (string, error) {
	c, err := newCompiler(prog)
	if err != nil {
		return "", err
	}

	sections := make([]string, 0, 4)
	if preamble := c.compileImports(); preamble != "" {
		sections = append(sections, preamble)
	}
	decls, err := c.compileDecls()
	if err != nil {
		return "", err
	}
	if decls != "" {
		sections = append(sections, decls)
	}
	mainLoop, err := c.compileMainLoop()
	if err != nil {
		return "", err
	}
	sections = append(sections, mainLoop)
	output, err := c.compileOutput()
	if err != nil {
		return "", err
	}
	sections = append(sections, output)

	return strings.Join(sections, "\n"), nil
}

// compiler holds the per-invocation compilation state: the program, its
// analyses, the synthesized indices, and the global naming context.
type compiler struct {
	prog       *ast.Program
	results    map[string]bool
	importURLs map[string]string
	indices    []Index
	ctx        *context
}

func newCompiler(prog *ast.Program) (*compiler, error) {
	c := &compiler{
		prog:       prog,
		results:    nameSet(prog.Results()),
		importURLs: make(map[string]string, len(prog.Imports)),
		indices:    makeIndices(prog),
		ctx:        newContext(),
	}

	for _, imp := range prog.Imports {
		if _, ok := c.importURLs[imp.Name]; ok {
			return nil, newError(ErrDuplicateImport,
				"duplicate import of relation %q", imp.Name)
		}
		if c.results[imp.Name] {
			return nil, newError(ErrGoalImportConflict,
				"relation %q is both imported and derived by a rule", imp.Name)
		}
		url, err := importURL(imp.URI)
		if err != nil {
			return nil, err
		}
		c.importURLs[imp.Name] = url
	}

	c.makeGlobalContext()
	return c, nil
}

// makeGlobalContext allocates the relation-level JavaScript identifiers:
// a set per import and dependency, a set and an update per result, and an
// index (plus an index update for derived relations) per synthesized
// index. All traversals are in canonical order so identifiers are stable.
func (c *compiler) makeGlobalContext() {
	for _, name := range c.prog.ImportNames() {
		c.ctx.add(setID(name), c.ctx.gensym(name))
	}
	for _, name := range c.prog.Deps() {
		c.ctx.add(setID(name), c.ctx.gensym(name))
	}
	for _, name := range c.prog.Results() {
		c.ctx.add(setID(name), c.ctx.gensym(name))
		c.ctx.add(updateID(name), c.ctx.gensym(name+"_update"))
	}
	for _, ix := range c.indices {
		c.ctx.add(indexID(ix), c.ctx.gensym(ix.Name+"_index"))
		if c.results[ix.Name] {
			c.ctx.add(indexUpdateID(ix), c.ctx.gensym(ix.Name+"_index_update"))
		}
	}
}

// compileImports emits the preamble that resolves external data before
// the fixpoint loop runs. Returns "" when the program imports nothing.
func (c *compiler) compileImports() string {
	if len(c.prog.Imports) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("const " + varImports + " = {\n")
	for _, name := range c.prog.ImportNames() {
		url := c.importURLs[name]
		fmt.Fprintf(&b, "%s: await %s(%q),\n", name, varLoad, url)
	}
	b.WriteString("};")
	return b.String()
}

// compileDecls emits the relation set and index declarations. Import and
// dependency sets are populated up front by wrapping each incoming tuple
// in an immutable map; their indices are built once here. Result sets,
// updates, and indices start empty and grow inside the loop.
func (c *compiler) compileDecls() (string, error) {
	var decls []string

	for _, name := range c.prog.ImportNames() {
		setName, err := c.ctx.lookup(setID(name))
		if err != nil {
			return "", err
		}
		decls = append(decls, c.inputSetDecl(setName, varImports+"."+name))
	}
	for _, name := range c.prog.Deps() {
		setName, err := c.ctx.lookup(setID(name))
		if err != nil {
			return "", err
		}
		decls = append(decls, c.inputSetDecl(setName, varDeps+"."+name))
	}
	for _, name := range c.prog.Results() {
		setName, err := c.ctx.lookup(setID(name))
		if err != nil {
			return "", err
		}
		updateName, err := c.ctx.lookup(updateID(name))
		if err != nil {
			return "", err
		}
		decls = append(decls, fmt.Sprintf("let %s = %s.Set();", setName, varImmutable))
		decls = append(decls, fmt.Sprintf("let %s = %s.Set();", updateName, varImmutable))
	}

	for _, ix := range c.indices {
		indexName, err := c.ctx.lookup(indexID(ix))
		if err != nil {
			return "", err
		}
		decls = append(decls, fmt.Sprintf("let %s = %s.Map();", indexName, varImmutable))
		if c.results[ix.Name] {
			continue
		}
		// Static inputs: build the index at declaration time.
		setName, err := c.ctx.lookup(setID(ix.Name))
		if err != nil {
			return "", err
		}
		key := compileObject(ix.Bound, func(field string) (string, error) {
			return fmt.Sprintf("obj.get('%s')", field), nil
		})
		init := fmt.Sprintf(`%[1]s = %[1]s.withMutations(%[1]s => {
for (const obj of %[2]s) {
%[1]s.update(%[3]s.Map(%[4]s), value => {
if (value === undefined) value = [];
value.push(obj);
return value;
});
}
});`, indexName, setName, varImmutable, key)
		decls = append(decls, init)
	}

	return strings.Join(decls, "\n"), nil
}

// inputSetDecl wraps an iterable of plain tuples into an immutable set of
// immutable maps.
func (c *compiler) inputSetDecl(setName, source string) string {
	return fmt.Sprintf(`let %[1]s = %[2]s.Set().withMutations(%[1]s => {
for (const obj of %[3]s) {
%[1]s.add(%[2]s.Map(obj));
}
});`, setName, varImmutable, source)
}

// compileMainLoop emits the semi-naive fixpoint loop.
func (c *compiler) compileMainLoop() (string, error) {
	updates, err := c.compileUpdates()
	if err != nil {
		return "", err
	}
	ruleCtx, newDecls, err := c.compileNewDecls()
	if err != nil {
		return "", err
	}
	rules, err := c.compileRules(ruleCtx)
	if err != nil {
		return "", err
	}
	setUpdateToNew, err := c.compileSetUpdateToNew(ruleCtx)
	if err != nil {
		return "", err
	}

	var noUpdates strings.Builder
	for _, name := range c.prog.Results() {
		updateName, err := c.ctx.lookup(updateID(name))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&noUpdates, "%s.size === 0 && ", updateName)
	}
	noUpdates.WriteString("true")

	body := joinNonEmpty("\n", updates, newDecls, rules, setUpdateToNew)
	mainLoop := fmt.Sprintf(`let %[1]s = true;
while (%[1]s || !(%[2]s)) {
%[3]s
%[1]s = false;
}`, varFirstIter, noUpdates.String(), body)
	return mainLoop, nil
}

// compileUpdates merges the previous iteration's deltas into the full
// sets and indices, and rebuilds each derived relation's delta index.
func (c *compiler) compileUpdates() (string, error) {
	var updates []string

	for _, name := range c.prog.Results() {
		setName, err := c.ctx.lookup(setID(name))
		if err != nil {
			return "", err
		}
		updateName, err := c.ctx.lookup(updateID(name))
		if err != nil {
			return "", err
		}
		updates = append(updates, fmt.Sprintf("%[1]s = %[1]s.merge(%[2]s);", setName, updateName))
	}

	for _, ix := range c.indices {
		if !c.results[ix.Name] {
			continue
		}
		indexName, err := c.ctx.lookup(indexID(ix))
		if err != nil {
			return "", err
		}
		indexUpdateName, err := c.ctx.lookup(indexUpdateID(ix))
		if err != nil {
			return "", err
		}
		updateName, err := c.ctx.lookup(updateID(ix.Name))
		if err != nil {
			return "", err
		}
		key := compileObject(ix.Bound, func(field string) (string, error) {
			return fmt.Sprintf("obj.get('%s')", field), nil
		})
		code := fmt.Sprintf(`%[1]s = %[1]s.asMutable();
let %[2]s = %[3]s.Map().asMutable();
for (const obj of %[4]s) {
const key = %[3]s.Map(%[5]s);
%[1]s.update(key, value => {
if (value === undefined) value = [];
value.push(obj);
return value;
});
%[2]s.update(key, value => {
if (value === undefined) value = [];
value.push(obj);
return value;
});
}
%[1]s = %[1]s.asImmutable();
%[2]s = %[2]s.asImmutable();`, indexName, indexUpdateName, varImmutable, updateName, key)
		updates = append(updates, code)
	}

	return strings.Join(updates, "\n"), nil
}

// compileNewDecls allocates the per-iteration accumulators of newly
// derived tuples, returning the extended context used by rule bodies.
func (c *compiler) compileNewDecls() (*context, string, error) {
	ctx := c.ctx.clone()
	var decls []string
	for _, name := range c.prog.Results() {
		newName := ctx.gensym(name + "_new")
		decls = append(decls, fmt.Sprintf("let %s = %s.Set().asMutable();", newName, varImmutable))
		ctx.add(newID(name), newName)
	}
	return ctx, strings.Join(decls, "\n"), nil
}

// compileSetUpdateToNew publishes each accumulator as the next delta.
func (c *compiler) compileSetUpdateToNew(ctx *context) (string, error) {
	var setters []string
	for _, name := range c.prog.Results() {
		updateName, err := ctx.lookup(updateID(name))
		if err != nil {
			return "", err
		}
		newName, err := ctx.lookup(newID(name))
		if err != nil {
			return "", err
		}
		setters = append(setters, fmt.Sprintf("%s = %s.asImmutable();", updateName, newName))
	}
	return strings.Join(setters, "\n"), nil
}

// compileOutput returns the plain snapshot of every result and import.
func (c *compiler) compileOutput() (string, error) {
	names := append(c.prog.Results(), c.prog.ImportNames()...)
	sort.Strings(names)
	obj, err := compileObjectErr(names, func(name string) (string, error) {
		setName, err := c.ctx.lookup(setID(name))
		if err != nil {
			return "", err
		}
		return setName + ".toJS()", nil
	})
	if err != nil {
		return "", err
	}
	return "return " + obj + ";", nil
}

// compileObject renders {field: value, ...} preserving the given order.
func compileObject(fields []string, valueFn func(string) (string, error)) string {
	obj, _ := compileObjectErr(fields, valueFn)
	return obj
}

func compileObjectErr(fields []string, valueFn func(string) (string, error)) (string, error) {
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		value, err := valueFn(field)
		if err != nil {
			return "", err
		}
		parts = append(parts, field+": "+value)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func joinNonEmpty(sep string, parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, sep)
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
