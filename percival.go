// Package percival is the compiler core for the Percival language, a
// Datalog dialect whose programs compile to JavaScript function bodies
// performing bottom-up semi-naive fixpoint evaluation.
//
// The two entry points mirror the compilation pipeline: Parse turns
// source text into an AST or a list of diagnostics, and Compile turns an
// AST into the emitted JavaScript. Both are pure functions; concurrent
// calls on distinct inputs are safe.
package percival

import (
	"github.com/percival-lang/percival-go/internal/ast"
	"github.com/percival-lang/percival-go/internal/codegen"
	"github.com/percival-lang/percival-go/internal/lexer"
	"github.com/percival-lang/percival-go/internal/parser"
)

// Parse runs lexical and syntactic analysis on a source string. It
// returns the program, or nil and the accumulated diagnostics when the
// source has lexical or syntax errors.
func Parse(src string) (*ast.Program, []*parser.Diagnostic) {
	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	if diags := p.Diagnostics(); len(diags) > 0 {
		return nil, diags
	}
	return prog, nil
}

// Compile generates a JavaScript function body that evaluates the
// program. The error, if any, is a *codegen.Error carrying the kind of
// the first failure.
func Compile(prog *ast.Program) (string, error) {
	return codegen.Compile(prog)
}
