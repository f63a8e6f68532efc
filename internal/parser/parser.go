// Package parser implements the syntactic analysis stage for Percival.
//
// Key patterns:
//   - Token navigation through an immutable TokenCursor
//   - Diagnostics accumulate; the parser never stops at the first error
//   - Error recovery: synchronize() skips to the `.` rule sentinel so the
//     rest of the program still parses
//   - Lexer errors are folded into the diagnostic list by Diagnostics()
package parser

import (
	"sort"

	"github.com/percival-lang/percival-go/internal/ast"
	"github.com/percival-lang/percival-go/internal/lexer"
)

// Parser consumes the token stream and produces an ast.Program.
type Parser struct {
	l      *lexer.Lexer
	cursor *TokenCursor
	diags  []*Diagnostic
}

// New creates a new Parser reading from the given lexer.
func New(l *lexer.Lexer) *Parser {
	return &Parser{
		l:      l,
		cursor: NewTokenCursor(l),
	}
}

// Diagnostics returns lexical and syntactic diagnostics in source order.
// Only the first unexpected-token diagnostic is kept: subsequent ones are
// cascades of the same resynchronization and would point the user away
// from the real mistake. Unclosed-delimiter and language-rule
// diagnostics always surface.
func (p *Parser) Diagnostics() []*Diagnostic {
	all := make([]*Diagnostic, 0, len(p.diags)+len(p.l.Errors()))
	for _, err := range p.l.Errors() {
		all = append(all, fromLexerError(err))
	}
	all = append(all, p.diags...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Span.Start < all[j].Span.Start
	})

	out := make([]*Diagnostic, 0, len(all))
	seenUnexpected := false
	for _, d := range all {
		if d.Reason == ReasonUnexpected {
			if seenUnexpected {
				continue
			}
			seenUnexpected = true
		}
		out = append(out, d)
	}
	return out
}

// advance moves the cursor to the next token.
func (p *Parser) advance() {
	p.cursor = p.cursor.Advance()
}

// report records a diagnostic.
func (p *Parser) report(d *Diagnostic) {
	p.diags = append(p.diags, d)
}

// unexpected records an unexpected-token diagnostic at the current token.
func (p *Parser) unexpected(expected ...string) {
	p.report(newUnexpected(p.cursor.Current(), expected...))
}

// synchronize advances to a safe point after an error: the `.` sentinel
// that terminates every rule. The sentinel is consumed so parsing resumes
// at the start of the next rule or import.
func (p *Parser) synchronize() {
	for !p.cursor.IsEOF() && !p.cursor.Is(lexer.DOT) {
		p.advance()
	}
	if p.cursor.Is(lexer.DOT) {
		p.advance()
	}
}

// ParseProgram parses the entire input and returns the best-effort AST.
// Check Diagnostics() afterward; a program that produced diagnostics must
// not be compiled.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}

	for !p.cursor.IsEOF() {
		if p.atImport() {
			if imp := p.parseImport(); imp != nil {
				prog.Imports = append(prog.Imports, imp)
			} else {
				p.synchronize()
			}
			continue
		}

		rule, ok := p.parseRule()
		if rule != nil {
			prog.Rules = append(prog.Rules, rule)
		}
		if !ok {
			p.synchronize()
		}
	}

	return prog
}

// atImport detects the contextual `import NAME from "URI"` form. The
// keyword is identified by identifier text, so `import(...)` and
// `importa(...)` remain ordinary facts.
func (p *Parser) atImport() bool {
	cur := p.cursor.Current()
	return cur.Type == lexer.IDENT && cur.Literal == "import" && !p.cursor.PeekIs(1, lexer.LPAREN)
}

// parseImport parses `import NAME from "URI"`. Returns nil on error.
func (p *Parser) parseImport() *ast.Import {
	p.advance() // the import keyword

	nameTok := p.cursor.Current()
	if nameTok.Type != lexer.IDENT {
		p.unexpected("identifier")
		return nil
	}
	p.advance()

	fromTok := p.cursor.Current()
	if fromTok.Type != lexer.IDENT || fromTok.Literal != "from" {
		p.unexpected("from")
		return nil
	}
	p.advance()

	uriTok := p.cursor.Current()
	if uriTok.Type != lexer.STRING {
		p.unexpected("string")
		return nil
	}
	p.advance()

	return &ast.Import{Name: nameTok.Literal, URI: uriTok.Literal}
}

// parseRule parses `fact.` or `fact :- clauses.`. The second return value
// is false when the caller should resynchronize.
func (p *Parser) parseRule() (*ast.Rule, bool) {
	goal, ok := p.parseFact()
	if !ok {
		return nil, false
	}

	switch {
	case p.cursor.Is(lexer.DOT):
		p.advance()
		return &ast.Rule{Goal: goal}, true

	case p.cursor.Is(lexer.DEFINE):
		defTok := p.cursor.Current()
		p.advance()

		if p.cursor.Is(lexer.DOT) {
			dotTok := p.cursor.Current()
			p.report(newCustom(
				lexer.Span{Start: defTok.Pos.Offset, End: dotTok.End},
				defTok.Pos,
				"Rule needs at least one clause",
			))
			p.advance()
			return nil, true
		}

		clauses, ok := p.parseClauses()
		if !ok {
			return nil, false
		}
		if !p.cursor.Is(lexer.DOT) {
			p.unexpected(",", ".")
			return nil, false
		}
		p.advance()
		return &ast.Rule{Goal: goal, Clauses: clauses}, true

	default:
		p.unexpected(":-", ".")
		return nil, false
	}
}

// parseClauses parses a comma-separated clause list, at least one clause.
// The terminator (`.` or `}`) is left for the caller.
func (p *Parser) parseClauses() ([]ast.Clause, bool) {
	var clauses []ast.Clause
	for {
		clause, ok := p.parseClause()
		if !ok {
			return nil, false
		}
		clauses = append(clauses, clause)
		if p.cursor.Is(lexer.COMMA) {
			p.advance()
			continue
		}
		return clauses, true
	}
}

// parseClause parses a fact pattern, a raw host expression, or a binding.
func (p *Parser) parseClause() (ast.Clause, bool) {
	tok := p.cursor.Current()
	switch tok.Type {
	case lexer.EXPR:
		p.advance()
		return &ast.Expr{Source: tok.Literal}, true

	case lexer.IDENT:
		if p.cursor.PeekIs(1, lexer.LPAREN) {
			return p.parseFact()
		}
		if p.cursor.PeekIs(1, lexer.EQ) {
			if isReservedWord(tok.Literal) {
				p.report(newCustom(tok.Span(), tok.Pos,
					"Cannot use reserved word as a variable binding"))
			}
			p.advance() // name
			p.advance() // =
			value, ok := p.parseValue()
			if !ok {
				return nil, false
			}
			return &ast.Binding{Name: tok.Literal, Value: value}, true
		}
		p.report(newUnexpected(p.cursor.Peek(1), "(", "="))
		return nil, false

	default:
		p.unexpected("fact", "host expression", "binding")
		return nil, false
	}
}

// parseFact parses `IDENT ( props? )`.
func (p *Parser) parseFact() (*ast.Fact, bool) {
	nameTok := p.cursor.Current()
	if nameTok.Type != lexer.IDENT {
		p.unexpected("identifier")
		return nil, false
	}
	p.advance()

	if !p.cursor.Is(lexer.LPAREN) {
		p.unexpected("(")
		return nil, false
	}
	lparenTok := p.cursor.Current()
	p.advance()

	props := make(map[string]ast.Value)
	if p.cursor.Is(lexer.RPAREN) {
		p.advance()
		return &ast.Fact{Name: nameTok.Literal, Props: props}, true
	}

	for {
		if p.cursor.IsEOF() {
			p.report(newUnclosed(lparenTok.Span(), lparenTok.Pos, ")"))
			return nil, false
		}
		if !p.parseProp(props) {
			return nil, false
		}
		if p.cursor.Is(lexer.COMMA) {
			p.advance()
			continue
		}
		if p.cursor.Is(lexer.RPAREN) {
			p.advance()
			return &ast.Fact{Name: nameTok.Literal, Props: props}, true
		}
		if p.cursor.IsEOF() {
			p.report(newUnclosed(lparenTok.Span(), lparenTok.Pos, ")"))
			return nil, false
		}
		p.unexpected(",", ")")
		return nil, false
	}
}

// parseProp parses `IDENT` or `IDENT : value` into props. The shorthand
// `x` desugars to `x: x`. Reserved words may name a field but never bind
// a variable, so an Id-valued prop is checked here.
func (p *Parser) parseProp(props map[string]ast.Value) bool {
	nameTok := p.cursor.Current()
	if nameTok.Type != lexer.IDENT {
		p.unexpected("identifier", ")")
		return false
	}
	p.advance()

	var value ast.Value
	valueTok := nameTok
	if p.cursor.Is(lexer.COLON) {
		p.advance()
		valueTok = p.cursor.Current()
		v, ok := p.parseValue()
		if !ok {
			return false
		}
		value = v
	} else {
		value = &ast.Id{Name: nameTok.Literal}
	}

	if id, ok := value.(*ast.Id); ok && isReservedWord(id.Name) {
		p.report(newCustom(valueTok.Span(), valueTok.Pos,
			"Cannot use reserved word as a variable binding"))
	}

	props[nameTok.Literal] = value
	return true
}

// parseValue parses a literal, host expression, aggregate, or identifier.
func (p *Parser) parseValue() (ast.Value, bool) {
	tok := p.cursor.Current()
	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		return &ast.Number{Text: tok.Literal}, true

	case lexer.STRING:
		p.advance()
		return &ast.String{Text: tok.Literal}, true

	case lexer.EXPR:
		p.advance()
		return &ast.Expr{Source: tok.Literal}, true

	case lexer.IDENT:
		switch tok.Literal {
		case "true":
			p.advance()
			return &ast.Boolean{Value: true}, true
		case "false":
			p.advance()
			return &ast.Boolean{Value: false}, true
		}
		if p.cursor.PeekIs(1, lexer.LBRACK) {
			return p.parseAggregate()
		}
		p.advance()
		return &ast.Id{Name: tok.Literal}, true

	default:
		p.unexpected("value")
		return nil, false
	}
}

// parseAggregate parses `IDENT [ value ] { clauses }`.
func (p *Parser) parseAggregate() (ast.Value, bool) {
	opTok := p.cursor.Current()
	p.advance()

	lbrackTok := p.cursor.Current()
	p.advance() // [

	value, ok := p.parseValue()
	if !ok {
		return nil, false
	}
	if !p.cursor.Is(lexer.RBRACK) {
		if p.cursor.IsEOF() {
			p.report(newUnclosed(lbrackTok.Span(), lbrackTok.Pos, "]"))
		} else {
			p.unexpected("]")
		}
		return nil, false
	}
	p.advance()

	if !p.cursor.Is(lexer.LBRACE) {
		p.unexpected("{")
		return nil, false
	}
	lbraceTok := p.cursor.Current()
	p.advance()

	subquery, ok := p.parseClauses()
	if !ok {
		return nil, false
	}
	if !p.cursor.Is(lexer.RBRACE) {
		if p.cursor.IsEOF() {
			p.report(newUnclosed(lbraceTok.Span(), lbraceTok.Pos, "}"))
		} else {
			p.unexpected(",", "}")
		}
		return nil, false
	}
	p.advance()

	return &ast.Aggregate{
		Operator: opTok.Literal,
		Value:    value,
		Subquery: subquery,
	}, true
}
