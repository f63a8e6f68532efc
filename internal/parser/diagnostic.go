package parser

import (
	"fmt"
	"strings"

	"github.com/percival-lang/percival-go/internal/lexer"
)

// Reason categorizes a diagnostic for tooling integration. The renderer
// and external reporters dispatch on it; the message is already complete.
type Reason int

// Diagnostic reasons.
const (
	// ReasonUnexpected indicates a token that no grammar rule accepts at
	// its position. This covers unknown characters from the lexer too.
	ReasonUnexpected Reason = iota

	// ReasonUnclosed indicates a delimited region that was never closed.
	ReasonUnclosed

	// ReasonCustom carries a language-rule message, such as the
	// reserved-word restriction.
	ReasonCustom
)

// Diagnostic is a structured parse-phase error: a source span, a reason
// tag, a human-readable message, and optionally the offending token and
// the token set that was expected in its place.
type Diagnostic struct {
	Span      lexer.Span
	Pos       lexer.Position
	Reason    Reason
	Message   string
	Found     string   // rendering of the offending token, if any
	Expected  []string // for ReasonUnexpected
	Delimiter string   // for ReasonUnclosed
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s", d.Message, d.Pos)
}

// newUnexpected builds an unexpected-token diagnostic in the fixed
// message shape asserted by downstream reporters.
func newUnexpected(tok lexer.Token, expected ...string) *Diagnostic {
	msg := fmt.Sprintf("Unexpected token in input, expected %s", strings.Join(expected, " or "))
	if tok.Type != lexer.EOF {
		msg += fmt.Sprintf(", found %s", tok)
	}
	return &Diagnostic{
		Span:     tok.Span(),
		Pos:      tok.Pos,
		Reason:   ReasonUnexpected,
		Message:  msg,
		Found:    tok.String(),
		Expected: expected,
	}
}

// newUnclosed builds a diagnostic for a delimiter that was never closed.
func newUnclosed(span lexer.Span, pos lexer.Position, delimiter string) *Diagnostic {
	return &Diagnostic{
		Span:      span,
		Pos:       pos,
		Reason:    ReasonUnclosed,
		Message:   fmt.Sprintf("Unclosed delimiter, expected %s", delimiter),
		Delimiter: delimiter,
	}
}

// newCustom builds a diagnostic with a language-rule message.
func newCustom(span lexer.Span, pos lexer.Position, message string) *Diagnostic {
	return &Diagnostic{
		Span:    span,
		Pos:     pos,
		Reason:  ReasonCustom,
		Message: message,
	}
}

// fromLexerError folds a lexical error into the diagnostic model.
func fromLexerError(err *lexer.Error) *Diagnostic {
	switch err.Kind {
	case ErrKindUnclosedComment, ErrKindUnclosedString, ErrKindUnclosedExpr:
		delimiter := map[lexer.ErrorKind]string{
			ErrKindUnclosedComment: "*/",
			ErrKindUnclosedString:  `"`,
			ErrKindUnclosedExpr:    "`",
		}[err.Kind]
		return &Diagnostic{
			Span:      err.Span,
			Pos:       err.Pos,
			Reason:    ReasonUnclosed,
			Message:   err.Message,
			Delimiter: delimiter,
		}
	default:
		return &Diagnostic{
			Span:    err.Span,
			Pos:     err.Pos,
			Reason:  ReasonUnexpected,
			Message: err.Message,
		}
	}
}

// Aliases so the switch above reads in this package's vocabulary.
const (
	ErrKindUnclosedComment = lexer.ErrUnclosedComment
	ErrKindUnclosedString  = lexer.ErrUnclosedString
	ErrKindUnclosedExpr    = lexer.ErrUnclosedExpr
)
