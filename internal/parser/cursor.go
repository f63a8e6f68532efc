package parser

import (
	"github.com/percival-lang/percival-go/internal/lexer"
)

// TokenCursor provides an immutable cursor abstraction over the token
// stream. All operations return new cursor instances; the underlying
// token buffer is shared and grows lazily as lookahead is requested.
type TokenCursor struct {
	lexer   *lexer.Lexer
	current lexer.Token
	tokens  []lexer.Token
	index   int
}

// NewTokenCursor creates a cursor positioned at the first token.
func NewTokenCursor(l *lexer.Lexer) *TokenCursor {
	firstToken := l.NextToken()
	tokens := make([]lexer.Token, 1, 32)
	tokens[0] = firstToken
	return &TokenCursor{
		lexer:   l,
		current: firstToken,
		tokens:  tokens,
		index:   0,
	}
}

// Current returns the token at the current cursor position.
func (c *TokenCursor) Current() lexer.Token {
	return c.current
}

// Peek returns the token n positions ahead; Peek(0) is the current token.
// Tokens are buffered as needed, never reading past EOF.
func (c *TokenCursor) Peek(n int) lexer.Token {
	if n < 0 {
		return c.current
	}
	targetIndex := c.index + n
	for targetIndex >= len(c.tokens) {
		last := c.tokens[len(c.tokens)-1]
		if last.Type == lexer.EOF {
			return last
		}
		c.tokens = append(c.tokens, c.lexer.NextToken())
	}
	return c.tokens[targetIndex]
}

// Advance returns a new cursor positioned at the next token.
func (c *TokenCursor) Advance() *TokenCursor {
	c.Peek(1)
	newIndex := c.index + 1
	if newIndex >= len(c.tokens) {
		newIndex = len(c.tokens) - 1
	}
	return &TokenCursor{
		lexer:   c.lexer,
		current: c.tokens[newIndex],
		tokens:  c.tokens,
		index:   newIndex,
	}
}

// Is checks if the current token is of the given type.
func (c *TokenCursor) Is(t lexer.TokenType) bool {
	return c.current.Type == t
}

// PeekIs checks if the token n positions ahead is of the given type.
func (c *TokenCursor) PeekIs(n int, t lexer.TokenType) bool {
	return c.Peek(n).Type == t
}

// IsEOF checks if the current token is EOF.
func (c *TokenCursor) IsEOF() bool {
	return c.current.Type == lexer.EOF
}
