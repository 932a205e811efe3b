// Package token defines source positions attached to AST nodes and
// diagnostics. The lexer/parser (external to this module) is expected to
// stamp every node with a Token.
package token

import "fmt"

// Token is the minimal source anchor carried by AST nodes.
// Lexeme holds the source text of the anchoring token (an identifier,
// keyword or literal) and is used only for presentation.
type Token struct {
	File   string
	Line   int // 1-based
	Column int // 1-based
	Lexeme string
}

// Pos renders the position as file:line:col (or line:col without a file).
func (t Token) Pos() string {
	if t.File != "" {
		return fmt.Sprintf("%s:%d:%d", t.File, t.Line, t.Column)
	}
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}

// IsValid reports whether the token carries real location info.
// Synthesized nodes (injected by the checker) have zero tokens.
func (t Token) IsValid() bool {
	return t.Line > 0 && t.Column > 0
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return fmt.Sprintf("%s (%s)", t.Lexeme, t.Pos())
	}
	return t.Pos()
}
