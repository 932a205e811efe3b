package ast

import (
	"github.com/lume-lang/lume/internal/token"
)

// IdentifierPattern binds the matched value to a name.
type IdentifierPattern struct {
	Token token.Token
	Name  *Identifier
}

func (ip *IdentifierPattern) patternNode()          {}
func (ip *IdentifierPattern) TokenLiteral() string  { return ip.Token.Lexeme }
func (ip *IdentifierPattern) GetToken() token.Token { return ip.Token }

// WildcardPattern matches anything and binds nothing.
type WildcardPattern struct {
	Token token.Token // The '_' token
}

func (wp *WildcardPattern) patternNode()          {}
func (wp *WildcardPattern) TokenLiteral() string  { return wp.Token.Lexeme }
func (wp *WildcardPattern) GetToken() token.Token { return wp.Token }

// LiteralPattern matches an exact literal value.
type LiteralPattern struct {
	Token   token.Token
	Literal Expression // IntegerLiteral, FloatLiteral, BooleanLiteral, StringLiteral or UnitLiteral
}

func (lp *LiteralPattern) patternNode()          {}
func (lp *LiteralPattern) TokenLiteral() string  { return lp.Token.Lexeme }
func (lp *LiteralPattern) GetToken() token.Token { return lp.Token }

// TuplePattern destructures a tuple positionally.
type TuplePattern struct {
	Token    token.Token // The '(' token
	Elements []Pattern
}

func (tp *TuplePattern) patternNode()          {}
func (tp *TuplePattern) TokenLiteral() string  { return tp.Token.Lexeme }
func (tp *TuplePattern) GetToken() token.Token { return tp.Token }

// ConstructorPattern matches one variant case and destructures its payload.
// Cons(head, tail)
type ConstructorPattern struct {
	Token token.Token
	Name  *Identifier
	Args  []Pattern
}

func (cp *ConstructorPattern) patternNode()          {}
func (cp *ConstructorPattern) TokenLiteral() string  { return cp.Token.Lexeme }
func (cp *ConstructorPattern) GetToken() token.Token { return cp.Token }
