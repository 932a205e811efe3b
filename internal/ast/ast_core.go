package ast

import (
	"github.com/lume-lang/lume/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its
// primary token. This is what error reporting hangs positions on.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Pattern is a Node that can appear on the left of a match arm or binder.
type Pattern interface {
	Node
	patternNode()
}

// Item is a top-level declaration in a module.
type Item interface {
	Node
	itemNode()
}

// Module is the root node of every program the checker sees.
type Module struct {
	File  string
	Items []Item
}

func (m *Module) TokenLiteral() string {
	if len(m.Items) > 0 {
		return m.Items[0].TokenLiteral()
	}
	return ""
}

func (m *Module) GetToken() token.Token {
	if m == nil || len(m.Items) == 0 {
		return token.Token{}
	}
	return m.Items[0].GetToken()
}

// LetDefinition is a top-level binding.
// let name = expr or let name : Type = expr
type LetDefinition struct {
	Token          token.Token // The 'let' token
	Name           *Identifier
	TypeAnnotation TypeExpr // Optional
	Value          Expression
}

func (ld *LetDefinition) itemNode()            {}
func (ld *LetDefinition) TokenLiteral() string { return ld.Token.Lexeme }
func (ld *LetDefinition) GetToken() token.Token {
	if ld == nil {
		return token.Token{}
	}
	return ld.Token
}

// EffectDeclaration introduces an effect and its operation signatures.
// effect State { get : () -> Int, put : (Int) -> () }
type EffectDeclaration struct {
	Token      token.Token // The 'effect' token
	Name       *Identifier
	Operations []*OperationDecl
}

// OperationDecl is one operation signature inside an effect declaration.
type OperationDecl struct {
	Token  token.Token
	Name   *Identifier
	Params []TypeExpr
	Return TypeExpr
}

func (ed *EffectDeclaration) itemNode()            {}
func (ed *EffectDeclaration) TokenLiteral() string { return ed.Token.Lexeme }
func (ed *EffectDeclaration) GetToken() token.Token {
	if ed == nil {
		return token.Token{}
	}
	return ed.Token
}

func (od *OperationDecl) GetToken() token.Token {
	if od == nil {
		return token.Token{}
	}
	return od.Token
}

// TypeDeclaration binds a name to a type expression, possibly recursive.
// type IntList = rec l. <Nil | Cons Int l>
type TypeDeclaration struct {
	Token token.Token // The 'type' token
	Name  *Identifier
	Body  TypeExpr
}

func (td *TypeDeclaration) itemNode()            {}
func (td *TypeDeclaration) TokenLiteral() string { return td.Token.Lexeme }
func (td *TypeDeclaration) GetToken() token.Token {
	if td == nil {
		return token.Token{}
	}
	return td.Token
}

// ExpressionItem is a bare top-level expression, checked for its effects.
type ExpressionItem struct {
	Token      token.Token
	Expression Expression
}

func (ei *ExpressionItem) itemNode()            {}
func (ei *ExpressionItem) TokenLiteral() string { return ei.Token.Lexeme }
func (ei *ExpressionItem) GetToken() token.Token {
	if ei == nil {
		return token.Token{}
	}
	return ei.Token
}
