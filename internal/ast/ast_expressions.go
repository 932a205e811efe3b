package ast

import (
	"github.com/lume-lang/lume/internal/token"
)

// Identifier is a variable reference.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }

// IntegerLiteral, e.g. 42
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()       {}
func (il *IntegerLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token { return il.Token }

// FloatLiteral, e.g. 3.14
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }

// BooleanLiteral, e.g. true
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()       {}
func (bl *BooleanLiteral) TokenLiteral() string  { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token { return bl.Token }

// StringLiteral, e.g. "hello"
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

// UnitLiteral, written ()
type UnitLiteral struct {
	Token token.Token
}

func (ul *UnitLiteral) expressionNode()       {}
func (ul *UnitLiteral) TokenLiteral() string  { return ul.Token.Lexeme }
func (ul *UnitLiteral) GetToken() token.Token { return ul.Token }

// Parameter is a lambda parameter, optionally annotated.
type Parameter struct {
	Token          token.Token
	Name           *Identifier
	TypeAnnotation TypeExpr // Optional
}

func (p *Parameter) GetToken() token.Token {
	if p == nil {
		return token.Token{}
	}
	return p.Token
}

// LambdaExpression is an anonymous function.
// fn x -> body or fn (x: Int, y) -> body
type LambdaExpression struct {
	Token      token.Token // The 'fn' token
	Parameters []*Parameter
	Body       Expression
}

func (le *LambdaExpression) expressionNode()       {}
func (le *LambdaExpression) TokenLiteral() string  { return le.Token.Lexeme }
func (le *LambdaExpression) GetToken() token.Token { return le.Token }

// CallExpression applies a function to arguments.
type CallExpression struct {
	Token     token.Token // The '(' token
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

// LetExpression is a local binding.
// let x = e1 in e2
// The binder is a pattern: plain names generalize, destructuring forms
// (let (a, b) = pair in e) bind monomorphically.
type LetExpression struct {
	Token          token.Token // The 'let' token
	Binder         Pattern
	TypeAnnotation TypeExpr // Optional
	Value          Expression
	Body           Expression
	Recursive      bool // let rec, binder must be a plain name
}

func (le *LetExpression) expressionNode()       {}
func (le *LetExpression) TokenLiteral() string  { return le.Token.Lexeme }
func (le *LetExpression) GetToken() token.Token { return le.Token }

// IfExpression. Both branches are required; the whole form is an expression.
type IfExpression struct {
	Token       token.Token // The 'if' token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (ie *IfExpression) expressionNode()       {}
func (ie *IfExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IfExpression) GetToken() token.Token { return ie.Token }

// MatchArm is one case of a match expression.
type MatchArm struct {
	Token   token.Token
	Pattern Pattern
	Body    Expression
}

func (ma *MatchArm) GetToken() token.Token {
	if ma == nil {
		return token.Token{}
	}
	return ma.Token
}

// MatchExpression scrutinizes a value against patterns.
type MatchExpression struct {
	Token     token.Token // The 'match' token
	Scrutinee Expression
	Arms      []*MatchArm
}

func (me *MatchExpression) expressionNode()       {}
func (me *MatchExpression) TokenLiteral() string  { return me.Token.Lexeme }
func (me *MatchExpression) GetToken() token.Token { return me.Token }

// PerformExpression invokes an effect operation.
// perform State.put(42)
type PerformExpression struct {
	Token     token.Token // The 'perform' token
	Effect    *Identifier
	Operation *Identifier
	Arguments []Expression
}

func (pe *PerformExpression) expressionNode()       {}
func (pe *PerformExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PerformExpression) GetToken() token.Token { return pe.Token }

// HandlerClause handles one operation inside a handle expression.
// The resume identifier rebinds the continuation in the clause body.
type HandlerClause struct {
	Token     token.Token
	Operation *Identifier
	Params    []*Identifier
	Resume    *Identifier // Optional; nil when the clause never resumes
	Body      Expression
}

func (hc *HandlerClause) GetToken() token.Token {
	if hc == nil {
		return token.Token{}
	}
	return hc.Token
}

// ReturnClause transforms the handled computation's value.
type ReturnClause struct {
	Token token.Token
	Param *Identifier
	Body  Expression
}

func (rc *ReturnClause) GetToken() token.Token {
	if rc == nil {
		return token.Token{}
	}
	return rc.Token
}

// HandleExpression discharges an effect from a computation.
// handle e with State { get() resume -> ..., put(x) resume -> ..., return v -> ... }
type HandleExpression struct {
	Token    token.Token // The 'handle' token
	Body     Expression
	Effect   *Identifier
	Clauses  []*HandlerClause
	ReturnCl *ReturnClause // Optional
}

func (he *HandleExpression) expressionNode()       {}
func (he *HandleExpression) TokenLiteral() string  { return he.Token.Lexeme }
func (he *HandleExpression) GetToken() token.Token { return he.Token }

// FieldAccessExpression reads a record field.
type FieldAccessExpression struct {
	Token token.Token // The '.' token
	Left  Expression
	Field *Identifier
}

func (fa *FieldAccessExpression) expressionNode()       {}
func (fa *FieldAccessExpression) TokenLiteral() string  { return fa.Token.Lexeme }
func (fa *FieldAccessExpression) GetToken() token.Token { return fa.Token }

// AnnotatedExpression pins an expression to an explicit type.
// (e : Int)
type AnnotatedExpression struct {
	Token          token.Token // The ':' token
	Expression     Expression
	TypeAnnotation TypeExpr
}

func (ae *AnnotatedExpression) expressionNode()       {}
func (ae *AnnotatedExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *AnnotatedExpression) GetToken() token.Token { return ae.Token }

// InfixExpression, e.g. a + b. Operators resolve through the builtin env.
type InfixExpression struct {
	Token    token.Token // The operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }

// PrefixExpression, e.g. -x or !b.
type PrefixExpression struct {
	Token    token.Token // The operator token
	Operator string
	Operand  Expression
}

func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }

// TupleLiteral, e.g. (1, true). At least two elements.
type TupleLiteral struct {
	Token    token.Token // The '(' token
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()       {}
func (tl *TupleLiteral) TokenLiteral() string  { return tl.Token.Lexeme }
func (tl *TupleLiteral) GetToken() token.Token { return tl.Token }

// ListLiteral, e.g. [1, 2, 3].
type ListLiteral struct {
	Token    token.Token // The '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()       {}
func (ll *ListLiteral) TokenLiteral() string  { return ll.Token.Lexeme }
func (ll *ListLiteral) GetToken() token.Token { return ll.Token }

// RecordFieldInit is one field of a record literal.
type RecordFieldInit struct {
	Token token.Token
	Name  *Identifier
	Value Expression
}

// RecordLiteral, e.g. { x = 1, y = true }.
type RecordLiteral struct {
	Token  token.Token // The '{' token
	Fields []*RecordFieldInit
}

func (rl *RecordLiteral) expressionNode()       {}
func (rl *RecordLiteral) TokenLiteral() string  { return rl.Token.Lexeme }
func (rl *RecordLiteral) GetToken() token.Token { return rl.Token }

// ConstructorExpression builds a variant case, e.g. Cons(1, rest).
type ConstructorExpression struct {
	Token     token.Token
	Name      *Identifier
	Arguments []Expression
}

func (ce *ConstructorExpression) expressionNode()       {}
func (ce *ConstructorExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *ConstructorExpression) GetToken() token.Token { return ce.Token }

// HoleExpression, written _. Its type is whatever the context demands.
type HoleExpression struct {
	Token token.Token
}

func (he *HoleExpression) expressionNode()       {}
func (he *HoleExpression) TokenLiteral() string  { return he.Token.Lexeme }
func (he *HoleExpression) GetToken() token.Token { return he.Token }
