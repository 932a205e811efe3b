package ast

import (
	"github.com/lume-lang/lume/internal/token"
)

// TypeExpr is a Node in a type annotation position.
type TypeExpr interface {
	Node
	typeExprNode()
}

// NamedType references a type by name: Int, Bool, or a declared alias.
type NamedType struct {
	Token token.Token
	Name  string
}

func (nt *NamedType) typeExprNode()         {}
func (nt *NamedType) TokenLiteral() string  { return nt.Token.Lexeme }
func (nt *NamedType) GetToken() token.Token { return nt.Token }

// VarType is a lowercase type variable in an annotation, e.g. 'a.
type VarType struct {
	Token token.Token
	Name  string
}

func (vt *VarType) typeExprNode()         {}
func (vt *VarType) TokenLiteral() string  { return vt.Token.Lexeme }
func (vt *VarType) GetToken() token.Token { return vt.Token }

// AppType applies a type constructor to arguments, e.g. List Int.
type AppType struct {
	Token       token.Token
	Constructor TypeExpr
	Args        []TypeExpr
}

func (at *AppType) typeExprNode()         {}
func (at *AppType) TokenLiteral() string  { return at.Token.Lexeme }
func (at *AppType) GetToken() token.Token { return at.Token }

// EffectRowExpr annotates the latent effects of a function type.
// !{IO, State} is closed; !{IO | e} leaves the tail open.
type EffectRowExpr struct {
	Token   token.Token
	Effects []string
	Tail    string // Empty for a closed row
}

func (er *EffectRowExpr) GetToken() token.Token {
	if er == nil {
		return token.Token{}
	}
	return er.Token
}

// FuncType is a function type annotation.
// (Int, Bool) -> !{IO} String
type FuncType struct {
	Token   token.Token
	Params  []TypeExpr
	Effects *EffectRowExpr // nil means pure
	Return  TypeExpr
}

func (ft *FuncType) typeExprNode()         {}
func (ft *FuncType) TokenLiteral() string  { return ft.Token.Lexeme }
func (ft *FuncType) GetToken() token.Token { return ft.Token }

// TupleType, e.g. (Int, Bool).
type TupleType struct {
	Token    token.Token
	Elements []TypeExpr
}

func (tt *TupleType) typeExprNode()         {}
func (tt *TupleType) TokenLiteral() string  { return tt.Token.Lexeme }
func (tt *TupleType) GetToken() token.Token { return tt.Token }

// RecordTypeField is one field of a record type annotation.
type RecordTypeField struct {
	Token token.Token
	Name  string
	Type  TypeExpr
}

// RecordType, e.g. { x: Int, y: Bool }.
type RecordType struct {
	Token  token.Token
	Fields []*RecordTypeField
}

func (rt *RecordType) typeExprNode()         {}
func (rt *RecordType) TokenLiteral() string  { return rt.Token.Lexeme }
func (rt *RecordType) GetToken() token.Token { return rt.Token }

// VariantTypeCase is one case of a variant type annotation.
type VariantTypeCase struct {
	Token token.Token
	Name  string
	Args  []TypeExpr
}

// VariantType, e.g. <Nil | Cons Int IntList>.
type VariantType struct {
	Token token.Token
	Cases []*VariantTypeCase
}

func (vt *VariantType) typeExprNode()         {}
func (vt *VariantType) TokenLiteral() string  { return vt.Token.Lexeme }
func (vt *VariantType) GetToken() token.Token { return vt.Token }

// RecType binds a variable over a body for equi-recursive types.
// rec l. <Nil | Cons Int l>
type RecType struct {
	Token token.Token // The 'rec' token
	Var   string
	Body  TypeExpr
}

func (rt *RecType) typeExprNode()         {}
func (rt *RecType) TokenLiteral() string  { return rt.Token.Lexeme }
func (rt *RecType) GetToken() token.Token { return rt.Token }

// HoleType is the explicit placeholder '_' in an annotation.
type HoleType struct {
	Token token.Token
}

func (ht *HoleType) typeExprNode()         {}
func (ht *HoleType) TokenLiteral() string  { return ht.Token.Lexeme }
func (ht *HoleType) GetToken() token.Token { return ht.Token }
