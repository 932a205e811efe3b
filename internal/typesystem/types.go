// Package typesystem implements the Lume type model: Hindley-Milner types
// with row-polymorphic effect sets, substitutions over numeric type/effect
// variables, and the structural unifier.
package typesystem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lume-lang/lume/internal/config"
)

// Type is the interface for all types in our system.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
	FreeEffectVariables() []EffectVar
	Kind() Kind
}

// TVar represents a type variable. IDs are opaque and globally unique within
// one inference session; they are minted by a VarSource and never reused.
type TVar struct {
	ID      int
	KindVal Kind
}

func (t TVar) String() string {
	// Normalize inference variables in tests and LSP output for determinism.
	if config.IsTestMode || config.IsLSPMode {
		return "t?"
	}
	return fmt.Sprintf("t%d", t.ID)
}

func (t TVar) Kind() Kind {
	if t.KindVal == nil {
		return Star
	}
	return t.KindVal
}

func (t TVar) FreeTypeVariables() []TVar       { return []TVar{t} }
func (t TVar) FreeEffectVariables() []EffectVar { return nil }

// TCon represents a type constant/constructor (e.g. Int, Bool, List).
type TCon struct {
	Name    string
	KindVal Kind
}

var builtinKinds = map[string]Kind{
	config.ListTypeName: MakeArrow(Star, Star),
}

func (t TCon) Kind() Kind {
	if t.KindVal != nil {
		return t.KindVal
	}
	if k, ok := builtinKinds[t.Name]; ok {
		return k
	}
	return Star
}

func (t TCon) String() string                   { return t.Name }
func (t TCon) FreeTypeVariables() []TVar        { return nil }
func (t TCon) FreeEffectVariables() []EffectVar { return nil }

// TApp represents a type application (e.g. List Int).
type TApp struct {
	Constructor Type
	Args        []Type
}

func (t TApp) Kind() Kind {
	k := t.Constructor.Kind()
	for range t.Args {
		if arrow, ok := k.(KArrow); ok {
			k = arrow.Right
		} else {
			return Star
		}
	}
	return k
}

func (t TApp) String() string {
	args := make([]string, 0, len(t.Args))
	for _, arg := range t.Args {
		args = append(args, arg.String())
	}
	if len(args) == 0 {
		return t.Constructor.String()
	}
	return fmt.Sprintf("(%s %s)", t.Constructor.String(), strings.Join(args, " "))
}

func (t TApp) FreeTypeVariables() []TVar {
	vars := t.Constructor.FreeTypeVariables()
	for _, arg := range t.Args {
		vars = append(vars, arg.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

func (t TApp) FreeEffectVariables() []EffectVar {
	vars := t.Constructor.FreeEffectVariables()
	for _, arg := range t.Args {
		vars = append(vars, arg.FreeEffectVariables()...)
	}
	return uniqueEffectVars(vars)
}

// TFunc represents a function type. Params define call arity; Effects is the
// latent effect row performed when the function is applied.
type TFunc struct {
	Params     []Type
	ReturnType Type
	Effects    EffectSet
}

func (t TFunc) Kind() Kind { return Star }

// LatentEffects returns the function's effect row, defaulting to the empty
// closed row when unset.
func (t TFunc) LatentEffects() EffectSet {
	if t.Effects == nil {
		return EmptyEffects
	}
	return t.Effects
}

func (t TFunc) String() string {
	params := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, p.String())
	}
	eff := ""
	if !t.LatentEffects().IsEmpty() {
		eff = " !" + t.LatentEffects().String()
	}
	return fmt.Sprintf("(%s) ->%s %s", strings.Join(params, ", "), eff, t.ReturnType.String())
}

func (t TFunc) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, p := range t.Params {
		vars = append(vars, p.FreeTypeVariables()...)
	}
	vars = append(vars, t.ReturnType.FreeTypeVariables()...)
	return uniqueTVars(vars)
}

func (t TFunc) FreeEffectVariables() []EffectVar {
	vars := []EffectVar{}
	for _, p := range t.Params {
		vars = append(vars, p.FreeEffectVariables()...)
	}
	vars = append(vars, t.ReturnType.FreeEffectVariables()...)
	vars = append(vars, t.LatentEffects().FreeEffectVars()...)
	return uniqueEffectVars(vars)
}

// TTuple represents a tuple type (e.g. (Int, Bool)).
type TTuple struct {
	Elements []Type
}

func (t TTuple) Kind() Kind { return Star }

func (t TTuple) String() string {
	elems := make([]string, 0, len(t.Elements))
	for _, el := range t.Elements {
		elems = append(elems, el.String())
	}
	return fmt.Sprintf("(%s)", strings.Join(elems, ", "))
}

func (t TTuple) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, el := range t.Elements {
		vars = append(vars, el.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

func (t TTuple) FreeEffectVariables() []EffectVar {
	vars := []EffectVar{}
	for _, el := range t.Elements {
		vars = append(vars, el.FreeEffectVariables()...)
	}
	return uniqueEffectVars(vars)
}

// RecordField is a single labeled field of a record type.
type RecordField struct {
	Name string
	Type Type
}

// TRecord represents a record type (e.g. { x: Int, y: Bool }). Fields are
// kept sorted by name; unification requires an exact field-set match (row
// polymorphism in Lume is effects-only).
type TRecord struct {
	Fields []RecordField
}

// NewRecord builds a record type with fields sorted by name.
func NewRecord(fields ...RecordField) TRecord {
	sorted := append([]RecordField{}, fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return TRecord{Fields: sorted}
}

// FieldType returns the type of the named field.
func (t TRecord) FieldType(name string) (Type, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

func (t TRecord) Kind() Kind { return Star }

func (t TRecord) String() string {
	fields := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, fmt.Sprintf("%s: %s", f.Name, f.Type.String()))
	}
	return fmt.Sprintf("{ %s }", strings.Join(fields, ", "))
}

func (t TRecord) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, f := range t.Fields {
		vars = append(vars, f.Type.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

func (t TRecord) FreeEffectVariables() []EffectVar {
	vars := []EffectVar{}
	for _, f := range t.Fields {
		vars = append(vars, f.Type.FreeEffectVariables()...)
	}
	return uniqueEffectVars(vars)
}

// VariantCase is a single constructor of a variant type.
type VariantCase struct {
	Name string
	Args []Type
}

// TVariant represents a sum type with named constructors
// (e.g. Shape = Circle Float | Rect Float Float). Cases are kept sorted by
// name; unification requires identical case sets.
type TVariant struct {
	Cases []VariantCase
}

// NewVariant builds a variant type with cases sorted by name.
func NewVariant(cases ...VariantCase) TVariant {
	sorted := append([]VariantCase{}, cases...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return TVariant{Cases: sorted}
}

// Case returns the constructor with the given name.
func (t TVariant) Case(name string) (VariantCase, bool) {
	for _, c := range t.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return VariantCase{}, false
}

func (t TVariant) Kind() Kind { return Star }

func (t TVariant) String() string {
	cases := make([]string, 0, len(t.Cases))
	for _, c := range t.Cases {
		if len(c.Args) == 0 {
			cases = append(cases, c.Name)
			continue
		}
		args := make([]string, 0, len(c.Args))
		for _, a := range c.Args {
			args = append(args, a.String())
		}
		cases = append(cases, fmt.Sprintf("%s %s", c.Name, strings.Join(args, " ")))
	}
	return strings.Join(cases, " | ")
}

func (t TVariant) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, c := range t.Cases {
		for _, a := range c.Args {
			vars = append(vars, a.FreeTypeVariables()...)
		}
	}
	return uniqueTVars(vars)
}

func (t TVariant) FreeEffectVariables() []EffectVar {
	vars := []EffectVar{}
	for _, c := range t.Cases {
		for _, a := range c.Args {
			vars = append(vars, a.FreeEffectVariables()...)
		}
	}
	return uniqueEffectVars(vars)
}

// TRec represents an equi-recursive type binder (e.g. lists:
// rec l. Nil | Cons a l). Var is bound inside Body; the type must be
// contractive, i.e. Var occurs only under at least one constructor.
type TRec struct {
	Var  TVar
	Body Type
}

func (t TRec) Kind() Kind { return Star }

func (t TRec) String() string {
	return fmt.Sprintf("rec %s. %s", t.Var.String(), t.Body.String())
}

func (t TRec) FreeTypeVariables() []TVar {
	vars := []TVar{}
	for _, v := range t.Body.FreeTypeVariables() {
		if v.ID != t.Var.ID {
			vars = append(vars, v)
		}
	}
	return uniqueTVars(vars)
}

func (t TRec) FreeEffectVariables() []EffectVar {
	return t.Body.FreeEffectVariables()
}

// IsContractive reports whether the bound variable occurs only under at
// least one constructor. A non-contractive binder like rec a. a denotes no
// type and is rejected when annotations are converted.
func (t TRec) IsContractive() bool {
	return isGuarded(t.Body, t.Var.ID, false)
}

func isGuarded(t Type, id int, underCon bool) bool {
	switch typ := t.(type) {
	case TVar:
		if typ.ID == id {
			return underCon
		}
		return true
	case TRec:
		if typ.Var.ID == id {
			// Shadowed; occurrences below refer to the inner binder.
			return true
		}
		return isGuarded(typ.Body, id, underCon)
	case TApp:
		if !isGuarded(typ.Constructor, id, underCon) {
			return false
		}
		for _, a := range typ.Args {
			if !isGuarded(a, id, true) {
				return false
			}
		}
		return true
	case TFunc:
		for _, p := range typ.Params {
			if !isGuarded(p, id, true) {
				return false
			}
		}
		return isGuarded(typ.ReturnType, id, true)
	case TTuple:
		for _, e := range typ.Elements {
			if !isGuarded(e, id, true) {
				return false
			}
		}
		return true
	case TRecord:
		for _, f := range typ.Fields {
			if !isGuarded(f.Type, id, true) {
				return false
			}
		}
		return true
	case TVariant:
		for _, c := range typ.Cases {
			for _, a := range c.Args {
				if !isGuarded(a, id, true) {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}

// UnfoldRec performs one-step unfolding of a recursive type: it substitutes
// the whole Rec node for its bound variable inside the body, yielding
// body[var -> rec].
func UnfoldRec(t TRec) Type {
	s := EmptySubst().WithType(t.Var, t)
	return t.Body.Apply(s)
}

// THole is the grammar's explicit placeholder for a missing type annotation.
// It unifies with anything without constraining it.
type THole struct{}

func (t THole) Kind() Kind                       { return Star }
func (t THole) String() string                   { return "_" }
func (t THole) FreeTypeVariables() []TVar        { return nil }
func (t THole) FreeEffectVariables() []EffectVar { return nil }

// TUnknown marks a type the front end could not produce (parse recovery).
// Like THole it unifies with anything, so one broken annotation does not
// cascade into spurious mismatches.
type TUnknown struct{}

func (t TUnknown) Kind() Kind                       { return Star }
func (t TUnknown) String() string                   { return "?" }
func (t TUnknown) FreeTypeVariables() []TVar        { return nil }
func (t TUnknown) FreeEffectVariables() []EffectVar { return nil }

// Builtin ground types.
var (
	Int    = TCon{Name: config.IntTypeName}
	Float  = TCon{Name: config.FloatTypeName}
	Bool   = TCon{Name: config.BoolTypeName}
	String = TCon{Name: config.StringTypeName}
	Unit   = TCon{Name: config.UnitTypeName}
)

// ListOf builds the type List elem.
func ListOf(elem Type) TApp {
	return TApp{Constructor: TCon{Name: config.ListTypeName}, Args: []Type{elem}}
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[int]bool{}
	for _, v := range vars {
		if !seen[v.ID] {
			seen[v.ID] = true
			unique = append(unique, v)
		}
	}
	return unique
}

func uniqueEffectVars(vars []EffectVar) []EffectVar {
	unique := []EffectVar{}
	seen := map[int]bool{}
	for _, v := range vars {
		if !seen[v.ID] {
			seen[v.ID] = true
			unique = append(unique, v)
		}
	}
	return unique
}
