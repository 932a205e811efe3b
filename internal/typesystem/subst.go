package typesystem

import (
	"github.com/benbjohnson/immutable"
)

// Subst is a substitution: paired persistent maps from type-variable ids to
// types and from effect-variable ids to effect rows. The two maps are always
// applied together, and the persistent representation means extending a
// substitution never mutates the one a caller is still holding.
type Subst struct {
	types   *immutable.SortedMap // int -> Type
	effects *immutable.SortedMap // int -> EffectSet
}

var emptySortedMap = immutable.NewSortedMap(nil)

// EmptySubst returns the identity substitution.
func EmptySubst() Subst {
	return Subst{types: emptySortedMap, effects: emptySortedMap}
}

func (s Subst) typesMap() *immutable.SortedMap {
	if s.types == nil {
		return emptySortedMap
	}
	return s.types
}

func (s Subst) effectsMap() *immutable.SortedMap {
	if s.effects == nil {
		return emptySortedMap
	}
	return s.effects
}

// IsEmpty reports whether the substitution maps nothing.
func (s Subst) IsEmpty() bool {
	return s.typesMap().Len() == 0 && s.effectsMap().Len() == 0
}

// Len returns the total number of mapped variables.
func (s Subst) Len() int {
	return s.typesMap().Len() + s.effectsMap().Len()
}

// TypeFor looks up the binding for a type variable.
func (s Subst) TypeFor(tv TVar) (Type, bool) {
	v, ok := s.typesMap().Get(tv.ID)
	if !ok {
		return nil, false
	}
	return v.(Type), true
}

// EffectFor looks up the binding for an effect variable.
func (s Subst) EffectFor(ev EffectVar) (EffectSet, bool) {
	v, ok := s.effectsMap().Get(ev.ID)
	if !ok {
		return nil, false
	}
	return v.(EffectSet), true
}

// WithType returns a substitution extended with tv -> t.
func (s Subst) WithType(tv TVar, t Type) Subst {
	return Subst{types: s.typesMap().Set(tv.ID, t), effects: s.effectsMap()}
}

// WithEffect returns a substitution extended with ev -> row.
func (s Subst) WithEffect(ev EffectVar, row EffectSet) Subst {
	return Subst{types: s.typesMap(), effects: s.effectsMap().Set(ev.ID, row)}
}

// WithoutType returns a substitution with the binding for tv removed.
func (s Subst) WithoutType(tv TVar) Subst {
	return Subst{types: s.typesMap().Delete(tv.ID), effects: s.effectsMap()}
}

// Compose combines two substitutions: s1.Compose(s2) applies the newer s1 to
// every value of the older s2, then unions in the keys of s1 that s2 does
// not map. Applying the result once is equivalent to applying s2 then s1,
// and the result stays idempotent under repeated application.
func (s1 Subst) Compose(s2 Subst) Subst {
	types := emptySortedMap
	for itr := s2.typesMap().Iterator(); !itr.Done(); {
		k, v := itr.Next()
		types = types.Set(k, v.(Type).Apply(s1))
	}
	for itr := s1.typesMap().Iterator(); !itr.Done(); {
		k, v := itr.Next()
		if _, ok := s2.typesMap().Get(k); !ok {
			types = types.Set(k, v)
		}
	}

	effects := emptySortedMap
	for itr := s2.effectsMap().Iterator(); !itr.Done(); {
		k, v := itr.Next()
		effects = effects.Set(k, v.(EffectSet).Apply(s1))
	}
	for itr := s1.effectsMap().Iterator(); !itr.Done(); {
		k, v := itr.Next()
		if _, ok := s2.effectsMap().Get(k); !ok {
			effects = effects.Set(k, v)
		}
	}

	return Subst{types: types, effects: effects}
}

// Apply implementations. Substitution application uses cycle detection so a
// malformed binding chain degrades to leaving the variable in place instead
// of recursing forever.

func (t TVar) Apply(s Subst) Type     { return applyType(t, s, nil) }
func (t TCon) Apply(s Subst) Type     { return t }
func (t TApp) Apply(s Subst) Type     { return applyType(t, s, nil) }
func (t TFunc) Apply(s Subst) Type    { return applyType(t, s, nil) }
func (t TTuple) Apply(s Subst) Type   { return applyType(t, s, nil) }
func (t TRecord) Apply(s Subst) Type  { return applyType(t, s, nil) }
func (t TVariant) Apply(s Subst) Type { return applyType(t, s, nil) }
func (t TRec) Apply(s Subst) Type     { return applyType(t, s, nil) }
func (t THole) Apply(s Subst) Type    { return t }
func (t TUnknown) Apply(s Subst) Type { return t }

func (r ClosedRow) Apply(s Subst) EffectSet { return r }
func (r OpenRow) Apply(s Subst) EffectSet   { return applyEffects(r, s, nil) }

func applyType(t Type, s Subst, visited map[int]bool) Type {
	if t == nil || s.IsEmpty() {
		return t
	}

	switch typ := t.(type) {
	case TVar:
		if visited[typ.ID] {
			return typ
		}
		replacement, ok := s.TypeFor(typ)
		if !ok {
			return typ
		}
		if tv, ok := replacement.(TVar); ok && tv.ID == typ.ID {
			return typ
		}
		newVisited := copyVisited(visited)
		newVisited[typ.ID] = true
		return applyType(replacement, s, newVisited)

	case TCon:
		return typ

	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = applyType(arg, s, visited)
		}
		return TApp{Constructor: applyType(typ.Constructor, s, visited), Args: newArgs}

	case TFunc:
		newParams := make([]Type, len(typ.Params))
		for i, p := range typ.Params {
			newParams[i] = applyType(p, s, visited)
		}
		return TFunc{
			Params:     newParams,
			ReturnType: applyType(typ.ReturnType, s, visited),
			Effects:    applyEffects(typ.LatentEffects(), s, nil),
		}

	case TTuple:
		newElems := make([]Type, len(typ.Elements))
		for i, e := range typ.Elements {
			newElems[i] = applyType(e, s, visited)
		}
		return TTuple{Elements: newElems}

	case TRecord:
		newFields := make([]RecordField, len(typ.Fields))
		for i, f := range typ.Fields {
			newFields[i] = RecordField{Name: f.Name, Type: applyType(f.Type, s, visited)}
		}
		return TRecord{Fields: newFields}

	case TVariant:
		newCases := make([]VariantCase, len(typ.Cases))
		for i, c := range typ.Cases {
			newArgs := make([]Type, len(c.Args))
			for j, a := range c.Args {
				newArgs[j] = applyType(a, s, visited)
			}
			newCases[i] = VariantCase{Name: c.Name, Args: newArgs}
		}
		return TVariant{Cases: newCases}

	case TRec:
		// The bound variable is local to the body; shield it.
		inner := s.WithoutType(typ.Var)
		return TRec{Var: typ.Var, Body: applyType(typ.Body, inner, visited)}

	default:
		return t
	}
}

func applyEffects(row EffectSet, s Subst, visited map[int]bool) EffectSet {
	r, ok := row.(OpenRow)
	if !ok {
		return row
	}
	if visited[r.Tail.ID] {
		return r
	}
	replacement, ok := s.EffectFor(r.Tail)
	if !ok {
		return r
	}
	newVisited := copyVisited(visited)
	newVisited[r.Tail.ID] = true
	resolved := applyEffects(replacement, s, newVisited)

	// Splice the resolved tail into this row's labels.
	switch tail := resolved.(type) {
	case ClosedRow:
		return NewClosedRow(append(append([]string{}, r.Effects...), tail.Effects...)...)
	case OpenRow:
		return NewOpenRow(tail.Tail, append(append([]string{}, r.Effects...), tail.Effects...)...)
	default:
		return r
	}
}

func copyVisited(m map[int]bool) map[int]bool {
	newMap := make(map[int]bool, len(m)+1)
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}
