package typesystem

import (
	"fmt"
	"reflect"
	"strings"
)

// DefaultMaxUnifyDepth bounds unifier recursion when the VarSource carries
// no limit of its own. Recursive types are compared coinductively, so the
// guard only trips on pathological inputs.
const DefaultMaxUnifyDepth = 512

// UnifyErrorKind discriminates unification failures.
type UnifyErrorKind int

const (
	UnifyMismatch UnifyErrorKind = iota
	UnifyArity
	UnifyInfinite
	UnifyEffectMismatch
	UnifyFieldMismatch
	UnifyDepthExceeded
)

// UnifyError reports why two types (or rows) do not unify.
type UnifyError struct {
	Kind         UnifyErrorKind
	Left, Right  Type
	LeftEffects  EffectSet
	RightEffects EffectSet
	Expected     int
	Found        int
	Depth        int
	Detail       string
}

func (e *UnifyError) Error() string {
	switch e.Kind {
	case UnifyArity:
		return fmt.Sprintf("arity mismatch: expected %d arguments, found %d", e.Expected, e.Found)
	case UnifyInfinite:
		return fmt.Sprintf("infinite type: %s occurs in %s", e.Left, e.Right)
	case UnifyEffectMismatch:
		msg := fmt.Sprintf("effect mismatch: %s vs %s", e.LeftEffects, e.RightEffects)
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	case UnifyFieldMismatch:
		return fmt.Sprintf("record field mismatch: %s vs %s: %s", e.Left, e.Right, e.Detail)
	case UnifyDepthExceeded:
		return fmt.Sprintf("unification exceeded depth %d comparing %s with %s", e.Depth, e.Left, e.Right)
	default:
		msg := fmt.Sprintf("cannot unify %s with %s", e.Left, e.Right)
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	}
}

// typePair tracks a pair of types currently being compared, for coinductive
// handling of recursive types.
type typePair struct {
	t1 Type
	t2 Type
}

// Unify attempts to find a substitution that makes t1 and t2 equal. It
// cannot introduce fresh row variables, so rows that are open on both sides
// with differing labels fail; use UnifyWithSource inside inference.
func Unify(t1, t2 Type) (Subst, error) {
	return unifyInternal(t1, t2, nil, nil, 0)
}

// UnifyWithSource unifies with access to fresh row variables from src.
func UnifyWithSource(t1, t2 Type, src *VarSource) (Subst, error) {
	return unifyInternal(t1, t2, nil, src, 0)
}

func unifyInternal(t1, t2 Type, visited []typePair, src *VarSource, depth int) (Subst, error) {
	limit := DefaultMaxUnifyDepth
	if src != nil && src.MaxUnifyDepth > 0 {
		limit = src.MaxUnifyDepth
	}
	if depth > limit {
		return Subst{}, &UnifyError{Kind: UnifyDepthExceeded, Left: t1, Right: t2, Depth: limit}
	}

	// Coinduction: if we are already comparing these two types somewhere up
	// the stack, assume success.
	for _, p := range visited {
		if reflect.DeepEqual(p.t1, t1) && reflect.DeepEqual(p.t2, t2) {
			return EmptySubst(), nil
		}
	}

	if reflect.DeepEqual(t1, t2) {
		return EmptySubst(), nil
	}

	// Holes and unknowns match anything without constraining it.
	if isWildcard(t1) || isWildcard(t2) {
		return EmptySubst(), nil
	}

	// Recursive types compare via one-step unfolding under the visited
	// guard. Handled before the main switch so Rec vs non-Rec works too.
	if r1, ok := t1.(TRec); ok {
		if _, isVar := t2.(TVar); !isVar {
			visited = append(visited, typePair{t1: t1, t2: t2})
			return unifyInternal(UnfoldRec(r1), t2, visited, src, depth+1)
		}
	}
	if r2, ok := t2.(TRec); ok {
		if _, isVar := t1.(TVar); !isVar {
			visited = append(visited, typePair{t1: t1, t2: t2})
			return unifyInternal(t1, UnfoldRec(r2), visited, src, depth+1)
		}
	}

	switch t1 := t1.(type) {
	case TVar:
		return Bind(t1, t2)

	case TCon:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TCon:
			if t1.Name == t2.Name {
				return EmptySubst(), nil
			}
			return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2, Detail: "type constant mismatch"}
		default:
			return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2}
		}

	case TApp:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TApp:
			s1, err := unifyInternal(t1.Constructor, t2.Constructor, visited, src, depth+1)
			if err != nil {
				return Subst{}, err
			}
			if len(t1.Args) != len(t2.Args) {
				return Subst{}, &UnifyError{Kind: UnifyArity, Left: t1, Right: t2,
					Expected: len(t1.Args), Found: len(t2.Args)}
			}
			for i := 0; i < len(t1.Args); i++ {
				arg1 := t1.Args[i].Apply(s1)
				arg2 := t2.Args[i].Apply(s1)
				s2, err := unifyInternal(arg1, arg2, visited, src, depth+1)
				if err != nil {
					return Subst{}, err
				}
				s1 = s2.Compose(s1)
			}
			return s1, nil
		default:
			return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2}
		}

	case TFunc:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TFunc:
			if len(t1.Params) != len(t2.Params) {
				return Subst{}, &UnifyError{Kind: UnifyArity, Left: t1, Right: t2,
					Expected: len(t1.Params), Found: len(t2.Params)}
			}
			s1 := EmptySubst()
			for i := 0; i < len(t1.Params); i++ {
				p1 := t1.Params[i].Apply(s1)
				p2 := t2.Params[i].Apply(s1)
				s2, err := unifyInternal(p1, p2, visited, src, depth+1)
				if err != nil {
					return Subst{}, err
				}
				s1 = s2.Compose(s1)
			}
			ret1 := t1.ReturnType.Apply(s1)
			ret2 := t2.ReturnType.Apply(s1)
			s2, err := unifyInternal(ret1, ret2, visited, src, depth+1)
			if err != nil {
				return Subst{}, err
			}
			s1 = s2.Compose(s1)

			e1 := t1.LatentEffects().Apply(s1)
			e2 := t2.LatentEffects().Apply(s1)
			s3, err := UnifyEffects(e1, e2, src)
			if err != nil {
				return Subst{}, err
			}
			return s3.Compose(s1), nil
		default:
			return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2, Detail: "cannot unify function type"}
		}

	case TTuple:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TTuple:
			if len(t1.Elements) != len(t2.Elements) {
				return Subst{}, &UnifyError{Kind: UnifyArity, Left: t1, Right: t2,
					Expected: len(t1.Elements), Found: len(t2.Elements)}
			}
			s1 := EmptySubst()
			for i := 0; i < len(t1.Elements); i++ {
				e1 := t1.Elements[i].Apply(s1)
				e2 := t2.Elements[i].Apply(s1)
				s2, err := unifyInternal(e1, e2, visited, src, depth+1)
				if err != nil {
					return Subst{}, err
				}
				s1 = s2.Compose(s1)
			}
			return s1, nil
		default:
			return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2, Detail: "cannot unify tuple"}
		}

	case TRecord:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TRecord:
			// Exact field-set match: row polymorphism is effects-only.
			if missing := missingFields(t1, t2); missing != "" {
				return Subst{}, &UnifyError{Kind: UnifyFieldMismatch, Left: t1, Right: t2, Detail: missing}
			}
			s1 := EmptySubst()
			for _, f1 := range t1.Fields {
				f2Type, _ := t2.FieldType(f1.Name)
				s2, err := unifyInternal(f1.Type.Apply(s1), f2Type.Apply(s1), visited, src, depth+1)
				if err != nil {
					return Subst{}, err
				}
				s1 = s2.Compose(s1)
			}
			return s1, nil
		default:
			return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2, Detail: "cannot unify record"}
		}

	case TVariant:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TVariant:
			if len(t1.Cases) != len(t2.Cases) {
				return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2, Detail: "variant case sets differ"}
			}
			s1 := EmptySubst()
			for i, c1 := range t1.Cases {
				c2 := t2.Cases[i]
				if c1.Name != c2.Name {
					return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2,
						Detail: fmt.Sprintf("variant case %s vs %s", c1.Name, c2.Name)}
				}
				if len(c1.Args) != len(c2.Args) {
					return Subst{}, &UnifyError{Kind: UnifyArity, Left: t1, Right: t2,
						Expected: len(c1.Args), Found: len(c2.Args)}
				}
				for j := range c1.Args {
					s2, err := unifyInternal(c1.Args[j].Apply(s1), c2.Args[j].Apply(s1), visited, src, depth+1)
					if err != nil {
						return Subst{}, err
					}
					s1 = s2.Compose(s1)
				}
			}
			return s1, nil
		default:
			return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2, Detail: "cannot unify variant"}
		}

	default:
		return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: t1, Right: t2,
			Detail: fmt.Sprintf("unknown type kind %T", t1)}
	}
}

func isWildcard(t Type) bool {
	switch t.(type) {
	case THole, TUnknown:
		return true
	}
	return false
}

func missingFields(t1, t2 TRecord) string {
	var only1, only2 []string
	for _, f := range t1.Fields {
		if _, ok := t2.FieldType(f.Name); !ok {
			only1 = append(only1, f.Name)
		}
	}
	for _, f := range t2.Fields {
		if _, ok := t1.FieldType(f.Name); !ok {
			only2 = append(only2, f.Name)
		}
	}
	if len(only1) == 0 && len(only2) == 0 {
		return ""
	}
	parts := []string{}
	if len(only1) > 0 {
		parts = append(parts, "missing "+strings.Join(only1, ", "))
	}
	if len(only2) > 0 {
		parts = append(parts, "extra "+strings.Join(only2, ", "))
	}
	return strings.Join(parts, "; ")
}

// Bind binds a type variable to a type, performing the occurs check.
func Bind(tv TVar, t Type) (Subst, error) {
	if tVal, ok := t.(TVar); ok && tVal.ID == tv.ID {
		return EmptySubst(), nil
	}

	if !tv.Kind().Equal(t.Kind()) {
		return Subst{}, &UnifyError{Kind: UnifyMismatch, Left: tv, Right: t,
			Detail: fmt.Sprintf("kind mismatch: %s has kind %s but %s has kind %s",
				tv, tv.Kind(), t, t.Kind())}
	}

	// Occurs check: reject a = List a and friends, including self-application.
	if OccursCheck(tv, t) {
		return Subst{}, &UnifyError{Kind: UnifyInfinite, Left: tv, Right: t}
	}

	return EmptySubst().WithType(tv, t), nil
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.ID == tv.ID {
			return true
		}
	}
	return false
}
