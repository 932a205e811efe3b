package typesystem

import (
	"fmt"
	"strings"
)

// ConstraintKind discriminates deferred obligations.
type ConstraintKind string

const (
	// Type-level constraints.
	ConstraintEqual    ConstraintKind = "Equal"    // Left ~ Right
	ConstraintInstance ConstraintKind = "Instance" // Left is an instance of Scheme
	ConstraintHasField ConstraintKind = "HasField" // Left has field Field of type Result
	ConstraintCallable ConstraintKind = "Callable" // Left applied to Args yields Result

	// Effect-level constraints.
	ConstraintSubEffect      ConstraintKind = "SubEffect"      // Sub ⊆ Sup
	ConstraintHandlesEffect  ConstraintKind = "HandlesEffect"  // handler discharges Effect from Sub
	ConstraintRequiresEffect ConstraintKind = "RequiresEffect" // Sub must mention Effect
)

// Constraint is a deferred obligation: something eager unification could not
// resolve at the point it arose (field access on a still-unresolved
// variable, calling a variable-typed value, effect containment checks).
type Constraint struct {
	Kind   ConstraintKind
	Left   Type
	Right  Type
	Field  string
	Args   []Type
	Result Type
	Sub    EffectSet
	Sup    EffectSet
	Effect string

	// Scheme backs Instance constraints. Schemes are closed over their
	// quantifiers, so Apply leaves it untouched.
	Scheme *Scheme
}

// Apply maps the substitution over every type and row in the constraint.
func (c Constraint) Apply(s Subst) Constraint {
	out := c
	if c.Left != nil {
		out.Left = c.Left.Apply(s)
	}
	if c.Right != nil {
		out.Right = c.Right.Apply(s)
	}
	if c.Result != nil {
		out.Result = c.Result.Apply(s)
	}
	if len(c.Args) > 0 {
		out.Args = make([]Type, len(c.Args))
		for i, a := range c.Args {
			out.Args[i] = a.Apply(s)
		}
	}
	if c.Sub != nil {
		out.Sub = c.Sub.Apply(s)
	}
	if c.Sup != nil {
		out.Sup = c.Sup.Apply(s)
	}
	return out
}

// Scheme is a type scheme ∀ᾱē. C ⇒ τ. Schemes are immutable once created;
// every use site instantiates its own copy with fresh variables.
type Scheme struct {
	TypeVars    []TVar
	EffectVars  []EffectVar
	Constraints []Constraint
	Body        Type
}

// MonoScheme wraps a monotype as a scheme with no quantifiers.
func MonoScheme(t Type) *Scheme {
	return &Scheme{Body: t}
}

// IsMono reports whether the scheme quantifies nothing.
func (s *Scheme) IsMono() bool {
	return len(s.TypeVars) == 0 && len(s.EffectVars) == 0
}

func (s *Scheme) String() string {
	if s.IsMono() {
		return s.Body.String()
	}
	quants := make([]string, 0, len(s.TypeVars)+len(s.EffectVars))
	for _, v := range s.TypeVars {
		quants = append(quants, v.String())
	}
	for _, v := range s.EffectVars {
		quants = append(quants, v.String())
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(quants, " "), s.Body.String())
}

// FreeTypeVariables returns the body's free type variables minus the bound
// ones.
func (s *Scheme) FreeTypeVariables() []TVar {
	bound := make(map[int]bool, len(s.TypeVars))
	for _, v := range s.TypeVars {
		bound[v.ID] = true
	}
	free := []TVar{}
	for _, v := range s.Body.FreeTypeVariables() {
		if !bound[v.ID] {
			free = append(free, v)
		}
	}
	return free
}

// FreeEffectVariables returns the body's free effect variables minus the
// bound ones.
func (s *Scheme) FreeEffectVariables() []EffectVar {
	bound := make(map[int]bool, len(s.EffectVars))
	for _, v := range s.EffectVars {
		bound[v.ID] = true
	}
	free := []EffectVar{}
	for _, v := range s.Body.FreeEffectVariables() {
		if !bound[v.ID] {
			free = append(free, v)
		}
	}
	return free
}

// Instantiate replaces every quantified variable with a fresh one from src
// and returns the instantiated body together with the renaming used. Two
// calls on the same scheme always yield disjoint fresh variables.
func (s *Scheme) Instantiate(src *VarSource) (Type, Subst) {
	renaming := EmptySubst()
	for _, v := range s.TypeVars {
		fresh := src.FreshTypeVarWithKind(v.KindVal)
		renaming = renaming.WithType(v, fresh)
	}
	for _, v := range s.EffectVars {
		fresh := src.FreshEffectVar()
		renaming = renaming.WithEffect(v, NewOpenRow(fresh))
	}
	return s.Body.Apply(renaming), renaming
}

// InstantiateConstraints returns the scheme's constraints under the given
// instantiation renaming.
func (s *Scheme) InstantiateConstraints(renaming Subst) []Constraint {
	if len(s.Constraints) == 0 {
		return nil
	}
	out := make([]Constraint, len(s.Constraints))
	for i, c := range s.Constraints {
		out[i] = c.Apply(renaming)
	}
	return out
}
