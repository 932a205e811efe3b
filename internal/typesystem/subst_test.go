package typesystem

import "testing"

func TestApplyEmptySubst(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	typ := TFunc{Params: []Type{a}, ReturnType: ListOf(a)}
	got := typ.Apply(EmptySubst())
	if got.String() != typ.String() {
		t.Errorf("empty substitution changed %s into %s", typ, got)
	}
}

func TestApplyBindsTransitively(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	b := src.FreshTypeVar()
	s := EmptySubst().WithType(a, b).WithType(b, Int)
	if got := a.Apply(s).String(); got != "Int" {
		t.Errorf("a resolved to %s, want Int via b", got)
	}
}

func TestComposeAppliesNewerFirst(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	b := src.FreshTypeVar()

	older := EmptySubst().WithType(a, ListOf(b))
	newer := EmptySubst().WithType(b, Int)

	composed := newer.Compose(older)
	if got := a.Apply(composed).String(); got != "(List Int)" {
		t.Errorf("a resolved to %s, want (List Int)", got)
	}
	if got := b.Apply(composed).String(); got != "Int" {
		t.Errorf("b resolved to %s, want Int", got)
	}
}

func TestComposeIdempotent(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	b := src.FreshTypeVar()
	c := src.FreshTypeVar()

	s := EmptySubst().WithType(b, Int).Compose(EmptySubst().WithType(a, TFunc{Params: []Type{b}, ReturnType: c}))
	subject := TTuple{Elements: []Type{a, b, c}}

	once := subject.Apply(s)
	twice := once.Apply(s)
	if once.String() != twice.String() {
		t.Errorf("substitution not idempotent: %s vs %s", once, twice)
	}
}

func TestComposeCarriesEffectBindings(t *testing.T) {
	src := &VarSource{}
	e1 := src.FreshEffectVar()
	e2 := src.FreshEffectVar()

	older := EmptySubst().WithEffect(e1, NewOpenRow(e2, "IO"))
	newer := EmptySubst().WithEffect(e2, NewClosedRow("State"))

	composed := newer.Compose(older)
	fn := TFunc{Params: []Type{Unit}, ReturnType: Unit, Effects: NewOpenRow(e1)}
	got := fn.Apply(composed).(TFunc).Effects
	labels := got.Labels()
	if len(labels) != 2 || labels[0] != "IO" || labels[1] != "State" {
		t.Errorf("effects resolved to %v, want {IO, State}", labels)
	}
	if _, open := got.(OpenRow); open {
		t.Error("fully resolved row must be closed")
	}
}

func TestApplyShieldsRecBoundVar(t *testing.T) {
	src := &VarSource{}
	v := src.FreshTypeVar()
	rec := TRec{Var: v, Body: NewVariant(
		VariantCase{Name: "Cons", Args: []Type{Int, v}},
		VariantCase{Name: "Nil"},
	)}
	// Binding the bound variable outside must not leak into the body.
	s := EmptySubst().WithType(v, Bool)
	got := rec.Apply(s)
	if got.String() != rec.String() {
		t.Errorf("bound variable captured: %s became %s", rec, got)
	}
}

func TestWithoutType(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	s := EmptySubst().WithType(a, Int).WithoutType(a)
	if _, ok := s.TypeFor(a); ok {
		t.Error("binding survived WithoutType")
	}
}

func TestSubstIsPersistent(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	base := EmptySubst()
	extended := base.WithType(a, Int)
	if !base.IsEmpty() {
		t.Error("extension mutated the original substitution")
	}
	if extended.Len() != 1 {
		t.Errorf("extended Len() = %d, want 1", extended.Len())
	}
}
