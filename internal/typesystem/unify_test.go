package typesystem

import (
	"errors"
	"testing"
)

func TestUnifyReflexive(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	tests := []struct {
		name string
		typ  Type
	}{
		{"con", Int},
		{"var", a},
		{"app", ListOf(Int)},
		{"func", TFunc{Params: []Type{Int, Bool}, ReturnType: String, Effects: EmptyEffects}},
		{"tuple", TTuple{Elements: []Type{Int, Bool}}},
		{"record", NewRecord(RecordField{Name: "x", Type: Int}, RecordField{Name: "y", Type: Bool})},
		{"variant", NewVariant(VariantCase{Name: "Some", Args: []Type{Int}}, VariantCase{Name: "None"})},
		{"effectful func", TFunc{Params: []Type{Int}, ReturnType: Unit, Effects: NewClosedRow("IO")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Unify(tt.typ, tt.typ)
			if err != nil {
				t.Fatalf("Unify(T, T) failed: %v", err)
			}
			if !s.IsEmpty() {
				t.Errorf("Unify(T, T) produced non-empty substitution (%d bindings)", s.Len())
			}
		})
	}
}

func TestUnifySymmetric(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	b := src.FreshTypeVar()
	pairs := []struct {
		name   string
		t1, t2 Type
	}{
		{"var vs con", a, Int},
		{"var vs func", b, TFunc{Params: []Type{Int}, ReturnType: Bool}},
		{"app vs app", ListOf(a), ListOf(Int)},
		{"con vs con mismatch", Int, Bool},
	}
	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			_, err1 := Unify(tt.t1, tt.t2)
			_, err2 := Unify(tt.t2, tt.t1)
			if (err1 == nil) != (err2 == nil) {
				t.Errorf("unification not symmetric: %v vs %v", err1, err2)
			}
		})
	}
}

func TestOccursCheckRejectsSelfApplication(t *testing.T) {
	// λf. f f forces f : t1 and f : (t1) -> t2, i.e. t1 ~ (t1) -> t2.
	src := &VarSource{}
	f := src.FreshTypeVar()
	ret := src.FreshTypeVar()
	selfApp := TFunc{Params: []Type{f}, ReturnType: ret}

	_, err := Unify(f, selfApp)
	if err == nil {
		t.Fatal("expected occurs-check failure binding f ~ (f) -> t")
	}
	var uerr *UnifyError
	if !errors.As(err, &uerr) || uerr.Kind != UnifyInfinite {
		t.Errorf("expected UnifyInfinite, got %v", err)
	}
}

func TestUnifyBindsVariable(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	s, err := Unify(a, ListOf(Int))
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	bound, ok := s.TypeFor(a)
	if !ok {
		t.Fatal("variable not bound")
	}
	if bound.String() != ListOf(Int).String() {
		t.Errorf("bound to %s, want %s", bound, ListOf(Int))
	}
}

func TestUnifyFuncArity(t *testing.T) {
	two := TFunc{Params: []Type{Int, Int}, ReturnType: Int}
	one := TFunc{Params: []Type{Int}, ReturnType: Int}
	_, err := Unify(two, one)
	var uerr *UnifyError
	if !errors.As(err, &uerr) || uerr.Kind != UnifyArity {
		t.Fatalf("expected UnifyArity, got %v", err)
	}
	if uerr.Expected != 2 || uerr.Found != 1 {
		t.Errorf("arity error carries %d/%d, want 2/1", uerr.Expected, uerr.Found)
	}
}

func TestUnifyFuncParamsAndReturn(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	b := src.FreshTypeVar()
	general := TFunc{Params: []Type{a}, ReturnType: b}
	concrete := TFunc{Params: []Type{Int}, ReturnType: Bool}

	s, err := Unify(general, concrete)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if got := a.Apply(s).String(); got != "Int" {
		t.Errorf("param var resolved to %s, want Int", got)
	}
	if got := b.Apply(s).String(); got != "Bool" {
		t.Errorf("return var resolved to %s, want Bool", got)
	}
}

func TestUnifyRecordExactFields(t *testing.T) {
	xy := NewRecord(RecordField{Name: "x", Type: Int}, RecordField{Name: "y", Type: Int})
	x := NewRecord(RecordField{Name: "x", Type: Int})
	_, err := Unify(xy, x)
	var uerr *UnifyError
	if !errors.As(err, &uerr) || uerr.Kind != UnifyFieldMismatch {
		t.Fatalf("expected UnifyFieldMismatch, got %v", err)
	}
}

func TestUnifyRecordFieldTypes(t *testing.T) {
	src := &VarSource{}
	a := src.FreshTypeVar()
	r1 := NewRecord(RecordField{Name: "x", Type: a})
	r2 := NewRecord(RecordField{Name: "x", Type: String})
	s, err := Unify(r1, r2)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	if got := a.Apply(s).String(); got != "String" {
		t.Errorf("field var resolved to %s, want String", got)
	}
}

func TestUnifyRecCoinductive(t *testing.T) {
	// rec l. Nil | Cons Int l, written twice with different bound vars.
	mkList := func(v TVar) TRec {
		return TRec{Var: v, Body: NewVariant(
			VariantCase{Name: "Nil"},
			VariantCase{Name: "Cons", Args: []Type{Int, v}},
		)}
	}
	src := &VarSource{}
	l1 := mkList(src.FreshTypeVar())
	l2 := mkList(src.FreshTypeVar())

	if _, err := Unify(l1, l2); err != nil {
		t.Fatalf("equal recursive types did not unify: %v", err)
	}

	// Unification must terminate on unequal recursive types too.
	other := TRec{Var: src.FreshTypeVar(), Body: NewVariant(VariantCase{Name: "Leaf"})}
	if _, err := Unify(l1, other); err == nil {
		t.Error("structurally different recursive types unified")
	}
}

func TestUnifyRecAgainstUnfolding(t *testing.T) {
	src := &VarSource{}
	v := src.FreshTypeVar()
	list := TRec{Var: v, Body: NewVariant(
		VariantCase{Name: "Nil"},
		VariantCase{Name: "Cons", Args: []Type{Int, v}},
	)}
	if _, err := Unify(list, UnfoldRec(list)); err != nil {
		t.Errorf("rec type does not unify with its one-step unfolding: %v", err)
	}
}

func TestUnifyHoleMatchesAnything(t *testing.T) {
	for _, typ := range []Type{Int, ListOf(Bool), TFunc{Params: []Type{Int}, ReturnType: Int}} {
		if _, err := Unify(THole{}, typ); err != nil {
			t.Errorf("hole did not match %s: %v", typ, err)
		}
		if _, err := Unify(typ, TUnknown{}); err != nil {
			t.Errorf("unknown did not match %s: %v", typ, err)
		}
	}
}

func TestUnifyLatentEffects(t *testing.T) {
	src := &VarSource{}
	tail := src.FreshEffectVar()
	open := TFunc{Params: []Type{Int}, ReturnType: Unit, Effects: NewOpenRow(tail)}
	io := TFunc{Params: []Type{Int}, ReturnType: Unit, Effects: NewClosedRow("IO")}

	s, err := UnifyWithSource(open, io, src)
	if err != nil {
		t.Fatalf("Unify: %v", err)
	}
	row, ok := s.EffectFor(tail)
	if !ok {
		t.Fatal("open tail not bound")
	}
	labels := row.Labels()
	if len(labels) != 1 || labels[0] != "IO" {
		t.Errorf("tail bound to %s, want {IO}", row)
	}
}

func TestUnifyMismatchedKinds(t *testing.T) {
	cases := []struct {
		name   string
		t1, t2 Type
	}{
		{"con vs tuple", Int, TTuple{Elements: []Type{Int}}},
		{"func vs record", TFunc{ReturnType: Int}, NewRecord()},
		{"app vs variant", ListOf(Int), NewVariant(VariantCase{Name: "A"})},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unify(tt.t1, tt.t2); err == nil {
				t.Error("expected mismatch")
			}
		})
	}
}

func TestUnifyDepthLimitIsPerSource(t *testing.T) {
	deep := Type(TVar{ID: 1})
	want := Type(Int)
	for i := 0; i < 64; i++ {
		deep = ListOf(deep)
		want = ListOf(want)
	}

	limited := &VarSource{MaxUnifyDepth: 8}
	_, err := UnifyWithSource(deep, want, limited)
	var uerr *UnifyError
	if !errors.As(err, &uerr) || uerr.Kind != UnifyDepthExceeded {
		t.Fatalf("limited source: err = %v, want depth exceeded", err)
	}

	// The limit travels with the source; another session is unaffected.
	if _, err := UnifyWithSource(deep, want, &VarSource{}); err != nil {
		t.Fatalf("default source: %v", err)
	}
	if _, err := Unify(deep, want); err != nil {
		t.Fatalf("no source: %v", err)
	}
}
