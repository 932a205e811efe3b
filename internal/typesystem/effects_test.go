package typesystem

import (
	"reflect"
	"testing"
)

func TestRowConstructorsNormalize(t *testing.T) {
	r := NewClosedRow("State", "IO", "IO")
	if !reflect.DeepEqual(r.Labels(), []string{"IO", "State"}) {
		t.Errorf("labels not sorted and deduped: %v", r.Labels())
	}
	open := NewOpenRow(EffectVar{ID: 1}, "Exn", "Exn")
	if !reflect.DeepEqual(open.Labels(), []string{"Exn"}) {
		t.Errorf("open row labels: %v", open.Labels())
	}
}

func TestUnifyEffectsClosedEqual(t *testing.T) {
	s, err := UnifyEffects(NewClosedRow("IO", "State"), NewClosedRow("State", "IO"), nil)
	if err != nil {
		t.Fatalf("UnifyEffects: %v", err)
	}
	if !s.IsEmpty() {
		t.Error("equal closed rows produced bindings")
	}
}

func TestUnifyEffectsClosedMismatch(t *testing.T) {
	if _, err := UnifyEffects(NewClosedRow("IO"), NewClosedRow("State"), nil); err == nil {
		t.Error("differing closed rows unified")
	}
}

func TestUnifyEffectsOpenAbsorbs(t *testing.T) {
	src := &VarSource{}
	tail := src.FreshEffectVar()
	s, err := UnifyEffects(NewOpenRow(tail, "IO"), NewClosedRow("IO", "State"), src)
	if err != nil {
		t.Fatalf("UnifyEffects: %v", err)
	}
	row, ok := s.EffectFor(tail)
	if !ok {
		t.Fatal("tail unbound")
	}
	if !reflect.DeepEqual(row.Labels(), []string{"State"}) {
		t.Errorf("tail bound to %v, want {State}", row.Labels())
	}
}

func TestUnifyEffectsOpenRejectsMissing(t *testing.T) {
	src := &VarSource{}
	tail := src.FreshEffectVar()
	// The open row demands IO; the closed row cannot supply it.
	if _, err := UnifyEffects(NewOpenRow(tail, "IO"), NewClosedRow("State"), src); err == nil {
		t.Error("closed row missing a required label unified")
	}
}

func TestUnifyEffectsBothOpen(t *testing.T) {
	src := &VarSource{}
	t1 := src.FreshEffectVar()
	t2 := src.FreshEffectVar()
	s, err := UnifyEffects(NewOpenRow(t1, "IO"), NewOpenRow(t2, "State"), src)
	if err != nil {
		t.Fatalf("UnifyEffects: %v", err)
	}
	r1, ok1 := s.EffectFor(t1)
	r2, ok2 := s.EffectFor(t2)
	if !ok1 || !ok2 {
		t.Fatal("both tails must be bound")
	}
	// Each side picks up the other's extra labels over a shared rest var.
	if !reflect.DeepEqual(r1.Labels(), []string{"State"}) {
		t.Errorf("first tail: %v, want {State}", r1.Labels())
	}
	if !reflect.DeepEqual(r2.Labels(), []string{"IO"}) {
		t.Errorf("second tail: %v, want {IO}", r2.Labels())
	}
	o1, ok1 := r1.(OpenRow)
	o2, ok2 := r2.(OpenRow)
	if !ok1 || !ok2 || o1.Tail != o2.Tail {
		t.Error("tails must resolve to open rows over a shared rest variable")
	}
}

func TestUnifyEffectsBothOpenNeedsSource(t *testing.T) {
	t1 := EffectVar{ID: 100}
	t2 := EffectVar{ID: 101}
	if _, err := UnifyEffects(NewOpenRow(t1, "IO"), NewOpenRow(t2, "State"), nil); err == nil {
		t.Error("both-open unification without a variable source must fail")
	}
}

func TestUnifyEffectsSameTailSameLabels(t *testing.T) {
	tail := EffectVar{ID: 7}
	s, err := UnifyEffects(NewOpenRow(tail, "IO"), NewOpenRow(tail, "IO"), nil)
	if err != nil {
		t.Fatalf("UnifyEffects: %v", err)
	}
	if !s.IsEmpty() {
		t.Error("identical open rows produced bindings")
	}
}

func TestSubtractEffects(t *testing.T) {
	tests := []struct {
		name    string
		row     EffectSet
		handled []string
		want    []string
		open    bool
	}{
		{"closed full", NewClosedRow("IO"), []string{"IO"}, nil, false},
		{"closed partial", NewClosedRow("IO", "State"), []string{"IO"}, []string{"State"}, false},
		{"closed absent", NewClosedRow("IO"), []string{"Exn"}, []string{"IO"}, false},
		{"open keeps tail", NewOpenRow(EffectVar{ID: 3}, "IO", "State"), []string{"IO"}, []string{"State"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubtractEffects(tt.row, tt.handled)
			labels := got.Labels()
			if len(labels) != len(tt.want) {
				t.Fatalf("labels = %v, want %v", labels, tt.want)
			}
			for i := range tt.want {
				if labels[i] != tt.want[i] {
					t.Fatalf("labels = %v, want %v", labels, tt.want)
				}
			}
			_, isOpen := got.(OpenRow)
			if isOpen != tt.open {
				t.Errorf("open = %v, want %v", isOpen, tt.open)
			}
		})
	}
}

func TestUnionEffects(t *testing.T) {
	got, s := UnionEffects(nil, NewClosedRow("IO"), NewClosedRow("State"))
	if !reflect.DeepEqual(got.Labels(), []string{"IO", "State"}) {
		t.Errorf("union labels: %v", got.Labels())
	}
	if !s.IsEmpty() {
		t.Errorf("closed union must not substitute: %v", s)
	}
	withTail, _ := UnionEffects(nil, NewOpenRow(EffectVar{ID: 2}, "IO"), NewClosedRow("Exn"))
	if _, ok := withTail.(OpenRow); !ok {
		t.Error("union with an open operand must stay open")
	}
	if !reflect.DeepEqual(withTail.Labels(), []string{"Exn", "IO"}) {
		t.Errorf("union labels: %v", withTail.Labels())
	}
}

func TestUnionEffectsFusesOpenTails(t *testing.T) {
	src := &VarSource{}
	r1 := NewOpenRow(src.FreshEffectVar())
	r2 := NewOpenRow(src.FreshEffectVar())

	union, s := UnionEffects(src, r1, r2)
	row, ok := union.(OpenRow)
	if !ok {
		t.Fatalf("union of two open rows must stay open, got %s", union)
	}
	if row.Tail == r1.Tail || row.Tail == r2.Tail {
		t.Fatalf("distinct tails must fuse into a fresh rest, got %s", row.Tail)
	}
	if !reflect.DeepEqual(r1.Apply(s), r2.Apply(s)) {
		t.Errorf("both tails must rebind to the shared rest: %s vs %s", r1.Apply(s), r2.Apply(s))
	}

	// A label flowing into either original tail must reach the union.
	bind := EmptySubst().WithEffect(row.Tail, NewClosedRow("IO"))
	if got := union.Apply(bind).Labels(); !reflect.DeepEqual(got, []string{"IO"}) {
		t.Errorf("union lost the label: %v", got)
	}
	if got := r2.Apply(s).Apply(bind).Labels(); !reflect.DeepEqual(got, []string{"IO"}) {
		t.Errorf("right operand lost the label: %v", got)
	}

	shared := NewOpenRow(EffectVar{ID: 7}, "IO")
	same, s2 := UnionEffects(src, shared, NewOpenRow(EffectVar{ID: 7}, "Exn"))
	if !s2.IsEmpty() {
		t.Errorf("shared tail must not substitute: %v", s2)
	}
	if got := same.(OpenRow).Tail.ID; got != 7 {
		t.Errorf("shared tail must survive: e%d", got)
	}
}

func TestMergeEffect(t *testing.T) {
	closed := MergeEffect(NewClosedRow("IO"), "State")
	if !reflect.DeepEqual(closed.Labels(), []string{"IO", "State"}) {
		t.Errorf("merge into closed row: %v", closed.Labels())
	}
	open := MergeEffect(NewOpenRow(EffectVar{ID: 3}, "IO"), "Exn")
	or, ok := open.(OpenRow)
	if !ok {
		t.Fatal("merge into an open row must stay open")
	}
	if or.Tail.ID != 3 {
		t.Errorf("merge replaced the tail: %v", or.Tail)
	}
	if !reflect.DeepEqual(or.Labels(), []string{"Exn", "IO"}) {
		t.Errorf("merge labels: %v", or.Labels())
	}
	if got := MergeEffect(nil, "IO"); !reflect.DeepEqual(got.Labels(), []string{"IO"}) {
		t.Errorf("merge into nil row: %v", got.Labels())
	}
}

func TestIsSubsetOf(t *testing.T) {
	tests := []struct {
		name     string
		sub, sup EffectSet
		want     bool
	}{
		{"empty in anything", EmptyEffects, NewClosedRow("IO"), true},
		{"subset", NewClosedRow("IO"), NewClosedRow("IO", "State"), true},
		{"not subset", NewClosedRow("Exn"), NewClosedRow("IO"), false},
		{"open supertype accepts", NewClosedRow("Exn"), NewOpenRow(EffectVar{ID: 5}, "IO"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSubsetOf(tt.sub, tt.sup); got != tt.want {
				t.Errorf("IsSubsetOf(%s, %s) = %v, want %v", tt.sub, tt.sup, got, tt.want)
			}
		})
	}
}

func TestEffectOperationLookup(t *testing.T) {
	state := Effect{
		Name: "State",
		Operations: []EffectOperation{
			{Name: "get", Sig: OperationType{ReturnType: Int}},
			{Name: "put", Sig: OperationType{Params: []Type{Int}, ReturnType: Unit}},
		},
	}
	sig, ok := state.Operation("put")
	if !ok {
		t.Fatal("put not found")
	}
	if len(sig.Params) != 1 || sig.ReturnType.String() != "Unit" {
		t.Errorf("unexpected signature: %v -> %s", sig.Params, sig.ReturnType)
	}
	if _, ok := state.Operation("missing"); ok {
		t.Error("missing operation reported as present")
	}
}
