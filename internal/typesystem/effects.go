package typesystem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lume-lang/lume/internal/config"
)

// EffectVar represents an effect-row variable. Like TVar, IDs are opaque and
// unique within one inference session.
type EffectVar struct {
	ID int
}

func (v EffectVar) String() string {
	if config.IsTestMode || config.IsLSPMode {
		return "e?"
	}
	return fmt.Sprintf("e%d", v.ID)
}

// EffectSet is an effect row: the effects an expression may perform. A row
// is either fully known (ClosedRow) or ends in a row variable standing for
// "possibly more" (OpenRow). The two regimes are distinct variants so every
// consumer has to handle both.
type EffectSet interface {
	String() string
	Apply(Subst) EffectSet
	FreeEffectVars() []EffectVar
	// Labels returns the concrete effect names of the row, sorted.
	Labels() []string
	IsEmpty() bool
}

// ClosedRow is a fully-known effect set.
type ClosedRow struct {
	Effects []string
}

// OpenRow is a set of known effects plus a tail variable.
type OpenRow struct {
	Effects []string
	Tail    EffectVar
}

// EmptyEffects is the pure row: no effects, no tail.
var EmptyEffects EffectSet = ClosedRow{}

// NewClosedRow builds a closed row, sorting and deduplicating the labels.
func NewClosedRow(effects ...string) ClosedRow {
	return ClosedRow{Effects: normalizeLabels(effects)}
}

// NewOpenRow builds an open row ending in tail.
func NewOpenRow(tail EffectVar, effects ...string) OpenRow {
	return OpenRow{Effects: normalizeLabels(effects), Tail: tail}
}

func normalizeLabels(effects []string) []string {
	if len(effects) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(effects))
	out := make([]string, 0, len(effects))
	for _, e := range effects {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

func (r ClosedRow) Labels() []string            { return r.Effects }
func (r ClosedRow) IsEmpty() bool               { return len(r.Effects) == 0 }
func (r ClosedRow) FreeEffectVars() []EffectVar { return nil }

func (r ClosedRow) String() string {
	return "{" + strings.Join(r.Effects, ", ") + "}"
}

func (r OpenRow) Labels() []string { return r.Effects }

// An open row is never empty: its tail may stand for anything.
func (r OpenRow) IsEmpty() bool               { return false }
func (r OpenRow) FreeEffectVars() []EffectVar { return []EffectVar{r.Tail} }

func (r OpenRow) String() string {
	if len(r.Effects) == 0 {
		return "{" + r.Tail.String() + "}"
	}
	return "{" + strings.Join(r.Effects, ", ") + " | " + r.Tail.String() + "}"
}

// OperationType is the signature of one effect operation.
type OperationType struct {
	Params     []Type
	ReturnType Type
}

// Effect is an effect definition: a name plus its operation signatures.
// Definitions live in the type environment's effect table; rows reference
// them by name only.
type Effect struct {
	Name       string
	Operations []EffectOperation
}

// EffectOperation pairs an operation name with its signature.
type EffectOperation struct {
	Name string
	Sig  OperationType
}

// Operation returns the signature of the named operation.
func (e Effect) Operation(name string) (OperationType, bool) {
	for _, op := range e.Operations {
		if op.Name == name {
			return op.Sig, true
		}
	}
	return OperationType{}, false
}

// MergeEffect adds a single effect label to a row, preserving openness.
func MergeEffect(row EffectSet, name string) EffectSet {
	switch r := row.(type) {
	case ClosedRow:
		return NewClosedRow(append([]string{name}, r.Effects...)...)
	case OpenRow:
		return NewOpenRow(r.Tail, append([]string{name}, r.Effects...)...)
	default:
		return NewClosedRow(name)
	}
}

// UnionEffects combines two rows, used for sequencing: the result carries
// every effect either side may perform. When both rows are open with
// distinct tails, src mints a shared rest variable and the returned
// substitution rebinds both tails to it, so labels later flowing into
// either tail still land in the union. The caller must compose that
// substitution into its accumulator. With a nil src the right tail is
// rebound to the left one instead.
func UnionEffects(src *VarSource, a, b EffectSet) (EffectSet, Subst) {
	labels := append(append([]string{}, a.Labels()...), b.Labels()...)
	ta, openA := tailOf(a)
	tb, openB := tailOf(b)
	switch {
	case openA && openB:
		if ta.ID == tb.ID {
			return NewOpenRow(ta, labels...), EmptySubst()
		}
		if src == nil {
			return NewOpenRow(ta, labels...),
				EmptySubst().WithEffect(tb, NewOpenRow(ta))
		}
		rest := src.FreshEffectVar()
		s := EmptySubst().
			WithEffect(ta, NewOpenRow(rest)).
			WithEffect(tb, NewOpenRow(rest))
		return NewOpenRow(rest, labels...), s
	case openA:
		return NewOpenRow(ta, labels...), EmptySubst()
	case openB:
		return NewOpenRow(tb, labels...), EmptySubst()
	default:
		return NewClosedRow(labels...), EmptySubst()
	}
}

// SubtractEffects removes the given labels from a row; an open tail survives
// subtraction (the handler discharges only the named effects, whatever the
// tail ends up standing for remains).
func SubtractEffects(row EffectSet, handled []string) EffectSet {
	drop := make(map[string]bool, len(handled))
	for _, h := range handled {
		drop[h] = true
	}
	keep := []string{}
	for _, l := range row.Labels() {
		if !drop[l] {
			keep = append(keep, l)
		}
	}
	if r, ok := row.(OpenRow); ok {
		return NewOpenRow(r.Tail, keep...)
	}
	return NewClosedRow(keep...)
}

// IsSubsetOf reports whether every concrete effect of sub is accounted for
// by sup: present among sup's labels, or absorbable by sup's open tail.
func IsSubsetOf(sub, sup EffectSet) bool {
	supLabels := make(map[string]bool)
	for _, l := range sup.Labels() {
		supLabels[l] = true
	}
	_, supOpen := sup.(OpenRow)
	for _, l := range sub.Labels() {
		if !supLabels[l] && !supOpen {
			return false
		}
	}
	return true
}

func diffLabels(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, l := range b {
		in[l] = true
	}
	out := []string{}
	for _, l := range a {
		if !in[l] {
			out = append(out, l)
		}
	}
	return out
}

// UnifyEffects unifies two effect rows. src supplies fresh row variables for
// the case where both rows are open and each has effects the other lacks;
// it may be nil when the caller knows that case cannot arise (the two-open
// case then fails with an effect mismatch).
func UnifyEffects(e1, e2 EffectSet, src *VarSource) (Subst, error) {
	d1 := diffLabels(e1.Labels(), e2.Labels())
	d2 := diffLabels(e2.Labels(), e1.Labels())

	t1, open1 := tailOf(e1)
	t2, open2 := tailOf(e2)

	if len(d1) == 0 && len(d2) == 0 {
		switch {
		case !open1 && !open2:
			return EmptySubst(), nil
		case open1 && open2:
			if t1.ID == t2.ID {
				return EmptySubst(), nil
			}
			return EmptySubst().WithEffect(t1, NewOpenRow(t2)), nil
		case open1:
			return EmptySubst().WithEffect(t1, EmptyEffects), nil
		default:
			return EmptySubst().WithEffect(t2, EmptyEffects), nil
		}
	}

	switch {
	case open1 && open2:
		if t1.ID == t2.ID {
			// Same tail cannot absorb two different label sets.
			return Subst{}, &UnifyError{Kind: UnifyEffectMismatch, LeftEffects: e1, RightEffects: e2,
				Detail: "rows share a tail but differ in effects"}
		}
		if src == nil {
			return Subst{}, &UnifyError{Kind: UnifyEffectMismatch, LeftEffects: e1, RightEffects: e2,
				Detail: "both rows are open; fresh row variable required"}
		}
		rest := src.FreshEffectVar()
		s := EmptySubst().
			WithEffect(t1, NewOpenRow(rest, d2...)).
			WithEffect(t2, NewOpenRow(rest, d1...))
		return s, nil
	case open1:
		if len(d1) > 0 {
			// e1 has concrete effects e2 can never accept.
			return Subst{}, &UnifyError{Kind: UnifyEffectMismatch, LeftEffects: e1, RightEffects: e2}
		}
		return EmptySubst().WithEffect(t1, NewClosedRow(d2...)), nil
	case open2:
		if len(d2) > 0 {
			return Subst{}, &UnifyError{Kind: UnifyEffectMismatch, LeftEffects: e1, RightEffects: e2}
		}
		return EmptySubst().WithEffect(t2, NewClosedRow(d1...)), nil
	default:
		return Subst{}, &UnifyError{Kind: UnifyEffectMismatch, LeftEffects: e1, RightEffects: e2}
	}
}

func tailOf(e EffectSet) (EffectVar, bool) {
	if r, ok := e.(OpenRow); ok {
		return r.Tail, true
	}
	return EffectVar{}, false
}

// VarSource mints fresh type and effect variables for one inference session.
// Each context owns exactly one source; ids are never reused, so two
// instantiations of the same scheme can never alias.
type VarSource struct {
	typeCounter   int
	effectCounter int

	// MaxUnifyDepth bounds unifier recursion for this session. Zero means
	// DefaultMaxUnifyDepth. Sessions never share a source, so the limit is
	// never shared either.
	MaxUnifyDepth int
}

// FreshTypeVar mints a fresh type variable of kind Star.
func (vs *VarSource) FreshTypeVar() TVar {
	vs.typeCounter++
	return TVar{ID: vs.typeCounter}
}

// FreshTypeVarWithKind mints a fresh type variable with the given kind.
func (vs *VarSource) FreshTypeVarWithKind(k Kind) TVar {
	vs.typeCounter++
	return TVar{ID: vs.typeCounter, KindVal: k}
}

// FreshEffectVar mints a fresh effect-row variable.
func (vs *VarSource) FreshEffectVar() EffectVar {
	vs.effectCounter++
	return EffectVar{ID: vs.effectCounter}
}
