package analyzer

import (
	"fmt"

	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/token"
	"github.com/lume-lang/lume/internal/typesystem"
)

// SolveDeferred retries the queued constraints until no more progress is
// made, folding what it learns into subst. Constraints that still cannot
// be resolved become diagnostics at tok.
func SolveDeferred(ctx *InferenceContext, subst typesystem.Subst, tok token.Token) typesystem.Subst {
	pending := ctx.Deferred
	ctx.Deferred = nil

	for progress := true; progress && len(pending) > 0; {
		progress = false
		var next []typesystem.Constraint
		for _, c := range pending {
			s, solved, err := solveOne(ctx, c.Apply(subst))
			if err != nil {
				ctx.Reporter.Add(diagnosticOf(err, tokenProvider{tok}))
				progress = true
				continue
			}
			if !solved {
				next = append(next, c)
				continue
			}
			subst = s.Compose(subst)
			progress = true
		}
		// Solving can defer new obligations (instantiating a constrained
		// scheme does); fold them into this pass.
		if len(ctx.Deferred) > 0 {
			next = append(next, ctx.Deferred...)
			ctx.Deferred = nil
		}
		pending = next
	}

	// A tail still free at the end of the item will never gain labels;
	// the effect obligations are judged on the labels actually present.
	for _, c := range pending {
		ctx.Reporter.Add(finalizeConstraint(c.Apply(subst), tok))
	}
	return subst
}

func finalizeConstraint(c typesystem.Constraint, tok token.Token) *diagnostics.Diagnostic {
	hasLabel := func(row typesystem.EffectSet, label string) bool {
		for _, l := range row.Labels() {
			if l == label {
				return true
			}
		}
		return false
	}
	switch c.Kind {
	case typesystem.ConstraintSubEffect:
		for _, l := range c.Sub.Labels() {
			if !hasLabel(c.Sup, l) {
				if _, open := c.Sup.(typesystem.OpenRow); open {
					continue
				}
				return diagnostics.NewError(diagnostics.ErrEffectMismatch, tok,
					fmt.Sprintf("inferred effects %s exceed declared effects %s", c.Sub, c.Sup))
			}
		}
		return nil
	case typesystem.ConstraintRequiresEffect:
		if hasLabel(c.Sub, c.Effect) {
			return nil
		}
		return diagnostics.NewError(diagnostics.ErrEffectMismatch, tok,
			fmt.Sprintf("effect %s is required but the row is %s", c.Effect, c.Sub))
	case typesystem.ConstraintHandlesEffect:
		if hasLabel(c.Sub, c.Effect) {
			return nil
		}
		return diagnostics.NewWarning(diagnostics.WarnRedundantHandler, tok,
			fmt.Sprintf("handler for %s discharges nothing: the body is %s", c.Effect, c.Sub))
	default:
		return unsolvedDiagnostic(c, tok)
	}
}

// solveOne attempts one constraint. solved=false means the constraint has
// no answer yet and should be retried later.
func solveOne(ctx *InferenceContext, c typesystem.Constraint) (typesystem.Subst, bool, error) {
	switch c.Kind {
	case typesystem.ConstraintEqual:
		s, err := typesystem.UnifyWithSource(c.Left, c.Right, ctx.Source)
		if err != nil {
			return typesystem.EmptySubst(), false, err
		}
		return s, true, nil

	case typesystem.ConstraintInstance:
		if c.Scheme == nil {
			return typesystem.EmptySubst(), false,
				fmt.Errorf("instance constraint without a scheme")
		}
		inst, renaming := c.Scheme.Instantiate(ctx.Source)
		for _, ic := range c.Scheme.InstantiateConstraints(renaming) {
			ctx.Defer(ic)
		}
		s, err := typesystem.UnifyWithSource(c.Left, inst, ctx.Source)
		if err != nil {
			return typesystem.EmptySubst(), false, err
		}
		return s, true, nil

	case typesystem.ConstraintHasField:
		switch subject := c.Left.(type) {
		case typesystem.TVar:
			return typesystem.EmptySubst(), false, nil
		case typesystem.TRecord:
			ft, ok := subject.FieldType(c.Field)
			if !ok {
				return typesystem.EmptySubst(), false,
					fmt.Errorf("%s has no field %s", subject, c.Field)
			}
			s, err := typesystem.UnifyWithSource(c.Result, ft, ctx.Source)
			if err != nil {
				return typesystem.EmptySubst(), false, err
			}
			return s, true, nil
		default:
			return typesystem.EmptySubst(), false,
				fmt.Errorf("%s is not a record, cannot access field %s", c.Left, c.Field)
		}

	case typesystem.ConstraintCallable:
		switch callee := c.Left.(type) {
		case typesystem.TVar:
			return typesystem.EmptySubst(), false, nil
		case typesystem.TFunc:
			want := typesystem.TFunc{
				Params:     c.Args,
				ReturnType: c.Result,
				Effects:    typesystem.NewOpenRow(ctx.FreshEffectVar()),
			}
			s, err := typesystem.UnifyWithSource(callee, want, ctx.Source)
			if err != nil {
				return typesystem.EmptySubst(), false, err
			}
			return s, true, nil
		default:
			return typesystem.EmptySubst(), false,
				fmt.Errorf("%s is not callable", c.Left)
		}

	case typesystem.ConstraintSubEffect:
		if rowUnresolved(c.Sub) {
			return typesystem.EmptySubst(), false, nil
		}
		if !typesystem.IsSubsetOf(c.Sub, c.Sup) {
			return typesystem.EmptySubst(), false,
				fmt.Errorf("inferred effects %s exceed declared effects %s", c.Sub, c.Sup)
		}
		return typesystem.EmptySubst(), true, nil

	case typesystem.ConstraintRequiresEffect:
		if rowUnresolved(c.Sub) {
			return typesystem.EmptySubst(), false, nil
		}
		for _, l := range c.Sub.Labels() {
			if l == c.Effect {
				return typesystem.EmptySubst(), true, nil
			}
		}
		return typesystem.EmptySubst(), false,
			fmt.Errorf("effect %s is required but the row is %s", c.Effect, c.Sub)

	case typesystem.ConstraintHandlesEffect:
		// Handler redundancy is only a warning; it is judged in the final
		// pass once the row cannot change anymore.
		return typesystem.EmptySubst(), false, nil

	default:
		return typesystem.EmptySubst(), false,
			fmt.Errorf("unsupported constraint %s", c.Kind)
	}
}

// rowUnresolved reports whether a row still has an open tail, meaning
// later unification could still add labels.
func rowUnresolved(row typesystem.EffectSet) bool {
	if row == nil {
		return true
	}
	return len(row.FreeEffectVars()) > 0
}

func unsolvedDiagnostic(c typesystem.Constraint, tok token.Token) *diagnostics.Diagnostic {
	switch c.Kind {
	case typesystem.ConstraintHasField:
		return diagnostics.NewError(diagnostics.ErrTypeMismatch, tok,
			fmt.Sprintf("cannot determine the record type carrying field %s", c.Field))
	case typesystem.ConstraintCallable:
		return diagnostics.NewError(diagnostics.ErrTypeMismatch, tok,
			fmt.Sprintf("cannot determine the function type of %s", c.Left))
	case typesystem.ConstraintSubEffect, typesystem.ConstraintRequiresEffect, typesystem.ConstraintHandlesEffect:
		return diagnostics.NewError(diagnostics.ErrEffectMismatch, tok,
			fmt.Sprintf("cannot resolve effect obligation over %s", c.Sub))
	default:
		return diagnostics.NewError(diagnostics.ErrInference, tok,
			fmt.Sprintf("unresolved constraint %s", c.Kind))
	}
}

// tokenProvider adapts a bare token to the TokenProvider interface.
type tokenProvider struct {
	tok token.Token
}

func (t tokenProvider) GetToken() token.Token { return t.tok }
