package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

func inferPerform(ctx *InferenceContext, n *ast.PerformExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	eff, ok := env.LookupEffect(n.Effect.Value)
	if !ok {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrUnknownEffect, n.Effect, "unknown effect %s", n.Effect.Value)
	}
	sig, ok := eff.Operation(n.Operation.Value)
	if !ok {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrUnknownOperation, n.Operation,
				"effect %s has no operation %s", eff.Name, n.Operation.Value)
	}
	if len(n.Arguments) != len(sig.Params) {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrArityMismatch, n,
				"%s.%s expects %d argument(s), got %d",
				eff.Name, n.Operation.Value, len(sig.Params), len(n.Arguments))
	}

	totalSubst := typesystem.EmptySubst()
	effects := typesystem.EmptyEffects
	for i, arg := range n.Arguments {
		argType, argEffects, s, err := InferExpr(ctx, arg, env)
		if err != nil {
			return nil, nil, typesystem.EmptySubst(), err
		}
		totalSubst = s.Compose(totalSubst)
		var us typesystem.Subst
		effects, us = typesystem.UnionEffects(ctx.Source, effects, argEffects)
		totalSubst = us.Compose(totalSubst)

		s, uerr := typesystem.UnifyWithSource(argType.Apply(totalSubst), sig.Params[i], ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, arg)
		}
		totalSubst = s.Compose(totalSubst)
	}

	// Performing adds the effect to an open row so enclosing code can
	// accumulate more effects around it.
	performed := typesystem.NewOpenRow(ctx.FreshEffectVar(), eff.Name)
	effects, us := typesystem.UnionEffects(ctx.Source, effects, performed)
	totalSubst = us.Compose(totalSubst)
	return sig.ReturnType.Apply(totalSubst), effects.Apply(totalSubst), totalSubst, nil
}

func inferHandle(ctx *InferenceContext, n *ast.HandleExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	eff, ok := env.LookupEffect(n.Effect.Value)
	if !ok {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrUnknownEffect, n.Effect, "unknown effect %s", n.Effect.Value)
	}

	bodyType, bodyEffects, totalSubst, err := InferExpr(ctx, n.Body, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}

	// A handler that can discharge nothing is suspicious but not wrong;
	// the obligation is checked once the body's row is fully known.
	ctx.Defer(typesystem.Constraint{
		Kind:   typesystem.ConstraintHandlesEffect,
		Effect: eff.Name,
		Sub:    bodyEffects,
	})

	resultType := typesystem.Type(ctx.FreshVar())
	handlerEffects := typesystem.EmptyEffects

	seen := map[string]bool{}
	for _, clause := range n.Clauses {
		sig, ok := eff.Operation(clause.Operation.Value)
		if !ok {
			return nil, nil, typesystem.EmptySubst(),
				errorAt(diagnostics.ErrUnknownOperation, clause.Operation,
					"effect %s has no operation %s", eff.Name, clause.Operation.Value)
		}
		if seen[clause.Operation.Value] {
			return nil, nil, typesystem.EmptySubst(),
				errorAt(diagnostics.ErrUnknownOperation, clause.Operation,
					"duplicate handler clause for %s", clause.Operation.Value)
		}
		seen[clause.Operation.Value] = true
		if len(clause.Params) != len(sig.Params) {
			return nil, nil, typesystem.EmptySubst(),
				errorAt(diagnostics.ErrArityMismatch, clause,
					"%s takes %d parameter(s), clause binds %d",
					clause.Operation.Value, len(sig.Params), len(clause.Params))
		}

		scope := env.EnterScope(symbols.ScopeHandler)
		for i, p := range clause.Params {
			scope.DefineName(p.Value, typesystem.MonoScheme(sig.Params[i]), p)
		}
		if clause.Resume != nil {
			// resume takes the operation's return value and continues the
			// handled computation to this handler's result.
			resume := typesystem.TFunc{
				Params:     []typesystem.Type{sig.ReturnType},
				ReturnType: resultType,
				Effects:    typesystem.NewOpenRow(ctx.FreshEffectVar()),
			}
			scope.DefineName(clause.Resume.Value, typesystem.MonoScheme(resume), clause.Resume)
		}

		clauseType, clauseEffects, s, cerr := InferExpr(ctx, clause.Body, scope)
		if cerr != nil {
			return nil, nil, typesystem.EmptySubst(), cerr
		}
		totalSubst = s.Compose(totalSubst)
		var us typesystem.Subst
		handlerEffects, us = typesystem.UnionEffects(ctx.Source, handlerEffects, clauseEffects)
		totalSubst = us.Compose(totalSubst)

		s, uerr := typesystem.UnifyWithSource(resultType.Apply(totalSubst), clauseType.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, clause)
		}
		totalSubst = s.Compose(totalSubst)
	}

	if n.ReturnCl != nil {
		scope := env.EnterScope(symbols.ScopeHandler)
		scope.DefineName(n.ReturnCl.Param.Value, typesystem.MonoScheme(bodyType.Apply(totalSubst)), n.ReturnCl.Param)

		retType, retEffects, s, rerr := InferExpr(ctx, n.ReturnCl.Body, scope)
		if rerr != nil {
			return nil, nil, typesystem.EmptySubst(), rerr
		}
		totalSubst = s.Compose(totalSubst)
		var us typesystem.Subst
		handlerEffects, us = typesystem.UnionEffects(ctx.Source, handlerEffects, retEffects)
		totalSubst = us.Compose(totalSubst)

		s, uerr := typesystem.UnifyWithSource(resultType.Apply(totalSubst), retType.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n.ReturnCl)
		}
		totalSubst = s.Compose(totalSubst)
	} else {
		// Without a return clause the handled computation's value passes
		// through unchanged.
		s, uerr := typesystem.UnifyWithSource(resultType.Apply(totalSubst), bodyType.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n)
		}
		totalSubst = s.Compose(totalSubst)
	}

	remaining := typesystem.SubtractEffects(bodyEffects.Apply(totalSubst), []string{eff.Name})
	effects, us := typesystem.UnionEffects(ctx.Source, remaining, handlerEffects)
	totalSubst = us.Compose(totalSubst)
	return resultType.Apply(totalSubst), effects.Apply(totalSubst), totalSubst, nil
}
