package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

func inferLet(ctx *InferenceContext, n *ast.LetExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	scope := env.EnterScope(symbols.ScopeLet)

	name, named := n.Binder.(*ast.IdentifierPattern)
	if n.Recursive && !named {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrInference, n, "recursive binding requires a plain name")
	}

	var valueType typesystem.Type
	var valueEffects typesystem.EffectSet
	var totalSubst typesystem.Subst
	var err error

	if n.Recursive {
		// The name is visible, monomorphic, inside its own definition.
		placeholder := ctx.FreshVar()
		scope.DefineName(name.Name.Value, typesystem.MonoScheme(placeholder), name.Name)
		valueType, valueEffects, totalSubst, err = InferExpr(ctx, n.Value, scope)
		if err != nil {
			return nil, nil, typesystem.EmptySubst(), err
		}
		s, uerr := typesystem.UnifyWithSource(placeholder.Apply(totalSubst), valueType.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n)
		}
		totalSubst = s.Compose(totalSubst)
	} else {
		valueType, valueEffects, totalSubst, err = InferExpr(ctx, n.Value, env)
		if err != nil {
			return nil, nil, typesystem.EmptySubst(), err
		}
	}

	if n.TypeAnnotation != nil {
		declared, aerr := BuildType(ctx, env, n.TypeAnnotation)
		if aerr != nil {
			return nil, nil, typesystem.EmptySubst(), aerr
		}
		s, uerr := typesystem.UnifyWithSource(valueType.Apply(totalSubst), declared, ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n.Binder)
		}
		totalSubst = s.Compose(totalSubst)
		checkDeclaredEffects(ctx, declared, valueType.Apply(totalSubst))
	}

	if named {
		bound := valueType.Apply(totalSubst)
		var scheme *typesystem.Scheme
		if IsSyntacticValue(n.Value) {
			env.ApplySubst(totalSubst)
			scheme = Generalize(ctx, bound, env)
		} else {
			scheme = typesystem.MonoScheme(bound)
		}
		scope.DefineName(name.Name.Value, scheme, name.Name)
	} else {
		// Destructuring binds its names monomorphically, whatever the
		// value form.
		patType, ps, perr := inferPattern(ctx, n.Binder, scope)
		if perr != nil {
			return nil, nil, typesystem.EmptySubst(), perr
		}
		totalSubst = ps.Compose(totalSubst)
		s, uerr := typesystem.UnifyWithSource(patType.Apply(totalSubst), valueType.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n.Binder)
		}
		totalSubst = s.Compose(totalSubst)
	}

	bodyType, bodyEffects, s, err := InferExpr(ctx, n.Body, scope)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}
	totalSubst = s.Compose(totalSubst)

	warnUnused(ctx, scope)

	effects, us := typesystem.UnionEffects(ctx.Source, valueEffects, bodyEffects)
	totalSubst = us.Compose(totalSubst)
	return bodyType.Apply(totalSubst), effects.Apply(totalSubst), totalSubst, nil
}

// checkDeclaredEffects queues the obligation that a declared latent effect
// row covers what inference found. Solved once the item is fully known.
func checkDeclaredEffects(ctx *InferenceContext, declared, inferred typesystem.Type) {
	dFn, ok1 := declared.(typesystem.TFunc)
	iFn, ok2 := inferred.(typesystem.TFunc)
	if !ok1 || !ok2 {
		return
	}
	ctx.Defer(typesystem.Constraint{
		Kind: typesystem.ConstraintSubEffect,
		Sub:  iFn.LatentEffects(),
		Sup:  dFn.LatentEffects(),
	})
}

func warnUnused(ctx *InferenceContext, scope *symbols.TypeEnvironment) {
	if !ctx.cfg.WarnUnusedLets {
		return
	}
	for _, b := range scope.UnusedBindings() {
		name := scope.Interner().Name(b.Name)
		if name == "" || name[0] == '_' {
			continue
		}
		tok := tokenOf(b.DefinitionNode)
		ctx.Reporter.Add(diagnostics.NewWarning(diagnostics.WarnUnusedBinding, tok,
			"unused binding "+name))
	}
}

func inferIf(ctx *InferenceContext, n *ast.IfExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	condType, condEffects, totalSubst, err := InferExpr(ctx, n.Condition, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}

	s, uerr := typesystem.UnifyWithSource(condType.Apply(totalSubst), typesystem.Bool, ctx.Source)
	if uerr != nil {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrTypeMismatch, n.Condition,
				"condition of if must be Bool, got %s", condType.Apply(totalSubst))
	}
	totalSubst = s.Compose(totalSubst)

	thenType, thenEffects, s2, err := InferExpr(ctx, n.Consequence, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}
	totalSubst = s2.Compose(totalSubst)

	elseType, elseEffects, s3, err := InferExpr(ctx, n.Alternative, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}
	totalSubst = s3.Compose(totalSubst)

	s4, uerr := typesystem.UnifyWithSource(thenType.Apply(totalSubst), elseType.Apply(totalSubst), ctx.Source)
	if uerr != nil {
		return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n)
	}
	totalSubst = s4.Compose(totalSubst)

	branchEffects, us := typesystem.UnionEffects(ctx.Source, thenEffects, elseEffects)
	totalSubst = us.Compose(totalSubst)
	effects, us := typesystem.UnionEffects(ctx.Source, condEffects, branchEffects)
	totalSubst = us.Compose(totalSubst)
	return thenType.Apply(totalSubst), effects.Apply(totalSubst), totalSubst, nil
}

func inferMatch(ctx *InferenceContext, n *ast.MatchExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	if len(n.Arms) == 0 {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrInference, n, "match expression has no arms")
	}

	scrutType, effects, totalSubst, err := InferExpr(ctx, n.Scrutinee, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}

	resultType := typesystem.Type(ctx.FreshVar())
	for _, arm := range n.Arms {
		scope := env.EnterScope(symbols.ScopeMatchArm)
		patType, s, perr := inferPattern(ctx, arm.Pattern, scope)
		if perr != nil {
			return nil, nil, typesystem.EmptySubst(), perr
		}
		totalSubst = s.Compose(totalSubst)

		s, uerr := typesystem.UnifyWithSource(scrutType.Apply(totalSubst), patType.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, arm.Pattern)
		}
		totalSubst = s.Compose(totalSubst)

		bodyType, bodyEffects, s2, berr := InferExpr(ctx, arm.Body, scope)
		if berr != nil {
			return nil, nil, typesystem.EmptySubst(), berr
		}
		totalSubst = s2.Compose(totalSubst)
		var us typesystem.Subst
		effects, us = typesystem.UnionEffects(ctx.Source, effects, bodyEffects)
		totalSubst = us.Compose(totalSubst)

		s3, uerr := typesystem.UnifyWithSource(resultType.Apply(totalSubst), bodyType.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, arm)
		}
		totalSubst = s3.Compose(totalSubst)

		warnUnused(ctx, scope)
	}

	return resultType.Apply(totalSubst), effects.Apply(totalSubst), totalSubst, nil
}
