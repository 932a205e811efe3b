package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

// InferExpr infers the type of expr together with the effects its
// evaluation may perform. The returned substitution is everything learned
// while walking expr; callers compose it into their running substitution.
func InferExpr(ctx *InferenceContext, expr ast.Expression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	t, eff, s, err := inferExpr(ctx, expr, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}
	ctx.Record(expr, t.Apply(s))
	return t, eff, s, nil
}

func inferExpr(ctx *InferenceContext, expr ast.Expression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	switch n := expr.(type) {
	case *ast.IntegerLiteral:
		return typesystem.Int, typesystem.EmptyEffects, typesystem.EmptySubst(), nil
	case *ast.FloatLiteral:
		return typesystem.Float, typesystem.EmptyEffects, typesystem.EmptySubst(), nil
	case *ast.BooleanLiteral:
		return typesystem.Bool, typesystem.EmptyEffects, typesystem.EmptySubst(), nil
	case *ast.StringLiteral:
		return typesystem.String, typesystem.EmptyEffects, typesystem.EmptySubst(), nil
	case *ast.UnitLiteral:
		return typesystem.Unit, typesystem.EmptyEffects, typesystem.EmptySubst(), nil
	case *ast.HoleExpression:
		return ctx.FreshVar(), typesystem.EmptyEffects, typesystem.EmptySubst(), nil

	case *ast.Identifier:
		return inferIdentifier(ctx, n, env)
	case *ast.LambdaExpression:
		return inferLambda(ctx, n, env)
	case *ast.CallExpression:
		return inferCall(ctx, n, n.Function, n.Arguments, env)
	case *ast.LetExpression:
		return inferLet(ctx, n, env)
	case *ast.IfExpression:
		return inferIf(ctx, n, env)
	case *ast.MatchExpression:
		return inferMatch(ctx, n, env)
	case *ast.PerformExpression:
		return inferPerform(ctx, n, env)
	case *ast.HandleExpression:
		return inferHandle(ctx, n, env)
	case *ast.FieldAccessExpression:
		return inferFieldAccess(ctx, n, env)
	case *ast.AnnotatedExpression:
		return inferAnnotated(ctx, n, env)
	case *ast.InfixExpression:
		return inferInfix(ctx, n, env)
	case *ast.PrefixExpression:
		return inferPrefix(ctx, n, env)
	case *ast.TupleLiteral:
		return inferTuple(ctx, n, env)
	case *ast.ListLiteral:
		return inferList(ctx, n, env)
	case *ast.RecordLiteral:
		return inferRecord(ctx, n, env)
	case *ast.ConstructorExpression:
		return inferConstructor(ctx, n, env)

	default:
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrInference, expr, "cannot infer expression of this form")
	}
}

func inferIdentifier(ctx *InferenceContext, n *ast.Identifier, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	scheme, ok := env.LookupName(n.Value)
	if !ok {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrUnboundVariable, n, "unbound variable %s", n.Value)
	}
	t, renaming := scheme.Instantiate(ctx.Source)
	for _, c := range scheme.InstantiateConstraints(renaming) {
		ctx.Defer(c)
	}
	return t, typesystem.EmptyEffects, typesystem.EmptySubst(), nil
}

func inferLambda(ctx *InferenceContext, n *ast.LambdaExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	scope := env.EnterScope(symbols.ScopeLambda)
	params := make([]typesystem.Type, 0, len(n.Parameters))
	for _, p := range n.Parameters {
		var pt typesystem.Type
		if p.TypeAnnotation != nil {
			built, err := BuildType(ctx, env, p.TypeAnnotation)
			if err != nil {
				return nil, nil, typesystem.EmptySubst(), err
			}
			pt = built
		} else {
			pt = ctx.FreshVar()
		}
		params = append(params, pt)
		scope.DefineName(p.Name.Value, typesystem.MonoScheme(pt), p.Name)
	}

	bodyType, bodyEffects, s, err := InferExpr(ctx, n.Body, scope)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}

	for i := range params {
		params[i] = params[i].Apply(s)
	}
	fn := typesystem.TFunc{
		Params:     params,
		ReturnType: bodyType.Apply(s),
		Effects:    bodyEffects.Apply(s),
	}
	// The lambda itself evaluates without effects; its body's effects are
	// latent until it is applied.
	return fn, typesystem.EmptyEffects, s, nil
}

func inferCall(ctx *InferenceContext, at ast.TokenProvider, fn ast.Expression, args []ast.Expression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	fnType, fnEffects, totalSubst, err := InferExpr(ctx, fn, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}

	effects := fnEffects
	argTypes := make([]typesystem.Type, 0, len(args))
	for _, arg := range args {
		argType, argEffects, s, err := InferExpr(ctx, arg, env)
		if err != nil {
			return nil, nil, typesystem.EmptySubst(), err
		}
		totalSubst = s.Compose(totalSubst)
		argTypes = append(argTypes, argType)
		var us typesystem.Subst
		effects, us = typesystem.UnionEffects(ctx.Source, effects, argEffects)
		totalSubst = us.Compose(totalSubst)
	}
	for i := range argTypes {
		argTypes[i] = argTypes[i].Apply(totalSubst)
	}

	result := ctx.FreshVar()
	latent := typesystem.NewOpenRow(ctx.FreshEffectVar())

	callee := fnType.Apply(totalSubst)
	if ctx.isFieldResult(callee) {
		// The callee's type is still a pending field access; committing to
		// a function shape now would guess. Retry once the record is known.
		ctx.Defer(typesystem.Constraint{
			Kind:   typesystem.ConstraintCallable,
			Left:   callee,
			Args:   argTypes,
			Result: result,
		})
		return result, effects.Apply(totalSubst), totalSubst, nil
	}

	want := typesystem.TFunc{Params: argTypes, ReturnType: result, Effects: latent}
	s, err := typesystem.UnifyWithSource(callee, want, ctx.Source)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), unifyErrorAt(err, at)
	}
	totalSubst = s.Compose(totalSubst)

	effects, us := typesystem.UnionEffects(ctx.Source, effects, latent)
	totalSubst = us.Compose(totalSubst)
	return result.Apply(totalSubst), effects.Apply(totalSubst), totalSubst, nil
}
