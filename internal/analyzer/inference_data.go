package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

func inferTuple(ctx *InferenceContext, n *ast.TupleLiteral, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	totalSubst := typesystem.EmptySubst()
	effects := typesystem.EmptyEffects
	elems := make([]typesystem.Type, 0, len(n.Elements))
	for _, e := range n.Elements {
		et, eEffects, s, err := InferExpr(ctx, e, env)
		if err != nil {
			return nil, nil, typesystem.EmptySubst(), err
		}
		totalSubst = s.Compose(totalSubst)
		var us typesystem.Subst
		effects, us = typesystem.UnionEffects(ctx.Source, effects, eEffects)
		totalSubst = us.Compose(totalSubst)
		elems = append(elems, et)
	}
	for i := range elems {
		elems[i] = elems[i].Apply(totalSubst)
	}
	return typesystem.TTuple{Elements: elems}, effects.Apply(totalSubst), totalSubst, nil
}

func inferList(ctx *InferenceContext, n *ast.ListLiteral, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	elemType := typesystem.Type(ctx.FreshVar())
	totalSubst := typesystem.EmptySubst()
	effects := typesystem.EmptyEffects
	for _, e := range n.Elements {
		et, eEffects, s, err := InferExpr(ctx, e, env)
		if err != nil {
			return nil, nil, typesystem.EmptySubst(), err
		}
		totalSubst = s.Compose(totalSubst)
		var us typesystem.Subst
		effects, us = typesystem.UnionEffects(ctx.Source, effects, eEffects)
		totalSubst = us.Compose(totalSubst)

		s, uerr := typesystem.UnifyWithSource(elemType.Apply(totalSubst), et.Apply(totalSubst), ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, e)
		}
		totalSubst = s.Compose(totalSubst)
	}
	return typesystem.ListOf(elemType.Apply(totalSubst)), effects.Apply(totalSubst), totalSubst, nil
}

func inferRecord(ctx *InferenceContext, n *ast.RecordLiteral, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	totalSubst := typesystem.EmptySubst()
	effects := typesystem.EmptyEffects
	fields := make([]typesystem.RecordField, 0, len(n.Fields))
	seen := map[string]bool{}
	for _, f := range n.Fields {
		if seen[f.Name.Value] {
			return nil, nil, typesystem.EmptySubst(),
				errorAt(diagnostics.ErrTypeMismatch, f.Name, "duplicate field %s", f.Name.Value)
		}
		seen[f.Name.Value] = true

		ft, fEffects, s, err := InferExpr(ctx, f.Value, env)
		if err != nil {
			return nil, nil, typesystem.EmptySubst(), err
		}
		totalSubst = s.Compose(totalSubst)
		var us typesystem.Subst
		effects, us = typesystem.UnionEffects(ctx.Source, effects, fEffects)
		totalSubst = us.Compose(totalSubst)
		fields = append(fields, typesystem.RecordField{Name: f.Name.Value, Type: ft})
	}
	for i := range fields {
		fields[i].Type = fields[i].Type.Apply(totalSubst)
	}
	return typesystem.NewRecord(fields...), effects.Apply(totalSubst), totalSubst, nil
}

func inferFieldAccess(ctx *InferenceContext, n *ast.FieldAccessExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	leftType, effects, totalSubst, err := InferExpr(ctx, n.Left, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}

	subject := leftType.Apply(totalSubst)
	if rec, ok := subject.(typesystem.TRecord); ok {
		ft, ok := rec.FieldType(n.Field.Value)
		if !ok {
			return nil, nil, typesystem.EmptySubst(),
				errorAt(diagnostics.ErrTypeMismatch, n.Field,
					"%s has no field %s", rec, n.Field.Value)
		}
		return ft, effects, totalSubst, nil
	}

	// The record's shape is not known yet. Defer and hand back a fresh
	// variable standing for the field's type.
	result := ctx.FreshVar()
	ctx.markFieldResult(result)
	ctx.Defer(typesystem.Constraint{
		Kind:   typesystem.ConstraintHasField,
		Left:   subject,
		Field:  n.Field.Value,
		Result: result,
	})
	return result, effects, totalSubst, nil
}

func inferAnnotated(ctx *InferenceContext, n *ast.AnnotatedExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	declared, err := BuildType(ctx, env, n.TypeAnnotation)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}
	exprType, effects, totalSubst, err := InferExpr(ctx, n.Expression, env)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}
	s, uerr := typesystem.UnifyWithSource(exprType.Apply(totalSubst), declared, ctx.Source)
	if uerr != nil {
		return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n)
	}
	totalSubst = s.Compose(totalSubst)
	checkDeclaredEffects(ctx, declared, exprType.Apply(totalSubst))
	return declared.Apply(totalSubst), effects.Apply(totalSubst), totalSubst, nil
}

func inferInfix(ctx *InferenceContext, n *ast.InfixExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	op := &ast.Identifier{Token: n.Token, Value: n.Operator}
	return inferCall(ctx, n, op, []ast.Expression{n.Left, n.Right}, env)
}

func inferPrefix(ctx *InferenceContext, n *ast.PrefixExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	op := &ast.Identifier{Token: n.Token, Value: "unary" + n.Operator}
	return inferCall(ctx, n, op, []ast.Expression{n.Operand}, env)
}

func inferConstructor(ctx *InferenceContext, n *ast.ConstructorExpression, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	if _, ok := env.LookupName(n.Name.Value); !ok {
		return nil, nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrUnboundVariable, n.Name, "unknown constructor %s", n.Name.Value)
	}
	ctor := &ast.Identifier{Token: n.Name.Token, Value: n.Name.Value}
	if len(n.Arguments) == 0 {
		// Nullary constructors are plain values, not calls.
		return inferIdentifier(ctx, ctor, env)
	}
	return inferCall(ctx, n, ctor, n.Arguments, env)
}
