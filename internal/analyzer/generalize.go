package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

// Generalize closes t over the variables that do not occur free in env,
// producing a scheme for a let binding. Deferred constraints mentioning a
// quantified variable are carried into the scheme so every instantiation
// re-obligates them.
func Generalize(ctx *InferenceContext, t typesystem.Type, env *symbols.TypeEnvironment) *typesystem.Scheme {
	if ctx.cfg.NoGeneralize {
		return typesystem.MonoScheme(t)
	}

	envTypeVars := map[int]bool{}
	for _, v := range env.FreeTypeVariables() {
		envTypeVars[v.ID] = true
	}
	envEffectVars := map[int]bool{}
	for _, v := range env.FreeEffectVariables() {
		envEffectVars[v.ID] = true
	}

	var typeVars []typesystem.TVar
	for _, v := range t.FreeTypeVariables() {
		if !envTypeVars[v.ID] {
			typeVars = append(typeVars, v)
		}
	}
	var effectVars []typesystem.EffectVar
	for _, v := range t.FreeEffectVariables() {
		if !envEffectVars[v.ID] {
			effectVars = append(effectVars, v)
		}
	}

	quantified := map[int]bool{}
	for _, v := range typeVars {
		quantified[v.ID] = true
	}
	var carried []typesystem.Constraint
	var remaining []typesystem.Constraint
	for _, c := range ctx.Deferred {
		if constraintMentions(c, quantified) {
			carried = append(carried, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	ctx.Deferred = remaining

	return &typesystem.Scheme{
		TypeVars:    typeVars,
		EffectVars:  effectVars,
		Constraints: carried,
		Body:        t,
	}
}

func constraintMentions(c typesystem.Constraint, vars map[int]bool) bool {
	check := func(t typesystem.Type) bool {
		if t == nil {
			return false
		}
		for _, v := range t.FreeTypeVariables() {
			if vars[v.ID] {
				return true
			}
		}
		return false
	}
	if check(c.Left) || check(c.Right) || check(c.Result) {
		return true
	}
	for _, a := range c.Args {
		if check(a) {
			return true
		}
	}
	return false
}

// IsSyntacticValue reports whether expr is a value form. Only values are
// generalized at let; expansive expressions (calls, performs, handles)
// stay monomorphic so an effectful computation cannot masquerade as a
// polymorphic one.
func IsSyntacticValue(expr ast.Expression) bool {
	switch n := expr.(type) {
	case *ast.Identifier, *ast.IntegerLiteral, *ast.FloatLiteral,
		*ast.BooleanLiteral, *ast.StringLiteral, *ast.UnitLiteral,
		*ast.LambdaExpression, *ast.HoleExpression:
		return true
	case *ast.TupleLiteral:
		for _, e := range n.Elements {
			if !IsSyntacticValue(e) {
				return false
			}
		}
		return true
	case *ast.ListLiteral:
		for _, e := range n.Elements {
			if !IsSyntacticValue(e) {
				return false
			}
		}
		return true
	case *ast.RecordLiteral:
		for _, f := range n.Fields {
			if !IsSyntacticValue(f.Value) {
				return false
			}
		}
		return true
	case *ast.ConstructorExpression:
		for _, a := range n.Arguments {
			if !IsSyntacticValue(a) {
				return false
			}
		}
		return true
	case *ast.AnnotatedExpression:
		return IsSyntacticValue(n.Expression)
	case *ast.FieldAccessExpression:
		return IsSyntacticValue(n.Left)
	default:
		return false
	}
}
