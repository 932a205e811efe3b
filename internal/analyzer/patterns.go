package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

// inferPattern computes the type a pattern matches and defines its
// binders in env, which must be the arm's own scope.
func inferPattern(ctx *InferenceContext, pat ast.Pattern, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.Subst, error) {
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return ctx.FreshVar(), typesystem.EmptySubst(), nil

	case *ast.IdentifierPattern:
		tv := ctx.FreshVar()
		env.DefineName(p.Name.Value, typesystem.MonoScheme(tv), p.Name)
		return tv, typesystem.EmptySubst(), nil

	case *ast.LiteralPattern:
		t, _, s, err := InferExpr(ctx, p.Literal, env)
		if err != nil {
			return nil, typesystem.EmptySubst(), err
		}
		return t, s, nil

	case *ast.TuplePattern:
		totalSubst := typesystem.EmptySubst()
		elems := make([]typesystem.Type, 0, len(p.Elements))
		for _, el := range p.Elements {
			et, s, err := inferPattern(ctx, el, env)
			if err != nil {
				return nil, typesystem.EmptySubst(), err
			}
			totalSubst = s.Compose(totalSubst)
			elems = append(elems, et)
		}
		return typesystem.TTuple{Elements: elems}, totalSubst, nil

	case *ast.ConstructorPattern:
		scheme, ok := env.LookupName(p.Name.Value)
		if !ok {
			return nil, typesystem.EmptySubst(),
				errorAt(diagnostics.ErrUnboundVariable, p.Name, "unknown constructor %s", p.Name.Value)
		}
		ctorType, renaming := scheme.Instantiate(ctx.Source)
		for _, c := range scheme.InstantiateConstraints(renaming) {
			ctx.Defer(c)
		}

		fn, isFn := ctorType.(typesystem.TFunc)
		if !isFn {
			// Nullary constructor: the pattern matches the type directly.
			if len(p.Args) != 0 {
				return nil, typesystem.EmptySubst(),
					errorAt(diagnostics.ErrArityMismatch, p,
						"constructor %s takes no arguments, pattern has %d", p.Name.Value, len(p.Args))
			}
			return ctorType, typesystem.EmptySubst(), nil
		}
		if len(p.Args) != len(fn.Params) {
			return nil, typesystem.EmptySubst(),
				errorAt(diagnostics.ErrArityMismatch, p,
					"constructor %s takes %d argument(s), pattern has %d",
					p.Name.Value, len(fn.Params), len(p.Args))
		}

		totalSubst := typesystem.EmptySubst()
		for i, sub := range p.Args {
			subType, s, err := inferPattern(ctx, sub, env)
			if err != nil {
				return nil, typesystem.EmptySubst(), err
			}
			totalSubst = s.Compose(totalSubst)

			s, uerr := typesystem.UnifyWithSource(subType.Apply(totalSubst), fn.Params[i].Apply(totalSubst), ctx.Source)
			if uerr != nil {
				return nil, typesystem.EmptySubst(), unifyErrorAt(uerr, sub)
			}
			totalSubst = s.Compose(totalSubst)
		}
		return fn.ReturnType.Apply(totalSubst), totalSubst, nil

	default:
		return nil, typesystem.EmptySubst(),
			errorAt(diagnostics.ErrInference, pat, "cannot infer pattern of this form")
	}
}
