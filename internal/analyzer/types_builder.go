package analyzer

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

// typeScope carries the variables bound while converting one annotation.
// Type variables written by the user ('a) and rec binders share it.
type typeScope struct {
	typeVars map[string]typesystem.TVar
	rowVars  map[string]typesystem.EffectVar
}

func newTypeScope() *typeScope {
	return &typeScope{
		typeVars: map[string]typesystem.TVar{},
		rowVars:  map[string]typesystem.EffectVar{},
	}
}

// BuildType converts a type annotation into a semantic type. The same
// scope is reused across one annotation so repeated variables alias.
func BuildType(ctx *InferenceContext, env *symbols.TypeEnvironment, expr ast.TypeExpr) (typesystem.Type, error) {
	return buildType(ctx, env, expr, newTypeScope())
}

func buildType(ctx *InferenceContext, env *symbols.TypeEnvironment, expr ast.TypeExpr, scope *typeScope) (typesystem.Type, error) {
	switch n := expr.(type) {
	case *ast.NamedType:
		if t, ok := env.LookupTypeName(n.Name); ok {
			return t, nil
		}
		return nil, errorAt(diagnostics.ErrBadAnnotation, n, "unknown type %s", n.Name)

	case *ast.VarType:
		if tv, ok := scope.typeVars[n.Name]; ok {
			return tv, nil
		}
		tv := ctx.FreshVar()
		scope.typeVars[n.Name] = tv
		return tv, nil

	case *ast.AppType:
		ctor, err := buildType(ctx, env, n.Constructor, scope)
		if err != nil {
			return nil, err
		}
		args := make([]typesystem.Type, 0, len(n.Args))
		for _, a := range n.Args {
			at, err := buildType(ctx, env, a, scope)
			if err != nil {
				return nil, err
			}
			args = append(args, at)
		}
		app := typesystem.TApp{Constructor: ctor, Args: args}
		if arity := constructorArity(ctor); arity >= 0 && arity != len(args) {
			return nil, errorAt(diagnostics.ErrBadAnnotation, n,
				"%s expects %d type argument(s), got %d", ctor, arity, len(args))
		}
		return app, nil

	case *ast.FuncType:
		params := make([]typesystem.Type, 0, len(n.Params))
		for _, p := range n.Params {
			pt, err := buildType(ctx, env, p, scope)
			if err != nil {
				return nil, err
			}
			params = append(params, pt)
		}
		ret, err := buildType(ctx, env, n.Return, scope)
		if err != nil {
			return nil, err
		}
		effects, err := buildEffectRow(ctx, env, n.Effects, scope)
		if err != nil {
			return nil, err
		}
		return typesystem.TFunc{Params: params, ReturnType: ret, Effects: effects}, nil

	case *ast.TupleType:
		elems := make([]typesystem.Type, 0, len(n.Elements))
		for _, e := range n.Elements {
			et, err := buildType(ctx, env, e, scope)
			if err != nil {
				return nil, err
			}
			elems = append(elems, et)
		}
		return typesystem.TTuple{Elements: elems}, nil

	case *ast.RecordType:
		fields := make([]typesystem.RecordField, 0, len(n.Fields))
		seen := map[string]bool{}
		for _, f := range n.Fields {
			if seen[f.Name] {
				return nil, errorAt(diagnostics.ErrBadAnnotation, n, "duplicate field %s", f.Name)
			}
			seen[f.Name] = true
			ft, err := buildType(ctx, env, f.Type, scope)
			if err != nil {
				return nil, err
			}
			fields = append(fields, typesystem.RecordField{Name: f.Name, Type: ft})
		}
		return typesystem.NewRecord(fields...), nil

	case *ast.VariantType:
		cases := make([]typesystem.VariantCase, 0, len(n.Cases))
		seen := map[string]bool{}
		for _, c := range n.Cases {
			if seen[c.Name] {
				return nil, errorAt(diagnostics.ErrBadAnnotation, n, "duplicate case %s", c.Name)
			}
			seen[c.Name] = true
			args := make([]typesystem.Type, 0, len(c.Args))
			for _, a := range c.Args {
				at, err := buildType(ctx, env, a, scope)
				if err != nil {
					return nil, err
				}
				args = append(args, at)
			}
			cases = append(cases, typesystem.VariantCase{Name: c.Name, Args: args})
		}
		return typesystem.NewVariant(cases...), nil

	case *ast.RecType:
		binder := ctx.FreshVar()
		if _, shadowed := scope.typeVars[n.Var]; shadowed {
			return nil, errorAt(diagnostics.ErrBadAnnotation, n, "rec binder %s shadows an outer binder", n.Var)
		}
		scope.typeVars[n.Var] = binder
		body, err := buildType(ctx, env, n.Body, scope)
		delete(scope.typeVars, n.Var)
		if err != nil {
			return nil, err
		}
		rec := typesystem.TRec{Var: binder, Body: body}
		if !rec.IsContractive() {
			return nil, errorAt(diagnostics.ErrBadAnnotation, n,
				"recursive type rec %s is not contractive", n.Var)
		}
		return rec, nil

	case *ast.HoleType:
		return ctx.FreshVar(), nil

	default:
		return nil, errorAt(diagnostics.ErrBadAnnotation, expr, "unsupported type annotation")
	}
}

// buildEffectRow converts an effect annotation. nil means pure.
func buildEffectRow(ctx *InferenceContext, env *symbols.TypeEnvironment, row *ast.EffectRowExpr, scope *typeScope) (typesystem.EffectSet, error) {
	if row == nil {
		return typesystem.EmptyEffects, nil
	}
	for _, name := range row.Effects {
		if _, ok := env.LookupEffect(name); !ok {
			return nil, errorAt(diagnostics.ErrUnknownEffect, row, "unknown effect %s", name)
		}
	}
	if row.Tail == "" {
		return typesystem.NewClosedRow(row.Effects...), nil
	}
	ev, ok := scope.rowVars[row.Tail]
	if !ok {
		ev = ctx.FreshEffectVar()
		scope.rowVars[row.Tail] = ev
	}
	return typesystem.NewOpenRow(ev, row.Effects...), nil
}

// constructorArity reports how many arguments a constructor's kind allows,
// or -1 when the kind is not statically known.
func constructorArity(t typesystem.Type) int {
	k := t.Kind()
	arity := 0
	for {
		arrow, ok := k.(typesystem.KArrow)
		if !ok {
			break
		}
		arity++
		k = arrow.Right
	}
	if _, star := k.(typesystem.KStar); !star {
		return -1
	}
	if arity == 0 {
		if _, isVar := t.(typesystem.TVar); isVar {
			return -1
		}
	}
	return arity
}
