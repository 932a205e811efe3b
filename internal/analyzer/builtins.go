package analyzer

import (
	"github.com/lume-lang/lume/internal/config"
	"github.com/lume-lang/lume/internal/intern"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

// NewPreludeEnvironment builds the root environment every check starts
// from: builtin type names, operators, library functions and the builtin
// effects.
func NewPreludeEnvironment(names *intern.Table) *symbols.TypeEnvironment {
	env := symbols.NewEnvironment(names)

	env.DefineTypeName(config.IntTypeName, typesystem.Int)
	env.DefineTypeName(config.FloatTypeName, typesystem.Float)
	env.DefineTypeName(config.BoolTypeName, typesystem.Bool)
	env.DefineTypeName(config.StringTypeName, typesystem.String)
	env.DefineTypeName(config.UnitTypeName, typesystem.Unit)
	env.DefineTypeName(config.ListTypeName, typesystem.TCon{Name: config.ListTypeName})

	defineOperators(env)
	defineFunctions(env)
	defineEffects(env)

	return env
}

func mono(params []typesystem.Type, ret typesystem.Type) *typesystem.Scheme {
	return typesystem.MonoScheme(typesystem.TFunc{Params: params, ReturnType: ret})
}

func defineOperators(env *symbols.TypeEnvironment) {
	intBin := mono([]typesystem.Type{typesystem.Int, typesystem.Int}, typesystem.Int)
	for _, op := range []string{"+", "-", "*", "/", "%"} {
		env.DefineName(op, intBin, nil)
	}

	floatBin := mono([]typesystem.Type{typesystem.Float, typesystem.Float}, typesystem.Float)
	for _, op := range []string{"+.", "-.", "*.", "/."} {
		env.DefineName(op, floatBin, nil)
	}

	intCmp := mono([]typesystem.Type{typesystem.Int, typesystem.Int}, typesystem.Bool)
	for _, op := range []string{"<", "<=", ">", ">="} {
		env.DefineName(op, intCmp, nil)
	}

	// Equality is polymorphic over its operand type.
	a := typesystem.TVar{ID: -1}
	eq := &typesystem.Scheme{
		TypeVars: []typesystem.TVar{a},
		Body:     typesystem.TFunc{Params: []typesystem.Type{a, a}, ReturnType: typesystem.Bool},
	}
	env.DefineName("==", eq, nil)
	env.DefineName("!=", eq, nil)

	boolBin := mono([]typesystem.Type{typesystem.Bool, typesystem.Bool}, typesystem.Bool)
	env.DefineName("&&", boolBin, nil)
	env.DefineName("||", boolBin, nil)

	env.DefineName("++", mono([]typesystem.Type{typesystem.String, typesystem.String}, typesystem.String), nil)

	b := typesystem.TVar{ID: -2}
	env.DefineName(config.ConsFuncName, &typesystem.Scheme{
		TypeVars: []typesystem.TVar{b},
		Body: typesystem.TFunc{
			Params:     []typesystem.Type{b, typesystem.ListOf(b)},
			ReturnType: typesystem.ListOf(b),
		},
	}, nil)

	// Unary operators resolve under these names.
	env.DefineName("unary-", mono([]typesystem.Type{typesystem.Int}, typesystem.Int), nil)
	env.DefineName("unary!", mono([]typesystem.Type{typesystem.Bool}, typesystem.Bool), nil)
}

func defineFunctions(env *symbols.TypeEnvironment) {
	io := typesystem.NewClosedRow(config.IOEffectName)
	exn := typesystem.NewClosedRow(config.ExnEffectName)

	env.DefineName(config.PrintEndlineFuncName, typesystem.MonoScheme(typesystem.TFunc{
		Params:     []typesystem.Type{typesystem.String},
		ReturnType: typesystem.Unit,
		Effects:    io,
	}), nil)
	env.DefineName(config.PrintFuncName, typesystem.MonoScheme(typesystem.TFunc{
		Params:     []typesystem.Type{typesystem.String},
		ReturnType: typesystem.Unit,
		Effects:    io,
	}), nil)
	env.DefineName(config.StringOfIntFuncName, mono([]typesystem.Type{typesystem.Int}, typesystem.String), nil)
	env.DefineName(config.IntOfStringFuncName, typesystem.MonoScheme(typesystem.TFunc{
		Params:     []typesystem.Type{typesystem.String},
		ReturnType: typesystem.Int,
		Effects:    exn,
	}), nil)
	env.DefineName(config.NotFuncName, mono([]typesystem.Type{typesystem.Bool}, typesystem.Bool), nil)
}

func defineEffects(env *symbols.TypeEnvironment) {
	env.DefineEffect(typesystem.Effect{
		Name: config.IOEffectName,
		Operations: []typesystem.EffectOperation{
			{Name: "write", Sig: typesystem.OperationType{
				Params:     []typesystem.Type{typesystem.String},
				ReturnType: typesystem.Unit,
			}},
			{Name: "read", Sig: typesystem.OperationType{
				ReturnType: typesystem.String,
			}},
		},
	})
	env.DefineEffect(typesystem.Effect{
		Name: config.StateEffectName,
		Operations: []typesystem.EffectOperation{
			{Name: "get", Sig: typesystem.OperationType{
				ReturnType: typesystem.Int,
			}},
			{Name: "put", Sig: typesystem.OperationType{
				Params:     []typesystem.Type{typesystem.Int},
				ReturnType: typesystem.Unit,
			}},
		},
	})
	env.DefineEffect(typesystem.Effect{
		Name: config.ExnEffectName,
		Operations: []typesystem.EffectOperation{
			{Name: "raise", Sig: typesystem.OperationType{
				Params:     []typesystem.Type{typesystem.String},
				ReturnType: typesystem.Unit,
			}},
		},
	})
}
