package analyzer

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/config"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/intern"
	"github.com/lume-lang/lume/internal/symbols"
	"github.com/lume-lang/lume/internal/typesystem"
)

// Checker runs type and effect inference over whole modules.
type Checker struct {
	cfg    *config.Config
	logger *zap.Logger
	names  *intern.Table
}

// CheckResult is the outcome of checking one module.
type CheckResult struct {
	// ID tags this check run; log lines carry it so concurrent editor
	// sessions can be told apart.
	ID string

	Env *symbols.TypeEnvironment

	// InferredTypes maps top-level binding names to their schemes.
	InferredTypes map[string]*typesystem.Scheme

	// ExprTypes records the type of every expression node.
	ExprTypes map[ast.Node]typesystem.Type

	// EffectConstraints are the effect obligations collected while
	// checking, after the item's substitution settled. Tooling can read
	// them to explain why a row ended up the way it did.
	EffectConstraints []typesystem.Constraint

	Errors   []*diagnostics.Diagnostic
	Warnings []*diagnostics.Diagnostic
}

// Ok reports whether the module checked without errors.
func (r *CheckResult) Ok() bool {
	return len(r.Errors) == 0
}

// NewChecker builds a checker. A nil cfg means defaults, a nil logger
// disables logging.
func NewChecker(cfg *config.Config, logger *zap.Logger) *Checker {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		cfg:    cfg,
		logger: logger,
		names:  intern.NewTable(),
	}
}

// Interner exposes the checker's name table, shared with its environments.
func (c *Checker) Interner() *intern.Table {
	return c.names
}

// Check infers types for every item in the module. Items are isolated:
// an error in one definition does not stop the rest from being checked,
// the failed name is simply bound to a fresh variable.
func (c *Checker) Check(module *ast.Module) *CheckResult {
	id := uuid.NewString()
	log := c.logger.With(zap.String("check_id", id), zap.String("file", module.File))
	log.Debug("check started", zap.Int("items", len(module.Items)))

	ctx := NewInferenceContext(c.cfg)
	env := NewPreludeEnvironment(c.names)
	result := &CheckResult{
		ID:            id,
		Env:           env,
		InferredTypes: map[string]*typesystem.Scheme{},
	}

	for _, item := range module.Items {
		switch n := item.(type) {
		case *ast.EffectDeclaration:
			c.checkEffectDeclaration(ctx, n, env)
		case *ast.TypeDeclaration:
			c.checkTypeDeclaration(ctx, n, env)
		case *ast.LetDefinition:
			c.checkLetDefinition(ctx, n, env, result, log)
		case *ast.ExpressionItem:
			c.checkExpressionItem(ctx, n, env, result, log)
		default:
			ctx.Reporter.Add(diagnostics.NewError(diagnostics.ErrInference, item.GetToken(),
				"unsupported top-level item"))
		}
	}

	result.ExprTypes = ctx.TypeMap
	result.Errors = ctx.Reporter.Errors()
	result.Warnings = ctx.Reporter.Warnings()
	log.Debug("check finished",
		zap.Int("errors", len(result.Errors)),
		zap.Int("warnings", len(result.Warnings)))
	return result
}

func (c *Checker) checkEffectDeclaration(ctx *InferenceContext, n *ast.EffectDeclaration, env *symbols.TypeEnvironment) {
	ops := make([]typesystem.EffectOperation, 0, len(n.Operations))
	seen := map[string]bool{}
	for _, op := range n.Operations {
		if seen[op.Name.Value] {
			ctx.Reporter.Add(diagnostics.NewError(diagnostics.ErrDuplicateEffect, op.GetToken(),
				fmt.Sprintf("duplicate operation %s in effect %s", op.Name.Value, n.Name.Value)))
			continue
		}
		seen[op.Name.Value] = true

		params := make([]typesystem.Type, 0, len(op.Params))
		ok := true
		for _, p := range op.Params {
			pt, err := BuildType(ctx, env, p)
			if err != nil {
				ctx.Reporter.Add(diagnosticOf(err, op))
				ok = false
				break
			}
			params = append(params, pt)
		}
		if !ok {
			continue
		}
		ret := typesystem.Type(typesystem.Unit)
		if op.Return != nil {
			rt, err := BuildType(ctx, env, op.Return)
			if err != nil {
				ctx.Reporter.Add(diagnosticOf(err, op))
				continue
			}
			ret = rt
		}
		ops = append(ops, typesystem.EffectOperation{
			Name: op.Name.Value,
			Sig:  typesystem.OperationType{Params: params, ReturnType: ret},
		})
	}

	if !env.DefineEffect(typesystem.Effect{Name: n.Name.Value, Operations: ops}) {
		ctx.Reporter.Add(diagnostics.NewError(diagnostics.ErrDuplicateEffect, n.GetToken(),
			fmt.Sprintf("effect %s is already defined", n.Name.Value)))
	}
}

func (c *Checker) checkTypeDeclaration(ctx *InferenceContext, n *ast.TypeDeclaration, env *symbols.TypeEnvironment) {
	body, err := BuildType(ctx, env, n.Body)
	if err != nil {
		ctx.Reporter.Add(diagnosticOf(err, n))
		return
	}
	env.DefineTypeName(n.Name.Value, body)
	registerConstructors(env, n, body)
}

// registerConstructors makes each case of a declared variant usable as a
// constructor function and as a pattern head.
func registerConstructors(env *symbols.TypeEnvironment, n *ast.TypeDeclaration, declared typesystem.Type) {
	body := declared
	if rec, ok := body.(typesystem.TRec); ok {
		body = typesystem.UnfoldRec(rec)
	}
	variant, ok := body.(typesystem.TVariant)
	if !ok {
		return
	}
	for _, cs := range variant.Cases {
		if len(cs.Args) == 0 {
			env.DefineName(cs.Name, typesystem.MonoScheme(declared), n)
			continue
		}
		env.DefineName(cs.Name, typesystem.MonoScheme(typesystem.TFunc{
			Params:     cs.Args,
			ReturnType: declared,
		}), n)
	}
}

func (c *Checker) checkLetDefinition(ctx *InferenceContext, n *ast.LetDefinition, env *symbols.TypeEnvironment, result *CheckResult, log *zap.Logger) {
	t, effects, s, err := c.inferTopLevel(ctx, n, env)
	if err != nil {
		ctx.Reporter.Add(diagnosticOf(err, n))
		// Bind the name anyway so later items do not cascade.
		env.DefineName(n.Name.Value, typesystem.MonoScheme(ctx.FreshVar()), n.Name)
		return
	}
	ctx.GlobalSubst = s.Compose(ctx.GlobalSubst)
	collectEffectConstraints(ctx, result, s)

	// Generalize before the final solve: obligations over a quantified
	// variable travel with the scheme and re-obligate at each use site,
	// exactly as they do for a nested let.
	var scheme *typesystem.Scheme
	if IsSyntacticValue(n.Value) {
		env.ApplySubst(s)
		scheme = Generalize(ctx, t.Apply(s), env)
		s = SolveDeferred(ctx, s, n.GetToken())
	} else {
		s = SolveDeferred(ctx, s, n.GetToken())
		scheme = typesystem.MonoScheme(t.Apply(s))
	}

	c.checkTopLevelEffects(ctx, n, effects.Apply(s))
	env.DefineName(n.Name.Value, scheme, n.Name)
	result.InferredTypes[n.Name.Value] = scheme
	log.Debug("inferred top-level binding",
		zap.String("name", n.Name.Value),
		zap.String("scheme", scheme.String()))
}

func (c *Checker) inferTopLevel(ctx *InferenceContext, n *ast.LetDefinition, env *symbols.TypeEnvironment) (typesystem.Type, typesystem.EffectSet, typesystem.Subst, error) {
	// Top-level bindings may be recursive; the name is in scope,
	// monomorphic, inside its own body.
	scope := env.EnterScope(symbols.ScopeLet)
	placeholder := ctx.FreshVar()
	scope.DefineName(n.Name.Value, typesystem.MonoScheme(placeholder), n.Name)

	t, effects, totalSubst, err := InferExpr(ctx, n.Value, scope)
	if err != nil {
		return nil, nil, typesystem.EmptySubst(), err
	}
	s, uerr := typesystem.UnifyWithSource(placeholder.Apply(totalSubst), t.Apply(totalSubst), ctx.Source)
	if uerr != nil {
		return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n)
	}
	totalSubst = s.Compose(totalSubst)

	if n.TypeAnnotation != nil {
		declared, aerr := BuildType(ctx, env, n.TypeAnnotation)
		if aerr != nil {
			return nil, nil, typesystem.EmptySubst(), aerr
		}
		s, uerr := typesystem.UnifyWithSource(t.Apply(totalSubst), declared, ctx.Source)
		if uerr != nil {
			return nil, nil, typesystem.EmptySubst(), unifyErrorAt(uerr, n.Name)
		}
		totalSubst = s.Compose(totalSubst)
		checkDeclaredEffects(ctx, declared, t.Apply(totalSubst))
	}
	return t, effects, totalSubst, nil
}

// collectEffectConstraints snapshots the pending effect-level obligations
// into the result before the solver consumes them.
func collectEffectConstraints(ctx *InferenceContext, result *CheckResult, s typesystem.Subst) {
	for _, c := range ctx.Deferred {
		switch c.Kind {
		case typesystem.ConstraintSubEffect, typesystem.ConstraintHandlesEffect, typesystem.ConstraintRequiresEffect:
			result.EffectConstraints = append(result.EffectConstraints, c.Apply(s))
		}
	}
}

func (c *Checker) checkExpressionItem(ctx *InferenceContext, n *ast.ExpressionItem, env *symbols.TypeEnvironment, result *CheckResult, log *zap.Logger) {
	t, effects, s, err := InferExpr(ctx, n.Expression, env)
	if err != nil {
		ctx.Reporter.Add(diagnosticOf(err, n))
		return
	}
	ctx.GlobalSubst = s.Compose(ctx.GlobalSubst)
	collectEffectConstraints(ctx, result, s)
	s = SolveDeferred(ctx, s, n.GetToken())
	c.checkTopLevelEffects(ctx, n, effects.Apply(s))
	log.Debug("checked top-level expression", zap.String("type", t.Apply(s).String()))
}

// checkTopLevelEffects rejects effects that escape to the top of the
// module unhandled. IO passes because the runtime provides it; in strict
// mode even IO must be handled.
func (c *Checker) checkTopLevelEffects(ctx *InferenceContext, node ast.Node, effects typesystem.EffectSet) {
	var escaped []string
	for _, l := range effects.Labels() {
		if l == config.IOEffectName && !c.cfg.Strict {
			continue
		}
		escaped = append(escaped, l)
	}
	if len(escaped) == 0 {
		return
	}
	ctx.Reporter.Add(diagnostics.NewError(diagnostics.ErrUnhandledEffects, tokenOf(node),
		fmt.Sprintf("unhandled effects at top level: %v", escaped)))
}
