package analyzer

import (
	"fmt"

	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/config"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/typesystem"
)

// InferenceContext holds the state for one inference pass. Using a context
// instead of global state keeps type variable numbering predictable and
// lets tests run in parallel.
type InferenceContext struct {
	Source *typesystem.VarSource

	// TypeMap records the inferred type of every expression node, for
	// tooling and tests.
	TypeMap map[ast.Node]typesystem.Type

	// GlobalSubst accumulates the substitution for the entire pass.
	GlobalSubst typesystem.Subst

	// Deferred holds constraints that eager unification could not resolve
	// yet. They are retried to a fixpoint once the current item is done.
	Deferred []typesystem.Constraint

	// fieldResults tracks the ids of variables minted as the result of a
	// deferred field access. Calling through one of these defers too.
	fieldResults map[int]bool

	Reporter *diagnostics.Reporter

	cfg *config.Config
}

// NewInferenceContext creates a fresh context. A nil cfg means defaults.
func NewInferenceContext(cfg *config.Config) *InferenceContext {
	if cfg == nil {
		cfg = config.Default()
	}
	return &InferenceContext{
		Source:       &typesystem.VarSource{MaxUnifyDepth: cfg.MaxUnifyDepth},
		TypeMap:      make(map[ast.Node]typesystem.Type),
		GlobalSubst:  typesystem.EmptySubst(),
		fieldResults: make(map[int]bool),
		Reporter:     diagnostics.NewReporter(),
		cfg:          cfg,
	}
}

// FreshVar mints a fresh type variable.
func (ctx *InferenceContext) FreshVar() typesystem.TVar {
	return ctx.Source.FreshTypeVar()
}

// FreshEffectVar mints a fresh effect-row variable.
func (ctx *InferenceContext) FreshEffectVar() typesystem.EffectVar {
	return ctx.Source.FreshEffectVar()
}

// Defer queues a constraint for the end-of-item solver.
func (ctx *InferenceContext) Defer(c typesystem.Constraint) {
	ctx.Deferred = append(ctx.Deferred, c)
}

// markFieldResult remembers that tv stands for the not-yet-resolved type
// of a field access.
func (ctx *InferenceContext) markFieldResult(tv typesystem.TVar) {
	ctx.fieldResults[tv.ID] = true
}

func (ctx *InferenceContext) isFieldResult(t typesystem.Type) bool {
	tv, ok := t.(typesystem.TVar)
	return ok && ctx.fieldResults[tv.ID]
}

// Record stores the final substituted type for node.
func (ctx *InferenceContext) Record(node ast.Node, t typesystem.Type) {
	ctx.TypeMap[node] = t
}

// inferError wraps a unification failure into a positioned diagnostic.
type inferError struct {
	diag *diagnostics.Diagnostic
}

func (e *inferError) Error() string {
	return e.diag.Error()
}

func errorAt(code diagnostics.Code, node ast.TokenProvider, format string, args ...interface{}) error {
	return &inferError{diag: diagnostics.NewError(code, node.GetToken(), fmt.Sprintf(format, args...))}
}

// diagnosticOf extracts the diagnostic carried by err, synthesizing a
// generic inference diagnostic for plain errors.
func diagnosticOf(err error, node ast.TokenProvider) *diagnostics.Diagnostic {
	if ie, ok := err.(*inferError); ok {
		return ie.diag
	}
	return diagnostics.NewError(diagnostics.ErrInference, node.GetToken(), err.Error())
}

// unifyErrorAt translates a typesystem unification error into the right
// diagnostic code at node's position.
func unifyErrorAt(err error, node ast.TokenProvider) error {
	uerr, ok := err.(*typesystem.UnifyError)
	if !ok {
		return errorAt(diagnostics.ErrInference, node, "%s", err.Error())
	}
	code := diagnostics.ErrTypeMismatch
	switch uerr.Kind {
	case typesystem.UnifyArity:
		code = diagnostics.ErrArityMismatch
	case typesystem.UnifyInfinite:
		code = diagnostics.ErrInfiniteType
	case typesystem.UnifyEffectMismatch:
		code = diagnostics.ErrEffectMismatch
	case typesystem.UnifyDepthExceeded:
		code = diagnostics.ErrInference
	}
	return errorAt(code, node, "%s", uerr.Error())
}
