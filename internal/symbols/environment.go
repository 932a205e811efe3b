package symbols

import (
	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/intern"
	"github.com/lume-lang/lume/internal/typesystem"
)

type ScopeType int

const (
	ScopePrelude ScopeType = iota // Built-in symbols
	ScopeGlobal                   // User code top-level
	ScopeLambda
	ScopeLet
	ScopeMatchArm
	ScopeHandler
)

// Binding is one name in scope: its generalized type plus bookkeeping
// for unused-binding warnings.
type Binding struct {
	Name           intern.Symbol
	Scheme         *typesystem.Scheme
	DefinitionNode ast.Node
	Used           bool
}

// TypeEnvironment maps interned names to type schemes. Scopes form a chain
// through outer; lookups walk innermost-first. Effect and type-name tables
// live only on the root frame so every scope sees the same definitions.
type TypeEnvironment struct {
	store     map[intern.Symbol]*Binding
	outer     *TypeEnvironment
	scopeType ScopeType

	// Root-frame tables, nil on inner frames.
	typeNames map[string]typesystem.Type
	effects   map[string]typesystem.Effect

	names *intern.Table
}

// NewEnvironment creates a root environment backed by the given interner.
func NewEnvironment(names *intern.Table) *TypeEnvironment {
	return &TypeEnvironment{
		store:     map[intern.Symbol]*Binding{},
		scopeType: ScopeGlobal,
		typeNames: map[string]typesystem.Type{},
		effects:   map[string]typesystem.Effect{},
		names:     names,
	}
}

// EnterScope pushes a fresh frame over env.
func (env *TypeEnvironment) EnterScope(st ScopeType) *TypeEnvironment {
	return &TypeEnvironment{
		store:     map[intern.Symbol]*Binding{},
		outer:     env,
		scopeType: st,
		names:     env.names,
	}
}

// ExitScope pops the innermost frame. Popping the root returns the root.
func (env *TypeEnvironment) ExitScope() *TypeEnvironment {
	if env.outer == nil {
		return env
	}
	return env.outer
}

// Interner returns the name table this environment resolves through.
func (env *TypeEnvironment) Interner() *intern.Table {
	return env.names
}

// Define binds name to scheme in the innermost frame, shadowing any outer
// binding of the same name.
func (env *TypeEnvironment) Define(name intern.Symbol, scheme *typesystem.Scheme, node ast.Node) {
	env.store[name] = &Binding{Name: name, Scheme: scheme, DefinitionNode: node}
}

// DefineName interns name and binds it.
func (env *TypeEnvironment) DefineName(name string, scheme *typesystem.Scheme, node ast.Node) intern.Symbol {
	sym := env.names.Intern(name)
	env.Define(sym, scheme, node)
	return sym
}

// Lookup resolves name innermost-first and marks the binding used.
func (env *TypeEnvironment) Lookup(name intern.Symbol) (*typesystem.Scheme, bool) {
	for frame := env; frame != nil; frame = frame.outer {
		if b, ok := frame.store[name]; ok {
			b.Used = true
			return b.Scheme, true
		}
	}
	return nil, false
}

// LookupName interns name and resolves it.
func (env *TypeEnvironment) LookupName(name string) (*typesystem.Scheme, bool) {
	return env.Lookup(env.names.Intern(name))
}

// UnusedBindings returns the innermost frame's bindings that were never
// looked up, in no particular order. Callers sort for stable output.
func (env *TypeEnvironment) UnusedBindings() []*Binding {
	var out []*Binding
	for _, b := range env.store {
		if !b.Used {
			out = append(out, b)
		}
	}
	return out
}

func (env *TypeEnvironment) root() *TypeEnvironment {
	frame := env
	for frame.outer != nil {
		frame = frame.outer
	}
	return frame
}

// DefineTypeName registers a named type for annotation resolution.
func (env *TypeEnvironment) DefineTypeName(name string, t typesystem.Type) {
	env.root().typeNames[name] = t
}

// LookupTypeName resolves a type annotation name.
func (env *TypeEnvironment) LookupTypeName(name string) (typesystem.Type, bool) {
	t, ok := env.root().typeNames[name]
	return t, ok
}

// DefineEffect registers an effect definition. Redefinition reports false.
func (env *TypeEnvironment) DefineEffect(eff typesystem.Effect) bool {
	r := env.root()
	if _, exists := r.effects[eff.Name]; exists {
		return false
	}
	r.effects[eff.Name] = eff
	return true
}

// LookupEffect resolves an effect definition by name.
func (env *TypeEnvironment) LookupEffect(name string) (typesystem.Effect, bool) {
	eff, ok := env.root().effects[name]
	return eff, ok
}

// FreeTypeVariables collects the type variables free in any scheme in any
// frame. Generalization must not quantify over these.
func (env *TypeEnvironment) FreeTypeVariables() []typesystem.TVar {
	seen := map[int]bool{}
	var out []typesystem.TVar
	for frame := env; frame != nil; frame = frame.outer {
		for _, b := range frame.store {
			for _, v := range b.Scheme.FreeTypeVariables() {
				if !seen[v.ID] {
					seen[v.ID] = true
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// FreeEffectVariables collects the effect variables free in any frame.
func (env *TypeEnvironment) FreeEffectVariables() []typesystem.EffectVar {
	seen := map[int]bool{}
	var out []typesystem.EffectVar
	for frame := env; frame != nil; frame = frame.outer {
		for _, b := range frame.store {
			for _, v := range b.Scheme.FreeEffectVariables() {
				if !seen[v.ID] {
					seen[v.ID] = true
					out = append(out, v)
				}
			}
		}
	}
	return out
}

// ApplySubst rewrites every scheme in every frame through s. Bound
// variables of a scheme are never in s's domain, so applying to the body
// is capture-free.
func (env *TypeEnvironment) ApplySubst(s typesystem.Subst) {
	for frame := env; frame != nil; frame = frame.outer {
		for _, b := range frame.store {
			body := b.Scheme.Body.Apply(s)
			constraints := make([]typesystem.Constraint, len(b.Scheme.Constraints))
			for i, c := range b.Scheme.Constraints {
				constraints[i] = c.Apply(s)
			}
			b.Scheme = &typesystem.Scheme{
				TypeVars:    b.Scheme.TypeVars,
				EffectVars:  b.Scheme.EffectVars,
				Constraints: constraints,
				Body:        body,
			}
		}
	}
}
