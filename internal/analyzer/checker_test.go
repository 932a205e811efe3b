package analyzer

import (
	"testing"

	"github.com/lume-lang/lume/internal/ast"
	"github.com/lume-lang/lume/internal/config"
	"github.com/lume-lang/lume/internal/diagnostics"
	"github.com/lume-lang/lume/internal/typesystem"
)

func checkModule(t *testing.T, cfg *config.Config, items ...ast.Item) *CheckResult {
	t.Helper()
	checker := NewChecker(cfg, nil)
	return checker.Check(&ast.Module{File: "test.lm", Items: items})
}

func letDef(name string, value ast.Expression) *ast.LetDefinition {
	return &ast.LetDefinition{Token: tk("let"), Name: ident(name), Value: value}
}

func hasCode(ds []*diagnostics.Diagnostic, code diagnostics.Code) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCheckSimpleModule(t *testing.T) {
	res := checkModule(t, config.Default(),
		letDef("x", intLit(1)),
		letDef("y", call(ident("string_of_int"), ident("x"))),
	)
	if !res.Ok() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.InferredTypes["x"].Body.String() != "Int" {
		t.Errorf("x : %s, want Int", res.InferredTypes["x"].Body)
	}
	if res.InferredTypes["y"].Body.String() != "String" {
		t.Errorf("y : %s, want String", res.InferredTypes["y"].Body)
	}
}

func TestCheckGeneralizesAcrossItems(t *testing.T) {
	res := checkModule(t, config.Default(),
		letDef("id", lambda(ident("x"), "x")),
		letDef("a", call(ident("id"), intLit(1))),
		letDef("b", call(ident("id"), strLit("s"))),
	)
	if !res.Ok() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.InferredTypes["id"].TypeVars) != 1 {
		t.Errorf("id not generalized: %s", res.InferredTypes["id"])
	}
	if res.InferredTypes["a"].Body.String() != "Int" {
		t.Errorf("a : %s, want Int", res.InferredTypes["a"].Body)
	}
	if res.InferredTypes["b"].Body.String() != "String" {
		t.Errorf("b : %s, want String", res.InferredTypes["b"].Body)
	}
}

func TestCheckFaultIsolation(t *testing.T) {
	res := checkModule(t, config.Default(),
		letDef("broken", call(ident("missing"), intLit(1))),
		letDef("fine", intLit(2)),
	)
	if res.Ok() {
		t.Fatal("expected an error for the broken item")
	}
	if !hasCode(res.Errors, diagnostics.ErrUnboundVariable) {
		t.Errorf("missing unbound-variable error: %v", res.Errors)
	}
	if res.InferredTypes["fine"] == nil || res.InferredTypes["fine"].Body.String() != "Int" {
		t.Error("error in one item leaked into the next")
	}
}

func TestCheckEffectDeclaration(t *testing.T) {
	decl := &ast.EffectDeclaration{
		Token: tk("effect"),
		Name:  ident("Counter"),
		Operations: []*ast.OperationDecl{{
			Token:  tk("tick"),
			Name:   ident("tick"),
			Return: &ast.NamedType{Token: tk("Int"), Name: "Int"},
		}},
	}
	use := letDef("n", &ast.PerformExpression{
		Token:     tk("perform"),
		Effect:    ident("Counter"),
		Operation: ident("tick"),
	})
	res := checkModule(t, config.Default(), decl, use)
	if hasCode(res.Errors, diagnostics.ErrUnknownEffect) {
		t.Fatalf("declared effect not visible: %v", res.Errors)
	}
	// The perform escapes unhandled to the top level.
	if !hasCode(res.Errors, diagnostics.ErrUnhandledEffects) {
		t.Errorf("expected unhandled-effects error, got %v", res.Errors)
	}
}

func TestCheckDuplicateEffect(t *testing.T) {
	mk := func() *ast.EffectDeclaration {
		return &ast.EffectDeclaration{Token: tk("effect"), Name: ident("Log")}
	}
	res := checkModule(t, config.Default(), mk(), mk())
	if !hasCode(res.Errors, diagnostics.ErrDuplicateEffect) {
		t.Errorf("duplicate effect not reported: %v", res.Errors)
	}
}

func TestCheckDuplicateOperation(t *testing.T) {
	decl := &ast.EffectDeclaration{
		Token: tk("effect"),
		Name:  ident("Log"),
		Operations: []*ast.OperationDecl{
			{Token: tk("emit"), Name: ident("emit")},
			{Token: tk("emit"), Name: ident("emit")},
		},
	}
	res := checkModule(t, config.Default(), decl)
	if !hasCode(res.Errors, diagnostics.ErrDuplicateEffect) {
		t.Errorf("duplicate operation not reported: %v", res.Errors)
	}
}

func TestCheckTopLevelIOAllowed(t *testing.T) {
	item := &ast.ExpressionItem{
		Token:      tk("("),
		Expression: call(ident("print_endline"), strLit("hi")),
	}
	res := checkModule(t, config.Default(), item)
	if hasCode(res.Errors, diagnostics.ErrUnhandledEffects) {
		t.Errorf("top-level IO must pass in default mode: %v", res.Errors)
	}

	strict := config.Default()
	strict.Strict = true
	res = checkModule(t, strict, item)
	if !hasCode(res.Errors, diagnostics.ErrUnhandledEffects) {
		t.Errorf("strict mode must reject top-level IO: %v", res.Errors)
	}
}

func TestCheckTypeDeclarationConstructors(t *testing.T) {
	decl := &ast.TypeDeclaration{
		Token: tk("type"),
		Name:  ident("Shape"),
		Body: &ast.VariantType{Token: tk("<"), Cases: []*ast.VariantTypeCase{
			{Token: tk("Dot"), Name: "Dot"},
			{Token: tk("Square"), Name: "Square", Args: []ast.TypeExpr{
				&ast.NamedType{Token: tk("Int"), Name: "Int"},
			}},
		}},
	}
	use := letDef("s", &ast.ConstructorExpression{
		Token:     tk("Square"),
		Name:      ident("Square"),
		Arguments: []ast.Expression{intLit(4)},
	})
	matchUse := letDef("n", &ast.MatchExpression{
		Token:     tk("match"),
		Scrutinee: ident("s"),
		Arms: []*ast.MatchArm{
			{Token: tk("Dot"), Pattern: &ast.ConstructorPattern{Token: tk("Dot"), Name: ident("Dot")}, Body: intLit(0)},
			{Token: tk("Square"), Pattern: &ast.ConstructorPattern{
				Token: tk("Square"), Name: ident("Square"),
				Args: []ast.Pattern{&ast.IdentifierPattern{Token: tk("w"), Name: ident("w")}},
			}, Body: ident("w")},
		},
	})
	res := checkModule(t, config.Default(), decl, use, matchUse)
	if !res.Ok() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if got := res.InferredTypes["n"].Body.String(); got != "Int" {
		t.Errorf("n : %s, want Int", got)
	}
}

func TestCheckUnusedLetWarning(t *testing.T) {
	inner := &ast.LetExpression{
		Token:  tk("let"),
		Binder: bindName("dead"),
		Value:  intLit(1),
		Body:   intLit(2),
	}
	res := checkModule(t, config.Default(), letDef("x", inner))
	if !hasCode(res.Warnings, diagnostics.WarnUnusedBinding) {
		t.Errorf("missing unused-binding warning: %v", res.Warnings)
	}

	quiet := config.Default()
	quiet.WarnUnusedLets = false
	res = checkModule(t, quiet, letDef("x", inner))
	if hasCode(res.Warnings, diagnostics.WarnUnusedBinding) {
		t.Error("warning emitted with WarnUnusedLets disabled")
	}
}

func TestCheckResultHasID(t *testing.T) {
	res := checkModule(t, config.Default(), letDef("x", intLit(1)))
	if res.ID == "" {
		t.Error("check result missing its id")
	}
	other := checkModule(t, config.Default(), letDef("x", intLit(1)))
	if res.ID == other.ID {
		t.Error("two check runs share an id")
	}
}

func TestCheckAnnotatedDefinition(t *testing.T) {
	def := &ast.LetDefinition{
		Token:          tk("let"),
		Name:           ident("x"),
		TypeAnnotation: &ast.NamedType{Token: tk("Int"), Name: "Int"},
		Value:          intLit(1),
	}
	res := checkModule(t, config.Default(), def)
	if !res.Ok() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	bad := &ast.LetDefinition{
		Token:          tk("let"),
		Name:           ident("y"),
		TypeAnnotation: &ast.NamedType{Token: tk("Bool"), Name: "Bool"},
		Value:          intLit(1),
	}
	res = checkModule(t, config.Default(), bad)
	if !hasCode(res.Errors, diagnostics.ErrTypeMismatch) {
		t.Errorf("annotation mismatch not reported: %v", res.Errors)
	}
}

func TestCheckDeclaredEffectRowTooNarrow(t *testing.T) {
	// let f : (String) -> !{} Unit = fn s -> print_endline(s)
	// The body performs IO but the annotation declares a pure function.
	def := &ast.LetDefinition{
		Token: tk("let"),
		Name:  ident("f"),
		TypeAnnotation: &ast.FuncType{
			Token:   tk("("),
			Params:  []ast.TypeExpr{&ast.NamedType{Token: tk("String"), Name: "String"}},
			Effects: &ast.EffectRowExpr{Token: tk("!")},
			Return:  &ast.NamedType{Token: tk("Unit"), Name: "Unit"},
		},
		Value: lambda(call(ident("print_endline"), ident("s")), "s"),
	}
	res := checkModule(t, config.Default(), def)
	if !hasCode(res.Errors, diagnostics.ErrEffectMismatch) {
		t.Errorf("effect overflow not reported: %v", res.Errors)
	}
}

func TestCheckCollectsEffectConstraints(t *testing.T) {
	// let f : (String) -> !{IO} Unit = fn s -> print_endline(s)
	// The annotation records a SubEffect obligation on the result.
	def := &ast.LetDefinition{
		Token: tk("let"),
		Name:  ident("f"),
		TypeAnnotation: &ast.FuncType{
			Token:   tk("("),
			Params:  []ast.TypeExpr{&ast.NamedType{Token: tk("String"), Name: "String"}},
			Effects: &ast.EffectRowExpr{Token: tk("!"), Effects: []string{"IO"}},
			Return:  &ast.NamedType{Token: tk("Unit"), Name: "Unit"},
		},
		Value: lambda(call(ident("print_endline"), ident("s")), "s"),
	}
	res := checkModule(t, config.Default(), def)
	if !res.Ok() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	found := false
	for _, c := range res.EffectConstraints {
		if c.Kind == typesystem.ConstraintSubEffect {
			found = true
		}
	}
	if !found {
		t.Errorf("no SubEffect constraint collected: %v", res.EffectConstraints)
	}
}

func TestCheckGeneralizesFieldAccessor(t *testing.T) {
	// let get_x = fn r -> r.x
	// The field obligation mentions the quantified record variable, so it
	// travels with the scheme and is re-obligated at every use site.
	accessor := letDef("get_x",
		lambda(&ast.FieldAccessExpression{Token: tk("."), Left: ident("r"), Field: ident("x")}, "r"))
	use := letDef("n", call(ident("get_x"), &ast.RecordLiteral{Token: tk("{"), Fields: []*ast.RecordFieldInit{
		{Token: tk("x"), Name: ident("x"), Value: intLit(1)},
	}}))
	res := checkModule(t, config.Default(), accessor, use)
	if !res.Ok() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	scheme := res.InferredTypes["get_x"]
	if len(scheme.TypeVars) == 0 {
		t.Fatalf("accessor not generalized: %s", scheme)
	}
	if len(scheme.Constraints) == 0 {
		t.Errorf("field obligation must travel with the scheme: %s", scheme)
	}
	if got := res.InferredTypes["n"].Body.String(); got != "Int" {
		t.Errorf("n : %s, want Int", got)
	}
}
