package diagnostics

import (
	"fmt"
	"strings"

	"github.com/lume-lang/lume/internal/token"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	ErrUnboundVariable  Code = "T001"
	ErrTypeMismatch     Code = "T002"
	ErrArityMismatch    Code = "T003"
	ErrInfiniteType     Code = "T004"
	ErrEffectMismatch   Code = "T005"
	ErrUnhandledEffects Code = "T006"
	ErrUnknownEffect    Code = "T007"
	ErrUnknownOperation Code = "T008"
	ErrDuplicateEffect  Code = "T009"
	ErrBadAnnotation    Code = "T010"
	ErrInference        Code = "T011"

	WarnUnusedBinding    Code = "W001"
	WarnRedundantHandler Code = "W002"
)

// Diagnostic is one reported problem, pinned to a source position and
// carrying the breadcrumb of inference steps that led to it.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Token    token.Token
	Message  string
	Context  []string // Outermost step first, e.g. "in the argument of f"
}

// NewError builds an error diagnostic at tok.
func NewError(code Code, tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityError, Token: tok, Message: msg}
}

// NewWarning builds a warning diagnostic at tok.
func NewWarning(code Code, tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{Code: code, Severity: SeverityWarning, Token: tok, Message: msg}
}

// WithContext appends a breadcrumb describing where inference was when the
// problem surfaced.
func (d *Diagnostic) WithContext(steps ...string) *Diagnostic {
	d.Context = append(d.Context, steps...)
	return d
}

func (d *Diagnostic) IsError() bool {
	return d.Severity != SeverityWarning
}

// Key identifies a diagnostic for deduplication: same position, same code.
func (d *Diagnostic) Key() string {
	return fmt.Sprintf("%s:%d:%d:%s", d.Token.File, d.Token.Line, d.Token.Column, d.Code)
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	sev := string(d.Severity)
	if sev == "" {
		sev = string(SeverityError)
	}
	fmt.Fprintf(&b, "%s[%s]", sev, d.Code)
	if d.Token.IsValid() {
		fmt.Fprintf(&b, " %s", d.Token.Pos())
	}
	fmt.Fprintf(&b, ": %s", d.Message)
	for _, step := range d.Context {
		fmt.Fprintf(&b, "\n  %s", step)
	}
	return b.String()
}
