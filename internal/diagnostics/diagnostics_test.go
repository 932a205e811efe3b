package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lume-lang/lume/internal/token"
)

func tok(line, col int) token.Token {
	return token.Token{File: "main.lm", Line: line, Column: col, Lexeme: "x"}
}

func TestReporterDeduplicates(t *testing.T) {
	r := NewReporter()
	r.Add(NewError(ErrTypeMismatch, tok(1, 5), "expected Int, found Bool"))
	r.Add(NewError(ErrTypeMismatch, tok(1, 5), "expected Int, found Bool"))
	r.Add(NewError(ErrTypeMismatch, tok(2, 1), "expected Int, found Bool"))

	if got := len(r.Errors()); got != 2 {
		t.Errorf("got %d errors after dedup, want 2", got)
	}
}

func TestReporterDistinguishesCodes(t *testing.T) {
	r := NewReporter()
	r.Add(NewError(ErrTypeMismatch, tok(1, 1), "mismatch"))
	r.Add(NewError(ErrArityMismatch, tok(1, 1), "arity"))
	if got := len(r.Errors()); got != 2 {
		t.Errorf("same position, different codes must both survive; got %d", got)
	}
}

func TestReporterSortsByPosition(t *testing.T) {
	r := NewReporter()
	r.Add(NewError(ErrTypeMismatch, tok(9, 1), "later"))
	r.Add(NewError(ErrUnboundVariable, tok(2, 3), "earlier"))
	r.Add(NewError(ErrTypeMismatch, tok(2, 1), "first"))

	errs := r.Errors()
	if errs[0].Message != "first" || errs[1].Message != "earlier" || errs[2].Message != "later" {
		t.Errorf("bad order: %q, %q, %q", errs[0].Message, errs[1].Message, errs[2].Message)
	}
}

func TestReporterSeparatesWarnings(t *testing.T) {
	r := NewReporter()
	r.Add(NewError(ErrUnboundVariable, tok(1, 1), "unbound"))
	r.Add(NewWarning(WarnUnusedBinding, tok(3, 1), "unused binding y"))

	if len(r.Errors()) != 1 || len(r.Warnings()) != 1 {
		t.Fatalf("errors=%d warnings=%d, want 1/1", len(r.Errors()), len(r.Warnings()))
	}
	if !r.HasErrors() {
		t.Error("HasErrors() = false with one error recorded")
	}
}

func TestDiagnosticErrorString(t *testing.T) {
	d := NewError(ErrTypeMismatch, tok(4, 7), "expected Int, found Bool").
		WithContext("in the condition of if", "in the body of main")
	s := d.Error()
	for _, want := range []string{"error[T002]", "main.lm:4:7", "expected Int, found Bool", "in the condition of if"} {
		if !strings.Contains(s, want) {
			t.Errorf("Error() = %q, missing %q", s, want)
		}
	}
}

func TestFormatterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf)
	f.FormatAll([]*Diagnostic{NewError(ErrUnboundVariable, tok(1, 1), "unbound variable x")}, nil)

	out := buf.String()
	if strings.Contains(out, "\033[") {
		t.Error("color codes written to a non-terminal writer")
	}
	if !strings.Contains(out, "1. error[T001] main.lm:1:1: unbound variable x") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "1 error(s), 0 warning(s)") {
		t.Errorf("missing digest: %q", out)
	}
}
