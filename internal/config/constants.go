package config

// IsTestMode indicates if the checker is running under tests.
// Type variable printing is normalized when set (t1, t42 -> t?) so test
// expectations stay deterministic across inference orderings.
var IsTestMode = false

// IsLSPMode indicates the checker is serving an editor session.
// Shares the printing normalization with test mode for a clean UI.
var IsLSPMode = false

// Built-in type names
const (
	IntTypeName    = "Int"
	FloatTypeName  = "Float"
	BoolTypeName   = "Bool"
	StringTypeName = "String"
	UnitTypeName   = "Unit"
	ListTypeName   = "List"
)

// Built-in function names
const (
	PrintEndlineFuncName = "print_endline"
	PrintFuncName        = "print"
	StringOfIntFuncName  = "string_of_int"
	IntOfStringFuncName  = "int_of_string"
	NotFuncName          = "not"
	ConsFuncName         = "cons"
)

// Well-known effect names used by the prelude.
const (
	IOEffectName    = "IO"
	StateEffectName = "State"
	ExnEffectName   = "Exn"
)
