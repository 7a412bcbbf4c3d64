package diag

// Code constants for every diagnostic this compiler emits. The PAR/V/CYCLE/
// INTERNAL families are this implementation's structural codes for errors
// otherwise identified only by message substring.
const (
	CodeMutation        = "FICT-M"
	CodeMemoSideEffect  = "FICT-M003"
	CodeWideDependency  = "FICT-H"
	CodeSignalArg       = "FICT-S002"
	CodeMissingKey      = "FICT-J002"
	CodeNestedComponent = "FICT-C003"
	CodeNoReturn        = "FICT-C004"
	CodeDeadEffect      = "FICT-E001"

	CodeParseError = "FICT-PAR001"
	CodeValidation = "FICT-V001"
	CodeCycle      = "FICT-CYCLE"
	CodeInternal   = "FICT-INTERNAL"
)

// Info is one entry in the diagnostic registry: everything `fictc explain
// CODE` and --json consumers need to describe a code without re-deriving it
// from the emitting pass.
type Info struct {
	Code        string
	Phase       string
	Category    string
	Description string
	Fix         string
}

// Registry maps every known code to its Info: a flat map keyed by stable
// code constants, looked up by a small accessor rather than a switch.
var Registry = map[string]Info{
	CodeMutation: {
		CodeMutation, "shape", "mutation",
		"Direct mutation of a nested property on a reactive object",
		"Use an immutable update, or declare the value with $store(...) instead.",
	},
	CodeMemoSideEffect: {
		CodeMemoSideEffect, "classify", "purity",
		"Obvious side effect inside a $memo body",
		"Move the side effect into an $effect; $memo bodies must stay pure.",
	},
	CodeWideDependency: {
		CodeWideDependency, "shape", "dependency",
		"Dynamic property access widens the dependency to the whole object",
		"Narrow the key with an if/switch, or pass a literal key.",
	},
	CodeSignalArg: {
		CodeSignalArg, "lower", "dereference",
		"Passing a Signal as a function argument without dereferencing it",
		"Call the signal (name()) before passing it to an opaque function.",
	},
	CodeMissingKey: {
		CodeMissingKey, "lower", "list",
		"List rendered with .map() has no key attribute",
		"Add a stable key={...} attribute to the mapped element.",
	},
	CodeNestedComponent: {
		CodeNestedComponent, "classify", "structure",
		"Component defined inside another component",
		"Hoist the nested component to module scope.",
	},
	CodeNoReturn: {
		CodeNoReturn, "classify", "structure",
		"Component has no return statement",
		"",
	},
	CodeDeadEffect: {
		CodeDeadEffect, "depgraph", "effect",
		"$effect body has no reactive reads and will only ever run once",
		"Read a signal/memo inside the effect, or hoist the code out of $effect.",
	},
	CodeParseError: {
		CodeParseError, "parser", "syntax",
		"The source could not be parsed",
		"",
	},
	CodeValidation: {
		CodeValidation, "validator", "semantic",
		"A macro placement or reassignment rule was violated",
		"",
	},
	CodeCycle: {
		CodeCycle, "depgraph", "cycle",
		"The derived-value dependency graph contains a cycle",
		"Break the cycle by introducing a $state seed value one of the derived bindings reads instead of the other.",
	},
	CodeInternal: {
		CodeInternal, "internal", "internal",
		"An unanticipated error surfaced from a compiler phase",
		"",
	},
}

// GetInfo returns the registry entry for code, if known.
func GetInfo(code string) (Info, bool) {
	info, ok := Registry[code]
	return info, ok
}
