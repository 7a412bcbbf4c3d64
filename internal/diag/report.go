// Package diag defines the structured diagnostic type emitted by every
// compiler phase, from lexing through codegen.
package diag

import (
	"encoding/json"
	"errors"

	"github.com/sunholo/fict/internal/ast"
)

// Report is the canonical structured diagnostic type for the compiler.
// All phase errors and warnings are built as *Report and wrapped as
// ReportError so callers can recover structure via errors.As.
type Report struct {
	Schema  string         `json:"schema"`         // always "fict.diagnostic/v1"
	Code    string         `json:"code"`           // e.g. FICT-M003, FICT-PAR001
	Phase   string         `json:"phase"`          // "lexer", "parser", "hir", "shape", "reactscope", "classify", "lower", "optimize"
	Message string         `json:"message"`
	Span    *ast.Span      `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// Fix describes a suggested source edit attached to a Report.
type Fix struct {
	Description string `json:"description"`
	Replacement string `json:"replacement,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As unwrapping.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps r as an error; callers should return this to preserve
// structure across the phase boundary.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders r as JSON, optionally compact.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewGeneric wraps an arbitrary Go error from phase as a Report with a
// catch-all code, for failures the phase didn't anticipate in detail.
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  "fict.diagnostic/v1",
		Code:    "FICT-INTERNAL",
		Phase:   phase,
		Message: err.Error(),
		Data:    map[string]any{},
	}
}
