// Package pipeline wires the lexer, parser, and every analysis/lowering
// phase into the single Transform entry point external callers (the CLI,
// a bundler plugin, a REPL) use to turn one source file into runnable
// JavaScript. Each phase is timed and its errors wrapped with the phase
// name and "<phase> error" message.
package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/classify"
	"github.com/sunholo/fict/internal/config"
	"github.com/sunholo/fict/internal/depgraph"
	"github.com/sunholo/fict/internal/diag"
	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/lexer"
	"github.com/sunholo/fict/internal/lower"
	"github.com/sunholo/fict/internal/optimize"
	"github.com/sunholo/fict/internal/parser"
	"github.com/sunholo/fict/internal/reactscope"
	"github.com/sunholo/fict/internal/schema"
	"github.com/sunholo/fict/internal/shape"
	"github.com/sunholo/fict/internal/validate"
)

// Source is one compilation unit: a filename and its text.
type Source struct {
	Code     string
	Filename string
}

// Result is everything Transform produces: the generated code plus
// whatever diagnostics surfaced along the way, and how long each phase
// took (useful for --json output and for profiling slow inputs).
type Result struct {
	Code         string
	Warnings     []config.Warning
	PhaseTimings map[string]int64

	promotedErr *diag.Report
}

// Transform runs src through every compiler phase and returns the lowered
// JavaScript it produces. A non-nil error is always a *diag.ReportError;
// callers that want structured detail should use diag.AsReport on it.
func Transform(src Source, opts config.Options) (Result, error) {
	result := Result{PhaseTimings: map[string]int64{}}

	emit := func(code, message string, pos ast.Pos) {
		level := opts.LevelFor(code)
		w := config.Warning{Code: code, Message: message, Line: pos.Line, Column: pos.Column, Level: level}
		if level != config.LevelOff {
			result.Warnings = append(result.Warnings, w)
			if opts.OnWarn != nil {
				opts.OnWarn(w)
			}
		}
		if result.promotedErr == nil && opts.WarningsAsErrors.Promotes(code) {
			result.promotedErr = &diag.Report{
				Schema: schema.DiagnosticV1, Code: code, Phase: "classify",
				Message: "Fict warning treated as error: " + message,
				Span:    &ast.Span{Start: pos, End: pos},
			}
		}
	}

	var file *ast.File
	var prog *hir.Program
	var lattice *shape.Lattice
	var graph *depgraph.Graph
	var regions *reactscope.Analysis
	var classified map[string]*classify.Info

	phase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		result.PhaseTimings[name] = time.Since(start).Milliseconds()
		if err != nil {
			if _, ok := diag.AsReport(err); ok {
				return err
			}
			return diag.WrapReport(&diag.Report{
				Schema: schema.DiagnosticV1, Code: diag.CodeInternal, Phase: name,
				Message: fmt.Sprintf("%s error: %v", name, err),
			})
		}
		return nil
	}

	if err := phase("parser", func() error {
		l := lexer.New(src.Code, src.Filename)
		p := parser.New(l, src.Filename)
		f := p.ParseFile()
		if errs := p.Errors(); len(errs) > 0 {
			return diag.WrapReport(&diag.Report{
				Schema: schema.DiagnosticV1, Code: diag.CodeParseError, Phase: "parser",
				Message: errs[0].Error(),
			})
		}
		file = f
		return nil
	}); err != nil {
		return result, err
	}

	if err := phase("hir", func() error {
		prog = hir.Build(file, opts.ReactiveScopeSet())
		return nil
	}); err != nil {
		return result, err
	}

	if err := phase("shape", func() error {
		lattice = shape.Analyze(prog)
		return nil
	}); err != nil {
		return result, err
	}

	if err := phase("depgraph", func() error {
		graph = depgraph.Build(prog)
		if cycleErr := depgraph.Check(graph); cycleErr != nil {
			return diag.WrapReport(&diag.Report{
				Schema: schema.DiagnosticV1, Code: diag.CodeCycle, Phase: "depgraph",
				Message: cycleErr.Error(),
			})
		}
		return nil
	}); err != nil {
		return result, err
	}

	if err := phase("validate", func() error {
		if errs := validate.Check(file, prog); len(errs) > 0 {
			ve := errs[0].(*validate.Error)
			return diag.WrapReport(&diag.Report{
				Schema: schema.DiagnosticV1, Code: diag.CodeValidation, Phase: "validate",
				Message: ve.Message, Span: &ast.Span{Start: ve.Pos, End: ve.Pos},
			})
		}
		return nil
	}); err != nil {
		return result, err
	}

	if err := phase("reactscope", func() error {
		regions = reactscope.Analyze(prog, graph)
		return nil
	}); err != nil {
		return result, err
	}

	if err := phase("classify", func() error {
		infos, errs := classify.Classify(prog, regions, classify.Options{
			InlineDerivedMemos: opts.InlineDerivedMemos,
		})
		if len(errs) > 0 {
			code := diag.CodeValidation
			if ce, ok := errs[0].(*classify.Error); ok {
				return diag.WrapReport(&diag.Report{
					Schema: schema.DiagnosticV1, Code: code, Phase: "classify",
					Message: ce.Message, Span: &ast.Span{Start: ce.Pos, End: ce.Pos},
				})
			}
			return diag.WrapReport(&diag.Report{
				Schema: schema.DiagnosticV1, Code: code, Phase: "classify",
				Message: errs[0].Error(),
			})
		}
		classified = infos
		return nil
	}); err != nil {
		return result, err
	}

	emitShapeWarnings(prog, lattice, classified, emit)
	emitMutationWarnings(prog, lattice, emit)
	emitMemoSideEffectWarnings(prog, classified, emit)
	emitSignalArgWarnings(prog, classified, emit)
	emitEffectWarnings(prog, classified, emit)
	emitComponentWarnings(prog, emit)

	var loweredFile *ast.File
	if err := phase("lower", func() error {
		var lowerWarnings []lower.Warning
		loweredFile, lowerWarnings = lower.Lower(prog, classified, regions, lattice, opts)
		for _, w := range lowerWarnings {
			emit(w.Code, w.Message, w.Pos)
		}
		return nil
	}); err != nil {
		return result, err
	}

	if opts.Optimize {
		if err := phase("optimize", func() error {
			accessors := make(map[string]bool)
			for name, info := range classified {
				if info.Kind == classify.Memo || info.Kind == classify.RegionMemoField || info.Kind == classify.PropAccessor {
					accessors[name] = true
				}
			}
			pinned := make(map[string]bool)
			for _, b := range prog.Bindings {
				if b.Init != nil {
					if _, ok := ast.IsMacroCall(b.Init, "$memo"); ok {
						pinned[b.Name] = true
					}
				}
			}
			loweredFile = optimize.Optimize(loweredFile, opts, accessors, pinned)
			return nil
		}); err != nil {
			return result, err
		}
	}

	if result.promotedErr != nil {
		return result, diag.WrapReport(result.promotedErr)
	}

	result.Code = loweredFile.String()
	return result, nil
}

// emitShapeWarnings raises FICT-H for bindings the shape lattice marked as
// needing a whole-object subscription: a dynamic property access on a
// tracked object with nothing narrowed, which silently widens what a
// read of that binding depends on.
func emitShapeWarnings(prog *hir.Program, lattice *shape.Lattice, classified map[string]*classify.Info, emit func(code, msg string, pos ast.Pos)) {
	if lattice == nil {
		return
	}
	names := make([]string, 0, len(classified))
	for name := range classified {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if classified[name].Kind == classify.Plain {
			continue
		}
		if lattice.NeedsWholeObjectSubscription(name) {
			emit(diag.CodeWideDependency, fmt.Sprintf("dynamic property access on %q widens its dependency to the whole object", name), bindingPos(prog, name))
		}
	}
}

// bindingPos resolves a binding name to its declaration-site position, so a
// lattice-level warning still points somewhere real in the source.
func bindingPos(prog *hir.Program, name string) ast.Pos {
	for _, b := range prog.Bindings {
		if b.Name != name {
			continue
		}
		if b.Pattern != nil {
			return b.Pattern.Position()
		}
		if b.Decl != nil {
			return b.Decl.Position()
		}
	}
	return ast.Pos{Line: 1, Column: 1}
}

// knownSafeCallees are callees the compiler never warns about passing a
// tracked value to.
var knownSafeCallees = map[string]bool{
	"console.log": true, "console.warn": true, "console.error": true,
	"console.info": true, "console.debug": true, "JSON.stringify": true,
}

func calleeDottedName(e ast.Expr) string {
	switch c := e.(type) {
	case *ast.Identifier:
		return c.Name
	case *ast.MemberExpr:
		if c.Computed {
			return ""
		}
		obj, ok := c.Object.(*ast.Identifier)
		prop, ok2 := c.Property.(*ast.Identifier)
		if !ok || !ok2 {
			return ""
		}
		return obj.Name + "." + prop.Name
	default:
		return ""
	}
}

// emitMutationWarnings raises FICT-M for any binding the shape lattice
// recorded a direct nested-property write on, unless its source is a
// $store(...) value (stores are mutated by design).
func emitMutationWarnings(prog *hir.Program, lattice *shape.Lattice, emit func(code, msg string, pos ast.Pos)) {
	if lattice == nil {
		return
	}
	names := make([]string, 0, len(lattice.Records))
	for name := range lattice.Records {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := lattice.Records[name]
		if len(r.MutableKeys) > 0 && r.Source != shape.SourceStore {
			emit(diag.CodeMutation, fmt.Sprintf("%q is mutated through a nested property write", name), bindingPos(prog, name))
		}
	}
}

// emitMemoSideEffectWarnings raises FICT-M003 for a Memo/RegionMemoField
// whose initializer contains an unambiguous side effect (an assignment,
// increment/decrement, `new`, or `await`) — memo bodies must stay pure.
func emitMemoSideEffectWarnings(prog *hir.Program, classified map[string]*classify.Info, emit func(code, msg string, pos ast.Pos)) {
	byName := make(map[string]*hir.Binding, len(prog.Bindings))
	for _, b := range prog.Bindings {
		byName[b.Name] = b
	}
	names := make([]string, 0, len(classified))
	for name := range classified {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		info := classified[name]
		if info.Kind != classify.Memo && info.Kind != classify.RegionMemoField {
			continue
		}
		b, ok := byName[name]
		if !ok || b.Init == nil {
			continue
		}
		if hasSideEffect(b.Init) {
			emit(diag.CodeMemoSideEffect, fmt.Sprintf("%q: $memo body has a side effect", name), b.Init.Position())
		}
	}
}

func hasSideEffect(e ast.Expr) bool {
	found := false
	ast.WalkExpr(e, func(n ast.Expr) {
		switch n.(type) {
		case *ast.AssignmentExpr, *ast.UpdateExpr, *ast.AwaitExpr, *ast.NewExpr:
			found = true
		}
	})
	return found
}

// emitSignalArgWarnings raises FICT-S002 when a Signal binding is passed by
// reference to a function call instead of being dereferenced (`count` vs
// `count()`), excluding calls to the known-safe callee list.
func emitSignalArgWarnings(prog *hir.Program, classified map[string]*classify.Info, emit func(code, msg string, pos ast.Pos)) {
	for _, fn := range prog.Functions() {
		walkFunctionExprsAll(fn, func(e ast.Expr) {
			call, ok := e.(*ast.CallExpr)
			if !ok {
				return
			}
			if _, ok := ast.IsMacroCall(e, "$state"); ok {
				return
			}
			if _, ok := ast.IsMacroCall(e, "$effect"); ok {
				return
			}
			if _, ok := ast.IsMacroCall(e, "$memo"); ok {
				return
			}
			if knownSafeCallees[calleeDottedName(call.Callee)] {
				return
			}
			for _, arg := range call.Args {
				id, ok := arg.(*ast.Identifier)
				if !ok {
					continue
				}
				if info, ok := classified[id.Name]; ok && info.Kind == classify.Signal {
					emit(diag.CodeSignalArg, fmt.Sprintf("%q is passed as an argument without being dereferenced", id.Name), id.Pos)
				}
			}
		})
	}
}

// walkFunctionExprsAll visits every expression in fn's own block tree,
// including expressions nested below the statement-level cut, but does not
// descend into a nested Function's body (that function gets its own pass
// via prog.Functions()).
func walkFunctionExprsAll(fn *hir.Function, visit func(ast.Expr)) {
	var walkBlock func(b *hir.Block)
	walkBlock = func(b *hir.Block) {
		for b != nil {
			for _, s := range b.Stmts {
				walkStmtAllExprs(s, visit)
			}
			if b.Ctrl != nil {
				walkStmtAllExprs(b.Ctrl, visit)
			}
			for _, e := range b.Edges {
				walkBlock(e.Block)
			}
			b = b.Next
		}
	}
	walkBlock(fn.Entry)
}

func walkStmtAllExprs(s ast.Stmt, visit func(ast.Expr)) {
	switch v := s.(type) {
	case *ast.ExprStmt:
		ast.WalkExpr(v.Expr, visit)
	case *ast.ReturnStmt:
		if v.Arg != nil {
			ast.WalkExpr(v.Arg, visit)
		}
	case *ast.VarDecl:
		for _, d := range v.Declarations {
			if d.Init != nil {
				ast.WalkExpr(d.Init, visit)
			}
		}
	case *ast.IfStmt:
		ast.WalkExpr(v.Test, visit)
	case *ast.SwitchStmt:
		ast.WalkExpr(v.Disc, visit)
	case *ast.WhileStmt:
		ast.WalkExpr(v.Test, visit)
	case *ast.ThrowStmt:
		ast.WalkExpr(v.Arg, visit)
	}
}

// emitEffectWarnings raises FICT-E001 for every $effect(...) call whose body
// contains no identifier classified as Signal/Memo/RegionMemoField, since such
// an effect has no reactive read and so runs exactly once, never again
// regardless of any state change (an identifier reference to a plain value,
// e.g. a logging callee like console.log, does not count).
func emitEffectWarnings(prog *hir.Program, classified map[string]*classify.Info, emit func(code, msg string, pos ast.Pos)) {
	for _, fn := range prog.Functions() {
		fn.WalkEffectCalls(func(call *ast.CallExpr) {
			if len(call.Args) != 1 {
				return
			}
			if !hasReactiveRead(call.Args[0], classified) {
				emit(diag.CodeDeadEffect, "$effect body has no reactive reads", call.Position())
			}
		})
	}
}

func hasReactiveRead(e ast.Expr, classified map[string]*classify.Info) bool {
	found := false
	ast.WalkExpr(e, func(n ast.Expr) {
		id, ok := n.(*ast.Identifier)
		if !ok {
			return
		}
		info, ok := classified[id.Name]
		if ok && (info.Kind == classify.Signal || info.Kind == classify.Memo || info.Kind == classify.RegionMemoField) {
			found = true
		}
	})
	return found
}

// isComponentName reports whether name follows the component naming
// convention (leading uppercase letter), as opposed to a hook (leading
// "use") or a plain helper function.
func isComponentName(name string) bool {
	if name == "" {
		return false
	}
	c := name[0]
	return c >= 'A' && c <= 'Z'
}

// emitComponentWarnings raises FICT-C003 for a component function declared
// inside another component's body, and FICT-C004 for a component with no
// return statement anywhere in its own body.
func emitComponentWarnings(prog *hir.Program, emit func(code, msg string, pos ast.Pos)) {
	for _, fn := range prog.Functions() {
		if fn.Scope != hir.ScopeComponentOrHook || fn.Parent == nil || !isComponentName(fn.Name) {
			continue
		}
		if fn.Parent.Scope == hir.ScopeComponentOrHook && isComponentName(fn.Parent.Name) {
			emit(diag.CodeNestedComponent, fmt.Sprintf("component %q is defined inside component %q", fn.Name, fn.Parent.Name), fn.Node.Position())
		}
		if !hasReturn(fn.Entry) {
			emit(diag.CodeNoReturn, fmt.Sprintf("component %q has no return statement", fn.Name), fn.Node.Position())
		}
	}
}

func hasReturn(b *hir.Block) bool {
	for b != nil {
		for _, s := range b.Stmts {
			if _, ok := s.(*ast.ReturnStmt); ok {
				return true
			}
		}
		if _, ok := b.Ctrl.(*ast.ReturnStmt); ok {
			return true
		}
		for _, e := range b.Edges {
			if hasReturn(e.Block) {
				return true
			}
		}
		b = b.Next
	}
	return false
}
