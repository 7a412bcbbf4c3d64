// Package lower rewrites the surface AST in place of its reactive bindings
// and macro calls into calls against the runtime ABI (internal/runtimeabi).
// It operates as an AST-to-AST rewrite rather than direct text emission,
// since internal/ast's existing String() methods already serve as the
// printer (see internal/pipeline).
package lower

import (
	"fmt"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/classify"
	"github.com/sunholo/fict/internal/config"
	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/reactscope"
	"github.com/sunholo/fict/internal/shape"
)

const ctxIdent = "__fictCtx"

// Warning is one diagnostic raised during lowering itself, as opposed to an
// earlier analysis phase — currently just FICT-J002 (keyed list missing a
// key), which can only be detected while rewriting the `.map()` call site.
type Warning struct {
	Code    string
	Message string
	Pos     ast.Pos
}

func (c *ctx) warn(code, message string, pos ast.Pos) {
	c.warnings = append(c.warnings, Warning{Code: code, Message: message, Pos: pos})
}

// ctx carries the shared state of one lowering pass: classification
// results, hoisted templates/selectors, and ID counters. It is allocated
// fresh per call to Lower — never reused across calls — so concurrent
// compilations never share mutable state.
type ctx struct {
	opts       config.Options
	classified map[string]*classify.Info
	regions    *reactscope.Analysis
	shapes     *shape.Lattice

	hoistedTemplates []ast.Stmt
	templateNames    map[string]string // markup -> var name, for template CSE
	selectorDecls    []ast.Stmt
	tmplCounter      int
	selCounter       int
	effectCounter    int
	regionEmitted    map[int]bool
	inlinedInits     map[string]ast.Expr
	bindingInit      map[string]ast.Expr // binding name -> its original initializer
	warnings         []Warning
}

// Lower rewrites prog's module into target-dialect source, returning a new
// *ast.File ready for printing via File.String(), plus any diagnostics the
// rewrite itself surfaced.
func Lower(prog *hir.Program, classified map[string]*classify.Info, regions *reactscope.Analysis, shapes *shape.Lattice, opts config.Options) (*ast.File, []Warning) {
	c := &ctx{
		opts:          opts,
		classified:    classified,
		regions:       regions,
		shapes:        shapes,
		templateNames: make(map[string]string),
		regionEmitted: make(map[int]bool),
		inlinedInits:  make(map[string]ast.Expr),
		bindingInit:   make(map[string]ast.Expr),
	}
	for _, b := range prog.Bindings {
		if b.Init != nil {
			c.bindingInit[b.Name] = b.Init
		}
	}

	out := &ast.File{Path: prog.File.Path, Pos: prog.File.Pos}
	hadMacroImport := false
	moduleUsesMacros := bodyDeclaresMacros(&ast.BlockStmt{Body: prog.File.Body})
	var body []ast.Stmt
	for _, s := range prog.File.Body {
		if imp, ok := s.(*ast.ImportDecl); ok && imp.Source == "fict" {
			hadMacroImport = true
			continue // macro imports are removed
		}
		body = append(body, c.lowerTopStmt(s, prog.Module))
	}

	if hadMacroImport {
		specs := make([]*ast.ImportSpecifier, 0, 4)
		for _, name := range []string{"__fictUseContext", "__fictUseSignal", "__fictUseMemo", "__fictUseEffect"} {
			specs = append(specs, &ast.ImportSpecifier{Imported: name, Local: name})
		}
		out.Body = append(out.Body, &ast.ImportDecl{Specifiers: specs, Source: "fict/runtime"})
	}
	if moduleUsesMacros {
		// module-scope signals/effects read the module's own hook context
		out.Body = append(out.Body, &ast.VarDecl{
			VKind: ast.KindConst,
			Declarations: []*ast.VarDeclarator{{
				Name: &ast.Identifier{Name: ctxIdent},
				Init: &ast.CallExpr{Callee: &ast.Identifier{Name: "__fictUseContext"}},
			}},
		})
	}
	out.Body = append(out.Body, c.hoistedTemplates...)
	out.Body = append(out.Body, c.selectorDecls...)
	out.Body = append(out.Body, body...)
	return out, c.warnings
}

func (c *ctx) lowerTopStmt(s ast.Stmt, fn *hir.Function) ast.Stmt {
	switch v := s.(type) {
	case *ast.FunctionDecl:
		return c.lowerFunctionDecl(v, true)
	case *ast.ExportDecl:
		if fd, ok := v.Decl.(*ast.FunctionDecl); ok {
			v.Decl = c.lowerFunctionDecl(fd, true)
			return v
		}
	}
	return c.lowerStmt(s, fn, "")
}

// lowerStmt rewrites one statement. selfName, when non-empty, is the name of
// the binding whose own initializer is currently being lowered (reads of
// that name inside it are left untouched).
func (c *ctx) lowerStmt(s ast.Stmt, fn *hir.Function, selfName string) ast.Stmt {
	switch v := s.(type) {
	case *ast.VarDecl:
		return c.lowerVarDecl(v, fn)
	case *ast.FunctionDecl:
		return c.lowerFunctionDecl(v, false)
	case *ast.ExportDecl:
		v.Decl = c.lowerStmt(v.Decl, fn, selfName)
		return v
	case *ast.ExprStmt:
		v.Expr = c.lowerExpr(v.Expr, fn, selfName)
		return v
	case *ast.ReturnStmt:
		if v.Arg != nil {
			v.Arg = c.lowerExpr(v.Arg, fn, selfName)
		}
		return v
	case *ast.IfStmt:
		v.Test = c.lowerExpr(v.Test, fn, selfName)
		v.Cons = c.lowerStmt(v.Cons, fn, selfName)
		if v.Alt != nil {
			v.Alt = c.lowerStmt(v.Alt, fn, selfName)
		}
		return v
	case *ast.BlockStmt:
		for i, stmt := range v.Body {
			v.Body[i] = c.lowerStmt(stmt, fn, selfName)
		}
		return v
	case *ast.WhileStmt:
		v.Test = c.lowerExpr(v.Test, fn, selfName)
		v.Body = c.lowerStmt(v.Body, fn, selfName)
		return v
	case *ast.DoWhileStmt:
		v.Body = c.lowerStmt(v.Body, fn, selfName)
		v.Test = c.lowerExpr(v.Test, fn, selfName)
		return v
	case *ast.ForStmt:
		if v.Test != nil {
			v.Test = c.lowerExpr(v.Test, fn, selfName)
		}
		if v.Update != nil {
			v.Update = c.lowerExpr(v.Update, fn, selfName)
		}
		v.Body = c.lowerStmt(v.Body, fn, selfName)
		return v
	case *ast.ForOfStmt:
		v.Right = c.lowerExpr(v.Right, fn, selfName)
		v.Body = c.lowerStmt(v.Body, fn, selfName)
		return v
	case *ast.ForInStmt:
		v.Right = c.lowerExpr(v.Right, fn, selfName)
		v.Body = c.lowerStmt(v.Body, fn, selfName)
		return v
	case *ast.SwitchStmt:
		v.Disc = c.lowerExpr(v.Disc, fn, selfName)
		for _, cs := range v.Cases {
			for i, stmt := range cs.Body {
				cs.Body[i] = c.lowerStmt(stmt, fn, selfName)
			}
		}
		return v
	case *ast.ThrowStmt:
		v.Arg = c.lowerExpr(v.Arg, fn, selfName)
		return v
	case *ast.TryStmt:
		v.Block = c.lowerStmt(v.Block, fn, selfName).(*ast.BlockStmt)
		if v.Handler != nil {
			v.Handler = c.lowerStmt(v.Handler, fn, selfName).(*ast.BlockStmt)
		}
		if v.Finally != nil {
			v.Finally = c.lowerStmt(v.Finally, fn, selfName).(*ast.BlockStmt)
		}
		return v
	default:
		return s
	}
}

// lowerFunctionDecl lowers one function declaration. A top-level function
// is a component or hook and always gets the hook-context prologue; a
// nested function only gets one if its own body declares macros (which the
// validator only permits under a configured reactive-scope callback).
func (c *ctx) lowerFunctionDecl(f *ast.FunctionDecl, topLevel bool) *ast.FunctionDecl {
	isScope := topLevel || bodyDeclaresMacros(f.Body)
	f.Body, f.Params = c.lowerReactiveBody(f.Body, f.Params, isScope)
	return f
}

// lowerReactiveBody applies the last-if-return conditional conversion, the
// hook-context prologue, and prop-accessor lowering, then rewrites the
// remaining statements. It returns the rewritten body together with the
// (possibly __props-rewritten) parameter list.
func (c *ctx) lowerReactiveBody(block *ast.BlockStmt, params []ast.Pattern, isScope bool) (*ast.BlockStmt, []ast.Pattern) {
	body := block.Body
	body = convertLastIfReturn(body)

	var prologue []ast.Stmt
	if isScope {
		prologue = append(prologue, &ast.VarDecl{
			VKind: ast.KindConst,
			Declarations: []*ast.VarDeclarator{{
				Name: &ast.Identifier{Name: ctxIdent},
				Init: &ast.CallExpr{Callee: &ast.Identifier{Name: "__fictUseContext"}},
			}},
		})
	}
	if isScope && len(params) > 0 {
		if obj, ok := params[0].(*ast.ObjectPattern); ok {
			prologue = append(prologue, c.propAccessorPrologue(obj)...)
			params = append([]ast.Pattern{&ast.Identifier{Name: "__props"}}, params[1:]...)
		}
	}

	// selectors hoisted while lowering this body close over its locals, so
	// they belong right after the prologue rather than at module scope
	selMark := len(c.selectorDecls)
	var lowered []ast.Stmt
	for _, s := range body {
		lowered = append(lowered, c.lowerStmt(s, nil, ""))
	}
	scopedSelectors := c.selectorDecls[selMark:]
	c.selectorDecls = c.selectorDecls[:selMark]

	var out []ast.Stmt
	out = append(out, prologue...)
	out = append(out, scopedSelectors...)
	out = append(out, lowered...)
	block.Body = out
	return block, params
}

// bodyDeclaresMacros reports whether block directly declares $state or
// calls $effect at its top level.
func bodyDeclaresMacros(block *ast.BlockStmt) bool {
	for _, s := range block.Body {
		if vd, ok := s.(*ast.VarDecl); ok {
			for _, d := range vd.Declarations {
				if d.Init == nil {
					continue
				}
				if _, ok := ast.IsMacroCall(d.Init, "$state"); ok {
					return true
				}
			}
		}
		if es, ok := s.(*ast.ExprStmt); ok {
			if _, ok := ast.IsMacroCall(es.Expr, "$effect"); ok {
				return true
			}
		}
	}
	return false
}

// propAccessorPrologue turns `{ a, b = d }` into
// `const a = useProp(() => __props.a); const b = useProp(() => __props.b ?? d);`
func (c *ctx) propAccessorPrologue(pat *ast.ObjectPattern) []ast.Stmt {
	var out []ast.Stmt
	for _, prop := range pat.Props {
		id, ok := prop.Value.(*ast.Identifier)
		if !ok {
			continue
		}
		access := ast.Expr(&ast.MemberExpr{
			Object:   &ast.Identifier{Name: "__props"},
			Property: &ast.Identifier{Name: prop.Key},
		})
		if prop.Default != nil {
			access = &ast.LogicalExpr{Op: "??", Left: access, Right: prop.Default}
		}
		getter := &ast.ArrowFunction{ExprBody: true, Body: access}
		out = append(out, &ast.VarDecl{
			VKind: ast.KindConst,
			Declarations: []*ast.VarDeclarator{{
				Name: &ast.Identifier{Name: id.Name},
				Init: &ast.CallExpr{Callee: &ast.Identifier{Name: "useProp"}, Args: []ast.Expr{getter}},
			}},
		})
	}
	return out
}

func (c *ctx) lowerVarDecl(v *ast.VarDecl, fn *hir.Function) ast.Stmt {
	var kept []*ast.VarDeclarator
	for _, d := range v.Declarations {
		name := primaryName(d.Name)
		info := c.classified[name]
		if info == nil {
			if d.Init != nil {
				d.Init = c.lowerExpr(d.Init, fn, name)
			}
			kept = append(kept, d)
			continue
		}
		switch info.Kind {
		case classify.Signal:
			call, _ := ast.IsMacroCall(d.Init, "$state")
			init := d.Init
			if call != nil && len(call.Args) > 0 {
				init = call.Args[0]
			}
			init = c.lowerExpr(init, fn, name)
			d.Init = &ast.CallExpr{
				Callee: &ast.Identifier{Name: "__fictUseSignal"},
				Args:   []ast.Expr{&ast.Identifier{Name: ctxIdent}, init, idLiteral(info.StableID)},
			}
			kept = append(kept, d)
		case classify.Memo:
			if info.DestructuredFromSignal != "" {
				// `const { key } = signal` becomes its own single-field
				// memo: the field still needs to react to the signal even
				// though the source object reference never changes.
				field := ast.Expr(&ast.MemberExpr{
					Object:   &ast.CallExpr{Callee: &ast.Identifier{Name: info.DestructuredFromSignal}},
					Property: &ast.Identifier{Name: info.DestructuredKey},
				})
				d.Init = &ast.CallExpr{
					Callee: &ast.Identifier{Name: "__fictUseMemo"},
					Args: []ast.Expr{
						&ast.Identifier{Name: ctxIdent},
						&ast.ArrowFunction{ExprBody: true, Body: field},
						idLiteral(info.StableID),
					},
				}
				kept = append(kept, d)
				continue
			}
			init := d.Init
			if call, ok := ast.IsMacroCall(init, "$memo"); ok && len(call.Args) == 1 {
				init = call.Args[0]
			}
			body := c.lowerExpr(init, fn, name)
			d.Init = &ast.CallExpr{
				Callee: &ast.Identifier{Name: "__fictUseMemo"},
				Args: []ast.Expr{
					&ast.Identifier{Name: ctxIdent},
					&ast.ArrowFunction{ExprBody: true, Body: body},
					idLiteral(info.StableID),
				},
			}
			kept = append(kept, d)
		case classify.RegionMemoField:
			if c.regionEmitted[info.Region.ID] {
				continue // the whole region was already emitted
			}
			c.regionEmitted[info.Region.ID] = true
			kept = append(kept, c.emitRegion(info.Region, fn)...)
		case classify.CapturedValue:
			d.Init = &ast.CallExpr{Callee: asExpr(d.Init)}
			kept = append(kept, d)
		case classify.InlinedDerived:
			// declaration is removed; its lowered body is substituted at the
			// single use site by lowerExpr's InlinedDerived case.
			c.inlinedInits[name] = c.lowerExpr(d.Init, fn, name)
			continue
		case classify.PropAccessor:
			kept = append(kept, d)
		default:
			if d.Init != nil {
				d.Init = c.lowerExpr(d.Init, fn, name)
			}
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return &ast.EmptyStmt{}
	}
	v.Declarations = kept
	return v
}

// emitRegion produces `const __region_N = __fictUseMemo(ctx, () => { const
// f1 = …; const f2 = …; return { f1, f2 }; }, id); const { f1, f2 } =
// __region_N();` for one region. When lazyConditional is on, the tuple is
// `() => ({ get f1() {…}, get f2() {…} })` with no destructure, so a field a
// branch never reads is never computed on that branch's tick.
func (c *ctx) emitRegion(region *reactscope.Region, fn *hir.Function) []*ast.VarDeclarator {
	regionVar := fmt.Sprintf("__region_%d", region.ID)

	// only members classification actually marked as region fields become
	// tuple fields; a grouped binding that stayed Plain keeps its own
	// declaration and must not be declared a second time here
	var members []string
	for _, name := range region.Bindings {
		if info := c.classified[name]; info != nil && info.Kind == classify.RegionMemoField {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		return nil
	}

	var memoBody ast.Node
	if c.opts.LazyConditional {
		// getter tuple: a field's computation only runs when something reads
		// it, and a sibling read (`__region_N().f1` inside f2's getter)
		// resolves through the already-cached tuple object, not a recursive
		// memo evaluation
		var props []*ast.ObjectProperty
		for _, name := range members {
			init, ok := c.bindingInit[name]
			if !ok {
				init = &ast.Identifier{Name: name}
			} else {
				init = c.lowerExpr(init, fn, name)
			}
			props = append(props, &ast.ObjectProperty{Key: &ast.Identifier{Name: name}, Value: init, Getter: true})
		}
		memoBody = &ast.ObjectLiteral{Properties: props}
	} else {
		// eager tuple: each field is a local const so one field's
		// initializer can read a sibling it depends on
		var stmts []ast.Stmt
		var retProps []*ast.ObjectProperty
		for _, name := range members {
			init, ok := c.bindingInit[name]
			if !ok {
				init = &ast.Identifier{Name: name}
			} else {
				init = c.lowerExpr(init, fn, name)
			}
			stmts = append(stmts, &ast.VarDecl{
				VKind:        ast.KindConst,
				Declarations: []*ast.VarDeclarator{{Name: &ast.Identifier{Name: name}, Init: init}},
			})
			retProps = append(retProps, &ast.ObjectProperty{Key: &ast.Identifier{Name: name}, Shorthand: true})
		}
		stmts = append(stmts, &ast.ReturnStmt{Arg: &ast.ObjectLiteral{Properties: retProps}})
		memoBody = &ast.BlockStmt{Body: stmts}
	}

	// the region occupies the hook slot of its first field (the remaining
	// fields' slots go unused, which keeps every slot ID unique per scope)
	slot := region.ID
	if info := c.classified[members[0]]; info != nil {
		slot = info.StableID
	}
	memoFn := &ast.ArrowFunction{Body: memoBody, ExprBody: c.opts.LazyConditional}
	regionCall := &ast.VarDeclarator{
		Name: &ast.Identifier{Name: regionVar},
		Init: &ast.CallExpr{
			Callee: &ast.Identifier{Name: "__fictUseMemo"},
			Args: []ast.Expr{
				&ast.Identifier{Name: ctxIdent},
				memoFn,
				idLiteral(slot),
			},
		},
	}
	if c.opts.LazyConditional {
		// no destructure: reads go through __region_N().field so untouched
		// getters never evaluate
		return []*ast.VarDeclarator{regionCall}
	}
	var patProps []*ast.ObjectPatternProp
	for _, name := range members {
		patProps = append(patProps, &ast.ObjectPatternProp{Key: name, Value: &ast.Identifier{Name: name}})
	}
	destructure := &ast.VarDeclarator{
		Name: &ast.ObjectPattern{Props: patProps},
		Init: &ast.CallExpr{Callee: &ast.Identifier{Name: regionVar}},
	}
	return []*ast.VarDeclarator{regionCall, destructure}
}

func primaryName(pat ast.Pattern) string {
	if id, ok := pat.(*ast.Identifier); ok {
		return id.Name
	}
	return ""
}

func idLiteral(id int) ast.Expr {
	return &ast.Literal{Kind: ast.NumberLit, Value: fmt.Sprintf("%d", id)}
}

func asExpr(n ast.Node) ast.Expr {
	if e, ok := n.(ast.Expr); ok {
		return e
	}
	return nil
}
