package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/depgraph"
	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/lexer"
	"github.com/sunholo/fict/internal/parser"
	"github.com/sunholo/fict/internal/reactscope"
)

func classify(t *testing.T, src string) (map[string]*Info, []error) {
	t.Helper()
	p := parser.New(lexer.New(src, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	prog := hir.Build(file, nil)
	g := depgraph.Build(prog)
	regions := reactscope.Analyze(prog, g)
	return Classify(prog, regions, Options{})
}

func TestSignalClassification(t *testing.T) {
	info, errs := classify(t, `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			return count;
		}
	`)
	require.Empty(t, errs)
	require.Contains(t, info, "count")
	assert.Equal(t, Signal, info["count"].Kind)
}

func TestExportedDerivedIsMemo(t *testing.T) {
	info, errs := classify(t, `
		import { $state } from "fict";
		let count = $state(0);
		export const doubled = count * 2;
	`)
	require.Empty(t, errs)
	assert.Equal(t, Memo, info["doubled"].Kind)
}

func TestCapturedValueAlias(t *testing.T) {
	info, errs := classify(t, `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			const alias = count;
			return alias;
		}
	`)
	require.Empty(t, errs)
	assert.Equal(t, CapturedValue, info["alias"].Kind)
}

func TestPropAccessorClassification(t *testing.T) {
	info, errs := classify(t, `
		function Greeting({ name, greeting = "Hi" }) {
			return name;
		}
	`)
	require.Empty(t, errs)
	assert.Equal(t, PropAccessor, info["name"].Kind)
	assert.Equal(t, PropAccessor, info["greeting"].Kind)
}

func TestDerivedReassignmentRejected(t *testing.T) {
	_, errs := classify(t, `
		import { $state } from "fict";
		let count = $state(0);
		export const doubled = count * 2;
		doubled = 5;
	`)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if ce, ok := e.(*Error); ok && ce.Message == "doubled: cannot reassign a derived binding" {
			found = true
		}
	}
	assert.True(t, found)
}

func classifyWith(t *testing.T, src string, opts Options) (map[string]*Info, []error) {
	t.Helper()
	p := parser.New(lexer.New(src, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	prog := hir.Build(file, nil)
	g := depgraph.Build(prog)
	regions := reactscope.Analyze(prog, g)
	return Classify(prog, regions, opts)
}

// A derived binding read only from a returned closure must stay a Memo even
// when single-use inlining is enabled: the closure outlives the scope, so
// rule 5's use-site check takes priority over the inlining branch.
func TestReturnedClosureReadBlocksInlining(t *testing.T) {
	info, errs := classifyWith(t, `
		import { $state } from "fict";
		function useCounter() {
			let count = $state(0);
			const doubled = count * 2;
			return () => doubled;
		}
	`, Options{InlineDerivedMemos: true})
	require.Empty(t, errs)
	require.Contains(t, info, "doubled")
	assert.Equal(t, Memo, info["doubled"].Kind)
	assert.NotZero(t, info["doubled"].Uses&UseExportedClosure)
}

// The same derived binding with a plain single use does inline under the
// option, confirming the closure check is what blocks it above.
func TestPlainSingleUseStillInlines(t *testing.T) {
	info, errs := classifyWith(t, `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			const doubled = count * 2;
			console.log(doubled);
			return count;
		}
	`, Options{InlineDerivedMemos: true})
	require.Empty(t, errs)
	require.Contains(t, info, "doubled")
	assert.Equal(t, InlinedDerived, info["doubled"].Kind)
}

// A closure initializing an exported binding marks its reads the same way
// (the module-top-level rule already forces Memo here; the bit is what this
// test pins down).
func TestExportedClosureInitReadBlocksInlining(t *testing.T) {
	info, errs := classifyWith(t, `
		import { $state } from "fict";
		let count = $state(0);
		const doubled = count * 2;
		export const read = () => doubled;
	`, Options{InlineDerivedMemos: true})
	require.Empty(t, errs)
	require.Contains(t, info, "doubled")
	assert.Equal(t, Memo, info["doubled"].Kind)
	assert.NotZero(t, info["doubled"].Uses&UseExportedClosure)
}
