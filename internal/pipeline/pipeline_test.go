package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/config"
)

func transform(t *testing.T, src string, opts config.Options) (Result, error) {
	t.Helper()
	return Transform(Source{Code: src, Filename: "t.tsx"}, opts)
}

// A signal and a derived const at module scope lower to signal/memo calls.
func TestSignalAndDerived(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		let count = $state(0);
		export const doubled = count * 2;
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "__fictUseSignal(__fictCtx, 0")
	assert.Contains(t, res.Code, "__fictUseMemo(__fictCtx,")
	assert.Contains(t, res.Code, "count() * 2")
}

// Writes to a signal (increment/compound-assign) rewrite to setter calls.
func TestWriteRewrites(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			count++;
			count += 3;
			return count;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "count() + 1")
	assert.Contains(t, res.Code, "count() + 3")
}

// A plain alias of a signal read captures its current value.
func TestAliasCapture(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			const alias = count;
			console.log(alias);
			return count;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "const alias = count()")
}

func TestAliasReassignmentRejected(t *testing.T) {
	_, err := transform(t, `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			const alias = count;
			alias = 5;
			return count;
		}
	`, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Alias reassignment is not supported")
}

// A cyclic derived dependency is rejected with a path in the message.
func TestCyclicDerivedRejected(t *testing.T) {
	_, err := transform(t, `
		import { $state } from "fict";
		function Counter() {
			let s = $state(0);
			const a = b + s;
			const b = a + 1;
			return a;
		}
	`, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic derived dependency")
}

// An $effect whose body reads no signal or memo raises FICT-E001.
func TestDeadEffectWarning(t *testing.T) {
	var warnings []config.Warning
	opts := config.Default()
	opts.OnWarn = func(w config.Warning) { warnings = append(warnings, w) }
	res, err := transform(t, `
		import { $state, $effect } from "fict";
		function Counter() {
			let count = $state(0);
			$effect(() => console.log("hi"));
			return count;
		}
	`, opts)
	require.NoError(t, err)
	found := false
	for _, w := range append(res.Warnings, warnings...) {
		if w.Code == "FICT-E001" {
			found = true
		}
	}
	assert.True(t, found, "expected FICT-E001 among warnings")
}

// Destructuring $state(...) is always a semantic error.
func TestDestructuredStateRejected(t *testing.T) {
	_, err := transform(t, `
		import { $state } from "fict";
		function Counter() {
			const [count, setCount] = $state(0);
			return count;
		}
	`, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Destructuring $state is not supported")
}

// Aliased macro imports are rejected before any other phase runs.
func TestAliasedMacroImportRejected(t *testing.T) {
	_, err := transform(t, `import { $state as s } from "fict";`, config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macro imports cannot be aliased")
}

// optimize=true must not change the presence of the signal/memo
// constructors in the emitted code for a program with no $memo side
// effects — the optimizer only folds/simplifies/inlines, it never removes
// an observable signal or memo declaration that is used.
func TestOptimizeSoundnessSmoke(t *testing.T) {
	src := `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			const doubled = count * 2;
			return doubled;
		}
	`
	unopt := config.Default()
	opt := config.Default()
	opt.Optimize = true

	resUnopt, err := transform(t, src, unopt)
	require.NoError(t, err)
	resOpt, err := transform(t, src, opt)
	require.NoError(t, err)

	assert.Contains(t, resUnopt.Code, "__fictUseSignal")
	assert.Contains(t, resOpt.Code, "__fictUseSignal")
}

// Constant folding: a fully-constant arithmetic expression folds to a
// single literal whether or not derived from a signal.
func TestOptimizeConstantFolding(t *testing.T) {
	opts := config.Default()
	opts.Optimize = true
	res, err := transform(t, `export const total = 2 + 3 * 4;`, opts)
	require.NoError(t, err)
	assert.Contains(t, res.Code, "14")
	assert.NotContains(t, res.Code, "2 + 3")
}

// Compiling the same source twice under the same options must yield
// byte-identical output, since hook-slot IDs are assigned by a fresh
// per-compilation counter in declaration order.
func TestHookSlotDeterminism(t *testing.T) {
	src := `
		import { $state, $effect } from "fict";
		function Counter() {
			let count = $state(0);
			const doubled = count * 2;
			$effect(() => console.log(count()));
			return doubled;
		}
	`
	opts := config.Default()
	first, err := transform(t, src, opts)
	require.NoError(t, err)
	second, err := transform(t, src, opts)
	require.NoError(t, err)
	if diff := cmp.Diff(first.Code, second.Code); diff != "" {
		t.Errorf("compilation is not deterministic (-first +second):\n%s", diff)
	}
}

// warningsAsErrors promotion wraps a warning into a thrown-style error whose
// message carries the "Fict warning treated as error" prefix.
func TestWarningsAsErrorsPromotion(t *testing.T) {
	opts := config.Default()
	opts.WarningsAsErrors = config.WarningsAsErrors{All: true}
	_, err := transform(t, `
		import { $state, $effect } from "fict";
		function Counter() {
			let count = $state(0);
			$effect(() => console.log("hi"));
			return count;
		}
	`, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fict warning treated as error")
}

// A trailing if-return/return pair of JSX becomes a single createConditional.
func TestConditionalRender(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function V() {
			let c = $state(0);
			if (c % 2) {
				return <A/>;
			}
			return <B/>;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "createConditional")
	assert.Contains(t, res.Code, "c() % 2")
}

// A keyed .map() lowers to createKeyedList with a thunked list, and a
// row-key comparison against a signal hoists a createSelector.
func TestKeyedListWithSelector(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function Table() {
			let selected = $state(1);
			const items = [{id: 1}, {id: 2}];
			return <table>{items.map(row => <tr key={row.id} class={row.id === selected ? "danger" : ""}>cell</tr>)}</table>;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "createKeyedList(() => ")
	assert.Contains(t, res.Code, "createSelector(() => selected())")
	assert.Contains(t, res.Code, "__sel_1(__key)")
}

// A .map() without a key still compiles to a keyed container, keyed by
// index, and raises FICT-J002.
func TestUnkeyedListWarns(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function List() {
			let n = $state(0);
			const items = [1, 2, 3];
			return <ul>{items.map(item => <li>{item}</li>)}</ul>;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "createKeyedList")
	found := false
	for _, w := range res.Warnings {
		if w.Code == "FICT-J002" {
			found = true
			assert.Greater(t, w.Line, 0)
			assert.Greater(t, w.Column, 0)
		}
	}
	assert.True(t, found, "expected FICT-J002 among warnings")
}

// Destructured component props compile to useProp accessors with defaults
// preserved through ??.
func TestPropAccessors(t *testing.T) {
	res, err := transform(t, `
		function Card({ title, kind = "plain" }) {
			return <div>{title}</div>;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "function Card(__props)")
	assert.Contains(t, res.Code, "useProp(() => __props.title)")
	assert.Contains(t, res.Code, `__props.kind ?? "plain"`)
}

// $effect lowers to __fictUseEffect with the reads rewritten inside.
func TestEffectLowering(t *testing.T) {
	res, err := transform(t, `
		import { $state, $effect } from "fict";
		function C() {
			let count = $state(0);
			$effect(() => console.log(count));
			return count;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "__fictUseEffect(__fictCtx,")
	assert.Contains(t, res.Code, "console.log(count())")
}

// Fine-grained mode hoists a module-level template for static JSX.
func TestStaticTemplateHoisted(t *testing.T) {
	res, err := transform(t, `
		function App() {
			return <div class="box">hi</div>;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "template(")
	assert.Contains(t, res.Code, "__tmpl1")
}

// VDOM mode replaces templates with jsx() calls.
func TestVDOMMode(t *testing.T) {
	opts := config.Default()
	opts.FineGrainedDom = false
	res, err := transform(t, `
		function App() {
			return <div id="x">hi</div>;
		}
	`, opts)
	require.NoError(t, err)
	assert.Contains(t, res.Code, `jsx("div"`)
	assert.NotContains(t, res.Code, "template(")
}

// The macro import is removed and replaced by the runtime import.
func TestMacroImportRewritten(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		let count = $state(0);
	`, config.Default())
	require.NoError(t, err)
	assert.NotContains(t, res.Code, `from "fict";`)
	assert.Contains(t, res.Code, `"fict/runtime"`)
	assert.NotContains(t, res.Code, "$state")
}

// Co-dependent derived values in one block share a single region memo.
func TestRegionGrouping(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function Stats() {
			let n = $state(0);
			const doubled = n * 2;
			const squared = n * n;
			return <p>{doubled} {squared}</p>;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "__region_0")
	assert.Equal(t, 1, strings.Count(res.Code, "__fictUseMemo(__fictCtx"))
}

// lazyConditional switches regions to getter tuples read through the
// region accessor.
func TestLazyRegion(t *testing.T) {
	opts := config.Default()
	opts.LazyConditional = true
	res, err := transform(t, `
		import { $state } from "fict";
		function Stats() {
			let n = $state(0);
			const doubled = n * 2;
			const squared = n * n;
			return <p>{doubled} {squared}</p>;
		}
	`, opts)
	require.NoError(t, err)
	assert.Contains(t, res.Code, "get doubled()")
	assert.Contains(t, res.Code, "__region_0().doubled")
}

// An update-expression write on a signal becomes a setter call.
func TestUpdateExprWrite(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function C() {
			let count = $state(0);
			const bump = () => { count++; };
			return count;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "count(count() + 1)")
}

// Writing through destructuring assigns each signal via its setter.
func TestDestructuringAssignmentWrite(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function C() {
			let count = $state(0);
			({count} = {count: 5});
			return count;
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Contains(t, res.Code, "count({count: 5}.count)")
}

// Every reactive scope gets exactly one context prologue; plain nested
// helpers get none.
func TestContextBracketing(t *testing.T) {
	res, err := transform(t, `
		import { $state } from "fict";
		function C() {
			let count = $state(0);
			function helper(x) {
				return x + 1;
			}
			return helper(count);
		}
	`, config.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(res.Code, "__fictUseContext()"))
}
