package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/config"
	"github.com/sunholo/fict/internal/lexer"
	"github.com/sunholo/fict/internal/parser"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	p := parser.New(lexer.New(src, "t.js"), "t.js")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return file
}

func optimizeSrc(t *testing.T, src string, opts config.Options, accessors, pinned map[string]bool) string {
	t.Helper()
	opts.Optimize = true
	return Optimize(parse(t, src), opts, accessors, pinned).String()
}

func TestConstantFolding(t *testing.T) {
	out := optimizeSrc(t, `const x = 2 + 3 * 4;`, config.Default(), nil, nil)
	assert.Contains(t, out, "14")
	assert.NotContains(t, out, "3 * 4")
}

func TestStringConcatFolding(t *testing.T) {
	out := optimizeSrc(t, `const s = "a" + "b";`, config.Default(), nil, nil)
	assert.Contains(t, out, `"ab"`)
}

func TestComparisonFolding(t *testing.T) {
	out := optimizeSrc(t, `const b = 2 < 3;`, config.Default(), nil, nil)
	assert.Contains(t, out, "true")
}

func TestConditionalFolding(t *testing.T) {
	out := optimizeSrc(t, `const x = true ? a : b;`, config.Default(), nil, nil)
	assert.Contains(t, out, "const x = a;")
	assert.NotContains(t, out, "?")
}

func TestNullishFolding(t *testing.T) {
	out := optimizeSrc(t, `const x = null ?? y;`, config.Default(), nil, nil)
	assert.Contains(t, out, "const x = y;")
}

// safe level must not touch boolean identities; full may.
func TestBooleanIdentityGatedByLevel(t *testing.T) {
	src := `const x = true && f();`

	safe := optimizeSrc(t, src, config.Default(), nil, nil)
	assert.Contains(t, safe, "true && f()")

	full := config.Default()
	full.OptimizeLevel = "full"
	out := optimizeSrc(t, src, full, nil, nil)
	assert.Contains(t, out, "const x = f();")
}

// x + 0 only simplifies under full, and only when x is proven numeric.
func TestNumericIdentityNeedsProof(t *testing.T) {
	full := config.Default()
	full.OptimizeLevel = "full"

	// a bare identifier could be a string; + 0 must survive
	out := optimizeSrc(t, `const x = a + 0;`, full, nil, nil)
	assert.Contains(t, out, "a + 0")

	// a literal-only subtree (1 ** 1) folds to a constant; the remaining
	// `a * 1` stays, since a bare identifier is never proven numeric
	out = optimizeSrc(t, `const y = a * 1 ** 1;`, full, nil, nil)
	assert.NotContains(t, out, "** 1")
}

func TestGetterCacheRequiresOption(t *testing.T) {
	src := `
		function f() {
			return d() + d();
		}
	`
	accessors := map[string]bool{"d": true}

	without := optimizeSrc(t, src, config.Default(), accessors, nil)
	assert.NotContains(t, without, "__c1")

	opts := config.Default()
	opts.GetterCache = true
	with := optimizeSrc(t, src, opts, accessors, nil)
	assert.Contains(t, with, "const __c1 = d()")
	assert.Contains(t, with, "__c1 + __c1")
}

// Only known memo accessors are cached; arbitrary zero-arg calls may have
// side effects and must run every time.
func TestGetterCacheSkipsUnknownCallees(t *testing.T) {
	opts := config.Default()
	opts.GetterCache = true
	out := optimizeSrc(t, `
		function f() {
			return roll() + roll();
		}
	`, opts, map[string]bool{"d": true}, nil)
	assert.NotContains(t, out, "__c1")
	assert.Contains(t, out, "roll() + roll()")
}

func TestCommonSubexprHoisting(t *testing.T) {
	out := optimizeSrc(t, `
		function f(a, b) {
			const x = a + b;
			const y = a + b;
			return x + y;
		}
	`, config.Default(), nil, nil)
	assert.Contains(t, out, "const __cse1 = ")
	assert.Equal(t, 1, countOccurrences(out, "a + b"))
}

// An input mutated anywhere in the body disqualifies its expressions.
func TestCSESkipsMutatedInputs(t *testing.T) {
	out := optimizeSrc(t, `
		function f(a, b) {
			const x = a + b;
			a = 5;
			const y = a + b;
			return x + y;
		}
	`, config.Default(), nil, nil)
	assert.NotContains(t, out, "__cse1")
}

func TestDeadMemoElimination(t *testing.T) {
	out := optimizeSrc(t, `
		function f() {
			const unused = __fictUseMemo(__fictCtx, () => 1, 0);
			return 2;
		}
	`, config.Default(), nil, nil)
	assert.NotContains(t, out, "__fictUseMemo")
}

func TestPinnedMemoSurvivesDCE(t *testing.T) {
	out := optimizeSrc(t, `
		function f() {
			const tracked = __fictUseMemo(__fictCtx, () => 1, 0);
			return 2;
		}
	`, config.Default(), nil, map[string]bool{"tracked": true})
	assert.Contains(t, out, "__fictUseMemo")
}

func TestUsedMemoSurvivesDCE(t *testing.T) {
	out := optimizeSrc(t, `
		function f() {
			const d = __fictUseMemo(__fictCtx, () => 1, 0);
			return d();
		}
	`, config.Default(), nil, nil)
	assert.Contains(t, out, "__fictUseMemo")
}

func TestOptimizeDisabledIsIdentity(t *testing.T) {
	src := `const x = 2 + 3;`
	file := parse(t, src)
	before := file.String()
	after := Optimize(file, config.Default(), nil, nil).String()
	assert.Equal(t, before, after)
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
