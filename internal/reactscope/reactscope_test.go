package reactscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/depgraph"
	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/lexer"
	"github.com/sunholo/fict/internal/parser"
)

func analyze(t *testing.T, src string) *Analysis {
	t.Helper()
	p := parser.New(lexer.New(src, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	prog := hir.Build(file, nil)
	return Analyze(prog, depgraph.Build(prog))
}

// Two derived values in the same block reading the same signal share a region.
func TestOverlappingDerivedShareRegion(t *testing.T) {
	a := analyze(t, `
		import { $state } from "fict";
		function C() {
			let count = $state(0);
			const doubled = count * 2;
			const squared = count * count;
			return doubled;
		}
	`)
	require.Contains(t, a.RegionOf, "doubled")
	require.Contains(t, a.RegionOf, "squared")
	assert.Same(t, a.RegionOf["doubled"], a.RegionOf["squared"])
	assert.NotContains(t, a.RegionOf, "count", "a signal is never a region field")
}

// Derived values with disjoint dependency sets stay apart.
func TestDisjointDerivedStayApart(t *testing.T) {
	a := analyze(t, `
		import { $state } from "fict";
		function C() {
			let x = $state(0);
			let y = $state(0);
			const dx = x * 2;
			const dy = y * 2;
			return dx;
		}
	`)
	assert.NotContains(t, a.RegionOf, "dx")
	assert.NotContains(t, a.RegionOf, "dy")
}

// A shared dependency does not merge bindings across control-flow branches.
func TestBranchBoundaryBlocksGrouping(t *testing.T) {
	a := analyze(t, `
		import { $state } from "fict";
		function C(flag) {
			let count = $state(0);
			if (flag) {
				const inner = count * 2;
				console.log(inner);
			}
			const outer = count * 3;
			return outer;
		}
	`)
	assert.NotContains(t, a.RegionOf, "inner")
	assert.NotContains(t, a.RegionOf, "outer")
}

// A lone derived binding never materializes a single-member region.
func TestSingleDerivedHasNoRegion(t *testing.T) {
	a := analyze(t, `
		import { $state } from "fict";
		function C() {
			let count = $state(0);
			const doubled = count * 2;
			return doubled;
		}
	`)
	assert.Empty(t, a.Regions)
	assert.NotContains(t, a.RegionOf, "doubled")
}

// Region IDs and membership must not depend on map iteration order.
func TestRegionIDsAreDeterministic(t *testing.T) {
	src := `
		import { $state } from "fict";
		function C() {
			let a = $state(0);
			let b = $state(0);
			const a1 = a + 1;
			const a2 = a + 2;
			const b1 = b + 1;
			const b2 = b + 2;
			return a1;
		}
	`
	first := analyze(t, src)
	require.Len(t, first.Regions, 2)
	for i := 0; i < 20; i++ {
		again := analyze(t, src)
		require.Len(t, again.Regions, 2)
		for j := range first.Regions {
			assert.Equal(t, first.Regions[j].ID, again.Regions[j].ID)
			assert.Equal(t, first.Regions[j].Bindings, again.Regions[j].Bindings)
		}
	}
}

func TestIsReactiveScope(t *testing.T) {
	p := parser.New(lexer.New(`function C() { return 1; }`, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors())
	prog := hir.Build(file, nil)
	fns := prog.Functions()
	require.Len(t, fns, 2) // module + C
	assert.True(t, IsReactiveScope(fns[1]))
}
