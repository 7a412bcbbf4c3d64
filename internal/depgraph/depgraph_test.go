package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/lexer"
	"github.com/sunholo/fict/internal/parser"
)

func build(t *testing.T, src string) *hir.Program {
	t.Helper()
	p := parser.New(lexer.New(src, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return hir.Build(file, nil)
}

func TestNoCycleAccepted(t *testing.T) {
	prog := build(t, `
		import { $state } from "fict";
		function Counter() {
			let s = $state(0);
			const a = s + 1;
			const b = a + 1;
			return b;
		}
	`)
	g := Build(prog)
	assert.NoError(t, Check(g))
}

func TestTwoNodeCycleRejected(t *testing.T) {
	prog := build(t, `
		import { $state } from "fict";
		function Counter() {
			let s = $state(0);
			const a = b + s;
			const b = a + 1;
			return a;
		}
	`)
	g := Build(prog)
	err := Check(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a -> b -> a")
}
