package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/lexer"
	"github.com/sunholo/fict/internal/parser"
)

func build(t *testing.T, src string) (*ast.File, *hir.Program) {
	t.Helper()
	p := parser.New(lexer.New(src, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return file, hir.Build(file, nil)
}

func messages(t *testing.T, errs []error) []string {
	t.Helper()
	out := make([]string, len(errs))
	for i, e := range errs {
		ve, ok := e.(*Error)
		require.True(t, ok, "expected *validate.Error, got %T", e)
		out[i] = ve.Message
	}
	return out
}

func TestStateInsideLoopRejected(t *testing.T) {
	file, prog := build(t, `
		import { $state } from "fict";
		function Counter() {
			for (let i = 0; i < 3; i++) {
				let count = $state(0);
			}
			return count;
		}
	`)
	errs := Check(file, prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, messages(t, errs)[0], "cannot be declared inside loops")
}

func TestStateInsideConditionalRejected(t *testing.T) {
	file, prog := build(t, `
		import { $state } from "fict";
		function Counter() {
			if (true) {
				let count = $state(0);
			}
			return count;
		}
	`)
	errs := Check(file, prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, messages(t, errs)[0], "cannot be declared inside loops or conditionals")
}

func TestEffectInsideConditionalRejected(t *testing.T) {
	file, prog := build(t, `
		import { $state, $effect } from "fict";
		function Counter() {
			let count = $state(0);
			if (count) {
				$effect(() => console.log(count()));
			}
			return count;
		}
	`)
	errs := Check(file, prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, messages(t, errs)[0], "$effect cannot be called inside loops or conditionals")
}

func TestStateInsideNestedFunctionRejected(t *testing.T) {
	file, prog := build(t, `
		import { $state } from "fict";
		function Counter() {
			function helper() {
				let count = $state(0);
				return count;
			}
			return helper();
		}
	`)
	errs := Check(file, prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, messages(t, errs)[0], "cannot be declared inside nested functions")
}

func TestAliasedMacroImportRejected(t *testing.T) {
	file, prog := build(t, `import { $state as s } from "fict";`)
	errs := Check(file, prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, messages(t, errs)[0], "macro imports cannot be aliased")
}

func TestNonImportedMacroRejected(t *testing.T) {
	file, prog := build(t, `
		function Counter() {
			let count = $state(0);
			return count;
		}
	`)
	errs := Check(file, prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, messages(t, errs)[0], `must be imported from "fict"`)
}

func TestStateAsCallArgumentRejected(t *testing.T) {
	file, prog := build(t, `
		import { $state } from "fict";
		function Counter() {
			consume($state(0));
			return null;
		}
	`)
	errs := Check(file, prog)
	require.NotEmpty(t, errs)
	assert.Contains(t, messages(t, errs)[0], "must be assigned directly to a variable")
}

func TestValidStateDeclarationAccepted(t *testing.T) {
	file, prog := build(t, `
		import { $state } from "fict";
		function Counter() {
			let count = $state(0);
			return count;
		}
	`)
	errs := Check(file, prog)
	assert.Empty(t, errs)
}
