package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/fict/internal/hir"
	"github.com/sunholo/fict/internal/lexer"
	"github.com/sunholo/fict/internal/parser"
)

func analyze(t *testing.T, src string) *Lattice {
	t.Helper()
	p := parser.New(lexer.New(src, "t.tsx"), "t.tsx")
	file := p.ParseFile()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return Analyze(hir.Build(file, nil))
}

func TestKnownKeysFromStaticAccess(t *testing.T) {
	l := analyze(t, `
		function f(obj) {
			console.log(obj.a);
			console.log(obj.b);
			return obj.a;
		}
	`)
	r := l.Records["obj"]
	require.NotNil(t, r)
	assert.True(t, r.KnownKeys["a"])
	assert.True(t, r.KnownKeys["b"])
	assert.False(t, r.DynamicAccess)
}

func TestDynamicAccessForcesWholeObject(t *testing.T) {
	l := analyze(t, `
		function f(obj, k) {
			return obj[k];
		}
	`)
	assert.True(t, l.NeedsWholeObjectSubscription("obj"))
}

func TestStrictEqualityNarrows(t *testing.T) {
	l := analyze(t, `
		function f(obj, k) {
			if (k === "a") {
				return obj[k];
			}
			return null;
		}
	`)
	assert.True(t, l.Records["k"].NarrowedKeys["a"])
	assert.False(t, l.NeedsWholeObjectSubscription("obj"))
}

func TestLogicalOrUnionsNarrowing(t *testing.T) {
	l := analyze(t, `
		function f(obj, k) {
			if (k === "a" || k === "b") {
				return obj[k];
			}
			return null;
		}
	`)
	keys := l.Records["k"].NarrowedKeys
	assert.True(t, keys["a"])
	assert.True(t, keys["b"])
}

func TestSwitchNarrows(t *testing.T) {
	l := analyze(t, `
		function f(obj, k) {
			switch (k) {
			case "x":
				return obj[k];
			case "y":
				return obj[k];
			}
			return null;
		}
	`)
	keys := l.Records["k"].NarrowedKeys
	assert.True(t, keys["x"])
	assert.True(t, keys["y"])
}

func TestForOfArrayLiteralNarrows(t *testing.T) {
	l := analyze(t, `
		function f(obj) {
			for (const k of ["a", "b"]) {
				console.log(obj[k]);
			}
		}
	`)
	keys := l.Records["k"].NarrowedKeys
	assert.True(t, keys["a"])
	assert.True(t, keys["b"])
}

func TestForInObjectLiteralNarrows(t *testing.T) {
	l := analyze(t, `
		function f(obj) {
			for (const k in {a: 1, b: 2}) {
				console.log(obj[k]);
			}
		}
	`)
	keys := l.Records["k"].NarrowedKeys
	assert.True(t, keys["a"])
	assert.True(t, keys["b"])
}

func TestConstCandidateSetNarrows(t *testing.T) {
	l := analyze(t, `
		function f(obj, flag) {
			const k = flag ? "a" : "b";
			return obj[k];
		}
	`)
	keys := l.Records["k"].NarrowedKeys
	assert.True(t, keys["a"])
	assert.True(t, keys["b"])
	assert.False(t, l.NeedsWholeObjectSubscription("obj"))
}

func TestUpdateInvalidatesNarrowing(t *testing.T) {
	l := analyze(t, `
		function f(obj) {
			let k = "a";
			k++;
			return obj[k];
		}
	`)
	assert.Empty(t, l.Records["k"].NarrowedKeys)
}

func TestMutableKeysRecorded(t *testing.T) {
	l := analyze(t, `
		function f(obj) {
			obj.a = 1;
			obj.b++;
		}
	`)
	r := l.Records["obj"]
	assert.True(t, r.MutableKeys["a"])
	assert.True(t, r.MutableKeys["b"])
}

func TestSpreadAndEscape(t *testing.T) {
	l := analyze(t, `
		function f(obj) {
			opaque(obj);
			const copy = [...obj];
			return obj;
		}
	`)
	r := l.Records["obj"]
	assert.True(t, r.IsSpread)
	assert.True(t, r.Escapes)
	assert.True(t, l.NeedsSpreadWrapping("obj"))
}

func TestConsoleLogDoesNotEscape(t *testing.T) {
	l := analyze(t, `
		function f(obj) {
			console.log(obj);
		}
	`)
	assert.False(t, l.Records["obj"].Escapes)
}

func TestStoreNeverForcesWholeObject(t *testing.T) {
	l := analyze(t, `
		function f(k) {
			const s = $store({a: 1});
			return s[k];
		}
	`)
	require.NotNil(t, l.Records["s"])
	assert.Equal(t, SourceStore, l.Records["s"].Source)
	assert.False(t, l.NeedsWholeObjectSubscription("s"))
}

func TestPropertySubscriptionMergesKnownAndNarrowed(t *testing.T) {
	l := analyze(t, `
		function f(obj, k) {
			console.log(obj.a);
			if (k === "b") {
				console.log(obj[k]);
			}
		}
	`)
	keys := l.PropertySubscription("obj")
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}
