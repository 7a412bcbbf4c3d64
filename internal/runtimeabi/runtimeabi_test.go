package runtimeabi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// required enumerates every name the runtime must export exactly, independent
// of this package's own grouping, so a future refactor of the three maps
// above can't silently drop one.
var required = []string{
	"__fictUseContext", "__fictPushContext", "__fictPopContext",
	"__fictUseSignal", "__fictUseMemo", "__fictUseEffect",
	"__fictRender", "__fictResetContext",
	"template", "insert", "bindText", "bindAttribute", "bindProperty",
	"bindClass", "bindStyle", "bindRef", "bindEvent",
	"createConditional", "createKeyedList", "createSelector", "toNodeArray",
	"useProp", "prop", "mergeProps", "keyed",
}

func TestABICoversEveryRequiredName(t *testing.T) {
	table := All()
	for _, name := range required {
		_, ok := table[name]
		assert.Truef(t, ok, "runtime ABI missing required export %q", name)
	}
	assert.Len(t, table, len(required), "ABI table and required list have drifted apart")
}

func TestUseSignalArity(t *testing.T) {
	a, ok := Lookup("__fictUseSignal")
	assert.True(t, ok)
	assert.Equal(t, 3, a.Fixed)
	assert.False(t, a.Variadic)
}

func TestMergePropsIsVariadic(t *testing.T) {
	a, ok := Lookup("mergeProps")
	assert.True(t, ok)
	assert.True(t, a.Variadic)
}
