// Package runtimeabi is the name/arity table of the external runtime
// library's exports. This package never implements them; it only names the
// contract so tests can assert coverage. internal/lower does not import it:
// the runtime names lowering emits are written out directly there.
package runtimeabi

// Arity is the number of fixed parameters a runtime function takes; Variadic
// marks functions accepting a trailing `...` argument.
type Arity struct {
	Fixed    int
	Variadic bool
}

// Names enumerates every required runtime export, by category.
var (
	ContextAndHooks = map[string]Arity{
		"__fictUseContext":   {Fixed: 0},
		"__fictPushContext":  {Fixed: 0},
		"__fictPopContext":   {Fixed: 0},
		"__fictUseSignal":    {Fixed: 3}, // ctx, init, id
		"__fictUseMemo":      {Fixed: 3}, // ctx, fn, id
		"__fictUseEffect":    {Fixed: 3}, // ctx, fn, id
		"__fictRender":       {Fixed: 2}, // ctx, fn
		"__fictResetContext": {Fixed: 0},
	}

	DOMHelpers = map[string]Arity{
		"template":          {Fixed: 1},
		"insert":            {Fixed: 3},
		"bindText":          {Fixed: 2},
		"bindAttribute":     {Fixed: 3},
		"bindProperty":      {Fixed: 3},
		"bindClass":         {Fixed: 2},
		"bindStyle":         {Fixed: 2},
		"bindRef":           {Fixed: 2},
		"bindEvent":         {Fixed: 3},
		"createConditional": {Fixed: 3},
		"createKeyedList":   {Fixed: 2},
		"createSelector":    {Fixed: 1},
		"toNodeArray":       {Fixed: 1},
	}

	PropsHelpers = map[string]Arity{
		"useProp":    {Fixed: 1},
		"prop":       {Fixed: 1},
		"mergeProps": {Fixed: 0, Variadic: true},
		"keyed":      {Fixed: 2},
	}
)

// All returns the full merged ABI table.
func All() map[string]Arity {
	out := make(map[string]Arity, len(ContextAndHooks)+len(DOMHelpers)+len(PropsHelpers))
	for name, a := range ContextAndHooks {
		out[name] = a
	}
	for name, a := range DOMHelpers {
		out[name] = a
	}
	for name, a := range PropsHelpers {
		out[name] = a
	}
	return out
}

// Lookup reports whether name is a recognized runtime export and its arity.
func Lookup(name string) (Arity, bool) {
	a, ok := All()[name]
	return a, ok
}
