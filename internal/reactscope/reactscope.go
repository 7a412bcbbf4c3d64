// Package reactscope groups derived bindings declared within one lexical
// block into regions: maximal sets of same-block derived values whose
// dependency sets overlap. Each region ultimately lowers to a single memo
// returning a tuple (internal/lower), rather than one memo per binding.
package reactscope

import (
	"fmt"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/depgraph"
	"github.com/sunholo/fict/internal/hir"
)

// Region is a maximal group of derived bindings, declared in the same block
// of the same function, whose dependency sets transitively overlap.
type Region struct {
	ID       int
	Func     *hir.Function
	Bindings []string
}

// Analysis is the result of region inference over a whole program.
type Analysis struct {
	Regions  []*Region
	RegionOf map[string]*Region // binding name -> its region, for bindings grouped with >=1 other binding
}

// Analyze groups derived bindings (non-$state initializers that read at
// least one other binding) by dependency-set overlap, scoped to the block
// they're declared in so that a region never spans two branches of control
// flow: a binding only reachable on one control-flow path can never be
// grouped with one reachable on another, since lowering a region hoists
// every member's computation to a single call site. Regions with a single
// member are not materialized: a lone derived binding lowers to a plain
// Memo (internal/classify), not a region.
func Analyze(prog *hir.Program, g *depgraph.Graph) *Analysis {
	byName := make(map[string]*hir.Binding)
	for _, b := range prog.Bindings {
		byName[b.Name] = b
	}

	uf := newUnionFind()
	for _, b := range prog.Bindings {
		if !isCandidate(b) {
			continue
		}
		uf.find(key(b))
	}

	// Bucket candidates by (shared dependency, enclosing block): two
	// candidates land in the same bucket only if they depend on the same
	// name AND are declared in the same block, so a shared dependency never
	// merges bindings across a branch boundary.
	buckets := make(map[string][]string)
	for _, b := range prog.Bindings {
		if !isCandidate(b) {
			continue
		}
		for _, dep := range g.Dependencies(b.Name) {
			if _, ok := byName[dep]; !ok {
				continue
			}
			bucketKey := dep + "@" + blockKey(b)
			buckets[bucketKey] = append(buckets[bucketKey], key(b))
		}
	}
	for _, members := range buckets {
		for i := 1; i < len(members); i++ {
			uf.union(members[0], members[i])
		}
	}

	// Group membership and region IDs must be deterministic across
	// compilations (hook-slot IDs are derived from them), so roots are
	// enumerated in binding-declaration order, never map order.
	groups := make(map[string][]string)
	groupFunc := make(map[string]*hir.Function)
	var rootOrder []string
	for _, b := range prog.Bindings {
		if !isCandidate(b) {
			continue
		}
		root := uf.find(key(b))
		if _, seen := groups[root]; !seen {
			rootOrder = append(rootOrder, root)
		}
		groups[root] = append(groups[root], b.Name)
		groupFunc[root] = b.Func
	}

	a := &Analysis{RegionOf: make(map[string]*Region)}
	id := 0
	for _, root := range rootOrder {
		members := groups[root]
		if len(members) < 2 {
			continue
		}
		r := &Region{ID: id, Func: groupFunc[root], Bindings: members}
		id++
		a.Regions = append(a.Regions, r)
		for _, m := range members {
			a.RegionOf[m] = r
		}
	}
	return a
}

// isCandidate reports whether b is eligible for region membership: it has
// an initializer, isn't a $state(...) call (signals are never region
// fields — they're classified and lowered on their own), and isn't an
// explicit $memo(...) wrapper (the author asked for a dedicated memo).
func isCandidate(b *hir.Binding) bool {
	if b.Init == nil {
		return false
	}
	if _, isSignal := ast.IsMacroCall(b.Init, "$state"); isSignal {
		return false
	}
	if _, isMemo := ast.IsMacroCall(b.Init, "$memo"); isMemo {
		return false
	}
	if _, isAlias := b.Init.(*ast.Identifier); isAlias {
		// a bare reference is an alias capture or a plain copy, not a
		// derived computation
		return false
	}
	return true
}

func key(b *hir.Binding) string {
	return blockKey(b) + "#" + b.Name
}

// blockKey identifies the lexical block a binding is declared in: its
// enclosing function plus the straight-line block within that function, so
// two bindings reachable only via different control-flow branches never
// resolve to the same key even when their owning function is the same.
func blockKey(b *hir.Binding) string {
	fn := 0
	if b.Func != nil {
		fn = int(b.Func.ID)
	}
	blk := -1
	if b.Block != nil {
		blk = int(b.Block.ID)
	}
	return fmt.Sprintf("%d:%d", fn, blk)
}

type unionFind struct{ parent map[string]string }

func newUnionFind() *unionFind { return &unionFind{parent: make(map[string]string)} }

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		return x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// IsReactiveScope reports whether fn may call $state/$effect at its top level.
func IsReactiveScope(fn *hir.Function) bool { return fn.IsReactiveScope() }
