// Package depgraph builds the reactive dependency graph over a module's
// bindings and detects cycles with Tarjan's strongly-connected-components
// algorithm.
package depgraph

import (
	"fmt"
	"strings"

	"github.com/sunholo/fict/internal/ast"
	"github.com/sunholo/fict/internal/hir"
)

// Graph is a directed graph from a dependent binding to the bindings its
// initializer reads. Edges run reader -> source: dependent to dependency.
type Graph struct {
	nodes   []string
	edges   map[string][]string
	nodeSet map[string]bool
}

func NewGraph() *Graph {
	return &Graph{edges: make(map[string][]string), nodeSet: make(map[string]bool)}
}

func (g *Graph) AddNode(name string) {
	if !g.nodeSet[name] {
		g.nodes = append(g.nodes, name)
		g.nodeSet[name] = true
		g.edges[name] = nil
	}
}

func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.edges[from] = append(g.edges[from], to)
}

func (g *Graph) Dependencies(name string) []string { return g.edges[name] }

// SCCs computes strongly connected components via Tarjan's algorithm.
func (g *Graph) SCCs() [][]string {
	index := 0
	var stack []string
	indices := make(map[string]int)
	lowlinks := make(map[string]int)
	onStack := make(map[string]bool)
	var sccs [][]string

	var strongconnect func(string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, ok := indices[w]; !ok {
				strongconnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlinks[v] {
					lowlinks[v] = indices[w]
				}
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.nodes {
		if _, ok := indices[n]; !ok {
			strongconnect(n)
		}
	}
	return sccs
}

// CyclePaths returns one offending cycle path per non-trivial SCC (size > 1,
// or a single node with a self-edge), formatted "a -> b -> a".
func (g *Graph) CyclePaths() []string {
	var out []string
	for _, scc := range g.SCCs() {
		isCycle := len(scc) > 1
		if len(scc) == 1 {
			for _, d := range g.edges[scc[0]] {
				if d == scc[0] {
					isCycle = true
				}
			}
		}
		if !isCycle {
			continue
		}
		// scc is collected in reverse pop order; reverse it back to declaration order
		path := make([]string, len(scc))
		for i, n := range scc {
			path[len(scc)-1-i] = n
		}
		path = append(path, path[0])
		out = append(out, strings.Join(path, " -> "))
	}
	return out
}

// Build walks every binding with a non-nil initializer and records an edge
// to each other binding it references by name. Classification has not run
// yet at this point, so the graph is built over every candidate binding
// rather than only ones already known to be Signal/Memo; bindings that
// classification later marks Plain simply end up as isolated or dead nodes,
// which does not affect cycle detection among the bindings that matter.
func Build(prog *hir.Program) *Graph {
	g := NewGraph()
	byName := make(map[string]*hir.Binding)
	for _, b := range prog.Bindings {
		if b.Init != nil {
			byName[b.Name] = b
		}
	}
	for _, b := range prog.Bindings {
		if b.Init == nil {
			continue
		}
		g.AddNode(b.Name)
		for _, ref := range identifierRefs(b.Init) {
			if _, ok := byName[ref]; ok && ref != b.Name {
				g.AddEdge(b.Name, ref)
			}
		}
	}
	return g
}

// identifierRefs collects every bare identifier name read within e.
func identifierRefs(e ast.Expr) []string {
	var out []string
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		switch v := e.(type) {
		case *ast.Identifier:
			out = append(out, v.Name)
		case *ast.BinaryExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.LogicalExpr:
			walk(v.Left)
			walk(v.Right)
		case *ast.UnaryExpr:
			walk(v.Arg)
		case *ast.UpdateExpr:
			walk(v.Arg)
		case *ast.AssignmentExpr:
			walk(v.Value)
		case *ast.ConditionalExpr:
			walk(v.Test)
			walk(v.Consequent)
			walk(v.Alternate)
		case *ast.MemberExpr:
			walk(v.Object)
			if v.Computed {
				walk(v.Property)
			}
		case *ast.CallExpr:
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.NewExpr:
			walk(v.Callee)
			for _, a := range v.Args {
				walk(a)
			}
		case *ast.SequenceExpr:
			for _, x := range v.Exprs {
				walk(x)
			}
		case *ast.ArrayLiteral:
			for _, x := range v.Elements {
				walk(x)
			}
		case *ast.SpreadElement:
			walk(v.Argument)
		case *ast.ObjectLiteral:
			for _, p := range v.Properties {
				walk(p.Value)
			}
		case *ast.TemplateLiteral:
			for _, x := range v.Exprs {
				walk(x)
			}
		case *ast.TSNonNull:
			walk(v.Expr)
		case *ast.TSAs:
			walk(v.Expr)
		case *ast.TSSatisfies:
			walk(v.Expr)
		case *ast.AwaitExpr:
			walk(v.Arg)
		case *ast.ArrowFunction:
			if expr, ok := v.Body.(ast.Expr); ok {
				walk(expr)
			}
		}
	}
	walk(e)
	return out
}

// ErrCycle is returned by Check when the graph contains a reactive
// dependency cycle.
type ErrCycle struct {
	Paths []string
}

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("cyclic derived dependency: %s", strings.Join(e.Paths, "; "))
}

// Check returns an *ErrCycle if g contains any cycle.
func Check(g *Graph) error {
	if paths := g.CyclePaths(); len(paths) > 0 {
		return &ErrCycle{Paths: paths}
	}
	return nil
}
