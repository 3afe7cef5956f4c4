package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paveops/pave/pkg/manifest"
)

// EdgeKind distinguishes why an ordering edge exists.
type EdgeKind string

const (
	// EdgeDependency comes from an explicit dependencies entry.
	EdgeDependency EdgeKind = "dependency"

	// EdgeBinding comes from a binding: the consumer must be resolvable
	// only after its capability producer exists.
	EdgeBinding EdgeKind = "binding"
)

// Edge is a "must be resolved before" relation: From must exist before To.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Graph is the component dependency graph derived from explicit
// dependencies and binding targets. Node identity is the component name.
type Graph struct {
	// Nodes are the component names in manifest declaration order.
	Nodes []string `json:"nodes"`

	// Edges lists every ordering edge.
	Edges []Edge `json:"edges"`

	order map[string]int      // declaration index per node
	out   map[string][]string // adjacency: node -> nodes that must come after it
}

// Dependents returns the nodes that must be resolved after the given node.
func (g *Graph) Dependents(name string) []string {
	return append([]string(nil), g.out[name]...)
}

// DOT renders the graph in Graphviz DOT format for plan review. Binding
// edges are dashed.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph components {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n")
	for _, name := range g.Nodes {
		fmt.Fprintf(&sb, "  %q;\n", name)
	}
	for _, e := range g.Edges {
		style := "solid"
		if e.Kind == EdgeBinding {
			style = "dashed"
		}
		fmt.Fprintf(&sb, "  %q -> %q [style=%s];\n", e.From, e.To, style)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// BuildGraph derives the dependency graph for a manifest's components: an
// edge from every explicit dependency to its declaring component, and an
// edge from every binding target to the binding's consumer. Every edge
// endpoint must reference a declared component; violations are collected so
// one bad reference does not hide its siblings.
func BuildGraph(specs []manifest.ComponentSpec, bindings []manifest.Binding) (*Graph, error) {
	g := &Graph{
		order: make(map[string]int, len(specs)),
		out:   make(map[string][]string, len(specs)),
	}
	for i, spec := range specs {
		g.Nodes = append(g.Nodes, spec.Name)
		g.order[spec.Name] = i
	}

	var errs ErrorList

	addEdge := func(from, to string, kind EdgeKind) {
		g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: kind})
		g.out[from] = append(g.out[from], to)
	}

	for _, spec := range specs {
		for _, dep := range spec.Dependencies {
			if _, ok := g.order[dep]; !ok {
				errs.Append(Errorf(KindMissingDependency,
					"component %s depends on undeclared component %q", spec.Name, dep).
					WithComponent(spec.Name).
					WithDetail("missing", dep))
				continue
			}
			addEdge(dep, spec.Name, EdgeDependency)
		}
	}

	for _, b := range bindings {
		if _, ok := g.order[b.From]; !ok {
			errs.Append(Errorf(KindMissingBindingTarget,
				"binding consumer %q is not a declared component", b.From).
				WithComponent(b.From).
				WithDetail("capability", b.Capability))
			continue
		}
		if _, ok := g.order[b.To]; !ok {
			errs.Append(Errorf(KindMissingBindingTarget,
				"component %s binds to undeclared component %q", b.From, b.To).
				WithComponent(b.From).
				WithDetail("missing", b.To).
				WithDetail("capability", b.Capability))
			continue
		}
		addEdge(b.To, b.From, EdgeBinding)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// TopologicalOrder returns the component names in resolution order. Cycle
// detection runs first with a three-color depth-first search so a cycle is
// reported with concrete members; ordering itself uses Kahn's algorithm,
// always taking the ready node with the lowest manifest declaration index so
// components with no ordering constraint between them keep declaration order
// and output stays deterministic across runs.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if cycle := g.findCycle(); len(cycle) > 0 {
		return nil, Errorf(KindCircularDependency,
			"circular dependency detected: %s", strings.Join(cycle, " -> ")).
			WithComponent(cycle[0]).
			WithDetail("cycle", cycle)
	}

	inDegree := make(map[string]int, len(g.Nodes))
	for _, name := range g.Nodes {
		inDegree[name] = 0
	}
	for _, e := range g.Edges {
		inDegree[e.To]++
	}

	ready := make([]string, 0, len(g.Nodes))
	for _, name := range g.Nodes {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return g.order[ready[i]] < g.order[ready[j]]
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range g.out[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		// Unreachable when findCycle is correct.
		return nil, NewError(KindInternal, "topological sort did not visit every component")
	}
	return order, nil
}

const (
	colorWhite = 0 // unvisited
	colorGray  = 1 // in progress
	colorBlack = 2 // done
)

// findCycle runs a three-color DFS and returns one concrete cycle, or nil.
// Nodes are visited in declaration order so the reported cycle is stable.
func (g *Graph) findCycle() []string {
	colors := make(map[string]int, len(g.Nodes))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		colors[name] = colorGray
		path = append(path, name)

		for _, next := range g.out[name] {
			switch colors[next] {
			case colorWhite:
				if visit(next) {
					return true
				}
			case colorGray:
				// Back-edge: slice the current path from the repeated node.
				for i, member := range path {
					if member == next {
						cycle = append(append([]string(nil), path[i:]...), next)
						return true
					}
				}
			}
		}

		colors[name] = colorBlack
		path = path[:len(path)-1]
		return false
	}

	for _, name := range g.Nodes {
		if colors[name] == colorWhite && visit(name) {
			return cycle
		}
	}
	return nil
}
