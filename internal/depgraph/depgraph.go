// Package depgraph builds an in-memory directed module graph from
// extraction results and answers structural queries over it.
package depgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/shintakezou/xrefgraph/internal/xref"
)

// Graph is the directed module dependency graph. Only calls with a literal
// target module contribute edges; dynamic-module targets have no stable
// label to hang a vertex on.
type Graph struct {
	g     graph.Graph[string, string]
	units map[string]bool
}

// Build constructs the graph from per-unit extraction results, skipping
// ignored modules.
func Build(results []xref.Result, ignore xref.IgnoreSet) (*Graph, error) {
	g := graph.New(graph.StringHash, graph.Directed())
	units := make(map[string]bool, len(results))

	for _, res := range results {
		units[res.Unit] = true
		if err := g.AddVertex(res.Unit); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("adding unit %s: %w", res.Unit, err)
		}
	}
	for _, res := range results {
		for _, call := range res.Calls {
			var target string
			switch c := call.(type) {
			case xref.StaticCall:
				target = c.Module
			case xref.DynFunctionCall:
				target = c.Module
			default:
				continue
			}
			if ignore.Contains(target) {
				continue
			}
			if err := g.AddVertex(target); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("adding module %s: %w", target, err)
			}
			err := g.AddEdge(res.Unit, target)
			if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("adding edge %s -> %s: %w", res.Unit, target, err)
			}
		}
	}
	return &Graph{g: g, units: units}, nil
}

// Cycles returns the dependency cycles among analyzed units: every strongly
// connected component with more than one member, plus self-dependencies.
// Each cycle's members are sorted and the cycles themselves are ordered by
// first member, so output is stable.
func (d *Graph) Cycles() ([][]string, error) {
	sccs, err := graph.StronglyConnectedComponents(d.g)
	if err != nil {
		return nil, fmt.Errorf("computing strongly connected components: %w", err)
	}

	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) > 1 {
			members := append([]string(nil), scc...)
			sort.Strings(members)
			cycles = append(cycles, members)
			continue
		}
		// single-vertex component: a cycle only if it depends on itself
		if _, err := d.g.Edge(scc[0], scc[0]); err == nil {
			cycles = append(cycles, []string{scc[0]})
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles, nil
}

// Order returns vertex and edge counts for reporting.
func (d *Graph) Order() (vertices, edges int, err error) {
	vertices, err = d.g.Order()
	if err != nil {
		return 0, 0, err
	}
	edges, err = d.g.Size()
	if err != nil {
		return 0, 0, err
	}
	return vertices, edges, nil
}
