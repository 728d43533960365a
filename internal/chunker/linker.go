package chunker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/dshills/sqlchunker/pkg/types"
)

// linkContinuations connects consecutive sub-chunks cut from the same block.
// Chunks must already carry their final ids.
func linkContinuations(chunks []*types.Chunk) {
	for k := 1; k < len(chunks); k++ {
		prev, cur := chunks[k-1], chunks[k]
		if prev.Subdivision.SameParent(cur.Subdivision) && cur.Subdivision.Ordinal == prev.Subdivision.Ordinal+1 {
			prev.ContinuationTo = cur.ID
			cur.ContinuationFrom = prev.ID
		}
	}
}

// linkDependencies records, for each chunk, every earlier chunk that declared
// a variable it uses plus the chunk it continues. Variable names compare
// case-insensitively. Edges only point backward.
func linkDependencies(chunks []*types.Chunk) {
	declaredBy := make(map[string][]int)
	for _, c := range chunks {
		deps := make(map[int]bool)
		for _, v := range c.UsedVariables {
			for _, id := range declaredBy[strings.ToUpper(v)] {
				deps[id] = true
			}
		}
		if c.ContinuationFrom > 0 && c.ContinuationFrom < c.ID {
			deps[c.ContinuationFrom] = true
		}

		c.Dependencies = make([]int, 0, len(deps))
		for id := range deps {
			c.Dependencies = append(c.Dependencies, id)
		}
		sort.Ints(c.Dependencies)

		for _, v := range c.DeclaredVariables {
			key := strings.ToUpper(v)
			declaredBy[key] = append(declaredBy[key], c.ID)
		}
	}
}

// DependencyGraph is the directed acyclic graph of chunk dependencies. An
// edge runs from a dependency to the chunk that needs it.
type DependencyGraph struct {
	g graph.Graph[int, int]
}

// BuildGraph builds the dependency graph of a chunk sequence. It fails when
// a dependency refers to an unknown chunk or would introduce a cycle.
func BuildGraph(chunks []*types.Chunk) (*DependencyGraph, error) {
	g := graph.New(graph.IntHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())

	for _, c := range chunks {
		if err := g.AddVertex(c.ID); err != nil {
			return nil, fmt.Errorf("add chunk %d: %w", c.ID, err)
		}
	}
	for _, c := range chunks {
		for _, dep := range c.Dependencies {
			if err := g.AddEdge(dep, c.ID); err != nil {
				return nil, fmt.Errorf("link chunk %d to %d: %w", c.ID, dep, err)
			}
		}
	}

	return &DependencyGraph{g: g}, nil
}

// Order returns chunk ids in a presentation order where every chunk follows
// its dependencies. Ties are broken by id.
func (d *DependencyGraph) Order() ([]int, error) {
	order, err := graph.StableTopologicalSort(d.g, func(a, b int) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("order chunks: %w", err)
	}
	return order, nil
}

// Dependencies returns the ids the chunk directly depends on
func (d *DependencyGraph) Dependencies(id int) ([]int, error) {
	preds, err := d.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	edges, ok := preds[id]
	if !ok {
		return nil, fmt.Errorf("chunk %d: %w", id, graph.ErrVertexNotFound)
	}
	return sortedKeys(edges), nil
}

// Dependents returns the ids that directly depend on the chunk
func (d *DependencyGraph) Dependents(id int) ([]int, error) {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	edges, ok := adj[id]
	if !ok {
		return nil, fmt.Errorf("chunk %d: %w", id, graph.ErrVertexNotFound)
	}
	return sortedKeys(edges), nil
}

// Impact returns every chunk that transitively depends on the chunk
func (d *DependencyGraph) Impact(id int) ([]int, error) {
	var out []int
	err := graph.BFS(d.g, id, func(v int) bool {
		if v != id {
			out = append(out, v)
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", id, err)
	}
	sort.Ints(out)
	return out, nil
}

func sortedKeys(m map[int]graph.Edge[int]) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
