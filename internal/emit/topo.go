package emit

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// nodeID indexes the lexicographically sorted node names of a graph, so
// ordering ids orders names.
type nodeID uint32

type graph struct {
	names  []string          // sorted
	ids    map[string]nodeID // name -> index into names
	edges  [][]edge          // edges[dep] = dependents
	indeg  []int
	weakIn []int             // pointer edges among indeg
	linked map[[2]nodeID]int // (dep, dependent) -> index into edges[dep]
}

// edge points from a dependency to its dependent. A weak edge comes from a
// pointer and may be dropped to break a cycle.
type edge struct {
	to   nodeID
	weak bool
}

func newGraph(names []string) *graph {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	g := &graph{
		names:  sorted,
		ids:    make(map[string]nodeID, len(sorted)),
		edges:  make([][]edge, len(sorted)),
		indeg:  make([]int, len(sorted)),
		weakIn: make([]int, len(sorted)),
		linked: make(map[[2]nodeID]int),
	}
	for i, n := range sorted {
		id, err := safecast.Conv[nodeID](i)
		if err != nil {
			panic(fmt.Errorf("record id overflow: %w", err))
		}
		g.ids[n] = id
	}
	return g
}

// require records that from cannot be emitted before to. A weak
// requirement is upgraded when the same pair is later required strongly.
// Names outside the graph and self edges are ignored.
func (g *graph) require(from, to string, weak bool) {
	f, ok := g.ids[from]
	if !ok {
		return
	}
	t, ok := g.ids[to]
	if !ok || f == t {
		return
	}
	key := [2]nodeID{t, f}
	if i, dup := g.linked[key]; dup {
		if !weak && g.edges[t][i].weak {
			g.edges[t][i].weak = false
			g.weakIn[f]--
		}
		return
	}
	g.linked[key] = len(g.edges[t])
	g.edges[t] = append(g.edges[t], edge{to: f, weak: weak})
	g.indeg[f]++
	if weak {
		g.weakIn[f]++
	}
}

type topo struct {
	Order  []string
	Cycles []string // nodes left on a by-value cycle, sorted
}

// sort runs Kahn's algorithm with a sorted frontier: among records whose
// dependencies are satisfied, the lexicographically smallest goes first.
// When the frontier runs dry on a cycle, the smallest remaining record
// whose unmet dependencies are all pointers is released early.
func (g *graph) sort() topo {
	indeg := slices.Clone(g.indeg)
	weakIn := slices.Clone(g.weakIn)
	queued := make([]bool, len(g.names))
	var out topo
	current := make([]nodeID, 0, len(g.names))
	push := func(id nodeID) {
		queued[id] = true
		current = append(current, id)
	}
	for i := range g.names {
		if indeg[i] == 0 {
			push(g.ids[g.names[i]])
		}
	}
	for len(out.Order) < len(g.names) {
		if len(current) == 0 {
			id, ok := g.relax(indeg, weakIn, queued)
			if !ok {
				break
			}
			push(id)
		}
		slices.Sort(current)
		id := current[0]
		current = current[1:]
		out.Order = append(out.Order, g.names[id])
		for _, e := range g.edges[id] {
			indeg[e.to]--
			if e.weak {
				weakIn[e.to]--
			}
			if indeg[e.to] == 0 && !queued[e.to] {
				push(e.to)
			}
		}
	}
	for i, n := range g.names {
		if !queued[i] {
			out.Cycles = append(out.Cycles, n)
		}
	}
	return out
}

// relax picks the smallest unqueued node held back only by pointer edges.
func (g *graph) relax(indeg, weakIn []int, queued []bool) (nodeID, bool) {
	for i := range g.names {
		if !queued[i] && indeg[i] == weakIn[i] {
			return g.ids[g.names[i]], true
		}
	}
	return 0, false
}
