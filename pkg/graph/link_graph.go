package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/litgraph/pkg/model"
)

// LinkGraph indexes the links between works. Gonum node ids are the node
// indices of the model graph.
type LinkGraph struct {
	undirected *simple.UndirectedGraph
	directed   *simple.DirectedGraph
}

// NewLinkGraph builds the index for n nodes and the given resolved links.
// Self links carry no adjacency and are skipped.
func NewLinkGraph(n int, links []model.ResolvedLink) *LinkGraph {
	lg := &LinkGraph{
		undirected: simple.NewUndirectedGraph(),
		directed:   simple.NewDirectedGraph(),
	}

	for i := 0; i < n; i++ {
		lg.undirected.AddNode(simple.Node(int64(i)))
		lg.directed.AddNode(simple.Node(int64(i)))
	}

	for _, l := range links {
		if l.SourceIndex == l.TargetIndex {
			continue
		}
		from := simple.Node(int64(l.SourceIndex))
		to := simple.Node(int64(l.TargetIndex))
		lg.undirected.SetEdge(simple.Edge{F: from, T: to})
		lg.directed.SetEdge(simple.Edge{F: from, T: to})
	}

	return lg
}

// Linked reports whether a link exists between i and j in either direction
func (lg *LinkGraph) Linked(i, j int) bool {
	return lg.undirected.HasEdgeBetween(int64(i), int64(j))
}

// Degree returns the number of distinct nodes linked to i
func (lg *LinkGraph) Degree(i int) int {
	if lg.undirected.Node(int64(i)) == nil {
		return 0
	}
	return lg.undirected.From(int64(i)).Len()
}

// Components returns the connected components as sorted index lists, largest
// first
func (lg *LinkGraph) Components() [][]int {
	return sortedGroups(topo.ConnectedComponents(lg.undirected))
}

// Cycles returns the groups of works that influence each other in a cycle
// when links are read as source -> target
func (lg *LinkGraph) Cycles() [][]int {
	var cycles [][]int
	for _, group := range sortedGroups(topo.TarjanSCC(lg.directed)) {
		if len(group) > 1 {
			cycles = append(cycles, group)
		}
	}
	return cycles
}

func sortedGroups[N interface{ ID() int64 }](groups [][]N) [][]int {
	result := make([][]int, 0, len(groups))
	for _, g := range groups {
		ids := make([]int, len(g))
		for i, n := range g {
			ids[i] = int(n.ID())
		}
		sort.Ints(ids)
		result = append(result, ids)
	}

	sort.Slice(result, func(i, j int) bool {
		if len(result[i]) != len(result[j]) {
			return len(result[i]) > len(result[j])
		}
		return result[i][0] < result[j][0]
	})
	return result
}
