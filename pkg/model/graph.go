package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNodes is returned when a graph is built without any nodes
	ErrNoNodes = errors.New("graph has no nodes")

	// ErrDuplicateNode is returned when two nodes share an id
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownNode is returned when an id does not name a node of the graph
	ErrUnknownNode = errors.New("unknown node id")
)

// LinkError reports a link that references a node id missing from the graph
type LinkError struct {
	Index   int    // position of the link in the raw link list
	Link    Link   // the offending link
	Missing string // the id that could not be resolved
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link %d (%s -> %s): %v: %q", e.Index, e.Link.Source, e.Link.Target, ErrUnknownNode, e.Missing)
}

func (e *LinkError) Unwrap() error {
	return ErrUnknownNode
}

// Graph owns the nodes of a session. Nodes live in a single slice and are
// addressed by index; links refer to them by id and are resolved into indices.
type Graph struct {
	Nodes []Node
	Links []Link
	index map[string]int
}

// NewGraph builds a graph from the data contract. The node slice is taken over
// by the graph. It fails if there are no nodes or if ids are not unique.
func NewGraph(data GraphData) (*Graph, error) {
	if len(data.Nodes) == 0 {
		return nil, ErrNoNodes
	}

	index := make(map[string]int, len(data.Nodes))
	for i, n := range data.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %d: %w: empty id", i, ErrUnknownNode)
		}
		if _, exists := index[n.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		index[n.ID] = i
	}

	return &Graph{
		Nodes: data.Nodes,
		Links: data.Links,
		index: index,
	}, nil
}

// Index returns the position of a node in Nodes
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// ResolvedLink is a link whose endpoints were resolved to node indices
type ResolvedLink struct {
	Link
	SourceIndex int
	TargetIndex int
}

// ResolveLinks resolves every link's endpoints to node indices. Links that
// reference unknown ids are left out of the result and reported as
// *LinkError values joined into the returned error.
func (g *Graph) ResolveLinks() ([]ResolvedLink, error) {
	resolved := make([]ResolvedLink, 0, len(g.Links))
	var errs []error

	for i, l := range g.Links {
		si, ok := g.index[l.Source]
		if !ok {
			errs = append(errs, &LinkError{Index: i, Link: l, Missing: l.Source})
			continue
		}
		ti, ok := g.index[l.Target]
		if !ok {
			errs = append(errs, &LinkError{Index: i, Link: l, Missing: l.Target})
			continue
		}
		resolved = append(resolved, ResolvedLink{Link: l, SourceIndex: si, TargetIndex: ti})
	}

	return resolved, errors.Join(errs...)
}

// IDs returns the node ids in index order
func (g *Graph) IDs() []string {
	ids := make([]string, len(g.Nodes))
	for i := range g.Nodes {
		ids[i] = g.Nodes[i].ID
	}
	return ids
}
