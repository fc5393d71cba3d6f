package topology

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
)

// graphView exposes a Topology as an undirected gonum graph. Neighbors are
// returned in ID order so equal-cost paths resolve the same way on every run.
type graphView struct {
	t *Topology
}

var _ graph.Graph = graphView{}

func (t *Topology) nodeAt(id int64) graph.Node {
	return simple.Node(id)
}

// Node returns the node with the given ID if it exists
func (g graphView) Node(id int64) graph.Node {
	if g.t.Node(id) == nil {
		return nil
	}
	return simple.Node(id)
}

// Nodes returns all nodes in ID order
func (g graphView) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(g.t.nodes))
	for i := range g.t.nodes {
		nodes[i] = simple.Node(int64(i))
	}
	return iterator.NewOrderedNodes(nodes)
}

// From returns the neighbors of id in ID order
func (g graphView) From(id int64) graph.Nodes {
	adj := g.t.adj[id]
	if len(adj) == 0 {
		return graph.Empty
	}
	nodes := make([]graph.Node, len(adj))
	for i, a := range adj {
		nodes[i] = simple.Node(a.neighbor)
	}
	return iterator.NewOrderedNodes(nodes)
}

// HasEdgeBetween reports whether a link joins x and y
func (g graphView) HasEdgeBetween(xid, yid int64) bool {
	_, ok := g.t.pairs[pairKey(xid, yid)]
	return ok
}

// Edge returns the edge from u to v if a link joins them
func (g graphView) Edge(uid, vid int64) graph.Edge {
	if !g.HasEdgeBetween(uid, vid) {
		return nil
	}
	return simple.Edge{F: simple.Node(uid), T: simple.Node(vid)}
}
