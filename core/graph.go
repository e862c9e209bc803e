package core

import (
	"fmt"
	"sort"

	"github.com/signalsfoundry/satrouting/model"
)

// Edge is an undirected weighted link between two nodes. Length is the
// routing weight; MidpointY is an auxiliary scalar carried from the snapshot
// and never consulted by routing.
type Edge struct {
	U         model.NodeID
	V         model.NodeID
	Length    float64
	MidpointY float64
}

// EdgeKey addresses one orientation of an undirected edge.
type EdgeKey struct {
	U model.NodeID
	V model.NodeID
}

// Reversed returns the opposite orientation of the key.
func (k EdgeKey) Reversed() EdgeKey { return EdgeKey{U: k.V, V: k.U} }

// EdgeSet is a set of edge orientations. Callers excluding an undirected
// edge store both orientations so membership tests are direction-free.
type EdgeSet map[EdgeKey]struct{}

// AddBoth inserts both orientations of the edge (u, v).
func (s EdgeSet) AddBoth(u, v model.NodeID) {
	s[EdgeKey{U: u, V: v}] = struct{}{}
	s[EdgeKey{U: v, V: u}] = struct{}{}
}

// Contains reports whether the orientation (u, v) is in the set.
func (s EdgeSet) Contains(u, v model.NodeID) bool {
	_, ok := s[EdgeKey{U: u, V: v}]
	return ok
}

// Graph is an undirected weighted topology snapshot. The canonical instance
// built from a snapshot is treated as read-only for the duration of an
// analysis run; every destructive operation happens on an independent copy
// obtained via Clone.
type Graph struct {
	adj map[model.NodeID]map[model.NodeID]Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[model.NodeID]map[model.NodeID]Edge)}
}

// AddNode inserts a node with no links. Adding an existing node is a no-op.
func (g *Graph) AddNode(id model.NodeID) {
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = make(map[model.NodeID]Edge)
	}
}

// AddEdge inserts an undirected edge between u and v, creating either
// endpoint if absent. A negative length is rejected; re-adding an existing
// edge overwrites its attributes.
func (g *Graph) AddEdge(u, v model.NodeID, length, midpointY float64) error {
	if length < 0 {
		return fmt.Errorf("edge (%d,%d): negative length %v", u, v, length)
	}
	if u == v {
		return fmt.Errorf("edge (%d,%d): self-loop", u, v)
	}
	g.AddNode(u)
	g.AddNode(v)
	g.adj[u][v] = Edge{U: u, V: v, Length: length, MidpointY: midpointY}
	g.adj[v][u] = Edge{U: v, V: u, Length: length, MidpointY: midpointY}
	return nil
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(id model.NodeID) bool {
	_, ok := g.adj[id]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.adj) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, nbrs := range g.adj {
		total += len(nbrs)
	}
	return total / 2
}

// Nodes returns all node ids in ascending order.
func (g *Graph) Nodes() []model.NodeID {
	ids := make([]model.NodeID, 0, len(g.adj))
	for id := range g.adj {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Neighbors returns the nodes adjacent to id in ascending order.
func (g *Graph) Neighbors(id model.NodeID) ([]model.NodeID, error) {
	nbrs, ok := g.adj[id]
	if !ok {
		return nil, fmt.Errorf("neighbors of %d: %w", id, ErrNodeNotFound)
	}
	out := make([]model.NodeID, 0, len(nbrs))
	for n := range nbrs {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// EdgeLength returns the weight of the edge between u and v.
func (g *Graph) EdgeLength(u, v model.NodeID) (float64, error) {
	nbrs, ok := g.adj[u]
	if !ok {
		return 0, fmt.Errorf("edge (%d,%d): %w", u, v, ErrNodeNotFound)
	}
	e, ok := nbrs[v]
	if !ok {
		return 0, fmt.Errorf("edge (%d,%d): %w", u, v, ErrEdgeNotFound)
	}
	return e.Length, nil
}

// HasEdge reports whether an edge between u and v exists.
func (g *Graph) HasEdge(u, v model.NodeID) bool {
	nbrs, ok := g.adj[u]
	if !ok {
		return false
	}
	_, ok = nbrs[v]
	return ok
}

// Edges returns every undirected edge exactly once, ordered by (U, V) with
// U < V.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.EdgeCount())
	for u, nbrs := range g.adj {
		for v, e := range nbrs {
			if u < v {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].U != out[j].U {
			return out[i].U < out[j].U
		}
		return out[i].V < out[j].V
	})
	return out
}

// RemoveEdge deletes the undirected edge between u and v if present.
func (g *Graph) RemoveEdge(u, v model.NodeID) {
	if nbrs, ok := g.adj[u]; ok {
		delete(nbrs, v)
	}
	if nbrs, ok := g.adj[v]; ok {
		delete(nbrs, u)
	}
}

// RemoveEdges deletes every edge named by the set. Absent edges are ignored.
func (g *Graph) RemoveEdges(set EdgeSet) {
	for k := range set {
		g.RemoveEdge(k.U, k.V)
	}
}

// RemoveNode deletes a node and all edges incident to it. Absent nodes are
// ignored.
func (g *Graph) RemoveNode(id model.NodeID) {
	nbrs, ok := g.adj[id]
	if !ok {
		return
	}
	for n := range nbrs {
		delete(g.adj[n], id)
	}
	delete(g.adj, id)
}

// RemoveNodes deletes every listed node.
func (g *Graph) RemoveNodes(ids []model.NodeID) {
	for _, id := range ids {
		g.RemoveNode(id)
	}
}

// Clone returns an independent mutable copy of the graph. Mutations on the
// clone never reach the receiver.
func (g *Graph) Clone() *Graph {
	c := &Graph{adj: make(map[model.NodeID]map[model.NodeID]Edge, len(g.adj))}
	for u, nbrs := range g.adj {
		cn := make(map[model.NodeID]Edge, len(nbrs))
		for v, e := range nbrs {
			cn[v] = e
		}
		c.adj[u] = cn
	}
	return c
}

// PathWeight sums the edge lengths along the node sequence. It fails with a
// lookup error if any consecutive pair is not linked.
func (g *Graph) PathWeight(nodes []model.NodeID) (float64, error) {
	total := 0.0
	for i := 0; i+1 < len(nodes); i++ {
		w, err := g.EdgeLength(nodes[i], nodes[i+1])
		if err != nil {
			return 0, err
		}
		total += w
	}
	return total, nil
}
