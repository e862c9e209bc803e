package core

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/signalsfoundry/satrouting/model"
)

// ShortestPath computes the minimum-weight path between source and target
// using Dijkstra's algorithm with a lazy-decrease-key binary heap. Edge
// weights are the snapshot lengths and must be nonnegative, which AddEdge
// guarantees. Returns ErrNoPath when the nodes are disconnected.
func ShortestPath(g *Graph, source, target model.NodeID) (model.Path, error) {
	tree, err := shortestPathTree(g, source)
	if err != nil {
		return model.Path{}, err
	}
	if !g.HasNode(target) {
		return model.Path{}, fmt.Errorf("shortest path target %d: %w", target, ErrNodeNotFound)
	}
	path, ok := tree.pathTo(target)
	if !ok {
		return model.Path{}, fmt.Errorf("shortest path %d->%d: %w", source, target, ErrNoPath)
	}
	return path, nil
}

// distTree holds single-source shortest-path results: the best-known
// distance per node and the predecessor tree for path reconstruction.
type distTree struct {
	source model.NodeID
	dist   map[model.NodeID]float64
	prev   map[model.NodeID]model.NodeID
}

// shortestPathTree runs Dijkstra from source over the whole graph. One run
// answers distance queries to every node, which the detour search uses to
// rank all members of a zone against a single anchor.
func shortestPathTree(g *Graph, source model.NodeID) (*distTree, error) {
	if !g.HasNode(source) {
		return nil, fmt.Errorf("shortest path source %d: %w", source, ErrNodeNotFound)
	}

	t := &distTree{
		source: source,
		dist:   make(map[model.NodeID]float64, g.NodeCount()),
		prev:   make(map[model.NodeID]model.NodeID, g.NodeCount()),
	}
	visited := make(map[model.NodeID]bool, g.NodeCount())

	pq := make(nodePQ, 0, g.NodeCount())
	heap.Init(&pq)
	t.dist[source] = 0
	heap.Push(&pq, &nodeItem{id: source, dist: 0})

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(*nodeItem)
		u := item.id
		if visited[u] {
			// Stale entry from the lazy decrease-key strategy.
			continue
		}
		visited[u] = true

		nbrs, err := g.Neighbors(u)
		if err != nil {
			return nil, err
		}
		for _, v := range nbrs {
			if visited[v] {
				continue
			}
			w, err := g.EdgeLength(u, v)
			if err != nil {
				return nil, err
			}
			next := t.dist[u] + w
			cur, seen := t.dist[v]
			// The strict comparison keeps the first predecessor found, so
			// equal-weight routes resolve by settlement order.
			if seen && next >= cur {
				continue
			}
			t.dist[v] = next
			t.prev[v] = u
			heap.Push(&pq, &nodeItem{id: v, dist: next})
		}
	}
	return t, nil
}

// distanceTo returns the shortest distance to target, or +Inf when
// unreachable.
func (t *distTree) distanceTo(target model.NodeID) float64 {
	d, ok := t.dist[target]
	if !ok {
		return math.Inf(1)
	}
	return d
}

// pathTo reconstructs the shortest path to target from the predecessor tree.
// The second return value is false when target is unreachable.
func (t *distTree) pathTo(target model.NodeID) (model.Path, bool) {
	d, ok := t.dist[target]
	if !ok {
		return model.Path{}, false
	}
	nodes := []model.NodeID{target}
	for cur := target; cur != t.source; {
		p, ok := t.prev[cur]
		if !ok {
			return model.Path{}, false
		}
		nodes = append(nodes, p)
		cur = p
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return model.Path{Nodes: nodes, Weight: d}, true
}

// nodeItem pairs a node with its tentative distance inside the heap.
type nodeItem struct {
	id   model.NodeID
	dist float64
}

// nodePQ is a min-heap of *nodeItem. Ties on distance are broken by node id
// so repeated runs on identical inputs settle the same predecessor tree.
type nodePQ []*nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x any) { *pq = append(*pq, x.(*nodeItem)) }

func (pq *nodePQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}
