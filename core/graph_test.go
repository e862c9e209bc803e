package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/signalsfoundry/satrouting/model"
)

func TestGraphAddAndLookup(t *testing.T) {
	g := NewGraph()
	if err := g.AddEdge(1, 2, 1.5, 0.25); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	g.AddNode(7)

	if g.NodeCount() != 3 || g.EdgeCount() != 1 {
		t.Fatalf("counts = (%d nodes, %d edges), want (3, 1)", g.NodeCount(), g.EdgeCount())
	}
	if !g.HasEdge(1, 2) || !g.HasEdge(2, 1) {
		t.Fatal("edge not visible from both endpoints")
	}

	w, err := g.EdgeLength(2, 1)
	if err != nil {
		t.Fatalf("EdgeLength: %v", err)
	}
	if w != 1.5 {
		t.Fatalf("EdgeLength = %v, want 1.5", w)
	}

	if _, err := g.EdgeLength(1, 7); !errors.Is(err, ErrEdgeNotFound) {
		t.Fatalf("missing edge err = %v, want ErrEdgeNotFound", err)
	}
	if _, err := g.EdgeLength(99, 1); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("missing node err = %v, want ErrNodeNotFound", err)
	}
}

func TestGraphRejectsBadEdges(t *testing.T) {
	g := NewGraph()
	if err := g.AddEdge(1, 1, 1, 0); err == nil {
		t.Fatal("self-loop accepted")
	}
	if err := g.AddEdge(1, 2, -0.5, 0); err == nil {
		t.Fatal("negative length accepted")
	}
}

func TestGraphNodesAndEdgesAreOrdered(t *testing.T) {
	g := NewGraph()
	for _, e := range [][2]model.NodeID{{3, 1}, {-2, 3}, {1, -2}, {5, 1}} {
		if err := g.AddEdge(e[0], e[1], 1, 0); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}

	wantNodes := []model.NodeID{-2, 1, 3, 5}
	if got := g.Nodes(); !reflect.DeepEqual(got, wantNodes) {
		t.Fatalf("Nodes = %v, want %v", got, wantNodes)
	}

	edges := g.Edges()
	wantPairs := [][2]model.NodeID{{-2, 1}, {-2, 3}, {1, 3}, {1, 5}}
	if len(edges) != len(wantPairs) {
		t.Fatalf("Edges returned %d entries, want %d", len(edges), len(wantPairs))
	}
	for i, e := range edges {
		if e.U != wantPairs[i][0] || e.V != wantPairs[i][1] {
			t.Fatalf("Edges[%d] = (%d,%d), want (%d,%d)", i, e.U, e.V, wantPairs[i][0], wantPairs[i][1])
		}
	}

	nbrs, err := g.Neighbors(1)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if want := []model.NodeID{-2, 3, 5}; !reflect.DeepEqual(nbrs, want) {
		t.Fatalf("Neighbors(1) = %v, want %v", nbrs, want)
	}
}

func TestGraphRemoveNodeDropsIncidentEdges(t *testing.T) {
	g := testConstellation(t)
	g.RemoveNode(5)

	if g.HasNode(5) {
		t.Fatal("node 5 still present")
	}
	for _, n := range []model.NodeID{4, 6, 1, -2} {
		if g.HasEdge(n, 5) || g.HasEdge(5, n) {
			t.Fatalf("edge to removed node 5 still present from %d", n)
		}
	}
}

func TestGraphCloneIsIndependent(t *testing.T) {
	g := testConstellation(t)
	c := g.Clone()

	c.RemoveNode(0)
	c.RemoveEdge(2, 6)

	if !g.HasNode(0) || !g.HasEdge(2, 6) {
		t.Fatal("mutating the clone reached the original")
	}
	if c.HasNode(0) || c.HasEdge(2, 6) {
		t.Fatal("clone mutation did not stick")
	}
	if g.NodeCount() != 10 {
		t.Fatalf("original node count = %d, want 10", g.NodeCount())
	}
}

func TestGraphRemoveEdgeSet(t *testing.T) {
	g := testConstellation(t)
	set := make(EdgeSet)
	set.AddBoth(0, 4)
	set.AddBoth(4, 5)

	g.RemoveEdges(set)
	if g.HasEdge(0, 4) || g.HasEdge(4, 5) {
		t.Fatal("excluded edges still present")
	}
	if !g.HasNode(4) {
		t.Fatal("removing edges removed a node")
	}
}

func TestGraphPathWeight(t *testing.T) {
	g := testConstellation(t)

	w, err := g.PathWeight([]model.NodeID{-1, 0, 4, 5, -2})
	if err != nil {
		t.Fatalf("PathWeight: %v", err)
	}
	if w != 5 {
		t.Fatalf("PathWeight = %v, want 5", w)
	}

	if _, err := g.PathWeight([]model.NodeID{-1, 0, 5}); !errors.Is(err, ErrEdgeNotFound) {
		t.Fatalf("unlinked pair err = %v, want ErrEdgeNotFound", err)
	}
}
