package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/satrouting/model"
)

// Baseline captures the reference shortest path between the two ground
// station endpoints and everything the detour search derives from it: the
// weight target, the preserved initial hop, and the interior edges a detour
// must not reuse.
type Baseline struct {
	Source model.NodeID
	Target model.NodeID

	Path         model.Path
	TargetWeight float64

	// InitialHop is the second node of the baseline path. The edge
	// Source->InitialHop is the ground link shared by every detour.
	InitialHop       model.NodeID
	InitialHopWeight float64

	// Excluded holds the edges between interior baseline nodes, stored in
	// both orientations. Removing them from the working graph forces a
	// detour off the shortest path.
	Excluded EdgeSet
}

// ComputeBaseline finds the minimum-weight source->target path on g and
// derives the detour constraints. Disconnection between source and target is
// fatal to the analysis run.
func ComputeBaseline(g *Graph, source, target model.NodeID, targetFactor float64) (*Baseline, error) {
	if targetFactor <= 1 {
		return nil, fmt.Errorf("%w: target factor must exceed 1.0, got %v", ErrBadConfig, targetFactor)
	}

	path, err := ShortestPath(g, source, target)
	if err != nil {
		if errors.Is(err, ErrNoPath) {
			return nil, fmt.Errorf("%w: %d->%d", ErrNoBaselinePath, source, target)
		}
		return nil, err
	}
	if path.Len() < 3 {
		// A direct ground-to-ground link leaves no interior to detour around.
		return nil, fmt.Errorf("%w: baseline %d->%d has no interior hop", ErrNoBaselinePath, source, target)
	}

	hop := path.Nodes[1]
	hopWeight, err := g.EdgeLength(source, hop)
	if err != nil {
		return nil, err
	}

	excluded := make(EdgeSet)
	for i := 1; i+2 < path.Len(); i++ {
		excluded.AddBoth(path.Nodes[i], path.Nodes[i+1])
	}

	return &Baseline{
		Source:           source,
		Target:           target,
		Path:             path,
		TargetWeight:     path.Weight * targetFactor,
		InitialHop:       hop,
		InitialHopWeight: hopWeight,
		Excluded:         excluded,
	}, nil
}

// WorkingGraph builds the edge-excluded search graph for detour trials: a
// clone of g without the excluded interior edges and without the source
// node, since every detour already owns the Source->InitialHop link and a
// simple path can never return to the source.
func (b *Baseline) WorkingGraph(g *Graph) *Graph {
	work := g.Clone()
	work.RemoveEdges(b.Excluded)
	work.RemoveNode(b.Source)
	return work
}
