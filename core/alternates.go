package core

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/satrouting/model"
)

// AlternatePaths returns up to limit node-disjoint paths between source and
// target, cheapest first. After each path is found its interior nodes are
// removed from the working graph, so no two results share a satellite. A
// limit of zero or less means no cap. Finding fewer than limit paths is not
// an error; an empty result only occurs when the endpoints are disconnected
// from the start.
func AlternatePaths(g *Graph, source, target model.NodeID, limit int) ([]model.Path, error) {
	if !g.HasNode(source) {
		return nil, fmt.Errorf("%w: source %d", ErrNodeNotFound, source)
	}
	if !g.HasNode(target) {
		return nil, fmt.Errorf("%w: target %d", ErrNodeNotFound, target)
	}

	work := g.Clone()
	var paths []model.Path
	for limit <= 0 || len(paths) < limit {
		p, err := ShortestPath(work, source, target)
		if errors.Is(err, ErrNoPath) {
			break
		}
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
		if p.Len() <= 2 {
			// Direct edge: nothing interior to remove, and removing the
			// endpoints would end the search anyway.
			work.RemoveEdge(source, target)
			continue
		}
		work.RemoveNodes(p.Nodes[1 : p.Len()-1])
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrNoPath, source, target)
	}
	return paths, nil
}
