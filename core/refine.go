package core

import (
	"context"

	"github.com/signalsfoundry/satrouting/internal/logging"
	"github.com/signalsfoundry/satrouting/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// insertion describes one accepted refinement trial: the zone node to splice
// in, the position of the edge it replaces, the two connecting sub-paths,
// and the resulting weight increase.
type insertion struct {
	node     model.NodeID
	position int
	toNode   model.Path
	fromNode model.Path
	increase float64
}

// refine lifts an under-weight seed candidate towards the target weight by
// repeatedly splicing in the zone node with the smallest strictly positive
// weight increase. It preserves the initial hop by never touching the first
// edge, and stops once the target is met, the node pool runs dry, or the
// iteration cap is hit. The second return value reports whether the target
// weight was reached.
func (b *DetourBuilder) refine(ctx context.Context, work *Graph, seed candidate, zone int) (candidate, bool) {
	cur := candidate{nodes: append([]model.NodeID(nil), seed.nodes...), weight: seed.weight, zones: seed.zones}
	span := trace.SpanFromContext(ctx)

	// Each accepted insertion consumes at least one pool node, so this cap
	// is generous; it exists to bound pathological trials on large zones.
	maxIter := len(b.zones.Members(zone)) * len(cur.nodes)

	for iter := 0; iter < maxIter && cur.weight < b.base.TargetWeight; iter++ {
		best, ok := b.bestInsertion(work, cur, zone)
		if !ok {
			b.log.Info(ctx, "refinement exhausted",
				logging.Float64("weight", cur.weight),
				logging.Float64("target_weight", b.base.TargetWeight),
			)
			span.AddEvent("refinement.exhausted", trace.WithAttributes(
				attribute.Float64("weight", cur.weight),
			))
			return cur, false
		}

		cur = splice(cur, best)
		b.collector.ObserveInsertion("accepted")
		b.log.Debug(ctx, "insertion accepted",
			logging.Int("node", int(best.node)),
			logging.Int("position", best.position),
			logging.Float64("increase", best.increase),
			logging.Float64("weight", cur.weight),
		)
		span.AddEvent("refinement.insertion", trace.WithAttributes(
			attribute.Int("node", int(best.node)),
			attribute.Float64("increase", best.increase),
		))
	}
	return cur, cur.weight >= b.base.TargetWeight
}

// bestInsertion scans every (zone node, position) pair and returns the valid
// trial with the smallest strictly positive weight increase. Ties go to the
// smaller node id, then the earlier position, keeping the loop deterministic.
func (b *DetourBuilder) bestInsertion(work *Graph, cur candidate, zone int) (insertion, bool) {
	onPath := make(map[model.NodeID]struct{}, len(cur.nodes))
	for _, n := range cur.nodes {
		onPath[n] = struct{}{}
	}

	var best insertion
	found := false
	for _, node := range b.zones.Members(zone) {
		if _, used := onPath[node]; used {
			continue
		}
		// Position i replaces the edge (nodes[i-1], nodes[i]). Starting at 2
		// keeps the initial hop intact.
		for i := 2; i < len(cur.nodes); i++ {
			trial, ok := b.insertionTrial(work, cur, onPath, node, i)
			if !ok {
				b.collector.ObserveInsertion("rejected")
				continue
			}
			if !found ||
				trial.increase < best.increase ||
				(trial.increase == best.increase && trial.node < best.node) ||
				(trial.increase == best.increase && trial.node == best.node && trial.position < best.position) {
				best, found = trial, true
			}
		}
	}
	return best, found
}

// insertionTrial evaluates splicing node in place of the edge at position i.
// The trial graph keeps only the two flanking path nodes; a trial is invalid
// when either sub-path is missing, touches the current path outside its
// flanks, or overlaps the other sub-path, or when the increase is not
// strictly positive.
func (b *DetourBuilder) insertionTrial(work *Graph, cur candidate, onPath map[model.NodeID]struct{}, node model.NodeID, i int) (insertion, bool) {
	left, right := cur.nodes[i-1], cur.nodes[i]

	trial := work.Clone()
	for _, n := range cur.nodes {
		if n != left && n != right {
			trial.RemoveNode(n)
		}
	}

	toNode, err := ShortestPath(trial, left, node)
	if err != nil {
		return insertion{}, false
	}
	fromNode, err := ShortestPath(trial, node, right)
	if err != nil {
		return insertion{}, false
	}

	// The flanks stay in the trial graph, so the sub-paths may still sneak
	// through them or through each other; both break path simplicity.
	seen := map[model.NodeID]struct{}{}
	for _, n := range interior(toNode.Nodes) {
		if _, used := onPath[n]; used {
			return insertion{}, false
		}
		seen[n] = struct{}{}
	}
	for _, n := range interior(fromNode.Nodes) {
		if _, used := onPath[n]; used {
			return insertion{}, false
		}
		if _, dup := seen[n]; dup {
			return insertion{}, false
		}
	}

	replaced, err := work.EdgeLength(left, right)
	if err != nil {
		return insertion{}, false
	}
	increase := toNode.Weight + fromNode.Weight - replaced
	if increase <= 0 {
		return insertion{}, false
	}
	return insertion{node: node, position: i, toNode: toNode, fromNode: fromNode, increase: increase}, true
}

// splice replaces the edge at the insertion position with the two sub-paths
// and bumps the total weight by the computed increase.
func splice(cur candidate, ins insertion) candidate {
	i := ins.position
	nodes := make([]model.NodeID, 0, len(cur.nodes)+ins.toNode.Len()+ins.fromNode.Len())
	nodes = append(nodes, cur.nodes[:i-1]...)
	nodes = append(nodes, ins.toNode.Nodes...)
	nodes = append(nodes, ins.fromNode.Nodes[1:]...)
	nodes = append(nodes, cur.nodes[i+1:]...)
	return candidate{nodes: nodes, weight: cur.weight + ins.increase, zones: cur.zones}
}
