package core

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/satrouting/internal/logging"
	"github.com/signalsfoundry/satrouting/internal/observability"
	"github.com/signalsfoundry/satrouting/model"
)

// Search strategy labels reported in results, logs, and metrics.
const (
	StrategyDirectional      = "directional"
	StrategyNearestEntryExit = "nearest_entry_exit"
)

// Detour is a completed zone-traversing alternate to a baseline path. The
// path shares the baseline's initial hop, avoids the baseline's interior
// edges, and touches at least one configured zone.
type Detour struct {
	Path         model.Path
	VisitedZones []int
	Strategy     string

	// BelowTarget is set when the refinement loop could not lift the path
	// to the target weight and the best-effort result is reported instead.
	BelowTarget bool
}

// DetourBuilder searches the edge-excluded working graph for alternates that
// traverse a spare-capacity zone and meet the baseline's weight target. The
// canonical graph is never mutated; every trial clones the working graph.
type DetourBuilder struct {
	graph *Graph
	zones *ZoneLocator
	pm    *PositionModel
	base  *Baseline

	log       logging.Logger
	collector *observability.RoutingCollector
}

// NewDetourBuilder wires a builder over the canonical graph and the outputs
// of zone location and baseline computation. The logger and collector may be
// nil.
func NewDetourBuilder(g *Graph, pm *PositionModel, zones *ZoneLocator, base *Baseline, log logging.Logger, collector *observability.RoutingCollector) *DetourBuilder {
	if log == nil {
		log = logging.Noop()
	}
	return &DetourBuilder{graph: g, zones: zones, pm: pm, base: base, log: log, collector: collector}
}

// Build runs the directional recursive search, trying the ascending plane
// direction first and the descending one if no candidate completes. When
// both directions come up empty it falls back to the nearest-entry/exit seed
// closed by the weight refinement loop. ErrNoDetourFound means no zone
// yielded a usable alternate at all.
func (b *DetourBuilder) Build(ctx context.Context) (*Detour, error) {
	if b.zones.ZoneCount() == 0 {
		return nil, fmt.Errorf("%w: no zones configured", ErrNoDetourFound)
	}
	work := b.base.WorkingGraph(b.graph)

	for _, dir := range []int{+1, -1} {
		cands := b.searchDirection(ctx, work, dir)
		if len(cands) == 0 {
			b.log.Debug(ctx, "search direction exhausted", logging.Int("direction", dir))
			continue
		}
		best := pickClosest(cands)
		b.log.Info(ctx, "directional detour selected",
			logging.Int("direction", dir),
			logging.Float64("weight", best.weight),
			logging.Float64("target_weight", b.base.TargetWeight),
			logging.Int("zones_visited", len(best.zones)),
		)
		return &Detour{
			Path:         model.Path{Nodes: best.nodes, Weight: best.weight},
			VisitedZones: best.zones,
			Strategy:     StrategyDirectional,
		}, nil
	}

	seed, zone, err := b.nearestEntryExit(ctx, work)
	if err != nil {
		return nil, err
	}
	b.collector.ObserveCandidate(StrategyNearestEntryExit)
	if seed.weight >= b.base.TargetWeight {
		return &Detour{
			Path:         model.Path{Nodes: seed.nodes, Weight: seed.weight},
			VisitedZones: seed.zones,
			Strategy:     StrategyNearestEntryExit,
		}, nil
	}

	refined, reached := b.refine(ctx, work, seed, zone)
	detour := &Detour{
		Path:         model.Path{Nodes: refined.nodes, Weight: refined.weight},
		VisitedZones: refined.zones,
		Strategy:     StrategyNearestEntryExit,
		BelowTarget:  !reached,
	}
	if !reached {
		return detour, fmt.Errorf("%w: reached %v of %v", ErrInsertionExhausted, refined.weight, b.base.TargetWeight)
	}
	return detour, nil
}

// candidate is a fully assembled source->target node sequence with its total
// weight and the zones it entered, in visit order.
type candidate struct {
	nodes  []model.NodeID
	weight float64
	zones  []int
}

// searchState is the immutable state threaded through the directional
// recursion: the path walked so far (starting at the initial hop), its
// accumulated weight including the preserved ground link, the zones already
// visited, and the fixed plane direction.
type searchState struct {
	path    []model.NodeID
	weight  float64
	visited []int
	dir     int
}

// extended returns a new state with the entry path appended and the zone
// marked visited. The receiver is never modified.
func (st searchState) extended(entry model.Path, zone int) searchState {
	path := make([]model.NodeID, 0, len(st.path)+entry.Len()-1)
	path = append(path, st.path...)
	path = append(path, entry.Nodes[1:]...)
	visited := make([]int, 0, len(st.visited)+1)
	visited = append(visited, st.visited...)
	visited = append(visited, zone)
	return searchState{path: path, weight: st.weight + entry.Weight, visited: visited, dir: st.dir}
}

func (st searchState) hasVisited(zone int) bool {
	for _, z := range st.visited {
		if z == zone {
			return true
		}
	}
	return false
}

func (st searchState) frontier() model.NodeID { return st.path[len(st.path)-1] }

// searchDirection explores one plane direction and collects every completed
// candidate whose weight meets the target.
func (b *DetourBuilder) searchDirection(ctx context.Context, work *Graph, dir int) []candidate {
	st := searchState{
		path:   []model.NodeID{b.base.InitialHop},
		weight: b.base.InitialHopWeight,
		dir:    dir,
	}
	var out []candidate
	b.step(ctx, work, st, &out)
	return out
}

// step performs one level of the recursive search: from the current frontier
// it first tries to close directly to the target, then extends into every
// not-yet-visited zone reachable in the fixed direction.
func (b *DetourBuilder) step(ctx context.Context, work *Graph, st searchState, out *[]candidate) {
	frontier := st.frontier()

	// Closing is only a candidate once at least one zone is on the path.
	if len(st.visited) > 0 {
		if tail, err := b.closeToTarget(work, st); err == nil {
			total := st.weight + tail.Weight
			if total >= b.base.TargetWeight {
				cand := b.assemble(st, tail)
				if err := b.validate(cand); err != nil {
					b.log.Warn(ctx, "candidate rejected", logging.String("error", err.Error()))
				} else {
					*out = append(*out, cand)
					b.collector.ObserveCandidate(StrategyDirectional)
					b.log.Debug(ctx, "candidate completed",
						logging.Float64("weight", total),
						logging.Int("zones_visited", len(st.visited)),
					)
				}
			} else {
				b.log.Debug(ctx, "candidate below target",
					logging.Float64("weight", total),
					logging.Float64("target_weight", b.base.TargetWeight),
				)
			}
		}
	}

	for zone := 0; zone < b.zones.ZoneCount(); zone++ {
		if st.hasVisited(zone) {
			continue
		}
		entry, err := b.entryIntoZone(work, st, zone)
		if err != nil {
			b.log.Debug(ctx, "zone unreachable from frontier",
				logging.Int("zone", zone),
				logging.Int("frontier", int(frontier)),
				logging.Int("direction", st.dir),
			)
			continue
		}
		b.log.Debug(ctx, "entering zone",
			logging.Int("zone", zone),
			logging.Int("entry_node", int(entry.Nodes[entry.Len()-1])),
			logging.Float64("entry_weight", entry.Weight),
		)
		b.step(ctx, work, st.extended(entry, zone), out)
	}
}

// closeToTarget finds the shortest frontier->target path that avoids every
// node already on the partial path.
func (b *DetourBuilder) closeToTarget(work *Graph, st searchState) (model.Path, error) {
	trial := work.Clone()
	trial.RemoveNodes(st.path[:len(st.path)-1])
	return ShortestPath(trial, st.frontier(), b.base.Target)
}

// entryIntoZone finds the minimum-weight path from the frontier to any zone
// member whose plane does not move against the search direction. Members
// already on the partial path are not re-entered unless the frontier itself
// is the member.
func (b *DetourBuilder) entryIntoZone(work *Graph, st searchState, zone int) (model.Path, error) {
	frontier := st.frontier()
	frontierPlane := b.pm.Plane(frontier)

	trial := work.Clone()
	trial.RemoveNodes(st.path[:len(st.path)-1])
	// A zone entry may never route through the ground target.
	trial.RemoveNode(b.base.Target)
	tree, err := shortestPathTree(trial, frontier)
	if err != nil {
		return model.Path{}, err
	}

	bestNode := model.NodeID(0)
	found := false
	bestDist := 0.0
	for _, member := range b.zones.Members(zone) {
		if st.dir*(b.pm.Plane(member)-frontierPlane) < 0 {
			continue
		}
		d := tree.distanceTo(member)
		if math.IsInf(d, 1) {
			continue
		}
		if !found || d < bestDist || (d == bestDist && member < bestNode) {
			bestNode, bestDist, found = member, d, true
		}
	}
	if !found {
		return model.Path{}, fmt.Errorf("zone %d from %d: %w", zone, frontier, ErrNoZonePath)
	}
	path, _ := tree.pathTo(bestNode)
	return path, nil
}

// nearestEntryExit builds the seed candidate of the fallback strategy: the
// overall nearest zone entry from the initial hop, the nearest exit from the
// target within that same zone, and the shortest in-zone segment between the
// two, concatenated behind the preserved initial hop.
func (b *DetourBuilder) nearestEntryExit(ctx context.Context, work *Graph) (candidate, int, error) {
	entryGraph := work.Clone()
	entryGraph.RemoveNode(b.base.Target)
	entryTree, err := shortestPathTree(entryGraph, b.base.InitialHop)
	if err != nil {
		return candidate{}, 0, err
	}

	bestZone, bestNode, bestDist, found := 0, model.NodeID(0), 0.0, false
	for zone := 0; zone < b.zones.ZoneCount(); zone++ {
		for _, member := range b.zones.Members(zone) {
			d := entryTree.distanceTo(member)
			if math.IsInf(d, 1) {
				continue
			}
			if !found || d < bestDist || (d == bestDist && member < bestNode) {
				bestZone, bestNode, bestDist, found = zone, member, d, true
			}
		}
	}
	if !found {
		return candidate{}, 0, fmt.Errorf("%w: no zone reachable from initial hop %d", ErrNoDetourFound, b.base.InitialHop)
	}
	entry, _ := entryTree.pathTo(bestNode)
	b.log.Info(ctx, "zone selected for seed detour",
		logging.Int("zone", bestZone),
		logging.Int("entry_node", int(bestNode)),
		logging.Float64("entry_weight", entry.Weight),
	)

	exitTree, err := shortestPathTree(work, b.base.Target)
	if err != nil {
		return candidate{}, 0, err
	}
	exitNode, exitDist, exitFound := model.NodeID(0), 0.0, false
	for _, member := range b.zones.Members(bestZone) {
		d := exitTree.distanceTo(member)
		if math.IsInf(d, 1) {
			continue
		}
		if !exitFound || d < exitDist || (d == exitDist && member < exitNode) {
			exitNode, exitDist, exitFound = member, d, true
		}
	}
	if !exitFound {
		return candidate{}, 0, fmt.Errorf("%w: zone %d unreachable from target %d", ErrNoDetourFound, bestZone, b.base.Target)
	}
	exit, _ := exitTree.pathTo(exitNode)

	// In-zone segment on a trial graph without the interiors of the entry
	// and exit paths, so the concatenation stays simple.
	trial := work.Clone()
	trial.RemoveNodes(interior(entry.Nodes))
	trial.RemoveNodes(interior(exit.Nodes))
	if bestNode != b.base.InitialHop {
		trial.RemoveNode(b.base.InitialHop)
	}
	trial.RemoveNode(b.base.Target)
	inZone, err := ShortestPath(trial, bestNode, exitNode)
	if err != nil {
		return candidate{}, 0, fmt.Errorf("%w: zone %d entry %d to exit %d", ErrNoDetourFound, bestZone, bestNode, exitNode)
	}

	nodes := make([]model.NodeID, 0, 2+entry.Len()+inZone.Len()+exit.Len())
	nodes = append(nodes, b.base.Source)
	nodes = append(nodes, entry.Nodes...)
	nodes = append(nodes, inZone.Nodes[1:]...)
	// exit runs target->exitNode; walk it backwards from the node after the
	// exit endpoint.
	for i := exit.Len() - 2; i >= 0; i-- {
		nodes = append(nodes, exit.Nodes[i])
	}

	cand := candidate{
		nodes:  nodes,
		weight: b.base.InitialHopWeight + entry.Weight + inZone.Weight + exit.Weight,
		zones:  []int{bestZone},
	}
	if err := b.validate(cand); err != nil {
		return candidate{}, 0, fmt.Errorf("%w: seed invalid: %v", ErrNoDetourFound, err)
	}
	return cand, bestZone, nil
}

// assemble prepends the source to the partial path and appends the closing
// tail.
func (b *DetourBuilder) assemble(st searchState, tail model.Path) candidate {
	nodes := make([]model.NodeID, 0, 1+len(st.path)+tail.Len()-1)
	nodes = append(nodes, b.base.Source)
	nodes = append(nodes, st.path...)
	nodes = append(nodes, tail.Nodes[1:]...)
	zones := make([]int, len(st.visited))
	copy(zones, st.visited)
	return candidate{nodes: nodes, weight: st.weight + tail.Weight, zones: zones}
}

// validate rejects a candidate outright if it repeats a node, breaks the
// preserved initial hop, or reuses an excluded baseline edge in either
// orientation.
func (b *DetourBuilder) validate(c candidate) error {
	p := model.Path{Nodes: c.nodes}
	if !p.IsSimple() {
		return fmt.Errorf("candidate repeats a node")
	}
	if len(c.nodes) < 2 || c.nodes[0] != b.base.Source || c.nodes[1] != b.base.InitialHop {
		return fmt.Errorf("candidate does not share the initial hop %d->%d", b.base.Source, b.base.InitialHop)
	}
	if c.nodes[len(c.nodes)-1] != b.base.Target {
		return fmt.Errorf("candidate does not end at target %d", b.base.Target)
	}
	for i := 0; i+1 < len(c.nodes); i++ {
		if b.base.Excluded.Contains(c.nodes[i], c.nodes[i+1]) {
			return fmt.Errorf("candidate reuses excluded edge (%d,%d)", c.nodes[i], c.nodes[i+1])
		}
	}
	return nil
}

// pickClosest selects the candidate whose weight is closest to the target:
// all completed candidates sit at or above it, so that is the minimum
// weight. Ties go to fewer zone visits, then to the lexicographically
// smaller node sequence so identical inputs select identical detours.
func pickClosest(cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		switch {
		case c.weight < best.weight:
			best = c
		case c.weight == best.weight && len(c.zones) < len(best.zones):
			best = c
		case c.weight == best.weight && len(c.zones) == len(best.zones) && lessNodes(c.nodes, best.nodes):
			best = c
		}
	}
	return best
}

func lessNodes(a, b []model.NodeID) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// interior returns the nodes of a path without its two endpoints.
func interior(nodes []model.NodeID) []model.NodeID {
	if len(nodes) <= 2 {
		return nil
	}
	return nodes[1 : len(nodes)-1]
}
