package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/signalsfoundry/satrouting/model"
)

// testConstellation builds a two-plane, four-satellites-per-plane topology
// with two ground stations:
//
//	-1 -- 0 -- 1 -- 2 -- 3        plane 0
//	      |    |    |    |
//	      4 -- 5 -- 6 -- 7        plane 1
//	           |
//	          -2
//
// Ground links weigh 1.5, the cross link 1-5 weighs 1.2, and every other
// link weighs 1. The shortest -1 to -2 path is -1,0,4,5,-2 at weight 5.
func testConstellation(t *testing.T) *Graph {
	t.Helper()

	g := NewGraph()
	edges := []struct {
		u, v model.NodeID
		w    float64
		y    float64
	}{
		{-1, 0, 1.5, 0.5},
		{-2, 5, 1.5, -1.75},
		{0, 1, 1, 0}, {1, 2, 1, 0}, {2, 3, 1, 0},
		{4, 5, 1, -1}, {5, 6, 1, -1}, {6, 7, 1, -1},
		{0, 4, 1, -0.5}, {1, 5, 1.2, -0.5}, {2, 6, 1, -0.5}, {3, 7, 1, -0.5},
	}
	for _, e := range edges {
		if err := g.AddEdge(e.u, e.v, e.w, e.y); err != nil {
			t.Fatalf("AddEdge(%d,%d): %v", e.u, e.v, err)
		}
	}
	return g
}

func testGroundStations() []model.GroundStation {
	return []model.GroundStation{
		{ID: -1, Name: "LDN", X: 2, Y: 1},
		{ID: -2, Name: "NYC", X: 1, Y: -2},
	}
}

// testZone wraps across the plane seam and captures exactly the satellites
// at x=0 and x=3, which are ids 2, 3, 6, and 7.
func testZone() model.Zone {
	return model.Zone{TopLeft: 3, TopRight: 2, BottomLeft: 7, BottomRight: 6}
}

func testBuilder(t *testing.T, g *Graph, factor float64) (*DetourBuilder, *Baseline) {
	t.Helper()

	pm, err := NewPositionModel(g, 4, testGroundStations())
	if err != nil {
		t.Fatalf("NewPositionModel: %v", err)
	}
	zones, err := LocateZones(g, pm, []model.Zone{testZone()})
	if err != nil {
		t.Fatalf("LocateZones: %v", err)
	}
	base, err := ComputeBaseline(g, -1, -2, factor)
	if err != nil {
		t.Fatalf("ComputeBaseline: %v", err)
	}
	return NewDetourBuilder(g, pm, zones, base, nil, nil), base
}

func TestBuildDirectionalDetour(t *testing.T) {
	g := testConstellation(t)
	builder, base := testBuilder(t, g, 1.25)

	detour, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if detour.Strategy != StrategyDirectional {
		t.Fatalf("strategy = %q, want %q", detour.Strategy, StrategyDirectional)
	}
	want := []model.NodeID{-1, 0, 1, 2, 6, 5, -2}
	if !reflect.DeepEqual(detour.Path.Nodes, want) {
		t.Fatalf("detour nodes = %v, want %v", detour.Path.Nodes, want)
	}
	if detour.Path.Weight != 7 {
		t.Fatalf("detour weight = %v, want 7", detour.Path.Weight)
	}
	if detour.Path.Weight < base.TargetWeight {
		t.Fatalf("detour weight %v below target %v", detour.Path.Weight, base.TargetWeight)
	}
	if len(detour.VisitedZones) != 1 || detour.VisitedZones[0] != 0 {
		t.Fatalf("visited zones = %v, want [0]", detour.VisitedZones)
	}
	if detour.BelowTarget {
		t.Fatal("directional detour marked below target")
	}
}

func TestBuildDetourInvariants(t *testing.T) {
	g := testConstellation(t)
	builder, base := testBuilder(t, g, 1.25)

	detour, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !detour.Path.IsSimple() {
		t.Fatalf("detour repeats a node: %v", detour.Path.Nodes)
	}
	if detour.Path.Nodes[0] != base.Source || detour.Path.Nodes[1] != base.InitialHop {
		t.Fatalf("detour %v does not share initial hop %d->%d", detour.Path.Nodes, base.Source, base.InitialHop)
	}
	if detour.Path.Nodes[detour.Path.Len()-1] != base.Target {
		t.Fatalf("detour %v does not end at %d", detour.Path.Nodes, base.Target)
	}
	for i := 0; i+1 < detour.Path.Len(); i++ {
		if base.Excluded.Contains(detour.Path.Nodes[i], detour.Path.Nodes[i+1]) {
			t.Fatalf("detour reuses excluded edge (%d,%d)", detour.Path.Nodes[i], detour.Path.Nodes[i+1])
		}
	}

	// The reported weight must match the edge lengths on the original graph.
	sum, err := g.PathWeight(detour.Path.Nodes)
	if err != nil {
		t.Fatalf("PathWeight: %v", err)
	}
	if sum != detour.Path.Weight {
		t.Fatalf("reported weight %v, edges sum to %v", detour.Path.Weight, sum)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	first := func() *Detour {
		g := testConstellation(t)
		builder, _ := testBuilder(t, g, 1.25)
		d, err := builder.Build(context.Background())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return d
	}

	a, b := first(), first()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two identical runs diverged:\n%+v\n%+v", a, b)
	}
}

func TestBuildWithoutZones(t *testing.T) {
	g := testConstellation(t)
	pm, err := NewPositionModel(g, 4, testGroundStations())
	if err != nil {
		t.Fatalf("NewPositionModel: %v", err)
	}
	zones, err := LocateZones(g, pm, nil)
	if err != nil {
		t.Fatalf("LocateZones: %v", err)
	}
	base, err := ComputeBaseline(g, -1, -2, 1.25)
	if err != nil {
		t.Fatalf("ComputeBaseline: %v", err)
	}

	_, err = NewDetourBuilder(g, pm, zones, base, nil, nil).Build(context.Background())
	if !errors.Is(err, ErrNoDetourFound) {
		t.Fatalf("Build without zones = %v, want ErrNoDetourFound", err)
	}
}

func TestBuildUnreachableZone(t *testing.T) {
	g := testConstellation(t)
	// Satellites of planes 2 and 3 exist in the snapshot but carry no links,
	// so the only zone cannot be entered.
	for _, id := range []model.NodeID{10, 11, 14, 15} {
		g.AddNode(id)
	}
	pm, err := NewPositionModel(g, 4, testGroundStations())
	if err != nil {
		t.Fatalf("NewPositionModel: %v", err)
	}
	zone := model.Zone{TopLeft: 10, TopRight: 11, BottomLeft: 14, BottomRight: 15}
	zones, err := LocateZones(g, pm, []model.Zone{zone})
	if err != nil {
		t.Fatalf("LocateZones: %v", err)
	}
	base, err := ComputeBaseline(g, -1, -2, 1.25)
	if err != nil {
		t.Fatalf("ComputeBaseline: %v", err)
	}

	_, err = NewDetourBuilder(g, pm, zones, base, nil, nil).Build(context.Background())
	if !errors.Is(err, ErrNoDetourFound) {
		t.Fatalf("Build with unreachable zone = %v, want ErrNoDetourFound", err)
	}
}

// threePlaneConstellation stacks a third plane under the layout of
// testConstellation and closes every ring:
//
//	-1 -- 0 -- 1 -- 2 -- 3 -- (0)     plane 0
//	      |    |    |    |
//	      4 -- 5 -- 6 -- 7 -- (4)     plane 1
//	      |    |    |    |
//	      8 -- 9 --10 --11 -- (8)     plane 2
//	      |
//	     -2
//
// Ground links weigh 1.5, the cross links 1-5 and 5-9 weigh 1.25, the cross
// link 7-11 weighs 0.75, and every other link weighs 1. The shortest -1 to
// -2 path is -1,0,4,8,-2 at weight 5.
func threePlaneConstellation(t *testing.T) *Graph {
	t.Helper()

	g := NewGraph()
	edges := []struct {
		u, v model.NodeID
		w    float64
		y    float64
	}{
		{-1, 0, 1.5, 0.5},
		{-2, 8, 1.5, -2.5},
		{0, 1, 1, 0}, {1, 2, 1, 0}, {2, 3, 1, 0}, {0, 3, 1, 0},
		{4, 5, 1, -1}, {5, 6, 1, -1}, {6, 7, 1, -1}, {4, 7, 1, -1},
		{8, 9, 1, -2}, {9, 10, 1, -2}, {10, 11, 1, -2}, {8, 11, 1, -2},
		{0, 4, 1, -0.5}, {1, 5, 1.25, -0.5}, {2, 6, 1, -0.5}, {3, 7, 1, -0.5},
		{4, 8, 1, -1.5}, {5, 9, 1.25, -1.5}, {6, 10, 1, -1.5}, {7, 11, 0.75, -1.5},
	}
	for _, e := range edges {
		if err := g.AddEdge(e.u, e.v, e.w, e.y); err != nil {
			t.Fatalf("AddEdge(%d,%d): %v", e.u, e.v, err)
		}
	}
	return g
}

func threePlaneGroundStations() []model.GroundStation {
	return []model.GroundStation{
		{ID: -1, Name: "LDN", X: 2, Y: 1},
		{ID: -2, Name: "NYC", X: 2, Y: -3},
	}
}

// threePlaneZones covers the left columns of planes 0 and 1 with one zone,
// members 1, 2, 5, and 6, and the right columns of planes 1 and 2 with a
// second, members 4, 7, 8, and 11.
func threePlaneZones() []model.Zone {
	return []model.Zone{
		{TopLeft: 2, TopRight: 1, BottomLeft: 6, BottomRight: 5},
		{TopLeft: 4, TopRight: 7, BottomLeft: 8, BottomRight: 11},
	}
}

func TestBuildSweepsTwoZones(t *testing.T) {
	g := threePlaneConstellation(t)
	pm, err := NewPositionModel(g, 4, threePlaneGroundStations())
	if err != nil {
		t.Fatalf("NewPositionModel: %v", err)
	}
	zones, err := LocateZones(g, pm, threePlaneZones())
	if err != nil {
		t.Fatalf("LocateZones: %v", err)
	}
	// At factor 1.6 every single-zone closing falls short of the weight
	// target, so a completed candidate must chain both zones.
	base, err := ComputeBaseline(g, -1, -2, 1.6)
	if err != nil {
		t.Fatalf("ComputeBaseline: %v", err)
	}
	wantBase := []model.NodeID{-1, 0, 4, 8, -2}
	if !reflect.DeepEqual(base.Path.Nodes, wantBase) {
		t.Fatalf("baseline nodes = %v, want %v", base.Path.Nodes, wantBase)
	}
	if base.TargetWeight != 8 {
		t.Fatalf("target weight = %v, want 8", base.TargetWeight)
	}

	detour, err := NewDetourBuilder(g, pm, zones, base, nil, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if detour.Strategy != StrategyDirectional {
		t.Fatalf("strategy = %q, want %q", detour.Strategy, StrategyDirectional)
	}
	want := []model.NodeID{-1, 0, 1, 5, 4, 7, 11, 8, -2}
	if !reflect.DeepEqual(detour.Path.Nodes, want) {
		t.Fatalf("detour nodes = %v, want %v", detour.Path.Nodes, want)
	}
	if detour.Path.Weight != 9 {
		t.Fatalf("detour weight = %v, want 9", detour.Path.Weight)
	}
	if detour.BelowTarget {
		t.Fatal("two-zone detour marked below target")
	}

	// Zones are recorded in visit order, each at most once.
	if !reflect.DeepEqual(detour.VisitedZones, []int{0, 1}) {
		t.Fatalf("visited zones = %v, want [0 1]", detour.VisitedZones)
	}
	if !detour.Path.IsSimple() {
		t.Fatalf("detour repeats a node: %v", detour.Path.Nodes)
	}
	for i := 0; i+1 < detour.Path.Len(); i++ {
		if base.Excluded.Contains(detour.Path.Nodes[i], detour.Path.Nodes[i+1]) {
			t.Fatalf("detour reuses excluded edge (%d,%d)", detour.Path.Nodes[i], detour.Path.Nodes[i+1])
		}
	}
	sum, err := g.PathWeight(detour.Path.Nodes)
	if err != nil {
		t.Fatalf("PathWeight: %v", err)
	}
	if sum != detour.Path.Weight {
		t.Fatalf("reported weight %v, edges sum to %v", detour.Path.Weight, sum)
	}
}

// ringConstellation closes both planes of testConstellation into full rings
// with unit ring links, weight-2 cross links, and unit ground links:
//
//	-1 -- 0 -- 1 -- 2 -- 3 -- (0)     plane 0
//	      |    |    |    |
//	      4 -- 5 -- 6 -- 7 -- (4)     plane 1
//	           |
//	          -2
func ringConstellation(t *testing.T) *Graph {
	t.Helper()

	g := NewGraph()
	edges := []struct {
		u, v model.NodeID
		w    float64
		y    float64
	}{
		{-1, 0, 1, 0.5},
		{-2, 5, 1, -1.5},
		{0, 1, 1, 0}, {1, 2, 1, 0}, {2, 3, 1, 0}, {0, 3, 1, 0},
		{4, 5, 1, -1}, {5, 6, 1, -1}, {6, 7, 1, -1}, {4, 7, 1, -1},
		{0, 4, 2, -0.5}, {1, 5, 2, -0.5}, {2, 6, 2, -0.5}, {3, 7, 2, -0.5},
	}
	for _, e := range edges {
		if err := g.AddEdge(e.u, e.v, e.w, e.y); err != nil {
			t.Fatalf("AddEdge(%d,%d): %v", e.u, e.v, err)
		}
	}
	return g
}

func TestBuildOnClosedRings(t *testing.T) {
	g := ringConstellation(t)
	pm, err := NewPositionModel(g, 4, testGroundStations())
	if err != nil {
		t.Fatalf("NewPositionModel: %v", err)
	}
	zones, err := LocateZones(g, pm, []model.Zone{testZone()})
	if err != nil {
		t.Fatalf("LocateZones: %v", err)
	}
	base, err := ComputeBaseline(g, -1, -2, 1.25)
	if err != nil {
		t.Fatalf("ComputeBaseline: %v", err)
	}

	// Two weight-5 routes exist between the ground stations; relaxation
	// keeps the first settled predecessor, which selects the path via 1.
	wantBase := []model.NodeID{-1, 0, 1, 5, -2}
	if !reflect.DeepEqual(base.Path.Nodes, wantBase) {
		t.Fatalf("baseline nodes = %v, want %v", base.Path.Nodes, wantBase)
	}
	if base.Path.Weight != 5 || base.TargetWeight != 6.25 {
		t.Fatalf("baseline weight %v target %v, want 5 and 6.25", base.Path.Weight, base.TargetWeight)
	}
	if base.InitialHop != 0 || base.InitialHopWeight != 1 {
		t.Fatalf("initial hop %d weight %v, want 0 and 1", base.InitialHop, base.InitialHopWeight)
	}

	detour, err := NewDetourBuilder(g, pm, zones, base, nil, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if detour.Strategy != StrategyDirectional {
		t.Fatalf("strategy = %q, want %q", detour.Strategy, StrategyDirectional)
	}
	want := []model.NodeID{-1, 0, 3, 7, 4, 5, -2}
	if !reflect.DeepEqual(detour.Path.Nodes, want) {
		t.Fatalf("detour nodes = %v, want %v", detour.Path.Nodes, want)
	}
	if detour.Path.Weight != 7 {
		t.Fatalf("detour weight = %v, want 7", detour.Path.Weight)
	}
	if detour.Path.Weight < base.TargetWeight {
		t.Fatalf("detour weight %v below target %v", detour.Path.Weight, base.TargetWeight)
	}
	if len(detour.VisitedZones) != 1 || detour.VisitedZones[0] != 0 {
		t.Fatalf("visited zones = %v, want [0]", detour.VisitedZones)
	}
}

func TestWorkingGraphExcludesBaseline(t *testing.T) {
	g := testConstellation(t)
	_, base := testBuilder(t, g, 1.25)

	work := base.WorkingGraph(g)
	if work.HasNode(-1) {
		t.Fatal("working graph still contains the source")
	}
	if work.HasEdge(0, 4) || work.HasEdge(4, 5) {
		t.Fatal("working graph still contains excluded baseline edges")
	}
	// The final ground link stays usable for closing a detour.
	if !work.HasEdge(5, -2) {
		t.Fatal("working graph lost the target ground link")
	}
	if !g.HasNode(-1) || !g.HasEdge(0, 4) {
		t.Fatal("building the working graph mutated the canonical graph")
	}
}
