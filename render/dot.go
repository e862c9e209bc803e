// Package render turns a routing analysis into Graphviz output. Node
// placement comes from the projected constellation positions, so the
// rendered picture matches the plane/index layout the search operates on.
package render

import (
	"fmt"
	"strings"

	"github.com/signalsfoundry/satrouting/core"
	"github.com/signalsfoundry/satrouting/model"
)

// Options selects which analysis artifacts to highlight in the drawing.
// Nil paths are simply not drawn.
type Options struct {
	Baseline *model.Path
	Detour   *model.Path
	Scale    float64 // point spacing per graph unit; defaults to 1
}

const (
	colorBaseline   = "red"
	colorDetour     = "blue"
	colorZoneMember = "lightgoldenrod1"
	colorGround     = "lightskyblue"
)

// ToDOT renders the graph as a DOT document with pinned node positions.
// Satellites in a spare-capacity zone are filled, ground stations are boxed,
// and the baseline and detour paths are drawn as colored overlay edges.
func ToDOT(g *core.Graph, pm *core.PositionModel, zones *core.ZoneLocator, opts Options) (string, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	var b strings.Builder
	b.WriteString("graph constellation {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  overlap=true;\n")
	b.WriteString("  splines=line;\n")
	b.WriteString("  node [shape=circle, fontsize=10, width=0.3, fixedsize=true];\n")

	for _, id := range g.Nodes() {
		pos, ok := pm.Position(id)
		if !ok {
			return "", fmt.Errorf("node %d has no position", id)
		}
		attrs := []string{
			fmt.Sprintf("pos=%q", fmt.Sprintf("%g,%g!", pos.X*scale, pos.Y*scale)),
		}
		switch {
		case id.IsGroundStation():
			attrs = append(attrs,
				"shape=box",
				"style=filled",
				fmt.Sprintf("fillcolor=%q", colorGround),
			)
		case zones != nil && inAnyZone(zones, id):
			attrs = append(attrs,
				"style=filled",
				fmt.Sprintf("fillcolor=%q", colorZoneMember),
			)
		}
		fmt.Fprintf(&b, "  %q [%s];\n", nodeName(id), strings.Join(attrs, ", "))
	}

	if zones != nil {
		writeZoneBoxes(&b, zones, scale)
	}

	baseline := pathEdges(opts.Baseline)
	detour := pathEdges(opts.Detour)
	for _, e := range g.Edges() {
		key := core.EdgeKey{U: e.U, V: e.V}
		attrs := []string{"color=gray70"}
		switch {
		case detour[key]:
			attrs = []string{fmt.Sprintf("color=%q", colorDetour), "penwidth=2.5"}
		case baseline[key]:
			attrs = []string{fmt.Sprintf("color=%q", colorBaseline), "penwidth=2.5"}
		}
		fmt.Fprintf(&b, "  %q -- %q [%s];\n", nodeName(e.U), nodeName(e.V), strings.Join(attrs, ", "))
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// writeZoneBoxes overlays a dashed rectangle per zone. Node positions are in
// points while box width and height are in inches, hence the division by 72.
// A zone that wraps around the seam has no single rectangle and is shown by
// its member fills alone.
func writeZoneBoxes(b *strings.Builder, zones *core.ZoneLocator, scale float64) {
	const pad = 0.5
	for i := 0; i < zones.ZoneCount(); i++ {
		left, right, minY, maxY, wraps := zones.Bounds(i)
		if wraps {
			continue
		}
		cx := (left + right) / 2 * scale
		cy := (minY + maxY) / 2 * scale
		w := (right - left + 2*pad) * scale / 72
		h := (maxY - minY + 2*pad) * scale / 72
		fmt.Fprintf(b, "  \"zone%d\" [pos=%q, shape=box, label=\"\", style=dashed, color=\"orange\", width=%g, height=%g, fixedsize=true];\n",
			i, fmt.Sprintf("%g,%g!", cx, cy), w, h)
	}
}

func nodeName(id model.NodeID) string {
	return fmt.Sprintf("%d", int(id))
}

// pathEdges normalizes a path's consecutive pairs to U < V so lookups match
// the graph's canonical edge orientation.
func pathEdges(p *model.Path) map[core.EdgeKey]bool {
	edges := make(map[core.EdgeKey]bool)
	if p == nil {
		return edges
	}
	for i := 0; i+1 < p.Len(); i++ {
		u, v := p.Nodes[i], p.Nodes[i+1]
		if v < u {
			u, v = v, u
		}
		edges[core.EdgeKey{U: u, V: v}] = true
	}
	return edges
}

func inAnyZone(zones *core.ZoneLocator, id model.NodeID) bool {
	for i := 0; i < zones.ZoneCount(); i++ {
		if zones.Contains(i, id) {
			return true
		}
	}
	return false
}
