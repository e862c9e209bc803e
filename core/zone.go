package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/satrouting/model"
)

// zoneBounds is the resolved rectangle of one configured zone: a y band from
// the corner planes and an x band that may wrap around the plane seam.
type zoneBounds struct {
	left  float64
	right float64
	minY  float64
	maxY  float64
}

// wraps reports whether the x band crosses the plane seam.
func (b zoneBounds) wraps() bool { return b.left > b.right }

// contains tests a projected position against the bounds.
func (b zoneBounds) contains(p model.Position) bool {
	if p.Y < b.minY || p.Y > b.maxY {
		return false
	}
	if b.wraps() {
		return p.X >= b.left || p.X <= b.right
	}
	return p.X >= b.left && p.X <= b.right
}

// ZoneLocator holds the per-zone member sets derived from the projected
// positions. Membership is a pure function of positions and zone corners,
// so the locator is computed once per analysis run and shared read-only.
type ZoneLocator struct {
	zones   []model.Zone
	bounds  []zoneBounds
	members [][]model.NodeID
	inZone  []map[model.NodeID]struct{}
}

// LocateZones validates every zone's corners and computes its member set
// over the full node set of g. Ground stations are never members.
func LocateZones(g *Graph, pm *PositionModel, zones []model.Zone) (*ZoneLocator, error) {
	zl := &ZoneLocator{
		zones:   zones,
		bounds:  make([]zoneBounds, len(zones)),
		members: make([][]model.NodeID, len(zones)),
		inZone:  make([]map[model.NodeID]struct{}, len(zones)),
	}

	for i, z := range zones {
		b, err := resolveZone(pm, z)
		if err != nil {
			return nil, fmt.Errorf("zone %d: %w", i, err)
		}
		zl.bounds[i] = b
		zl.inZone[i] = make(map[model.NodeID]struct{})
	}

	for _, id := range g.Nodes() {
		if id.IsGroundStation() {
			continue
		}
		pos, ok := pm.Position(id)
		if !ok {
			continue
		}
		for i := range zl.bounds {
			if zl.bounds[i].contains(pos) {
				zl.members[i] = append(zl.members[i], id)
				zl.inZone[i][id] = struct{}{}
			}
		}
	}

	for i := range zl.members {
		sort.Slice(zl.members[i], func(a, b int) bool { return zl.members[i][a] < zl.members[i][b] })
	}
	return zl, nil
}

// resolveZone checks that the corners describe an axis-aligned rectangle and
// derives its bounds. Top corners must share a plane, bottom corners must
// share a plane, and both x spans must have the same wrap-aware width.
func resolveZone(pm *PositionModel, z model.Zone) (zoneBounds, error) {
	corners := z.Corners()
	pos := make([]model.Position, len(corners))
	for i, id := range corners {
		if id.IsGroundStation() {
			return zoneBounds{}, fmt.Errorf("%w: corner %d is a ground station", ErrBadZone, id)
		}
		p, ok := pm.Position(id)
		if !ok {
			return zoneBounds{}, fmt.Errorf("corner %d: %w", id, ErrNodeNotFound)
		}
		pos[i] = p
	}
	tl, tr, bl, br := pos[0], pos[1], pos[2], pos[3]

	if tl.Y != tr.Y {
		return zoneBounds{}, fmt.Errorf("%w: top corners %d and %d on different planes", ErrBadZone, z.TopLeft, z.TopRight)
	}
	if bl.Y != br.Y {
		return zoneBounds{}, fmt.Errorf("%w: bottom corners %d and %d on different planes", ErrBadZone, z.BottomLeft, z.BottomRight)
	}
	span := float64(pm.SatsPerPlane())
	if wrapWidth(tl.X, tr.X, span) != wrapWidth(bl.X, br.X, span) {
		return zoneBounds{}, fmt.Errorf("%w: top and bottom x spans differ", ErrBadZone)
	}

	return zoneBounds{
		left:  tl.X,
		right: tr.X,
		minY:  math.Min(tl.Y, bl.Y),
		maxY:  math.Max(tl.Y, bl.Y),
	}, nil
}

// wrapWidth measures the x distance from left to right moving rightwards,
// wrapping at the plane seam.
func wrapWidth(left, right, span float64) float64 {
	w := right - left
	if w < 0 {
		w += span
	}
	return w
}

// ZoneCount returns the number of configured zones.
func (zl *ZoneLocator) ZoneCount() int { return len(zl.zones) }

// Members returns the sorted member node ids of the zone.
func (zl *ZoneLocator) Members(zone int) []model.NodeID { return zl.members[zone] }

// Contains reports whether id is a member of the zone.
func (zl *ZoneLocator) Contains(zone int, id model.NodeID) bool {
	_, ok := zl.inZone[zone][id]
	return ok
}

// Bounds returns the resolved rectangle of the zone for rendering.
func (zl *ZoneLocator) Bounds(zone int) (left, right, minY, maxY float64, wraps bool) {
	b := zl.bounds[zone]
	return b.left, b.right, b.minY, b.maxY, b.wraps()
}
