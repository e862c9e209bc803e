package core

import (
	"fmt"

	"github.com/signalsfoundry/satrouting/model"
)

// SatellitePosition projects a satellite id onto the flattened constellation
// grid. The in-plane index is folded across the plane seam so that
// neighbouring satellites get neighbouring x coordinates, and y descends one
// unit per orbital plane.
func SatellitePosition(id model.NodeID, satsPerPlane int) model.Position {
	plane := int(id) / satsPerPlane
	idx := satsPerPlane - int(id)%satsPerPlane
	half := satsPerPlane / 2

	var x int
	if idx >= half {
		x = idx - half
	} else {
		x = idx + half
	}
	return model.Position{X: float64(x), Y: float64(-plane)}
}

// PositionModel maps every node of a snapshot to its projected coordinate.
// Satellite positions are a pure function of the node id and the
// satellites-per-plane count; ground stations take their configured
// coordinates. The model is computed once per analysis run and never
// mutated afterwards.
type PositionModel struct {
	satsPerPlane int
	positions    map[model.NodeID]model.Position
}

// NewPositionModel computes positions for all nodes of g. Every ground
// station present in the graph must have configured coordinates.
func NewPositionModel(g *Graph, satsPerPlane int, grounds []model.GroundStation) (*PositionModel, error) {
	if satsPerPlane <= 0 {
		return nil, fmt.Errorf("%w: satellites per plane must be positive, got %d", ErrBadConfig, satsPerPlane)
	}

	groundPos := make(map[model.NodeID]model.Position, len(grounds))
	for _, gs := range grounds {
		groundPos[gs.ID] = model.Position{X: gs.X, Y: gs.Y}
	}

	m := &PositionModel{
		satsPerPlane: satsPerPlane,
		positions:    make(map[model.NodeID]model.Position, g.NodeCount()),
	}
	for _, id := range g.Nodes() {
		if id.IsGroundStation() {
			pos, ok := groundPos[id]
			if !ok {
				return nil, fmt.Errorf("%w: ground station %d has no configured position", ErrBadConfig, id)
			}
			m.positions[id] = pos
			continue
		}
		m.positions[id] = SatellitePosition(id, satsPerPlane)
	}
	return m, nil
}

// Position returns the projected coordinate of id.
func (m *PositionModel) Position(id model.NodeID) (model.Position, bool) {
	pos, ok := m.positions[id]
	return pos, ok
}

// Plane returns the orbital plane index of a satellite id.
func (m *PositionModel) Plane(id model.NodeID) int { return id.Plane(m.satsPerPlane) }

// SatsPerPlane returns the configured plane size.
func (m *PositionModel) SatsPerPlane() int { return m.satsPerPlane }
