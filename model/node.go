package model

// NodeID identifies a node in a topology snapshot. Non-negative IDs are
// satellites, addressed by plane = id / P for a configured satellites-per-plane
// count P. Negative IDs are ground stations.
type NodeID int

// IsGroundStation reports whether the id denotes a fixed terrestrial endpoint.
func (n NodeID) IsGroundStation() bool { return n < 0 }

// Plane returns the orbital plane index of a satellite id.
// The result is meaningless for ground stations.
func (n NodeID) Plane(satsPerPlane int) int { return int(n) / satsPerPlane }

// Position is a projected 2-D coordinate in the flattened constellation grid.
type Position struct {
	X float64
	Y float64
}
