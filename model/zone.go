package model

// Zone defines a spare-capacity region as an axis-aligned rectangle of the
// projected topology, named by the node ids sitting at its four corners.
// The x band may wrap around the plane seam, in which case the left corner's
// x exceeds the right corner's x.
type Zone struct {
	TopLeft     NodeID `toml:"top_left"`
	TopRight    NodeID `toml:"top_right"`
	BottomLeft  NodeID `toml:"bottom_left"`
	BottomRight NodeID `toml:"bottom_right"`
}

// Corners returns the corner ids in top-left, top-right, bottom-left,
// bottom-right order.
func (z Zone) Corners() [4]NodeID {
	return [4]NodeID{z.TopLeft, z.TopRight, z.BottomLeft, z.BottomRight}
}
