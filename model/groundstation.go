package model

// GroundStation describes a fixed terrestrial endpoint with its projected
// coordinates. The coordinates are only consumed by rendering; routing never
// uses them.
type GroundStation struct {
	ID   NodeID  `toml:"id"`
	Name string  `toml:"name"`
	X    float64 `toml:"x"`
	Y    float64 `toml:"y"`
}
