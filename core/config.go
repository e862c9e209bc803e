package core

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/signalsfoundry/satrouting/model"
)

// DefaultTargetFactor is the detour weight multiplier applied when the
// configuration leaves target_factor unset.
const DefaultTargetFactor = 1.25

// Config describes one analysis scenario: the constellation shape, the
// endpoints, the spare-capacity zones, and an optional viewport window.
type Config struct {
	SatsPerPlane int     `toml:"sats_per_plane"`
	TargetFactor float64 `toml:"target_factor"`

	Source model.NodeID `toml:"source"`
	Target model.NodeID `toml:"target"`

	GroundStations []model.GroundStation `toml:"ground_stations"`
	Zones          []model.Zone          `toml:"zones"`

	Window *Window `toml:"window"`
}

// Window restricts rendering and windowed runs to a rectangle of the
// projected plane. Ground stations are always retained.
type Window struct {
	XMin float64 `toml:"x_min"`
	XMax float64 `toml:"x_max"`
	YMin float64 `toml:"y_min"`
	YMax float64 `toml:"y_max"`
}

// LoadConfig reads a scenario description from a TOML file and applies
// defaults. The result is not yet validated against any snapshot.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TargetFactor == 0 {
		c.TargetFactor = DefaultTargetFactor
	}
	if c.Source == 0 && c.Target == 0 && len(c.GroundStations) >= 2 {
		c.Source = c.GroundStations[0].ID
		c.Target = c.GroundStations[1].ID
	}
}

// Validate checks the scenario for internal consistency. Zone membership
// and position coverage are checked later, against the loaded snapshot.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: configuration is nil", ErrBadConfig)
	}
	if c.SatsPerPlane <= 0 {
		return fmt.Errorf("%w: sats_per_plane must be positive, got %d", ErrBadConfig, c.SatsPerPlane)
	}
	if c.TargetFactor <= 1 {
		return fmt.Errorf("%w: target_factor must exceed 1, got %v", ErrBadConfig, c.TargetFactor)
	}
	if len(c.GroundStations) < 2 {
		return fmt.Errorf("%w: at least two ground stations required", ErrBadConfig)
	}
	seen := make(map[model.NodeID]struct{}, len(c.GroundStations))
	for _, gs := range c.GroundStations {
		if !gs.ID.IsGroundStation() {
			return fmt.Errorf("%w: ground station %q must have a negative id, got %d", ErrBadConfig, gs.Name, gs.ID)
		}
		if _, dup := seen[gs.ID]; dup {
			return fmt.Errorf("%w: duplicate ground station id %d", ErrBadConfig, gs.ID)
		}
		seen[gs.ID] = struct{}{}
	}
	if len(c.Zones) == 0 {
		return fmt.Errorf("%w: at least one zone required", ErrBadConfig)
	}
	for _, ep := range []model.NodeID{c.Source, c.Target} {
		if !ep.IsGroundStation() {
			return fmt.Errorf("%w: endpoint %d is not a ground station", ErrBadConfig, ep)
		}
		if _, ok := seen[ep]; !ok {
			return fmt.Errorf("%w: endpoint %d has no ground station entry", ErrBadConfig, ep)
		}
	}
	if c.Source == c.Target {
		return fmt.Errorf("%w: source and target are both %d", ErrBadConfig, c.Source)
	}
	if w := c.Window; w != nil {
		if w.XMin >= w.XMax || w.YMin >= w.YMax {
			return fmt.Errorf("%w: window must have positive extent", ErrBadConfig)
		}
	}
	return nil
}

// Endpoints returns the configured source and target pair.
func (c *Config) Endpoints() (source, target model.NodeID) {
	return c.Source, c.Target
}

// ApplyWindow returns a copy of g restricted to satellites whose projected
// position falls inside w. Ground stations survive regardless of position
// so that endpoint connectivity is preserved in windowed views.
func ApplyWindow(g *Graph, pm *PositionModel, w *Window) *Graph {
	if w == nil {
		return g.Clone()
	}
	out := g.Clone()
	for _, id := range g.Nodes() {
		if id.IsGroundStation() {
			continue
		}
		pos, ok := pm.Position(id)
		if !ok {
			out.RemoveNode(id)
			continue
		}
		if pos.X < w.XMin || pos.X > w.XMax || pos.Y < w.YMin || pos.Y > w.YMax {
			out.RemoveNode(id)
		}
	}
	return out
}
