package model

// Path is an ordered, non-repeating sequence of node ids together with the
// summed weight of its consecutive edges.
type Path struct {
	Nodes  []NodeID
	Weight float64
}

// Len returns the number of nodes on the path.
func (p Path) Len() int { return len(p.Nodes) }

// Contains reports whether the node appears anywhere on the path.
func (p Path) Contains(n NodeID) bool {
	for _, id := range p.Nodes {
		if id == n {
			return true
		}
	}
	return false
}

// IsSimple reports whether no node appears twice on the path.
func (p Path) IsSimple() bool {
	seen := make(map[NodeID]struct{}, len(p.Nodes))
	for _, id := range p.Nodes {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

// Clone returns an independent copy of the path.
func (p Path) Clone() Path {
	nodes := make([]NodeID, len(p.Nodes))
	copy(nodes, p.Nodes)
	return Path{Nodes: nodes, Weight: p.Weight}
}
