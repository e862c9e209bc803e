package core

import "errors"

// Sentinel errors for the routing analysis. Only ErrNoBaselinePath is fatal
// to a whole run; zone- and trial-level failures are recoverable and callers
// skip the failing candidate or fall back to the baseline path.
var (
	// ErrNodeNotFound reports a lookup against a node id absent from the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound reports a lookup against an edge absent from the graph.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrNoPath means two nodes are disconnected in the queried graph.
	ErrNoPath = errors.New("no path")

	// ErrNoBaselinePath means the source and target ground stations are
	// disconnected. The analysis run cannot proceed.
	ErrNoBaselinePath = errors.New("no baseline path between source and target")

	// ErrNoZonePath means a zone has no member reachable from an anchor node.
	// The zone is skipped and the search continues.
	ErrNoZonePath = errors.New("no path into zone")

	// ErrNoDetourFound means no zone yielded a qualifying detour in either
	// search direction. Callers may fall back to reporting the baseline only.
	ErrNoDetourFound = errors.New("no qualifying detour found")

	// ErrInsertionExhausted means the refinement loop ran out of usable zone
	// nodes before reaching the target weight. The best-effort path is still
	// returned alongside this error.
	ErrInsertionExhausted = errors.New("refinement exhausted below target weight")

	// ErrBadZone reports zone corners that do not describe an axis-aligned
	// rectangle of the projected topology.
	ErrBadZone = errors.New("malformed zone corners")

	// ErrBadConfig reports an invalid analysis configuration.
	ErrBadConfig = errors.New("invalid configuration")
)
