package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/signalsfoundry/satrouting/model"
)

// Snapshot is a small summary of what was loaded from a topology dump.
// It's mainly useful for logging or debugging from main().
type Snapshot struct {
	Graph     *Graph
	NodeCount int
	LinkCount int
}

// Topology dumps are line oriented. Node headers declare a node id and
// link lines declare one undirected edge with its annotations:
//
//	Node 7 with links:
//	Link (7,8) (length 1, y value of the midpoint 0.0)
//	Link (7,-1) (length 1.4, y value of the midpoint -0.5)
var (
	nodeLineRE = regexp.MustCompile(`^Node\s+(-?\d+)\s+with links:`)
	linkLineRE = regexp.MustCompile(`^Link\s+\((-?\d+),\s*(-?\d+)\)\s+\(length\s+([0-9eE+\-.]+),\s*y value of the midpoint\s+(-?[0-9eE+\-.]+)\)`)
)

// LoadSnapshot parses a topology dump from r into a graph. Each link appears
// once per endpoint in the dump; the duplicate declarations must agree on
// length and midpoint or the load fails.
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	g := NewGraph()
	linkCount := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if m := nodeLineRE.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("snapshot line %d: bad node id %q: %w", lineNo, m[1], err)
			}
			g.AddNode(model.NodeID(id))
			continue
		}
		if m := linkLineRE.FindStringSubmatch(line); m != nil {
			u, errU := strconv.Atoi(m[1])
			v, errV := strconv.Atoi(m[2])
			length, errL := strconv.ParseFloat(m[3], 64)
			midY, errM := strconv.ParseFloat(m[4], 64)
			if errU != nil || errV != nil || errL != nil || errM != nil {
				return nil, fmt.Errorf("snapshot line %d: malformed link %q", lineNo, line)
			}
			a, b := model.NodeID(u), model.NodeID(v)
			if existing, err := g.EdgeLength(a, b); err == nil {
				// Second declaration of the same undirected link.
				if existing != length {
					return nil, fmt.Errorf("snapshot line %d: link (%d,%d) redeclared with length %v, had %v",
						lineNo, u, v, length, existing)
				}
				continue
			}
			if err := g.AddEdge(a, b, length, midY); err != nil {
				return nil, fmt.Errorf("snapshot line %d: %w", lineNo, err)
			}
			linkCount++
			continue
		}
		return nil, fmt.Errorf("snapshot line %d: unrecognized line %q", lineNo, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if g.NodeCount() == 0 {
		return nil, fmt.Errorf("snapshot contains no nodes")
	}

	return &Snapshot{Graph: g, NodeCount: g.NodeCount(), LinkCount: linkCount}, nil
}

// LoadSnapshotFile opens path and parses it with LoadSnapshot.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()
	return LoadSnapshot(f)
}
