// Package depgraph derives the ordering constraints between patches.
//
// Edges come from two sources: prerequisites explicitly declared in vendor
// notes, and shared-target pairs where one patch has a strictly higher
// severity tier — the higher-tier patch deploys first. The resulting edge
// set must be a DAG; a cycle is a fatal error for the whole run.
package depgraph

import (
	"sort"

	"github.com/patchplan-ai/engine/patch"
	"github.com/patchplan-ai/engine/planerr"
	"github.com/patchplan-ai/engine/record"
)

// Edge is an ordering constraint: the patch identified by From must be
// deployed strictly before the patch identified by To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Build derives the dependency edge set for the given patches and fills
// each patch's PrerequisiteIDs in place. Notes supply the explicit
// prerequisite declarations, keyed by vulnerability ID.
//
// Returns a CyclicDependencyError naming every implicated patch when the
// derived edges contain a cycle.
func Build(patches []*patch.Patch, notes map[string]*record.VendorNote) ([]Edge, error) {
	byID := make(map[string]*patch.Patch, len(patches))
	for _, p := range patches {
		byID[p.RecordID] = p
	}

	edgeSet := make(map[Edge]struct{})

	// Explicit prerequisite declarations.
	for _, p := range patches {
		note := notes[p.RecordID]
		if note == nil {
			continue
		}
		for _, prereq := range note.PrerequisiteIDs {
			if prereq == p.RecordID {
				continue
			}
			if _, ok := byID[prereq]; !ok {
				return nil, planerr.New("depgraph", planerr.ErrCodeIngestion,
					"declared prerequisite references an unknown patch", p.RecordID, prereq)
			}
			edgeSet[Edge{From: prereq, To: p.RecordID}] = struct{}{}
		}
	}

	// Shared-target ordering: when two patches touch the same target and
	// their tiers differ, the higher-tier patch is the prerequisite. An
	// explicit declaration in the opposite direction wins; the conflict
	// then surfaces as a cycle below.
	targets := make(map[string][]*patch.Patch)
	for _, p := range patches {
		for _, t := range p.Targets {
			targets[t] = append(targets[t], p)
		}
	}
	for _, group := range targets {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				switch cmp := patch.CompareTiers(a.Tier, b.Tier); {
				case cmp > 0:
					addDerived(edgeSet, a.RecordID, b.RecordID)
				case cmp < 0:
					addDerived(edgeSet, b.RecordID, a.RecordID)
				}
			}
		}
	}

	edges := make([]Edge, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	if cyclic := detectCycle(patches, edges); len(cyclic) > 0 {
		return nil, planerr.New("depgraph", planerr.ErrCodeCyclicDependency,
			"prerequisite cycle detected", cyclic...)
	}

	for _, p := range patches {
		p.PrerequisiteIDs = nil
	}
	for _, e := range edges {
		to := byID[e.To]
		to.PrerequisiteIDs = append(to.PrerequisiteIDs, e.From)
	}

	return edges, nil
}

// addDerived records a tier-derived edge unless the reverse edge was
// explicitly declared, in which case the declaration stands alone and any
// genuine conflict shows up during cycle detection.
func addDerived(edgeSet map[Edge]struct{}, from, to string) {
	if _, declared := edgeSet[Edge{From: to, To: from}]; declared {
		return
	}
	edgeSet[Edge{From: from, To: to}] = struct{}{}
}

// detectCycle runs a Kahn elimination pass and returns the sorted IDs of
// every patch left on a cycle, or nil when the edges form a DAG.
func detectCycle(patches []*patch.Patch, edges []Edge) []string {
	indegree := make(map[string]int, len(patches))
	successors := make(map[string][]string)
	for _, p := range patches {
		indegree[p.RecordID] = 0
	}
	for _, e := range edges {
		indegree[e.To]++
		successors[e.From] = append(successors[e.From], e.To)
	}

	queue := make([]string, 0, len(patches))
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	removed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		removed++
		for _, next := range successors[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if removed == len(patches) {
		return nil
	}

	var cyclic []string
	for id, deg := range indegree {
		if deg > 0 {
			cyclic = append(cyclic, id)
		}
	}
	sort.Strings(cyclic)
	return cyclic
}
