// Package schedule assigns deployment slots to patches.
//
// The scheduler runs a priority-ordered topological pass: among patches
// whose prerequisites are all scheduled, the highest risk score goes first
// (ties broken by ascending patch ID), and each patch takes the earliest
// slot that is later than every prerequisite's slot and simultaneously
// free on all of its targets. A target hosts at most one in-progress patch
// per slot.
//
// Slots are ordinal sequence numbers, not wall-clock times; a collaborator
// translates ordinals to timestamps. The pass is a greedy list-scheduling
// heuristic: it validates the ordering goals rather than searching for a
// true minimum-makespan schedule, which is NP-hard under these constraints.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/patchplan-ai/engine/depgraph"
	"github.com/patchplan-ai/engine/patch"
	"github.com/patchplan-ai/engine/planerr"
)

// Interval is an inclusive range of busy slot ordinals on a target.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Availability declares when a target can host deployments. Targets with
// no declaration are free at every ordinal.
type Availability struct {
	// BusyIntervals lists ordinal ranges during which the target cannot
	// host a deployment.
	BusyIntervals []Interval `json:"busy_intervals,omitempty"`

	// Unavailable marks a target that never frees up. Every patch
	// requiring it is unschedulable.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Result is the outcome of a scheduling pass. Scheduling tolerates
// unschedulable patches: they are reported, never silently dropped, and
// independent patches still receive slots.
type Result struct {
	// Scheduled lists the patches that received a slot, in assignment
	// order.
	Scheduled []*patch.Patch

	// Unscheduled lists the patches that could not be placed, sorted by
	// patch ID.
	Unscheduled []*patch.Patch

	// Errors carries one UnschedulablePatchError per unscheduled patch,
	// naming the patch and its blocking targets or prerequisites.
	Errors []*planerr.Error
}

// Schedule assigns a deployment slot to every patch it can place,
// respecting dependency edges and per-target availability. Slot ordinals
// start at 1.
//
// The slot-assignment decisions are inherently sequential: each one
// depends on the shared target timelines built up by the previous ones,
// so the pass runs single-threaded.
func Schedule(patches []*patch.Patch, edges []depgraph.Edge, availability map[string]Availability) (*Result, error) {
	for target, avail := range availability {
		for _, iv := range avail.BusyIntervals {
			if iv.Start < 1 || iv.End < iv.Start {
				return nil, fmt.Errorf("invalid busy interval [%d, %d] for target %s", iv.Start, iv.End, target)
			}
		}
	}

	byID := make(map[string]*patch.Patch, len(patches))
	for _, p := range patches {
		p.Slot = nil
		byID[p.RecordID] = p
	}

	pending := make(map[string]int, len(patches))
	successors := make(map[string][]string)
	for _, p := range patches {
		pending[p.RecordID] = 0
	}
	for _, e := range edges {
		pending[e.To]++
		successors[e.From] = append(successors[e.From], e.To)
	}

	timelines := newTimelines(availability)
	res := &Result{}
	blocked := make(map[string]string) // patch ID -> unscheduled prerequisite ID

	ready := readySet(patches, pending)
	for len(ready) > 0 {
		p := ready[0]
		ready = ready[1:]

		if prereq, ok := blocked[p.RecordID]; ok {
			res.fail(p, planerr.New("schedule", planerr.ErrCodeUnschedulablePatch,
				"prerequisite could not be scheduled", p.RecordID, prereq))
			ready = release(ready, p, byID, pending, successors, blocked, p.RecordID)
			continue
		}

		if dead := timelines.deadTargets(p.Targets); len(dead) > 0 {
			res.fail(p, planerr.New("schedule", planerr.ErrCodeUnschedulablePatch,
				fmt.Sprintf("target permanently unavailable: %s", strings.Join(dead, ", ")), p.RecordID).
				WithDetails(map[string]any{"blocking_targets": dead}))
			ready = release(ready, p, byID, pending, successors, blocked, p.RecordID)
			continue
		}

		slot := timelines.earliestFree(p.Targets, minSlotAfter(p, byID))
		p.Slot = &slot
		timelines.occupy(p.Targets, slot)
		res.Scheduled = append(res.Scheduled, p)

		ready = release(ready, p, byID, pending, successors, blocked, "")
	}

	sort.Slice(res.Unscheduled, func(i, j int) bool {
		return res.Unscheduled[i].RecordID < res.Unscheduled[j].RecordID
	})
	return res, nil
}

func (r *Result) fail(p *patch.Patch, err *planerr.Error) {
	r.Unscheduled = append(r.Unscheduled, p)
	r.Errors = append(r.Errors, err)
}

// release decrements the pending count of p's successors, propagating a
// blocking prerequisite when p itself failed, and merges the newly ready
// patches into the priority-ordered ready list.
func release(ready []*patch.Patch, p *patch.Patch, byID map[string]*patch.Patch,
	pending map[string]int, successors map[string][]string,
	blocked map[string]string, failedPrereq string) []*patch.Patch {

	for _, next := range successors[p.RecordID] {
		if failedPrereq != "" {
			if _, already := blocked[next]; !already {
				blocked[next] = failedPrereq
			}
		}
		pending[next]--
		if pending[next] == 0 {
			ready = append(ready, byID[next])
		}
	}
	sortReady(ready)
	return ready
}

// readySet returns the patches with no prerequisites, priority-ordered.
func readySet(patches []*patch.Patch, pending map[string]int) []*patch.Patch {
	var ready []*patch.Patch
	for _, p := range patches {
		if pending[p.RecordID] == 0 {
			ready = append(ready, p)
		}
	}
	sortReady(ready)
	return ready
}

// sortReady orders the ready set by descending risk score, then ascending
// patch ID, for full determinism.
func sortReady(ready []*patch.Patch) {
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].RiskScore != ready[j].RiskScore {
			return ready[i].RiskScore > ready[j].RiskScore
		}
		return ready[i].RecordID < ready[j].RecordID
	})
}

// minSlotAfter returns the earliest ordinal a patch may take given its
// prerequisites' assigned slots.
func minSlotAfter(p *patch.Patch, byID map[string]*patch.Patch) int {
	min := 1
	for _, prereq := range p.PrerequisiteIDs {
		if pre, ok := byID[prereq]; ok && pre.Slot != nil && *pre.Slot >= min {
			min = *pre.Slot + 1
		}
	}
	return min
}

// timelines tracks per-target slot usage: declared busy intervals plus
// slots already assigned during this pass.
type timelines struct {
	availability map[string]Availability
	used         map[string]map[int]bool
}

func newTimelines(availability map[string]Availability) *timelines {
	return &timelines{
		availability: availability,
		used:         make(map[string]map[int]bool),
	}
}

// deadTargets returns the sorted subset of targets declared permanently
// unavailable.
func (t *timelines) deadTargets(targets []string) []string {
	var dead []string
	for _, target := range targets {
		if t.availability[target].Unavailable {
			dead = append(dead, target)
		}
	}
	sort.Strings(dead)
	return dead
}

// earliestFree returns the first ordinal >= from that is free on every
// target. Busy intervals are finite, so the scan always terminates.
func (t *timelines) earliestFree(targets []string, from int) int {
	for slot := from; ; slot++ {
		if t.freeAt(targets, slot) {
			return slot
		}
	}
}

func (t *timelines) freeAt(targets []string, slot int) bool {
	for _, target := range targets {
		if t.used[target][slot] {
			return false
		}
		for _, iv := range t.availability[target].BusyIntervals {
			if slot >= iv.Start && slot <= iv.End {
				return false
			}
		}
	}
	return true
}

func (t *timelines) occupy(targets []string, slot int) {
	for _, target := range targets {
		if t.used[target] == nil {
			t.used[target] = make(map[int]bool)
		}
		t.used[target][slot] = true
	}
}
