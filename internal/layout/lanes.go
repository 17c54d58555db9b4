// Package layout turns normalized calendar events into a positioned week
// model and a backend-neutral display frame shared by the PNG and PDF
// renderers, so both backends stay visually consistent by construction.
package layout

import (
	"sort"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// activeInterval is an item still able to overlap later items in the sweep.
type activeInterval struct {
	endMinute int
	lane      int
}

// packLanes assigns a horizontal lane to every event of one day so that no
// two overlapping [start, end) intervals share a lane, using the minimum
// number of lanes per overlap cluster.
//
// The sweep processes items in (start, end) order, evicting active
// intervals that ended at or before the current start. Assigning the
// smallest free lane is optimal for interval-graph coloring when intervals
// arrive in start order. A maximal run of transitively overlapping items
// forms a cluster; when the active set drains, the cluster closes and every
// item in it receives laneCount = max lane used + 1.
func packLanes(items []model.CalendarEvent) []model.PositionedItem {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]model.CalendarEvent, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartMinute != sorted[j].StartMinute {
			return sorted[i].StartMinute < sorted[j].StartMinute
		}
		return sorted[i].EndMinute < sorted[j].EndMinute
	})

	out := make([]model.PositionedItem, 0, len(sorted))

	var active []activeInterval
	clusterFirst := 0 // index into out of the open cluster's first item
	clusterMaxLane := 0

	closeCluster := func(upto int) {
		laneCount := clusterMaxLane + 1
		for i := clusterFirst; i < upto; i++ {
			out[i].LaneCount = laneCount
		}
	}

	for _, ev := range sorted {
		// Evict intervals that can no longer overlap anything later.
		kept := active[:0]
		for _, a := range active {
			if a.endMinute > ev.StartMinute {
				kept = append(kept, a)
			}
		}
		active = kept

		// A drained active set means a gap spans here: the current
		// cluster is maximal and closes before this item opens a new one.
		if len(active) == 0 && len(out) > clusterFirst {
			closeCluster(len(out))
			clusterFirst = len(out)
			clusterMaxLane = 0
		}

		lane := smallestFreeLane(active)
		if lane > clusterMaxLane {
			clusterMaxLane = lane
		}
		active = append(active, activeInterval{endMinute: ev.EndMinute, lane: lane})
		out = append(out, model.PositionedItem{CalendarEvent: ev, Lane: lane})
	}
	closeCluster(len(out))

	return out
}

// smallestFreeLane returns the minimum lane index unused by active.
func smallestFreeLane(active []activeInterval) int {
	used := make(map[int]bool, len(active))
	for _, a := range active {
		used[a.lane] = true
	}
	for lane := 0; ; lane++ {
		if !used[lane] {
			return lane
		}
	}
}
