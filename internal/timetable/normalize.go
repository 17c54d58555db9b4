// Package timetable canonicalizes raw schedule occurrences: composite-key
// deduplication, stable ordering, minute-of-day arithmetic and date
// resolution from (semester start, week, day-of-week) triples.
//
// Everything here is a pure function over value objects; nothing is mutated
// except where documented (Sort).
package timetable

import (
	"sort"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
)

// Dedupe collapses occurrences sharing a composite key down to a single
// representative. When duplicates disagree, a non-skipped variant wins over
// a skipped one, and a conflict-flagged variant wins over an unflagged one.
// Output order is unspecified; callers sort next.
func Dedupe(occs []model.ScheduleOccurrence) []model.ScheduleOccurrence {
	byKey := make(map[model.OccurrenceKey]model.ScheduleOccurrence, len(occs))
	keys := make([]model.OccurrenceKey, 0, len(occs))

	for _, occ := range occs {
		k := occ.Key()
		if prev, ok := byKey[k]; ok {
			byKey[k] = prefer(prev, occ)
			continue
		}
		byKey[k] = occ
		keys = append(keys, k)
	}

	out := make([]model.ScheduleOccurrence, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// prefer picks the representative among two occurrences with the same key.
func prefer(a, b model.ScheduleOccurrence) model.ScheduleOccurrence {
	if a.Skip != b.Skip {
		if !a.Skip {
			return a
		}
		return b
	}
	if a.IsConflict != b.IsConflict {
		if a.IsConflict {
			return a
		}
		return b
	}
	// Fully tied on precedence: first seen wins.
	return a
}

// Sort orders occs in place by (week, dayOfWeek, start minute, end minute).
// The sort is stable so occurrences tied on all four keys keep their
// incoming order.
func Sort(occs []model.ScheduleOccurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		as, bs := ToMinutes(a.StartTime), ToMinutes(b.StartTime)
		if as != bs {
			return as < bs
		}
		return ToMinutes(a.EndTime) < ToMinutes(b.EndTime)
	})
}
