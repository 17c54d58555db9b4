// Package export orchestrates schedule exports: fetch raw occurrences,
// normalize, apply the skip-rendering mode, build the week model and
// dispatch to the matching render backend. The ICS path bypasses the view
// model entirely.
package export

import (
	"context"
	"fmt"

	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/ics"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/layout"
	appLog "github.com/jinyuanZhou-Leo/Semestra-sub001/internal/log"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/model"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/render/pdf"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/render/raster"
	"github.com/jinyuanZhou-Leo/Semestra-sub001/internal/timetable"
)

// Format selects the output artifact.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatICS Format = "ics"
)

// Scope selects whose occurrences are exported.
type Scope string

const (
	ScopeSemester Scope = "semester"
	ScopeCourse   Scope = "course"
)

// RangeKind selects which weeks feed the export.
type RangeKind string

const (
	RangeWeek  RangeKind = "week"
	RangeWeeks RangeKind = "weeks"
	RangeTerm  RangeKind = "term"
)

// SkipRenderMode controls how skipped occurrences appear.
type SkipRenderMode string

const (
	// GraySkipped keeps skipped items, flagged for desaturated rendering.
	GraySkipped SkipRenderMode = "GRAY_SKIPPED"
	// HideSkipped removes skipped items before layout.
	HideSkipped SkipRenderMode = "HIDE_SKIPPED"
)

// Request describes one export.
type Request struct {
	Format  Format
	Scope   Scope
	ScopeID string

	Range     RangeKind
	Week      int
	StartWeek int
	EndWeek   int

	SkipRenderMode SkipRenderMode
}

// Result is a finished export artifact.
type Result struct {
	Filename    string
	ContentType string
	Blob        []byte
	ItemCount   int
}

// Source is the schedule-service surface the exporter needs. *schedule.Client
// satisfies it; tests substitute fakes.
type Source interface {
	Semester(ctx context.Context, semesterID string) (model.SemesterDescriptor, error)
	SemesterOccurrences(ctx context.Context, semesterID string) ([]model.ScheduleOccurrence, error)
	CourseOccurrences(ctx context.Context, courseID string) ([]model.ScheduleOccurrence, error)
}

// Exporter wires the pipeline together. Renderers are pure and reused
// across requests.
type Exporter struct {
	source     Source
	semesterID string
	dayStart   int
	dayEnd     int

	png *raster.Renderer
	pdf *pdf.Renderer
}

// New creates an Exporter. semesterID is the semester whose descriptor
// anchors date resolution, also for course-scoped exports. dayStart/dayEnd
// bound the visible day window in minutes.
func New(source Source, semesterID string, dayStart, dayEnd int) *Exporter {
	return &Exporter{
		source:     source,
		semesterID: semesterID,
		dayStart:   dayStart,
		dayEnd:     dayEnd,
		png:        raster.New(),
		pdf:        pdf.New(),
	}
}

// Export runs one export request to completion. Once a renderer starts it
// runs to the end; callers abandoning a stale export discard the Result.
func (e *Exporter) Export(ctx context.Context, req Request) (Result, error) {
	occs, err := e.fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("export: fetch occurrences: %w", err)
	}

	occs = timetable.Dedupe(occs)
	timetable.Sort(occs)
	occs = filterWeeks(occs, req)

	desc, err := e.source.Semester(ctx, e.semesterID)
	if err != nil {
		return Result{}, fmt.Errorf("export: fetch semester: %w", err)
	}
	maxWeek := desc.MaxWeek
	if maxWeek < 1 {
		maxWeek = maxWeekOf(occs)
	}
	semesterStart, _ := timetable.ResolveSemesterDateRange(desc.StartDate, desc.EndDate, maxWeek)

	filename := fmt.Sprintf("%s-%s.%s", req.Scope, req.ScopeID, req.Format)

	if req.Format == FormatICS {
		blob, err := ics.Build(occs, semesterStart)
		if err != nil {
			return Result{}, fmt.Errorf("export: build ics: %w", err)
		}
		return Result{
			Filename:    filename,
			ContentType: "text/calendar; charset=utf-8",
			Blob:        blob,
			ItemCount:   len(occs),
		}, nil
	}

	// A multi-week range collapses onto one weekly grid, so occurrences of
	// one definition landing on the same slot across weeks merge into a
	// single box instead of stacking lanes.
	occs = collapseWeekly(occs)

	if req.SkipRenderMode == HideSkipped {
		kept := occs[:0]
		for _, occ := range occs {
			if !occ.Skip {
				kept = append(kept, occ)
			}
		}
		occs = kept
	}

	events := timetable.Events(occs, semesterStart)
	layout.AssignColors(events)
	m := layout.BuildWeekCalendarModel(events, e.dayStart, e.dayEnd)

	title := exportTitle(req, desc, occs)

	var blob []byte
	var contentType string
	switch req.Format {
	case FormatPNG:
		blob, err = e.png.Render(m, title)
		contentType = "image/png"
	case FormatPDF:
		blob, err = e.pdf.Render(m, title)
		contentType = "application/pdf"
	default:
		return Result{}, fmt.Errorf("export: unsupported format %q", req.Format)
	}
	if err != nil {
		return Result{}, fmt.Errorf("export: render as %s: %w", req.Format, err)
	}

	appLog.Info("export completed",
		"format", string(req.Format),
		"scope", string(req.Scope),
		"scope_id", req.ScopeID,
		"items", len(events),
		"bytes", len(blob),
	)

	return Result{
		Filename:    filename,
		ContentType: contentType,
		Blob:        blob,
		ItemCount:   len(events),
	}, nil
}

func (e *Exporter) fetch(ctx context.Context, req Request) ([]model.ScheduleOccurrence, error) {
	switch req.Scope {
	case ScopeCourse:
		return e.source.CourseOccurrences(ctx, req.ScopeID)
	case ScopeSemester:
		return e.source.SemesterOccurrences(ctx, req.ScopeID)
	default:
		return nil, fmt.Errorf("unknown scope %q", req.Scope)
	}
}

// filterWeeks keeps only occurrences inside the requested week range. A
// reversed weeks range is swapped, never rejected.
func filterWeeks(occs []model.ScheduleOccurrence, req Request) []model.ScheduleOccurrence {
	var lo, hi int
	switch req.Range {
	case RangeWeek:
		lo, hi = req.Week, req.Week
	case RangeWeeks:
		lo, hi = req.StartWeek, req.EndWeek
		if hi < lo {
			lo, hi = hi, lo
		}
	default: // RangeTerm or unset
		return occs
	}
	if lo < 1 {
		lo = 1
	}
	out := occs[:0]
	for _, occ := range occs {
		if occ.Week >= lo && occ.Week <= hi {
			out = append(out, occ)
		}
	}
	return out
}

// collapseWeekly merges occurrences of one definition that land on the same
// weekly slot, using the same precedence as Dedupe (non-skipped over
// skipped, conflict over clean).
func collapseWeekly(occs []model.ScheduleOccurrence) []model.ScheduleOccurrence {
	type slot struct {
		eventID    string
		day        int
		start, end string
	}
	seen := make(map[slot]int, len(occs))
	out := make([]model.ScheduleOccurrence, 0, len(occs))
	for _, occ := range occs {
		k := slot{occ.EventID, occ.DayOfWeek, occ.StartTime, occ.EndTime}
		if i, ok := seen[k]; ok {
			out[i] = preferForRender(out[i], occ)
			continue
		}
		seen[k] = len(out)
		out = append(out, occ)
	}
	return out
}

func preferForRender(a, b model.ScheduleOccurrence) model.ScheduleOccurrence {
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
	return a
}

func maxWeekOf(occs []model.ScheduleOccurrence) int {
	max := 1
	for _, occ := range occs {
		if occ.Week > max {
			max = occ.Week
		}
	}
	return max
}

func exportTitle(req Request, desc model.SemesterDescriptor, occs []model.ScheduleOccurrence) string {
	subject := desc.Name
	if subject == "" {
		subject = "Semester " + firstNonEmpty(desc.ID, req.ScopeID)
	}
	if req.Scope == ScopeCourse {
		subject = "Course " + req.ScopeID
		for _, occ := range occs {
			if occ.CourseName != "" {
				subject = occ.CourseName
				break
			}
		}
	}
	switch req.Range {
	case RangeWeek:
		return fmt.Sprintf("%s · Week %d", subject, req.Week)
	case RangeWeeks:
		lo, hi := req.StartWeek, req.EndWeek
		if hi < lo {
			lo, hi = hi, lo
		}
		return fmt.Sprintf("%s · Weeks %d–%d", subject, lo, hi)
	default:
		return subject
	}
}

func firstNonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
