// Package calendar computes the decorations the booking picker draws on its
// day cells: preparation-buffer highlighting around the hovered day and the
// per-item occupancy marks.
package calendar

import (
	"fmt"
	"slices"
	"time"

	"opacbookings/pkg/daterange"
	"opacbookings/pkg/model"
)

const (
	ClassLeadRangeStart  = "leadRangeStart"
	ClassLeadRange       = "leadRange"
	ClassLeadRangeEnd    = "leadRangeEnd"
	ClassTrailRangeStart = "trailRangeStart"
	ClassTrailRange      = "trailRange"
	ClassTrailRangeEnd   = "trailRangeEnd"
	ClassLeadDisable     = "leadDisable"
	ClassTrailDisable    = "trailDisable"
	ClassDisabled        = "flatpickr-disabled"

	GridSize = 42
)

// Input is one hover event over the visible grid.
type Input struct {
	Visible       []daterange.Day
	Hover         daterange.Day
	SelectedStart *daterange.Day
	Window        model.PreparationWindow
	Disabled      func(daterange.Day) bool
	// Blocking decides which cells break a buffer. Nil means Disabled.
	Blocking      func(daterange.Day) bool
}

// Cell is the state of one visible day after a hover pass.
type Cell struct {
	Day      daterange.Day `json:"day"`
	Classes  []string      `json:"classes,omitempty"`
	Disabled bool          `json:"disabled"`
}

// Annotation is the result of a hover pass. LeadDisable and TrailDisable
// belong to the hovered cell; ClickSuppressed tells the picker to ignore a
// click on it.
type Annotation struct {
	Hover           daterange.Day   `json:"hover"`
	Lead            daterange.Range `json:"lead"`
	Trail           daterange.Range `json:"trail"`
	LeadDisable     bool            `json:"lead_disable"`
	TrailDisable    bool            `json:"trail_disable"`
	ClickSuppressed bool            `json:"click_suppressed"`
	Cells           []Cell          `json:"cells"`
}

// Windows returns the lead and trail buffers for a hover. The lead buffer
// ends at the selected start when there is one, otherwise at the hovered day.
func Windows(hover daterange.Day, selectedStart *daterange.Day, w model.PreparationWindow) (lead, trail daterange.Range) {
	w = w.Normalize()
	leadEnd := hover
	if selectedStart != nil {
		leadEnd = *selectedStart
	}
	lead = daterange.NewRange(leadEnd.AddDays(-w.LeadDays), leadEnd)
	trail = daterange.NewRange(hover, hover.AddDays(w.TrailDays))
	return lead, trail
}

// Annotate classifies every visible cell against the lead window
// [start, end) and the trail window (start, end]. A disabled cell inside
// either window flags the hovered cell, since the buffer cannot be honoured.
func Annotate(in Input) Annotation {
	lead, trail := Windows(in.Hover, in.SelectedStart, in.Window)
	disabled := in.Disabled
	if disabled == nil {
		disabled = func(daterange.Day) bool { return false }
	}
	blocking := in.Blocking
	if blocking == nil {
		blocking = disabled
	}

	a := Annotation{
		Hover: in.Hover,
		Lead:  lead,
		Trail: trail,
		Cells: make([]Cell, 0, len(in.Visible)),
	}

	for _, d := range in.Visible {
		inLead := !d.Before(lead.Start) && d.Before(lead.End)
		inTrail := d.After(trail.Start) && !d.After(trail.End)

		cell := Cell{Day: d, Disabled: disabled(d)}
		cell.Classes = appendIf(cell.Classes, ClassLeadRangeStart, d.Equal(lead.Start))
		cell.Classes = appendIf(cell.Classes, ClassLeadRange, inLead)
		cell.Classes = appendIf(cell.Classes, ClassLeadRangeEnd, d.Equal(lead.End))
		cell.Classes = appendIf(cell.Classes, ClassTrailRangeStart, d.Equal(trail.Start))
		cell.Classes = appendIf(cell.Classes, ClassTrailRange, inTrail)
		cell.Classes = appendIf(cell.Classes, ClassTrailRangeEnd, d.Equal(trail.End))
		cell.Classes = appendIf(cell.Classes, ClassDisabled, cell.Disabled)

		if blocking(d) {
			a.LeadDisable = a.LeadDisable || inLead
			a.TrailDisable = a.TrailDisable || inTrail
		}
		a.Cells = append(a.Cells, cell)
	}

	for i := range a.Cells {
		if !a.Cells[i].Day.Equal(in.Hover) {
			continue
		}
		a.Cells[i].Classes = appendIf(a.Cells[i].Classes, ClassLeadDisable, a.LeadDisable)
		a.Cells[i].Classes = appendIf(a.Cells[i].Classes, ClassTrailDisable, a.TrailDisable)
	}
	a.ClickSuppressed = a.LeadDisable || a.TrailDisable
	return a
}

// Cell returns the annotated cell for d, if visible.
func (a Annotation) Cell(d daterange.Day) (Cell, bool) {
	for _, c := range a.Cells {
		if c.Day.Equal(d) {
			return c, true
		}
	}
	return Cell{}, false
}

func (c Cell) Has(class string) bool {
	return slices.Contains(c.Classes, class)
}

// DayMarks returns one occupancy mark per distinct item booked on d.
func DayMarks(occupancy daterange.Occupancy, d daterange.Day) []string {
	itemIDs := occupancy.Items(d)
	if len(itemIDs) == 0 {
		return nil
	}
	marks := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		marks = append(marks, fmt.Sprintf("item_%d", id))
	}
	return marks
}

// MonthGrid returns the 42 cells a month view shows: the weeks covering the
// month, padded with days of the neighbouring months.
func MonthGrid(year int, month time.Month, firstWeekday time.Weekday) []daterange.Day {
	first := daterange.NewDay(year, month, 1)
	offset := (int(first.Weekday()) - int(firstWeekday) + 7) % 7
	start := first.AddDays(-offset)

	days := make([]daterange.Day, GridSize)
	for i := range days {
		days[i] = start.AddDays(i)
	}
	return days
}

func appendIf(classes []string, class string, cond bool) []string {
	if !cond {
		return classes
	}
	return append(classes, class)
}
