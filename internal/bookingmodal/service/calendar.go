package service

import (
	"context"
	"time"

	"opacbookings/internal/availability"
	"opacbookings/internal/calendar"
	"opacbookings/pkg/daterange"
	apperrors "opacbookings/pkg/errors"
	"opacbookings/pkg/model"
)

// CalendarQuery selects the days to render: an explicit From..To span, or
// the month grid of Year/Month. With neither, the grid shows the month of
// the selected start, or the current month.
type CalendarQuery struct {
	Year  int
	Month time.Month
	From  *daterange.Day
	To    *daterange.Day
	Hover *daterange.Day
}

type DayView struct {
	Date      daterange.Day       `json:"date"`
	Disabled  bool                `json:"disabled"`
	Reason    availability.Reason `json:"reason,omitempty"`
	Available int                 `json:"available"`
	Marks     []string            `json:"marks,omitempty"`
	Classes   []string            `json:"classes,omitempty"`
}

type HoverView struct {
	Day             daterange.Day   `json:"day"`
	Lead            daterange.Range `json:"lead"`
	Trail           daterange.Range `json:"trail"`
	LeadDisable     bool            `json:"lead_disable"`
	TrailDisable    bool            `json:"trail_disable"`
	ClickSuppressed bool            `json:"click_suppressed"`
}

type CalendarView struct {
	SessionID string                  `json:"session_id"`
	ItemCount int                     `json:"item_count"`
	Window    model.PreparationWindow `json:"window"`
	Selection model.SelectedRange     `json:"selection"`
	Hover     *HoverView              `json:"hover,omitempty"`
	Days      []DayView               `json:"days"`
}

func (s *bookingModalService) visibleDays(session *model.BookingSession, q CalendarQuery) ([]daterange.Day, error) {
	if q.From != nil || q.To != nil {
		if q.From == nil || q.To == nil {
			return nil, apperrors.InvalidInput("from and to must be given together")
		}
		days := daterange.NewRange(*q.From, *q.To).Days()
		if len(days) == 0 {
			return nil, apperrors.InvalidInput("from must not be after to")
		}
		if len(days) > maxCalendarSpan {
			return nil, apperrors.InvalidInput("calendar span is limited to one year")
		}
		return days, nil
	}

	year, month := q.Year, q.Month
	if year == 0 {
		anchor := daterange.DayIn(s.now(), s.loc())
		if session.Selection.Start != nil {
			anchor = *session.Selection.Start
		}
		year, month = anchor.Year(), anchor.Month()
	}
	if month < time.January || month > time.December {
		return nil, apperrors.InvalidInput("month must be between 1 and 12")
	}
	return calendar.MonthGrid(year, month, s.cfg.FirstWeekday), nil
}

// Calendar renders the picker: availability and occupancy marks for every
// visible day and, when a hover day is given, the preparation buffer classes.
func (s *bookingModalService) Calendar(ctx context.Context, id string, q CalendarQuery) (*CalendarView, error) {
	session, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkUsable(session); err != nil {
		return nil, s.mapError(err, id)
	}

	days, err := s.visibleDays(session, q)
	if err != nil {
		return nil, err
	}

	ev := s.evaluator(session)
	query := pickerQuery(session)
	occupancy := daterange.BuildDayOccupancy(session.Bookings, s.loc())

	view := &CalendarView{
		SessionID: session.ID,
		ItemCount: ev.ItemCount(),
		Window:    session.Window,
		Selection: session.Selection,
		Days:      make([]DayView, 0, len(days)),
	}

	var ann calendar.Annotation
	if q.Hover != nil {
		ann = hoverPass(ev, query, session.Window, days, *q.Hover)
		view.Hover = &HoverView{
			Day:             ann.Hover,
			Lead:            ann.Lead,
			Trail:           ann.Trail,
			LeadDisable:     ann.LeadDisable,
			TrailDisable:    ann.TrailDisable,
			ClickSuppressed: ann.ClickSuppressed,
		}
	}

	for _, d := range days {
		decision := ev.Evaluate(d, query)
		dv := DayView{
			Date:      d,
			Disabled:  decision.Disabled,
			Reason:    decision.Reason,
			Available: max(decision.Available, 0),
			Marks:     calendar.DayMarks(occupancy, d),
		}
		if cell, ok := ann.Cell(d); ok {
			dv.Classes = cell.Classes
		} else if decision.Disabled {
			dv.Classes = []string{calendar.ClassDisabled}
		}
		view.Days = append(view.Days, dv)
	}

	return view, nil
}
