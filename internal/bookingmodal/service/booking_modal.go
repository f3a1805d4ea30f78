package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"opacbookings/internal/availability"
	bookingmodalerrors "opacbookings/internal/bookingmodal/errors"
	"opacbookings/internal/bookingmodal/repository"
	"opacbookings/internal/bookingmodal/validator"
	"opacbookings/internal/calendar"
	"opacbookings/internal/catalog"
	"opacbookings/pkg/config"
	"opacbookings/pkg/daterange"
	apperrors "opacbookings/pkg/errors"
	"opacbookings/pkg/model"
	"opacbookings/pkg/sanitizer"
)

const (
	FieldPickupLibrary = "pickup_library"
	FieldItem          = "item"

	// maxCalendarSpan bounds explicit from/to calendar requests.
	maxCalendarSpan = 366
)

type BookingModalService interface {
	Open(ctx context.Context, req *model.OpenSessionRequest) (*SessionView, error)
	Get(ctx context.Context, id string) (*SessionView, error)
	Calendar(ctx context.Context, id string, q CalendarQuery) (*CalendarView, error)
	SelectDate(ctx context.Context, id string, day daterange.Day) (*SessionView, error)
	SelectPickupLibrary(ctx context.Context, id string, libraryID string) (*SessionView, error)
	SelectItem(ctx context.Context, id string, itemID *int) (*SessionView, error)
	Options(ctx context.Context, id string, field string, q string) ([]Option, error)
	Submit(ctx context.Context, id string) (*SubmitResult, error)
	Close(ctx context.Context, id string) error
}

// BookingListener is told about every booking the modal creates.
type BookingListener interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
}

// SessionView is a session plus the hidden period fields the form would post.
type SessionView struct {
	*model.BookingSession
	Period *model.PeriodFields `json:"period,omitempty"`
}

type Option struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected,omitempty"`
}

type SubmitResult struct {
	Submitted bool           `json:"submitted"`
	Booking   *model.Booking `json:"booking,omitempty"`
}

type bookingModalService struct {
	catalog   catalog.Catalog
	repo      repository.SessionRepository
	validator *validator.BookingValidator
	cfg       *config.Config
	listeners []BookingListener
	now       func() time.Time
}

func NewBookingModalService(
	catalog catalog.Catalog,
	repo repository.SessionRepository,
	validator *validator.BookingValidator,
	cfg *config.Config,
	listeners ...BookingListener,
) BookingModalService {
	return &bookingModalService{
		catalog:   catalog,
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		listeners: listeners,
		now:       time.Now,
	}
}

func (s *bookingModalService) loc() *time.Location {
	if s.cfg.Location == nil {
		return time.UTC
	}
	return s.cfg.Location
}

func (s *bookingModalService) view(session *model.BookingSession) *SessionView {
	v := &SessionView{BookingSession: session}
	if period, ok := model.NewPeriodFields(session.Selection, s.loc()); ok {
		v.Period = &period
	}
	return v
}

// Open snapshots the biblio's bookable items and bookings, then the pickup
// libraries and preparation window. Items and bookings are required; when
// either fails the session is stored unready so later calls can report it.
func (s *bookingModalService) Open(ctx context.Context, req *model.OpenSessionRequest) (*SessionView, error) {
	if err := s.validator.ValidateOpen(req); err != nil {
		return nil, s.mapError(err, "")
	}

	now := s.now().UTC()
	session := &model.BookingSession{
		ID:               uuid.New().String(),
		BiblioID:         req.BiblioID,
		PatronID:         req.PatronID,
		PatronCategoryID: sanitizer.SanitizeCode(req.PatronCategoryID),
		Items:            []model.BookableItem{},
		Bookings:         []model.Booking{},
		Libraries:        []model.Library{},
		CreatedAt:        now,
	}

	if err := s.loadSnapshot(ctx, session); err != nil {
		s.cfg.Log.Error("Failed to load booking modal data",
			"session_id", session.ID,
			"biblio_id", session.BiblioID,
			"error", err,
		)
		if storeErr := s.repo.Create(ctx, session); storeErr != nil {
			s.cfg.Log.Error("Failed to store booking session", "session_id", session.ID, "error", storeErr)
			return nil, apperrors.Internal("Failed to open booking session", storeErr)
		}
		return nil, apperrors.Unavailable("Catalog").WithDetails(map[string]any{
			"session_id": session.ID,
		})
	}

	session.Libraries = s.fetchLibraries(ctx, session.ID)
	session.Window = s.fetchWindow(ctx, session)
	s.configurePicker(session)
	session.Ready = true

	if err := s.repo.Create(ctx, session); err != nil {
		s.cfg.Log.Error("Failed to store booking session", "session_id", session.ID, "error", err)
		return nil, apperrors.Internal("Failed to open booking session", err)
	}

	s.cfg.Log.Info("Booking session opened",
		"session_id", session.ID,
		"biblio_id", session.BiblioID,
		"patron_id", session.PatronID,
		"bookable_items", len(session.Items),
		"bookings", len(session.Bookings),
		"lead_days", session.Window.LeadDays,
		"trail_days", session.Window.TrailDays,
	)
	return s.view(session), nil
}

// loadSnapshot fetches items before bookings; the evaluator needs both.
func (s *bookingModalService) loadSnapshot(ctx context.Context, session *model.BookingSession) error {
	items, err := s.catalog.BookableItems(ctx, session.BiblioID)
	if err != nil {
		return fmt.Errorf("bookable items: %w", err)
	}
	bookings, err := s.catalog.BiblioBookings(ctx, session.BiblioID)
	if err != nil {
		return fmt.Errorf("bookings: %w", err)
	}

	if items != nil {
		session.Items = items
	}
	if bookings != nil {
		session.Bookings = model.ActiveBookings(bookings)
	}
	return nil
}

func (s *bookingModalService) fetchLibraries(ctx context.Context, sessionID string) []model.Library {
	libraries, err := s.catalog.Libraries(ctx)
	if err != nil {
		s.cfg.Log.Warn("Failed to load pickup libraries", "session_id", sessionID, "error", err)
		return []model.Library{}
	}
	if libraries == nil {
		return []model.Library{}
	}
	return libraries
}

func (s *bookingModalService) rulesQuery(session *model.BookingSession) model.RulesQuery {
	q := model.RulesQuery{
		PatronCategoryID: session.PatronCategoryID,
		LibraryID:        session.PickupLibraryID,
	}
	if session.ItemID != nil {
		if item, ok := session.Item(*session.ItemID); ok {
			q.ItemTypeID = item.ItemTypeID
		}
	}
	return q
}

// fetchWindow never fails: any rules error yields the zero window.
func (s *bookingModalService) fetchWindow(ctx context.Context, session *model.BookingSession) model.PreparationWindow {
	q := s.rulesQuery(session)
	window, err := s.catalog.CirculationRules(ctx, q)
	if err != nil {
		s.cfg.Log.Warn("Failed to load circulation rules, using no preparation period",
			"session_id", session.ID,
			"patron_category_id", q.PatronCategoryID,
			"item_type_id", q.ItemTypeID,
			"library_id", q.LibraryID,
			"error", err,
		)
		return model.PreparationWindow{}
	}
	return window.Normalize()
}

// configurePicker runs the one-time picker setup. It reports whether this
// call did the setup.
func (s *bookingModalService) configurePicker(session *model.BookingSession) bool {
	if session.Picker.Configured {
		return false
	}
	session.Picker = model.PickerState{Configured: true, ConfiguredAt: s.now().UTC()}
	return true
}

func (s *bookingModalService) Get(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

func (s *bookingModalService) find(ctx context.Context, id string) (*model.BookingSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Booking session ID cannot be empty")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return session, nil
}

func checkUsable(session *model.BookingSession) error {
	if session.Closed {
		return bookingmodalerrors.ErrSessionClosed
	}
	if !session.Ready {
		return bookingmodalerrors.ErrSessionNotReady
	}
	return nil
}

// mutate applies fn to an open, ready session and stores the result.
func (s *bookingModalService) mutate(ctx context.Context, id string, fn repository.UpdateFunc) (*model.BookingSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("Booking session ID cannot be empty")
	}
	session, err := s.repo.Update(ctx, id, func(session *model.BookingSession) error {
		if err := checkUsable(session); err != nil {
			return err
		}
		return fn(session)
	})
	if err != nil {
		return nil, s.mapError(err, id)
	}
	return session, nil
}

func (s *bookingModalService) evaluator(session *model.BookingSession) *availability.Evaluator {
	return availability.NewEvaluator(session.Bookings, session.Items, s.loc())
}

// pickerQuery passes the selected start only while a range is open.
func pickerQuery(session *model.BookingSession) availability.Query {
	q := availability.Query{PinnedItem: session.ItemID}
	if session.Selection.IsOpen() {
		q.SelectedStart = session.Selection.Start
	}
	return q
}

// hoverPass annotates grid for a hover over day. Days of the lead and trail
// buffers outside the grid are still checked, so the click guard does not
// depend on which month is on screen.
func hoverPass(ev *availability.Evaluator, q availability.Query, window model.PreparationWindow, grid []daterange.Day, hover daterange.Day) calendar.Annotation {
	lead, trail := calendar.Windows(hover, q.SelectedStart, window)

	onGrid := make(map[daterange.Day]bool, len(grid))
	visible := make([]daterange.Day, 0, len(grid))
	for _, d := range grid {
		if !onGrid[d] {
			onGrid[d] = true
			visible = append(visible, d)
		}
	}
	for _, d := range append(lead.Days(), trail.Days()...) {
		if !onGrid[d] {
			visible = append(visible, d)
		}
	}

	ann := calendar.Annotate(calendar.Input{
		Visible:       visible,
		Hover:         hover,
		SelectedStart: q.SelectedStart,
		Window:        window,
		Disabled: func(d daterange.Day) bool {
			return ev.Evaluate(d, q).Disabled
		},
		// days before an open range's start are refused for ordering only
		Blocking: func(d daterange.Day) bool {
			decision := ev.Evaluate(d, q)
			return decision.Disabled && decision.Reason != availability.ReasonBeforeStart
		},
	})

	cells := ann.Cells[:0]
	for _, c := range ann.Cells {
		if onGrid[c.Day] {
			cells = append(cells, c)
		}
	}
	ann.Cells = cells
	return ann
}

// SelectDate is a click on the period picker: it opens a new range or, when
// one is open, closes it.
func (s *bookingModalService) SelectDate(ctx context.Context, id string, day daterange.Day) (*SessionView, error) {
	if day.IsZero() {
		return nil, apperrors.InvalidInput("date is required")
	}

	session, err := s.mutate(ctx, id, func(session *model.BookingSession) error {
		ev := s.evaluator(session)
		q := pickerQuery(session)

		if decision := ev.Evaluate(day, q); decision.Disabled {
			return dayRejected(bookingmodalerrors.ErrDayDisabled, day, decision.Reason)
		}
		if ann := hoverPass(ev, q, session.Window, nil, day); ann.ClickSuppressed {
			return dayRejected(bookingmodalerrors.ErrBufferBlocked, day, "")
		}

		picked := day
		if session.Selection.IsOpen() {
			session.Selection.End = &picked
		} else {
			session.Selection = model.SelectedRange{Start: &picked}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Debug("Booking period updated",
		"session_id", id,
		"start", session.Selection.Start,
		"end", session.Selection.End,
	)
	return s.view(session), nil
}

func dayRejected(sentinel error, day daterange.Day, reason availability.Reason) error {
	details := map[string]any{"date": day.String()}
	if reason != availability.ReasonNone {
		details["reason"] = string(reason)
	}
	return apperrors.Wrap(sentinel, apperrors.CodeConflict, sentinel.Error(), http.StatusConflict).WithDetails(details)
}

// SelectPickupLibrary sets or, with an empty ID, clears the pickup location
// and refreshes the preparation window.
func (s *bookingModalService) SelectPickupLibrary(ctx context.Context, id string, libraryID string) (*SessionView, error) {
	libraryID = sanitizer.SanitizeCode(libraryID)

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkUsable(current); err != nil {
		return nil, s.mapError(err, id)
	}

	libraries := current.Libraries
	if len(libraries) == 0 {
		libraries = s.fetchLibraries(ctx, id)
	}

	draft := *current
	draft.Libraries = libraries
	draft.PickupLibraryID = libraryID
	if libraryID != "" {
		if _, ok := draft.Library(libraryID); !ok {
			return nil, s.mapError(bookingmodalerrors.ErrUnknownLibrary, id)
		}
	}
	window := s.fetchWindow(ctx, &draft)

	session, err := s.mutate(ctx, id, func(session *model.BookingSession) error {
		session.Libraries = libraries
		session.PickupLibraryID = libraryID
		session.Window = window
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// SelectItem pins an item for availability or, with nil, goes back to any
// item, and refreshes the preparation window.
func (s *bookingModalService) SelectItem(ctx context.Context, id string, itemID *int) (*SessionView, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkUsable(current); err != nil {
		return nil, s.mapError(err, id)
	}

	draft := *current
	draft.ItemID = itemID
	if itemID != nil {
		if _, ok := current.Item(*itemID); !ok {
			return nil, s.mapError(bookingmodalerrors.ErrUnknownItem, id)
		}
	}
	window := s.fetchWindow(ctx, &draft)

	session, err := s.mutate(ctx, id, func(session *model.BookingSession) error {
		session.ItemID = itemID
		session.Window = window
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Options lists a dropdown's choices filtered by q. Item IDs and library
// codes never name the same thing, so a selection in one dropdown disables
// nothing in the other.
func (s *bookingModalService) Options(ctx context.Context, id string, field string, q string) ([]Option, error) {
	session, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkUsable(session); err != nil {
		return nil, s.mapError(err, id)
	}

	term := sanitizer.SanitizeSearchTerm(q)
	matches := func(text string) bool {
		return sanitizer.MatchesTerm(text, term)
	}
	options := []Option{}

	switch field {
	case FieldPickupLibrary:
		libraries := session.Libraries
		if len(libraries) == 0 {
			libraries = s.fetchLibraries(ctx, id)
		}
		for _, l := range libraries {
			if !matches(l.Name) {
				continue
			}
			options = append(options, Option{
				ID:       l.LibraryID,
				Text:     l.Name,
				Selected: l.LibraryID == session.PickupLibraryID,
			})
		}
	case FieldItem:
		for _, it := range session.Items {
			if !matches(it.ExternalID) {
				continue
			}
			value := strconv.Itoa(it.ItemID)
			options = append(options, Option{
				ID:       value,
				Text:     it.ExternalID,
				Selected: session.ItemID != nil && *session.ItemID == it.ItemID,
			})
		}
	default:
		return nil, s.mapError(bookingmodalerrors.ErrUnknownField, id)
	}

	return options, nil
}

func (s *bookingModalService) bookingRequest(session *model.BookingSession) model.BookingRequest {
	req := model.BookingRequest{
		BiblioID:        session.BiblioID,
		PatronID:        session.PatronID,
		ItemID:          session.ItemID,
		PickupLibraryID: session.PickupLibraryID,
	}
	if period, ok := model.NewPeriodFields(session.Selection, s.loc()); ok {
		req.StartDate = period.StartDate
		req.EndDate = period.EndDate
	}
	return req
}

// Submit posts the form. A catalog refusal is logged and reported as
// not submitted; the session stays as it was so the patron can retry.
func (s *bookingModalService) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	// The session is closed before the POST so a second submit of the same
	// form is refused instead of creating a second booking.
	var req model.BookingRequest
	if _, err := s.mutate(ctx, id, func(session *model.BookingSession) error {
		req = s.bookingRequest(session)
		if err := s.validator.ValidateRequest(&req); err != nil {
			return err
		}
		if !session.Selection.IsComplete() {
			return apperrors.Validation("Booking validation failed", map[string]any{
				"period": "start and end dates are required",
			})
		}

		// the pinned item may have changed after the range was picked
		start, end := *session.Selection.Start, *session.Selection.End
		if decision := s.evaluator(session).Evaluate(end, availability.Query{SelectedStart: &start, PinnedItem: session.ItemID}); decision.Disabled {
			return dayRejected(bookingmodalerrors.ErrDayDisabled, end, decision.Reason)
		}
		session.Closed = true
		return nil
	}); err != nil {
		return nil, err
	}

	booking, err := s.catalog.CreateBooking(ctx, req)
	if err != nil {
		s.cfg.Log.Warn("Booking submission was not accepted",
			"session_id", id,
			"biblio_id", req.BiblioID,
			"patron_id", req.PatronID,
			"error", err,
		)
		if _, err := s.repo.Update(ctx, id, func(session *model.BookingSession) error {
			session.Closed = false
			return nil
		}); err != nil {
			s.cfg.Log.Warn("Booking session could not be reopened", "session_id", id, "error", err)
		}
		return &SubmitResult{Submitted: false}, nil
	}

	if _, err := s.repo.Update(ctx, id, func(session *model.BookingSession) error {
		session.ResetForm()
		session.Closed = true
		return nil
	}); err != nil {
		s.cfg.Log.Warn("Booking created but session could not be reset", "session_id", id, "error", err)
	}

	for _, l := range s.listeners {
		l.BookingCreated(ctx, booking)
	}

	s.cfg.Log.Info("Booking created successfully",
		"session_id", id,
		"booking_id", booking.BookingID,
		"biblio_id", booking.BiblioID,
		"patron_id", booking.PatronID,
		"start_date", booking.StartDate,
		"end_date", booking.EndDate,
	)
	return &SubmitResult{Submitted: true, Booking: booking}, nil
}

// Close resets the form and marks the session closed. Closing twice is fine.
func (s *bookingModalService) Close(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.InvalidInput("Booking session ID cannot be empty")
	}
	_, err := s.repo.Update(ctx, id, func(session *model.BookingSession) error {
		session.ResetForm()
		session.Closed = true
		return nil
	})
	if err != nil {
		return s.mapError(err, id)
	}

	s.cfg.Log.Info("Booking session closed", "session_id", id)
	return nil
}

func (s *bookingModalService) mapError(err error, id string) error {
	if apperrors.IsAppError(err) {
		return err
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return apperrors.Validation("Booking validation failed", verrs.Details())
	case errors.Is(err, bookingmodalerrors.ErrSessionNotFound):
		return apperrors.NotFoundWithID("Booking session", id)
	case errors.Is(err, bookingmodalerrors.ErrSessionClosed):
		return apperrors.Conflict("Booking session is closed").WithDetails(map[string]any{"session_id": id})
	case errors.Is(err, bookingmodalerrors.ErrSessionNotReady):
		return apperrors.Unavailable("Catalog").WithDetails(map[string]any{"session_id": id})
	case errors.Is(err, bookingmodalerrors.ErrConcurrentUpdate):
		return apperrors.Conflict("Booking session was modified concurrently, retry")
	case errors.Is(err, bookingmodalerrors.ErrUnknownLibrary),
		errors.Is(err, bookingmodalerrors.ErrUnknownItem),
		errors.Is(err, bookingmodalerrors.ErrUnknownField):
		return apperrors.InvalidInput(err.Error())
	}

	s.cfg.Log.Error("Booking session operation failed", "session_id", id, "error", err)
	return apperrors.Internal("Booking session operation failed", err)
}
