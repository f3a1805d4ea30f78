package service

import (
	"cmp"
	"context"
	"encoding/csv"
	"io"
	"slices"
	"sync"
	"time"

	"opacbookings/internal/catalog"
	"opacbookings/pkg/config"
	apperrors "opacbookings/pkg/errors"
	"opacbookings/pkg/model"
	"opacbookings/pkg/sanitizer"
)

const (
	// Missing is shown for empty optional columns.
	Missing = "–"
	AnyItem = "Any item"

	dateLayout = "2006-01-02"
	cacheTTL   = 5 * time.Minute
)

// Columns are the exported table headings, in order.
var Columns = []string{
	"Status",
	"Title",
	"Placed on",
	"Pickup location",
	"Start date",
	"End date",
	"Item type",
	"Barcode",
	"Provided by",
}

// Row is one patron booking as the results table shows it. BookingID backs
// the change and cancel actions and is not exported to CSV.
type Row struct {
	BookingID      int    `json:"booking_id"`
	Status         string `json:"status"`
	Title          string `json:"title"`
	PlacedOn       string `json:"placed_on"`
	PickupLocation string `json:"pickup_location"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	ItemType       string `json:"item_type"`
	Barcode        string `json:"barcode"`
	ProvidedBy     string `json:"provided_by"`

	start time.Time
}

func (r Row) cells() []string {
	return []string{r.Status, r.Title, r.PlacedOn, r.PickupLocation, r.StartDate, r.EndDate, r.ItemType, r.Barcode, r.ProvidedBy}
}

type TableQuery struct {
	PatronID int
	Q        string
	Refresh  bool
}

type BookingsTableService interface {
	List(ctx context.Context, q TableQuery) ([]Row, error)
	WriteCSV(ctx context.Context, w io.Writer, q TableQuery) error
	Invalidate(patronID int)
	BookingCreated(ctx context.Context, booking *model.Booking)
}

type cacheEntry struct {
	rows      []Row
	expiresAt time.Time
}

type bookingsTableService struct {
	catalog catalog.Catalog
	cfg     *config.Config
	now     func() time.Time

	mu    sync.Mutex
	cache map[int]cacheEntry
}

func NewBookingsTableService(catalog catalog.Catalog, cfg *config.Config) BookingsTableService {
	return &bookingsTableService{
		catalog: catalog,
		cfg:     cfg,
		now:     time.Now,
		cache:   make(map[int]cacheEntry),
	}
}

// List returns the patron's bookings sorted by start date, filtered by a
// case-insensitive match of q against any displayed column.
func (s *bookingsTableService) List(ctx context.Context, q TableQuery) ([]Row, error) {
	if q.PatronID <= 0 {
		return nil, apperrors.InvalidInput("patron_id is required")
	}

	rows, err := s.rows(ctx, q.PatronID, q.Refresh)
	if err != nil {
		return nil, err
	}
	return filterRows(rows, q.Q), nil
}

func (s *bookingsTableService) WriteCSV(ctx context.Context, w io.Writer, q TableQuery) error {
	rows, err := s.List(ctx, q)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *bookingsTableService) Invalidate(patronID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, patronID)
}

// BookingCreated drops the patron's cached table after a booking is made
// through this instance.
func (s *bookingsTableService) BookingCreated(_ context.Context, booking *model.Booking) {
	if booking == nil {
		return
	}
	s.Invalidate(booking.PatronID)
	s.cfg.Log.Debug("Patron bookings cache invalidated", "patron_id", booking.PatronID, "booking_id", booking.BookingID)
}

func (s *bookingsTableService) rows(ctx context.Context, patronID int, refresh bool) ([]Row, error) {
	now := s.now()
	if !refresh {
		s.mu.Lock()
		entry, ok := s.cache[patronID]
		s.mu.Unlock()
		if ok && now.Before(entry.expiresAt) {
			return entry.rows, nil
		}
	}

	bookings, err := s.catalog.PatronBookings(ctx, patronID)
	if err != nil {
		s.cfg.Log.Error("Failed to load patron bookings", "patron_id", patronID, "error", err)
		return nil, apperrors.Upstream("Catalog", err)
	}

	rows := make([]Row, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, s.project(b))
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		if c := a.start.Compare(b.start); c != 0 {
			return c
		}
		return cmp.Compare(a.BookingID, b.BookingID)
	})

	s.mu.Lock()
	s.cache[patronID] = cacheEntry{rows: rows, expiresAt: now.Add(cacheTTL)}
	s.mu.Unlock()

	s.cfg.Log.Debug("Patron bookings loaded", "patron_id", patronID, "count", len(rows))
	return rows, nil
}

func (s *bookingsTableService) date(t time.Time) string {
	loc := s.cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

func (s *bookingsTableService) project(b model.EmbeddedBooking) Row {
	row := Row{
		BookingID:      b.BookingID,
		Status:         orMissing(b.Status),
		Title:          Missing,
		PlacedOn:       Missing,
		PickupLocation: Missing,
		StartDate:      s.date(b.StartDate),
		EndDate:        s.date(b.EndDate),
		ItemType:       Missing,
		Barcode:        AnyItem,
		ProvidedBy:     Missing,
		start:          b.StartDate,
	}
	if b.Biblio != nil {
		row.Title = orMissing(sanitizer.JoinTitle(b.Biblio.Title, b.Biblio.Subtitle))
	}
	if b.CreationDate != nil {
		row.PlacedOn = s.date(*b.CreationDate)
	}
	if b.PickupLibrary != nil {
		row.PickupLocation = orMissing(b.PickupLibrary.Name)
	}
	if b.Item != nil {
		row.ItemType = orMissing(b.Item.ItemTypeID)
		if b.Item.ExternalID != "" {
			row.Barcode = b.Item.ExternalID
		}
		row.ProvidedBy = orMissing(b.Item.HomeLibraryID)
	}
	return row
}

func orMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}

func filterRows(rows []Row, q string) []Row {
	term := sanitizer.SanitizeSearchTerm(q)
	if term == "" {
		return slices.Clone(rows)
	}
	out := []Row{}
	for _, row := range rows {
		for _, cell := range row.cells() {
			if sanitizer.MatchesTerm(cell, term) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
