package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opacbookings/pkg/config"
	apperrors "opacbookings/pkg/errors"
	"opacbookings/pkg/kafka"
	"opacbookings/pkg/logger"
	"opacbookings/pkg/model"
)

// ────────────────────────────────────────────────
// Mock catalog for testing
// ────────────────────────────────────────────────

type mockCatalog struct {
	patronBookingsFunc func(ctx context.Context, patronID int) ([]model.EmbeddedBooking, error)
	calls              int
}

func (m *mockCatalog) BookableItems(context.Context, int) ([]model.BookableItem, error) {
	return nil, nil
}

func (m *mockCatalog) BiblioBookings(context.Context, int) ([]model.Booking, error) {
	return nil, nil
}

func (m *mockCatalog) Libraries(context.Context) ([]model.Library, error) {
	return nil, nil
}

func (m *mockCatalog) CirculationRules(context.Context, model.RulesQuery) (model.PreparationWindow, error) {
	return model.PreparationWindow{}, nil
}

func (m *mockCatalog) CreateBooking(context.Context, model.BookingRequest) (*model.Booking, error) {
	return nil, nil
}

func (m *mockCatalog) PatronBookings(ctx context.Context, patronID int) ([]model.EmbeddedBooking, error) {
	m.calls++
	if m.patronBookingsFunc != nil {
		return m.patronBookingsFunc(ctx, patronID)
	}
	return patronBookings(), nil
}

func patronBookings() []model.EmbeddedBooking {
	placed := time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC)
	itemID := 1
	return []model.EmbeddedBooking{
		{
			Booking: model.Booking{
				BookingID: 12, PatronID: 3, Status: "new",
				StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 7, 3, 23, 59, 59, 0, time.UTC),
			},
			Biblio: &model.Biblio{Title: "Dune"},
		},
		{
			Booking: model.Booking{
				BookingID: 10, PatronID: 3, ItemID: &itemID, Status: "new", CreationDate: &placed,
				StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 6, 3, 23, 59, 59, 0, time.UTC),
			},
			Biblio:        &model.Biblio{Title: "The Hobbit", Subtitle: "or There and Back Again"},
			Item:          &model.BookableItem{ItemID: 1, ExternalID: "BC-001", ItemTypeID: "BK", HomeLibraryID: "CPL"},
			PickupLibrary: &model.Library{LibraryID: "MPL", Name: "Midway"},
		},
	}
}

func newTestService(cat *mockCatalog) *bookingsTableService {
	cfg := &config.Config{Log: logger.NewNop(), Location: time.UTC}
	return NewBookingsTableService(cat, cfg).(*bookingsTableService)
}

// ────────────────────────────────────────────────
// List
// ────────────────────────────────────────────────

func TestList_ProjectsAndSorts(t *testing.T) {
	svc := newTestService(&mockCatalog{})

	rows, err := svc.List(context.Background(), TableQuery{PatronID: 3})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 10, first.BookingID)
	assert.Equal(t, "The Hobbit or There and Back Again", first.Title)
	assert.Equal(t, "2024-05-20", first.PlacedOn)
	assert.Equal(t, "Midway", first.PickupLocation)
	assert.Equal(t, "2024-06-01", first.StartDate)
	assert.Equal(t, "2024-06-03", first.EndDate)
	assert.Equal(t, "BK", first.ItemType)
	assert.Equal(t, "BC-001", first.Barcode)
	assert.Equal(t, "CPL", first.ProvidedBy)

	second := rows[1]
	assert.Equal(t, 12, second.BookingID)
	assert.Equal(t, Missing, second.PlacedOn)
	assert.Equal(t, Missing, second.PickupLocation)
	assert.Equal(t, Missing, second.ItemType)
	assert.Equal(t, AnyItem, second.Barcode)
	assert.Equal(t, Missing, second.ProvidedBy)
}

func TestList_Filter(t *testing.T) {
	svc := newTestService(&mockCatalog{})

	tests := []struct {
		q    string
		want []int
	}{
		{"", []int{10, 12}},
		{"hobbit", []int{10}},
		{"ANY ITEM", []int{12}},
		{"2024-07", []int{12}},
		{"nothing", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			rows, err := svc.List(context.Background(), TableQuery{PatronID: 3, Q: tt.q})
			require.NoError(t, err)
			ids := []int{}
			for _, r := range rows {
				ids = append(ids, r.BookingID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestList_RequiresPatron(t *testing.T) {
	svc := newTestService(&mockCatalog{})

	_, err := svc.List(context.Background(), TableQuery{})
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
}

func TestList_UpstreamFailure(t *testing.T) {
	svc := newTestService(&mockCatalog{
		patronBookingsFunc: func(context.Context, int) ([]model.EmbeddedBooking, error) {
			return nil, errors.New("503")
		},
	})

	_, err := svc.List(context.Background(), TableQuery{PatronID: 3})
	assert.Equal(t, http.StatusBadGateway, apperrors.AsAppError(err).StatusCode())
}

// ────────────────────────────────────────────────
// Cache
// ────────────────────────────────────────────────

func TestList_CachesPerPatron(t *testing.T) {
	cat := &mockCatalog{}
	svc := newTestService(cat)
	ctx := context.Background()

	_, _ = svc.List(ctx, TableQuery{PatronID: 3})
	_, _ = svc.List(ctx, TableQuery{PatronID: 3, Q: "dune"})
	assert.Equal(t, 1, cat.calls)

	_, _ = svc.List(ctx, TableQuery{PatronID: 3, Refresh: true})
	assert.Equal(t, 2, cat.calls)

	svc.BookingCreated(ctx, &model.Booking{BookingID: 99, PatronID: 3})
	_, _ = svc.List(ctx, TableQuery{PatronID: 3})
	assert.Equal(t, 3, cat.calls)

	svc.now = func() time.Time { return time.Now().Add(cacheTTL + time.Second) }
	_, _ = svc.List(ctx, TableQuery{PatronID: 3})
	assert.Equal(t, 4, cat.calls)
}

func TestBookingEventHandler_Invalidates(t *testing.T) {
	cat := &mockCatalog{}
	svc := newTestService(cat)
	ctx := context.Background()
	handler := NewBookingEventHandler(svc, logger.NewNop())

	_, _ = svc.List(ctx, TableQuery{PatronID: 3})

	msg, err := kafka.NewBookingCreatedMessage(&model.Booking{BookingID: 99, PatronID: 3}, "other-instance")
	require.NoError(t, err)
	require.NoError(t, handler(ctx, msg))

	_, _ = svc.List(ctx, TableQuery{PatronID: 3})
	assert.Equal(t, 2, cat.calls)

	bad := kafka.Message{Headers: map[string]string{kafka.HeaderEventType: "booking.cancelled"}}
	assert.Error(t, handler(ctx, bad))
}

// ────────────────────────────────────────────────
// CSV
// ────────────────────────────────────────────────

func TestWriteCSV(t *testing.T) {
	svc := newTestService(&mockCatalog{})

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(context.Background(), &buf, TableQuery{PatronID: 3}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Status,Title,Placed on,Pickup location,Start date,End date,Item type,Barcode,Provided by", lines[0])
	assert.Equal(t, "new,The Hobbit or There and Back Again,2024-05-20,Midway,2024-06-01,2024-06-03,BK,BC-001,CPL", lines[1])
	assert.Equal(t, "new,Dune,–,–,2024-07-01,2024-07-03,–,Any item,–", lines[2])
}
