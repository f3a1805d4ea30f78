package testutil

import (
	"testing"
	"time"

	"opacbookings/internal/catalog/repository"
	"opacbookings/pkg/model"
)

const (
	BiblioID      = 100
	PatronID      = 42
	OtherPatronID = 43
	CategoryID    = "PT"
)

// CatalogFixture is a small catalog: one biblio with two bookable items at
// two libraries, a patron and a circulation rule with a two day lead.
type CatalogFixture struct {
	Items     []model.BookableItem
	Libraries []model.Library
	Bookings  []model.Booking
	Rules     []repository.RuleDocument
}

func NewCatalogFixture() *CatalogFixture {
	return &CatalogFixture{
		Items: []model.BookableItem{
			{ItemID: 1, BiblioID: BiblioID, ExternalID: "BC-001", ItemTypeID: "BK", HomeLibraryID: "CPL", Bookable: true},
			{ItemID: 2, BiblioID: BiblioID, ExternalID: "BC-002", ItemTypeID: "BK", HomeLibraryID: "MPL", Bookable: true},
		},
		Libraries: []model.Library{
			{LibraryID: "CPL", Name: "Centerville"},
			{LibraryID: "MPL", Name: "Midway"},
		},
		Rules: []repository.RuleDocument{
			{
				PatronCategoryID:  repository.AnyValue,
				ItemTypeID:        repository.AnyValue,
				LibraryID:         repository.AnyValue,
				PreparationWindow: model.PreparationWindow{LeadDays: 2},
			},
		},
	}
}

// WithBooking adds an existing booking on an item.
func (f *CatalogFixture) WithBooking(id, itemID, patronID int, start, end time.Time) *CatalogFixture {
	item := itemID
	f.Bookings = append(f.Bookings, model.Booking{
		BookingID:       id,
		BiblioID:        BiblioID,
		ItemID:          &item,
		PatronID:        patronID,
		PickupLibraryID: "CPL",
		StartDate:       start,
		EndDate:         end,
		Status:          model.BookingStatusNew,
	})
	return f
}

// Seed writes the fixture into the catalog collections.
func (f *CatalogFixture) Seed(t *testing.T, m *MongoHelper) {
	t.Helper()

	m.Seed(t, repository.ItemsCollection, toDocs(f.Items)...)
	m.Seed(t, repository.LibrariesCollection, toDocs(f.Libraries)...)
	m.Seed(t, repository.BookingsCollection, toDocs(f.Bookings)...)
	m.Seed(t, repository.RulesCollection, toDocs(f.Rules)...)
	m.Seed(t, repository.BibliosCollection, model.Biblio{BiblioID: BiblioID, Title: "The Long Dark", Subtitle: "a novel"})
	m.Seed(t, repository.PatronsCollection,
		model.Patron{PatronID: PatronID, CategoryID: CategoryID, Firstname: "Ada", Surname: "Reader"},
		model.Patron{PatronID: OtherPatronID, CategoryID: CategoryID, Firstname: "Ben", Surname: "Reader"},
	)
}

func toDocs[T any](values []T) []any {
	docs := make([]any, 0, len(values))
	for _, v := range values {
		docs = append(docs, v)
	}
	return docs
}
