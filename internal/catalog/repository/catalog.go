package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"opacbookings/internal/catalog"
	"opacbookings/pkg/config"
	mongotx "opacbookings/pkg/db/mongo"
	apperrors "opacbookings/pkg/errors"
	"opacbookings/pkg/model"
)

const (
	ItemsCollection     = "Items"
	BookingsCollection  = "Bookings"
	LibrariesCollection = "Libraries"
	RulesCollection     = "CirculationRules"
	PatronsCollection   = "Patrons"
	BibliosCollection   = "Biblios"
	CountersCollection  = "Counters"

	bookingCounterID = "booking_id"

	// AnyValue matches every value of a rule scope field.
	AnyValue = "*"
)

type mongoCatalogRepository struct {
	cfg       *config.Config
	db        *mongo.Database
	txManager mongotx.TransactionManager
}

// NewMongoCatalogRepository serves the catalog from a Mongo mirror of the
// Koha tables.
func NewMongoCatalogRepository(cfg *config.Config) catalog.Catalog {
	return &mongoCatalogRepository{
		cfg:       cfg,
		db:        cfg.Client.Mongo.Database(cfg.MongoDatabaseName),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless it is a transaction
// session context, which cannot be wrapped.
func (r *mongoCatalogRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCatalogRepository) BookableItems(ctx context.Context, biblioID int) ([]model.BookableItem, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"biblio_id": biblioID, "bookable": true}
	opts := options.Find().SetSort(bson.D{{Key: "item_id", Value: 1}})

	cursor, err := r.db.Collection(ItemsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookable items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []model.BookableItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode bookable items: %w", err)
	}
	return items, nil
}

func (r *mongoCatalogRepository) BiblioBookings(ctx context.Context, biblioID int) ([]model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := r.db.Collection(BookingsCollection).Find(ctx, bson.M{
		"biblio_id": biblioID,
		"status":    bson.M{"$ne": model.BookingStatusCancelled},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoCatalogRepository) Libraries(ctx context.Context) ([]model.Library, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.db.Collection(LibrariesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find libraries: %w", err)
	}
	defer cursor.Close(ctx)

	libraries := []model.Library{}
	if err = cursor.All(ctx, &libraries); err != nil {
		return nil, fmt.Errorf("failed to decode libraries: %w", err)
	}
	return libraries, nil
}

// RuleDocument is one stored circulation rule. Scope fields hold AnyValue
// when the rule applies to every category, item type or library.
type RuleDocument struct {
	PatronCategoryID string `bson:"patron_category_id"`
	ItemTypeID       string `bson:"item_type_id"`
	LibraryID        string `bson:"library_id"`
	model.PreparationWindow `bson:",inline"`
}

func (d RuleDocument) specificity() int {
	n := 0
	for _, v := range []string{d.PatronCategoryID, d.ItemTypeID, d.LibraryID} {
		if v != AnyValue {
			n++
		}
	}
	return n
}

func scopeValues(v string) []string {
	if v == "" {
		return []string{AnyValue}
	}
	return []string{v, AnyValue}
}

// MostSpecificRule picks the candidate with the most concrete scope fields.
// Ties go to the library, then the item type.
func MostSpecificRule(candidates []RuleDocument) (RuleDocument, bool) {
	if len(candidates) == 0 {
		return RuleDocument{}, false
	}
	best := slices.MaxFunc(candidates, func(a, b RuleDocument) int {
		if c := a.specificity() - b.specificity(); c != 0 {
			return c
		}
		if a.LibraryID != b.LibraryID {
			if a.LibraryID == AnyValue {
				return -1
			}
			return 1
		}
		if a.ItemTypeID != b.ItemTypeID {
			if a.ItemTypeID == AnyValue {
				return -1
			}
			return 1
		}
		return 0
	})
	return best, true
}

func (r *mongoCatalogRepository) CirculationRules(ctx context.Context, q model.RulesQuery) (model.PreparationWindow, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"patron_category_id": bson.M{"$in": scopeValues(q.PatronCategoryID)},
		"item_type_id":       bson.M{"$in": scopeValues(q.ItemTypeID)},
		"library_id":         bson.M{"$in": scopeValues(q.LibraryID)},
	}

	cursor, err := r.db.Collection(RulesCollection).Find(ctx, filter)
	if err != nil {
		return model.PreparationWindow{}, fmt.Errorf("failed to find circulation rules: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []RuleDocument
	if err = cursor.All(ctx, &candidates); err != nil {
		return model.PreparationWindow{}, fmt.Errorf("failed to decode circulation rules: %w", err)
	}

	rule, ok := MostSpecificRule(candidates)
	if !ok {
		return model.PreparationWindow{}, nil
	}
	return rule.PreparationWindow.Normalize(), nil
}

// CreateBooking assigns the next booking ID and inserts the booking in one
// transaction. An item-level request that overlaps an existing booking on
// the same item is rejected.
func (r *mongoCatalogRepository) CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	booking := &model.Booking{
		BiblioID:        req.BiblioID,
		ItemID:          req.ItemID,
		PatronID:        req.PatronID,
		PickupLibraryID: req.PickupLibraryID,
		StartDate:       req.StartDate.UTC(),
		EndDate:         req.EndDate.UTC(),
		Status:          model.BookingStatusNew,
		CreationDate:    &now,
	}

	err := r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		bookings := r.db.Collection(BookingsCollection)

		if req.ItemID != nil {
			clash := bson.M{
				"item_id":    *req.ItemID,
				"start_date": bson.M{"$lte": booking.EndDate},
				"end_date":   bson.M{"$gte": booking.StartDate},
				"status":     bson.M{"$ne": model.BookingStatusCancelled},
			}
			n, err := bookings.CountDocuments(sessCtx, clash)
			if err != nil {
				return fmt.Errorf("failed to check booking overlap: %w", err)
			}
			if n > 0 {
				return apperrors.Conflict("item is already booked for part of this period")
			}
		}

		id, err := r.nextBookingID(sessCtx)
		if err != nil {
			return err
		}
		booking.BookingID = id

		if _, err := bookings.InsertOne(sessCtx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *mongoCatalogRepository) nextBookingID(ctx context.Context) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.db.Collection(CountersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": bookingCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate booking id: %w", err)
	}
	return counter.Seq, nil
}

func lookupOne(from, localField, foreignField, as string) []bson.D {
	return []bson.D{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: foreignField},
			{Key: "as", Value: as},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + as},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// PatronBookings joins each booking with its patron, biblio, item and
// pickup library, mirroring the embedded REST response.
func (r *mongoCatalogRepository) PatronBookings(ctx context.Context, patronID int) ([]model.EmbeddedBooking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"patron_id": patronID}}},
		{{Key: "$sort", Value: bson.D{{Key: "start_date", Value: 1}}}},
	}
	for _, stage := range [][4]string{
		{PatronsCollection, "patron_id", "patron_id", "patron"},
		{BibliosCollection, "biblio_id", "biblio_id", "biblio"},
		{ItemsCollection, "item_id", "item_id", "item"},
		{LibrariesCollection, "pickup_library_id", "library_id", "pickup_library"},
	} {
		pipeline = append(pipeline, lookupOne(stage[0], stage[1], stage[2], stage[3])...)
	}

	cursor, err := r.db.Collection(BookingsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate patron bookings: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []model.EmbeddedBooking{}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode patron bookings: %w", err)
	}
	return rows, nil
}
