package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"opacbookings/internal/catalog/repository"
)

func TestCollectionsCoverCatalog(t *testing.T) {
	cols := Collections()

	for _, name := range []string{
		repository.ItemsCollection,
		repository.BookingsCollection,
		repository.LibrariesCollection,
		repository.RulesCollection,
		repository.PatronsCollection,
		repository.BibliosCollection,
		repository.CountersCollection,
	} {
		_, ok := cols[name]
		assert.True(t, ok, "missing collection %s", name)
	}
}

func TestBookingIndexesLeadWithLookupKeys(t *testing.T) {
	var leading []string
	for _, idx := range BookingsIndexes {
		keys, ok := idx.Keys.(bson.D)
		require.True(t, ok)
		leading = append(leading, keys[0].Key)
	}

	assert.ElementsMatch(t, []string{"booking_id", "biblio_id", "item_id", "patron_id"}, leading)
}

func TestUniqueIdentityIndexes(t *testing.T) {
	for name, def := range Collections() {
		if len(def.Indexes) == 0 {
			continue
		}
		first := def.Indexes[0]
		require.NotNil(t, first.Options, name)
		require.NotNil(t, first.Options.Unique, name)
		assert.True(t, *first.Options.Unique, name)
	}
}
