package model

// BookableItem is one physical copy that can satisfy a booking.
type BookableItem struct {
	ItemID        int    `json:"item_id" bson:"item_id"`
	BiblioID      int    `json:"biblio_id,omitempty" bson:"biblio_id"`
	ExternalID    string `json:"external_id" bson:"external_id"`
	ItemTypeID    string `json:"item_type_id,omitempty" bson:"item_type_id,omitempty"`
	HomeLibraryID string `json:"home_library_id,omitempty" bson:"home_library_id,omitempty"`
	Bookable      bool   `json:"bookable,omitempty" bson:"bookable"`
}

// Library is a pickup location.
type Library struct {
	LibraryID string `json:"library_id" bson:"library_id"`
	Name      string `json:"name" bson:"name"`
}
