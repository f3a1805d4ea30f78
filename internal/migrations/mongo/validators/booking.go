package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"biblio_id",
			"patron_id",
			"start_date",
			"end_date",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"booking_id": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"biblio_id": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"item_id": bson.M{
				"bsonType": []string{"int", "long", "null"},
			},

			"patron_id": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"pickup_library_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 10,
			},

			"start_date": bson.M{
				"bsonType": "date",
			},

			"end_date": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"new",
					"pending",
					"active",
					"cancelled",
					"completed",
				},
			},

			"creation_date": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ItemValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"item_id", "biblio_id", "bookable"},
		"properties": bson.M{
			"item_id":         bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
			"biblio_id":       bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
			"external_id":     bson.M{"bsonType": "string"},
			"item_type_id":    bson.M{"bsonType": "string"},
			"home_library_id": bson.M{"bsonType": "string"},
			"bookable":        bson.M{"bsonType": "bool"},
		},
	},
}

// RuleValidator accepts "*" in any scope field as a wildcard.
var RuleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"patron_category_id", "item_type_id", "library_id"},
		"properties": bson.M{
			"patron_category_id":    bson.M{"bsonType": "string", "minLength": 1},
			"item_type_id":          bson.M{"bsonType": "string", "minLength": 1},
			"library_id":            bson.M{"bsonType": "string", "minLength": 1},
			"bookings_lead_period":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"bookings_trail_period": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
		},
	},
}
