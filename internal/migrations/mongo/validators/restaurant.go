package validators

import "go.mongodb.org/mongo-driver/bson"

var RestaurantValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name", "address", "district", "province", "postal_code", "tel",
			"region", "open_time", "close_time", "created_at",
		},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "objectId"},
			"name":          bson.M{"bsonType": "string", "maxLength": 100},
			"address":       bson.M{"bsonType": "string"},
			"district":      bson.M{"bsonType": "string"},
			"province":      bson.M{"bsonType": "string"},
			"postal_code":   bson.M{"bsonType": "string", "maxLength": 5},
			"tel":           bson.M{"bsonType": "string"},
			"region":        bson.M{"bsonType": "string"},
			"open_time":     bson.M{"bsonType": "string"},
			"close_time":    bson.M{"bsonType": "string"},
			"small_tables":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"medium_tables": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"large_tables":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
			"created_at":    bson.M{"bsonType": "date"},
		},
	},
}
