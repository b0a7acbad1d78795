package validators

import "go.mongodb.org/mongo-driver/bson"

var ReservationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id", "restaurant_id", "res_date", "res_start_time",
			"res_end_time", "duration_min", "table_size", "status", "created_at",
		},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":             bson.M{"bsonType": "objectId"},
			"user_id":         bson.M{"bsonType": "string"},
			"restaurant_id":   bson.M{"bsonType": "string"},
			"name":            bson.M{"bsonType": "string"},
			"contact":         bson.M{"bsonType": "string"},
			"res_date":        bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"res_start_time":  bson.M{"bsonType": "string", "pattern": `^([01]\d|2[0-3]):[0-5]\d$`},
			"res_end_time":    bson.M{"bsonType": "string", "pattern": `^\d{2}:[0-5]\d$`},
			"duration_min":    bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
			"table_size":      bson.M{"enum": []string{"small", "medium", "large"}},
			"party_size":      bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
			"status":          bson.M{"enum": []string{"pending", "cancelled", "complete", "incomplete"}},
			"locked_by_admin": bson.M{"bsonType": "bool"},
			"created_at":      bson.M{"bsonType": "date"},
			"updated_at":      bson.M{"bsonType": "date"},
		},
	},
}

var ReservationLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "owner", "expires_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"owner":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
