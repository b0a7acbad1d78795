package validators

import "go.mongodb.org/mongo-driver/bson"

var PointTransactionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"user_id", "type", "source", "source_id", "amount", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"user_id":    bson.M{"bsonType": "string"},
			"type":       bson.M{"enum": []string{"earn", "redeem"}},
			"source":     bson.M{"enum": []string{"reservation", "reward"}},
			"source_id":  bson.M{"bsonType": "string"},
			"amount":     bson.M{"bsonType": []string{"int", "long"}},
			"message":    bson.M{"bsonType": "string"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"user_id", "title", "message", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "objectId"},
			"user_id":    bson.M{"bsonType": "string"},
			"title":      bson.M{"bsonType": "string", "maxLength": 100},
			"message":    bson.M{"bsonType": "string", "maxLength": 1000},
			"read":       bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
