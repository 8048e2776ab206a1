package validators

import "go.mongodb.org/mongo-driver/bson"

var WindowValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"caregiver_id",
			"start_time",
			"end_time",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"caregiver_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"time_zone": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
