package validators

import "go.mongodb.org/mongo-driver/bson"

var CaregiverValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"display_name",
			"hourly_rate_cents",
			"currency",
			"specialties",
			"policy",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"display_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"hourly_rate_cents": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"specialties": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
					"enum": []string{
						"child_care",
						"senior_care",
						"housekeeping",
						"pet_care",
						"tutoring",
						"other",
					},
				},
				"minItems": 1,
			},

			"time_zone": bson.M{
				"bsonType":  "string",
				"maxLength": 64,
			},

			"policy": bson.M{
				"bsonType": "object",
				"required": []string{
					"free_cancel_min",
					"partial_refund_min",
					"partial_refund_pct",
				},
				"properties": bson.M{
					"free_cancel_min": bson.M{
						"bsonType": "int",
						"minimum":  0,
					},
					"partial_refund_min": bson.M{
						"bsonType": "int",
						"minimum":  0,
					},
					"partial_refund_pct": bson.M{
						"bsonType": "int",
						"minimum":  0,
						"maximum":  100,
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
