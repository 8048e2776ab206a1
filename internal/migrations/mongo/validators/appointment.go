package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"caregiver_id",
			"careseeker_id",
			"specialty",
			"start_time",
			"end_time",
			"status",
			"price_cents",
			"currency",
			"policy",
			"version",
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

			"careseeker_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"specialty": bson.M{
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

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"requested",
					"confirmed",
					"completed",
					"cancelled",
					"failed",
				},
			},

			"note": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"price_cents": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"currency": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 3,
			},

			"reservation_token": bson.M{
				"bsonType": "string",
			},

			"hold_ref": bson.M{
				"bsonType": "string",
			},

			"policy": bson.M{
				"bsonType": "object",
				"required": []string{
					"free_cancel_min",
					"partial_refund_min",
					"partial_refund_pct",
				},
			},

			"refund_tier": bson.M{
				"bsonType": "string",
				"enum": []string{
					"full",
					"partial",
					"none",
				},
			},

			"cancelled_by": bson.M{
				"bsonType": "string",
			},

			"version": bson.M{
				"bsonType": "long",
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
