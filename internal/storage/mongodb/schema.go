package mongodb

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"marinerefuge/backend/internal/domain"
)

// 集合级 $jsonSchema 校验，违反时服务器返回错误码 121。

func subscriberSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"email", "subscribedAt", "isActive"},
		"properties": bson.M{
			"email": bson.M{
				"bsonType":  "string",
				"maxLength": domain.MaxEmailLength,
				"pattern":   `^[^\s@]+@[^\s@]+\.[^\s@]+$`,
			},
			"subscribedAt": bson.M{"bsonType": "date"},
			"isActive":     bson.M{"bsonType": "bool"},
		},
	}
}

func contactSchema() bson.M {
	str := func(max int) bson.M {
		return bson.M{"bsonType": "string", "minLength": 1, "maxLength": max}
	}
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"firstName", "lastName", "email", "phone", "message", "source", "timestamp", "status", "read"},
		"properties": bson.M{
			"firstName": str(domain.MaxNameLength),
			"lastName":  str(domain.MaxNameLength),
			"email":     str(domain.MaxEmailLength),
			"phone":     bson.M{"bsonType": "string", "minLength": 1},
			"message":   str(domain.MaxMessageLength),
			"source": bson.M{"enum": bson.A{
				string(domain.SourceWebsiteContactForm), string(domain.SourceAPI), string(domain.SourceOther),
			}},
			"status": bson.M{"enum": bson.A{
				string(domain.StatusReceived), string(domain.StatusRead), string(domain.StatusResponded), string(domain.StatusSpam),
			}},
			"timestamp": bson.M{"bsonType": "date"},
			"read":      bson.M{"bsonType": "bool"},
		},
	}
}
