package store

import (
	"regexp"

	"github.com/dcode-github/real_estate_listing/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BuildPropertyFilter translates search criteria into a Mongo query. All criteria AND together.
func BuildPropertyFilter(f models.PropertyFilter) bson.M {
	filter := bson.M{}

	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}

	if f.MinBedrooms != nil {
		filter["bedrooms"] = bson.M{"$gte": *f.MinBedrooms}
	}
	if f.MinBathrooms != nil {
		filter["bathrooms"] = bson.M{"$gte": *f.MinBathrooms}
	}
	if f.Furnishing != "" {
		filter["furnishing"] = f.Furnishing
	}
	if f.City != "" {
		filter["address.city"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f.City), Options: "i"}}
	}

	return filter
}

// NearFilter selects points within maxMeters of [lng, lat], nearest first.
func NearFilter(lng, lat, maxMeters float64) bson.M {
	return bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{lng, lat},
				},
				"$maxDistance": maxMeters,
			},
		},
	}
}

// ownerLookup joins the owner's user document into ownerInfo, keeping only the given fields.
func ownerLookup(fields ...string) []bson.D {
	project := bson.M{"_id": 1}
	for _, f := range fields {
		project[f] = 1
	}
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from": "users",
			"let":  bson.M{"ownerId": "$owner"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ownerId"}}}},
				bson.M{"$project": project},
			},
			"as": "ownerInfo",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$ownerInfo",
			"preserveNullAndEmptyArrays": true,
		}}},
	}
}
