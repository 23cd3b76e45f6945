package store

import (
	"context"

	"github.com/dcode-github/real_estate_listing/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

type PropertyStore struct {
	coll *mongo.Collection
}

func NewPropertyStore(coll *mongo.Collection) *PropertyStore {
	return &PropertyStore{coll: coll}
}

func (s *PropertyStore) Create(ctx context.Context, p *models.Property) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, p)
	return translate(err)
}

func (s *PropertyStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var p models.Property
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindByIDWithOwner returns the property with its owner's name, email and phone joined in.
func (s *PropertyStore) FindByIDWithOwner(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}
	pipeline = append(pipeline, ownerLookup("name", "email", "phone")...)

	props, err := s.aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, ErrNotFound
	}
	return &props[0], nil
}

func (s *PropertyStore) Search(ctx context.Context, f models.PropertyFilter, skip, limit int64) ([]models.Property, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: BuildPropertyFilter(f)}},
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, ownerLookup("name", "email", "phone")...)
	return s.aggregate(ctx, pipeline)
}

func (s *PropertyStore) Count(ctx context.Context, f models.PropertyFilter) (int64, error) {
	return s.coll.CountDocuments(ctx, BuildPropertyFilter(f))
}

func (s *PropertyStore) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Update persists the client-mutable fields of p. Owner, views and createdAt are never written here.
func (s *PropertyStore) Update(ctx context.Context, p *models.Property) error {
	set := bson.M{
		"title":       p.Title,
		"description": p.Description,
		"type":        p.Type,
		"status":      p.Status,
		"price":       p.Price,
		"area":        p.Area,
		"bedrooms":    p.Bedrooms,
		"bathrooms":   p.Bathrooms,
		"furnishing":  p.Furnishing,
		"parking":     p.Parking,
		"amenities":   p.Amenities,
		"images":      p.Images,
		"address":     p.Address,
		"location":    p.Location,
		"featured":    p.Featured,
		"updatedAt":   p.UpdatedAt,
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PropertyStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Featured returns up to limit featured listings with only the owner's name joined.
func (s *PropertyStore) Featured(ctx context.Context, limit int64) ([]models.Property, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"featured": true}}},
		{{Key: "$limit", Value: limit}},
	}
	pipeline = append(pipeline, ownerLookup("name")...)
	return s.aggregate(ctx, pipeline)
}

func (s *PropertyStore) Nearby(ctx context.Context, lng, lat, maxMeters float64, limit int64) ([]models.Property, error) {
	cursor, err := s.coll.Find(ctx, NearFilter(lng, lat, maxMeters), options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	props := []models.Property{}
	if err := cursor.All(ctx, &props); err != nil {
		return nil, err
	}
	return props, nil
}

func (s *PropertyStore) ByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Property, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner": owner}}},
		{{Key: "$sort", Value: newestFirst}},
	}
	pipeline = append(pipeline, ownerLookup("name", "email", "phone")...)
	return s.aggregate(ctx, pipeline)
}

func (s *PropertyStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.Property, error) {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	props := []models.Property{}
	if err := cursor.All(ctx, &props); err != nil {
		return nil, err
	}
	return props, nil
}
