package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	FurnishingUnfurnished   = "unfurnished"
	FurnishingSemiFurnished = "semi-furnished"
	FurnishingFully         = "fully-furnished"

	StatusForSale = "for-sale"
	StatusForRent = "for-rent"

	DefaultCountry = "India"
)

var PropertyTypes = []string{"apartment", "house", "villa", "office", "shop", "land", "other"}

var PropertyStatuses = []string{StatusForSale, StatusForRent}

var FurnishingOptions = []string{FurnishingUnfurnished, FurnishingSemiFurnished, FurnishingFully}

type Address struct {
	Street  string `bson:"street" json:"street"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	ZipCode string `bson:"zipCode" json:"zipCode"`
	Country string `bson:"country" json:"country"`
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// OwnerSummary is the subset of a user joined onto a property when the owner is populated.
type OwnerSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone string             `bson:"phone,omitempty" json:"phone,omitempty"`
}

type Property struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Type        string             `bson:"type" json:"type"`
	Status      string             `bson:"status" json:"status"`
	Price       float64            `bson:"price" json:"price"`
	Area        float64            `bson:"area" json:"area"`
	Bedrooms    int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms   int                `bson:"bathrooms" json:"bathrooms"`
	Furnishing  string             `bson:"furnishing" json:"furnishing"`
	Parking     bool               `bson:"parking" json:"parking"`
	Amenities   []string           `bson:"amenities" json:"amenities"`
	Images      []string           `bson:"images" json:"images"`
	Address     Address            `bson:"address" json:"address"`
	Location    GeoPoint           `bson:"location" json:"location"`
	Owner       primitive.ObjectID `bson:"owner" json:"-"`
	OwnerInfo   *OwnerSummary      `bson:"ownerInfo,omitempty" json:"-"`
	Featured    bool               `bson:"featured" json:"featured"`
	Views       int                `bson:"views" json:"views"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MarshalJSON renders owner as the populated summary when present, otherwise as the owner id.
func (p Property) MarshalJSON() ([]byte, error) {
	type plain Property
	out := struct {
		plain
		Owner any `json:"owner"`
	}{plain: plain(p), Owner: p.Owner.Hex()}
	if p.OwnerInfo != nil {
		out.Owner = p.OwnerInfo
	}
	return json.Marshal(out)
}

// ApplyDefaults fills the zero values the listing schema defaults.
func (p *Property) ApplyDefaults() {
	if p.Furnishing == "" {
		p.Furnishing = FurnishingUnfurnished
	}
	if p.Amenities == nil {
		p.Amenities = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Address.Country == "" {
		p.Address.Country = DefaultCountry
	}
	if len(p.Location.Coordinates) == 0 {
		p.Location = NewGeoPoint(0, 0)
	}
	if p.Location.Type == "" {
		p.Location.Type = "Point"
	}
}

// Validate reports the first unmet constraint, checking required fields in schema order.
func (p *Property) Validate() error {
	required := []struct {
		field string
		empty bool
		msg   string
	}{
		{"title", p.Title == "", "Property title is required"},
		{"description", p.Description == "", "Property description is required"},
		{"type", p.Type == "", "Property type is required"},
		{"status", p.Status == "", "Property status is required"},
		{"address.street", p.Address.Street == "", "Street address is required"},
		{"address.city", p.Address.City == "", "City is required"},
		{"address.state", p.Address.State == "", "State is required"},
		{"address.zipCode", p.Address.ZipCode == "", "Zip code is required"},
	}
	for _, r := range required {
		if r.empty {
			return &ValidationError{Field: r.field, Message: r.msg}
		}
	}
	if p.Owner.IsZero() {
		return &ValidationError{Field: "owner", Message: "Property owner is required"}
	}

	if !oneOf(p.Type, PropertyTypes) {
		return invalidEnum("type", p.Type)
	}
	if !oneOf(p.Status, PropertyStatuses) {
		return invalidEnum("status", p.Status)
	}
	if !oneOf(p.Furnishing, FurnishingOptions) {
		return invalidEnum("furnishing", p.Furnishing)
	}
	if p.Price < 0 {
		return &ValidationError{Field: "price", Message: "Property price must not be negative"}
	}
	if p.Area < 0 {
		return &ValidationError{Field: "area", Message: "Property area must not be negative"}
	}
	if p.Bedrooms < 0 || p.Bathrooms < 0 {
		return &ValidationError{Field: "bedrooms", Message: "Room counts must not be negative"}
	}
	return ValidateCoordinates(p.Location.Coordinates)
}

// ValidateCoordinates checks a [lng, lat] pair.
func ValidateCoordinates(c []float64) error {
	if len(c) != 2 {
		return &ValidationError{Field: "coordinates", Message: "Coordinates must be [longitude, latitude]"}
	}
	if c[0] < -180 || c[0] > 180 || c[1] < -90 || c[1] > 90 {
		return &ValidationError{Field: "coordinates", Message: "Coordinates are out of range"}
	}
	return nil
}

// PropertyFilter holds the optional search criteria of a listing query. Nil means unset.
type PropertyFilter struct {
	Type         string
	Status       string
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	MinBathrooms *int
	Furnishing   string
	City         string
}

// PropertyPage is one page of listing results.
type PropertyPage struct {
	Properties      []Property `json:"properties"`
	Page            int        `json:"page"`
	Pages           int        `json:"pages"`
	TotalProperties int64      `json:"totalProperties"`
}
