package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dcode-github/real_estate_listing/metrics"
	"github.com/dcode-github/real_estate_listing/models"
	"github.com/dcode-github/real_estate_listing/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PageSize        = 12
	FeaturedLimit   = 6
	NearbyLimit     = 12
	DefaultRadiusKm = 10
)

type PropertyStore interface {
	Create(ctx context.Context, p *models.Property) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	FindByIDWithOwner(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	Search(ctx context.Context, f models.PropertyFilter, skip, limit int64) ([]models.Property, error)
	Count(ctx context.Context, f models.PropertyFilter) (int64, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	Update(ctx context.Context, p *models.Property) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	Featured(ctx context.Context, limit int64) ([]models.Property, error)
	Nearby(ctx context.Context, lng, lat, maxMeters float64, limit int64) ([]models.Property, error)
	ByOwner(ctx context.Context, owner primitive.ObjectID) ([]models.Property, error)
}

type AddressInput struct {
	Street  *string `json:"street"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zipCode"`
	Country *string `json:"country"`
}

type CreatePropertyInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	Price       *float64       `json:"price"`
	Area        *float64       `json:"area"`
	Bedrooms    int            `json:"bedrooms"`
	Bathrooms   int            `json:"bathrooms"`
	Furnishing  string         `json:"furnishing"`
	Parking     bool           `json:"parking"`
	Amenities   []string       `json:"amenities"`
	Images      []string       `json:"images"`
	Address     models.Address `json:"address"`
	Coordinates []float64      `json:"coordinates"`
}

// missing reports the first absent required field in schema order.
func (in *CreatePropertyInput) missing() error {
	checks := []struct {
		absent bool
		field  string
		msg    string
	}{
		{strings.TrimSpace(in.Title) == "", "title", "Property title is required"},
		{in.Description == "", "description", "Property description is required"},
		{in.Type == "", "type", "Property type is required"},
		{in.Status == "", "status", "Property status is required"},
		{in.Price == nil, "price", "Property price is required"},
		{in.Area == nil, "area", "Property area is required"},
		{in.Address.Street == "", "address.street", "Street address is required"},
		{in.Address.City == "", "address.city", "City is required"},
		{in.Address.State == "", "address.state", "State is required"},
		{in.Address.ZipCode == "", "address.zipCode", "Zip code is required"},
	}
	for _, c := range checks {
		if c.absent {
			return &models.ValidationError{Field: c.field, Message: c.msg}
		}
	}
	return nil
}

// UpdatePropertyInput lists the fields a client may change. Nil means keep the stored value.
type UpdatePropertyInput struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	Type        *string       `json:"type"`
	Status      *string       `json:"status"`
	Price       *float64      `json:"price"`
	Area        *float64      `json:"area"`
	Bedrooms    *int          `json:"bedrooms"`
	Bathrooms   *int          `json:"bathrooms"`
	Furnishing  *string       `json:"furnishing"`
	Parking     *bool         `json:"parking"`
	Amenities   []string      `json:"amenities"`
	Images      []string      `json:"images"`
	Address     *AddressInput `json:"address"`
	Coordinates []float64     `json:"coordinates"`
	Featured    *bool         `json:"featured"`
}

func (in *UpdatePropertyInput) apply(p *models.Property) {
	setString(&p.Title, in.Title)
	p.Title = strings.TrimSpace(p.Title)
	setString(&p.Description, in.Description)
	setString(&p.Type, in.Type)
	setString(&p.Status, in.Status)
	setString(&p.Furnishing, in.Furnishing)
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Area != nil {
		p.Area = *in.Area
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		p.Bathrooms = *in.Bathrooms
	}
	if in.Parking != nil {
		p.Parking = *in.Parking
	}
	if in.Amenities != nil {
		p.Amenities = in.Amenities
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if a := in.Address; a != nil {
		setString(&p.Address.Street, a.Street)
		setString(&p.Address.City, a.City)
		setString(&p.Address.State, a.State)
		setString(&p.Address.ZipCode, a.ZipCode)
		setString(&p.Address.Country, a.Country)
	}
	if in.Coordinates != nil {
		p.Location = models.GeoPoint{Type: "Point", Coordinates: in.Coordinates}
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

type PropertyService struct {
	store PropertyStore
	now   func() time.Time
}

func NewPropertyService(s PropertyStore) *PropertyService {
	return &PropertyService{store: s, now: time.Now}
}

func (s *PropertyService) Create(ctx context.Context, req Requester, in CreatePropertyInput) (*models.Property, error) {
	if !CanCreateProperty(req.Role) {
		return nil, newError(KindUnauthorized, "Not authorized as an agent or admin")
	}
	if err := in.missing(); err != nil {
		return nil, validation(err)
	}

	now := s.now().UTC()
	p := &models.Property{
		ID:          primitive.NewObjectID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Type:        in.Type,
		Status:      in.Status,
		Price:       *in.Price,
		Area:        *in.Area,
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Furnishing:  in.Furnishing,
		Parking:     in.Parking,
		Amenities:   in.Amenities,
		Images:      in.Images,
		Address:     in.Address,
		Owner:       req.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(in.Coordinates) > 0 {
		p.Location = models.GeoPoint{Type: "Point", Coordinates: in.Coordinates}
	}
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, validation(err)
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, internal("create property", err)
	}
	return p, nil
}

func (s *PropertyService) List(ctx context.Context, f models.PropertyFilter, page int) (*models.PropertyPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, internal("count properties", err)
	}
	pages := int(math.Ceil(float64(total) / PageSize))
	result := &models.PropertyPage{
		Properties:      []models.Property{},
		Page:            page,
		Pages:           pages,
		TotalProperties: total,
	}
	if page > pages {
		return result, nil
	}

	props, err := s.store.Search(ctx, f, int64(page-1)*PageSize, PageSize)
	if err != nil {
		return nil, internal("search properties", err)
	}
	result.Properties = props
	return result, nil
}

// GetByID returns the property with its owner populated and records one view.
func (s *PropertyService) GetByID(ctx context.Context, rawID string) (*models.Property, error) {
	id, err := parsePropertyID(rawID)
	if err != nil {
		return nil, err
	}

	p, err := s.store.FindByIDWithOwner(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Property not found", "find property")
	}
	if err := s.store.IncrementViews(ctx, id); err != nil {
		return nil, notFoundOr(err, "Property not found", "increment views")
	}
	p.Views++
	metrics.PropertyViews.Inc()
	return p, nil
}

func (s *PropertyService) Update(ctx context.Context, req Requester, rawID string, in UpdatePropertyInput) (*models.Property, error) {
	p, err := s.authorizedProperty(ctx, req, rawID, "Not authorized to update this property")
	if err != nil {
		return nil, err
	}
	if in.Featured != nil && *in.Featured != p.Featured && !IsAdmin(req.Role) {
		return nil, newError(KindUnauthorized, "Only admins can change featured status")
	}

	in.apply(p)
	p.UpdatedAt = s.now().UTC()
	if err := p.Validate(); err != nil {
		return nil, validation(err)
	}

	if err := s.store.Update(ctx, p); err != nil {
		return nil, notFoundOr(err, "Property not found", "update property")
	}
	return p, nil
}

func (s *PropertyService) Delete(ctx context.Context, req Requester, rawID string) error {
	p, err := s.authorizedProperty(ctx, req, rawID, "Not authorized to delete this property")
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, p.ID); err != nil {
		return notFoundOr(err, "Property not found", "delete property")
	}
	return nil
}

func (s *PropertyService) Featured(ctx context.Context) ([]models.Property, error) {
	props, err := s.store.Featured(ctx, FeaturedLimit)
	if err != nil {
		return nil, internal("featured properties", err)
	}
	return props, nil
}

// Nearby finds up to NearbyLimit listings within radiusKm of the point, nearest first.
func (s *PropertyService) Nearby(ctx context.Context, rawLat, rawLng, rawRadius string) ([]models.Property, error) {
	if rawLat == "" || rawLng == "" {
		return nil, newError(KindBadRequest, "Latitude and longitude are required")
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	if errLat != nil || errLng != nil {
		return nil, newError(KindBadRequest, "Latitude and longitude must be numbers")
	}

	radius := float64(DefaultRadiusKm)
	if rawRadius != "" {
		r, err := strconv.ParseFloat(rawRadius, 64)
		if err != nil || r < 0 {
			return nil, newError(KindBadRequest, "Radius must be a non-negative number")
		}
		radius = r
	}

	props, err := s.store.Nearby(ctx, lng, lat, radius*1000, NearbyLimit)
	if err != nil {
		return nil, internal("nearby properties", err)
	}
	return props, nil
}

func (s *PropertyService) ByOwner(ctx context.Context, req Requester) ([]models.Property, error) {
	props, err := s.store.ByOwner(ctx, req.ID)
	if err != nil {
		return nil, internal("owner properties", err)
	}
	return props, nil
}

func (s *PropertyService) authorizedProperty(ctx context.Context, req Requester, rawID, denied string) (*models.Property, error) {
	id, err := parsePropertyID(rawID)
	if err != nil {
		return nil, err
	}
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Property not found", "find property")
	}
	if !CanMutate(req.Role, req.ID, p.Owner) {
		return nil, newError(KindUnauthorized, denied)
	}
	return p, nil
}

func parsePropertyID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, newError(KindBadRequest, "Invalid property ID")
	}
	return id, nil
}

func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return newError(KindNotFound, msg)
	}
	return internal(op, err)
}

func validation(err error) error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}
