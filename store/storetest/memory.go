// Package storetest provides in-memory user and property stores with the same
// contract as the Mongo-backed ones, for service and handler tests.
package storetest

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/dcode-github/real_estate_listing/models"
	"github.com/dcode-github/real_estate_listing/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const earthRadiusMeters = 6378100.0

type Users struct {
	mu    sync.Mutex
	byID  map[primitive.ObjectID]models.User
	order []primitive.ObjectID
}

func NewUsers() *Users {
	return &Users{byID: map[primitive.ObjectID]models.User{}}
}

func (s *Users) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.byID[u.ID] = cloneUser(*u)
	s.order = append(s.order, u.ID)
	return nil
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Email == email {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Users) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	for id, other := range s.byID {
		if id != u.ID && other.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	stored.Name = u.Name
	stored.Email = u.Email
	stored.Phone = u.Phone
	stored.ProfilePicture = u.ProfilePicture
	stored.Password = u.Password
	stored.UpdatedAt = u.UpdatedAt
	s.byID[u.ID] = stored
	return nil
}

func (s *Users) SetFavorites(_ context.Context, id primitive.ObjectID, favorites []primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Favorites = append([]primitive.ObjectID{}, favorites...)
	s.byID[id] = u
	return nil
}

func (s *Users) List(_ context.Context, role string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range s.order {
		u := s.byID[id]
		if role != "" && u.Role != role {
			continue
		}
		u = cloneUser(u)
		u.Password = ""
		out = append(out, u)
	}
	return out, nil
}

// Put stores u as is, bypassing the duplicate check. Tests use it to seed agents and admins.
func (s *Users) Put(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; !ok {
		s.order = append(s.order, u.ID)
	}
	s.byID[u.ID] = cloneUser(u)
}

func (s *Users) summary(id primitive.ObjectID, withContact bool) *models.OwnerSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil
	}
	sum := &models.OwnerSummary{ID: u.ID, Name: u.Name}
	if withContact {
		sum.Email = u.Email
		sum.Phone = u.Phone
	}
	return sum
}

func cloneUser(u models.User) models.User {
	if u.Favorites != nil {
		u.Favorites = append([]primitive.ObjectID{}, u.Favorites...)
	}
	return u
}

// Properties joins owner summaries from Users the way the Mongo lookup does.
type Properties struct {
	mu    sync.Mutex
	users *Users
	docs  []models.Property
}

func NewProperties(users *Users) *Properties {
	return &Properties{users: users}
}

func (s *Properties) Create(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.docs = append(s.docs, cloneProperty(*p))
	return nil
}

func (s *Properties) FindByID(_ context.Context, id primitive.ObjectID) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	p := cloneProperty(s.docs[i])
	return &p, nil
}

func (s *Properties) FindByIDWithOwner(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	p, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populate(p, true)
	return p, nil
}

func (s *Properties) Search(_ context.Context, f models.PropertyFilter, skip, limit int64) ([]models.Property, error) {
	matched := s.newestFirst(func(p models.Property) bool { return Matches(p, f) })
	if skip < 0 || skip >= int64(len(matched)) {
		return []models.Property{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	for i := range matched {
		s.populate(&matched[i], true)
	}
	return matched, nil
}

func (s *Properties) Count(_ context.Context, f models.PropertyFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.docs {
		if Matches(p, f) {
			n++
		}
	}
	return n, nil
}

func (s *Properties) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.docs[i].Views++
	return nil
}

func (s *Properties) Update(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(p.ID)
	if i < 0 {
		return store.ErrNotFound
	}
	stored := s.docs[i]
	updated := cloneProperty(*p)
	updated.Owner = stored.Owner
	updated.Views = stored.Views
	updated.CreatedAt = stored.CreatedAt
	updated.OwnerInfo = nil
	s.docs[i] = updated
	return nil
}

func (s *Properties) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return store.ErrNotFound
	}
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	return nil
}

func (s *Properties) Featured(_ context.Context, limit int64) ([]models.Property, error) {
	s.mu.Lock()
	out := []models.Property{}
	for _, p := range s.docs {
		if p.Featured && int64(len(out)) < limit {
			out = append(out, cloneProperty(p))
		}
	}
	s.mu.Unlock()
	for i := range out {
		s.populate(&out[i], false)
	}
	return out, nil
}

func (s *Properties) Nearby(_ context.Context, lng, lat, maxMeters float64, limit int64) ([]models.Property, error) {
	type hit struct {
		p    models.Property
		dist float64
	}
	s.mu.Lock()
	var hits []hit
	for _, p := range s.docs {
		if len(p.Location.Coordinates) != 2 {
			continue
		}
		d := Distance(lng, lat, p.Location.Coordinates[0], p.Location.Coordinates[1])
		if d <= maxMeters {
			hits = append(hits, hit{cloneProperty(p), d})
		}
	}
	s.mu.Unlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := []models.Property{}
	for _, h := range hits {
		if int64(len(out)) == limit {
			break
		}
		out = append(out, h.p)
	}
	return out, nil
}

func (s *Properties) ByOwner(_ context.Context, owner primitive.ObjectID) ([]models.Property, error) {
	out := s.newestFirst(func(p models.Property) bool { return p.Owner == owner })
	for i := range out {
		s.populate(&out[i], true)
	}
	return out, nil
}

// Len reports how many properties are stored.
func (s *Properties) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Properties) index(id primitive.ObjectID) int {
	for i, p := range s.docs {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// newestFirst orders by createdAt descending; equal timestamps keep the later insert first.
func (s *Properties) newestFirst(keep func(models.Property) bool) []models.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Property{}
	for i := len(s.docs) - 1; i >= 0; i-- {
		if keep(s.docs[i]) {
			out = append(out, cloneProperty(s.docs[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Properties) populate(p *models.Property, withContact bool) {
	if s.users != nil {
		p.OwnerInfo = s.users.summary(p.Owner, withContact)
	}
}

// Matches applies a listing filter with the same semantics as the Mongo query.
func Matches(p models.Property, f models.PropertyFilter) bool {
	switch {
	case f.Type != "" && p.Type != f.Type:
		return false
	case f.Status != "" && p.Status != f.Status:
		return false
	case f.Furnishing != "" && p.Furnishing != f.Furnishing:
		return false
	case f.MinPrice != nil && p.Price < *f.MinPrice:
		return false
	case f.MaxPrice != nil && p.Price > *f.MaxPrice:
		return false
	case f.MinBedrooms != nil && p.Bedrooms < *f.MinBedrooms:
		return false
	case f.MinBathrooms != nil && p.Bathrooms < *f.MinBathrooms:
		return false
	case f.City != "" && !strings.Contains(strings.ToLower(p.Address.City), strings.ToLower(f.City)):
		return false
	}
	return true
}

// Distance is the great-circle distance in meters between two [lng, lat] points.
func Distance(lng1, lat1, lng2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

func cloneProperty(p models.Property) models.Property {
	if p.Amenities != nil {
		p.Amenities = append([]string{}, p.Amenities...)
	}
	if p.Images != nil {
		p.Images = append([]string{}, p.Images...)
	}
	if p.Location.Coordinates != nil {
		p.Location.Coordinates = append([]float64{}, p.Location.Coordinates...)
	}
	if p.OwnerInfo != nil {
		o := *p.OwnerInfo
		p.OwnerInfo = &o
	}
	return p
}
