package services

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/dcode-github/real_estate_listing/models"
	"github.com/dcode-github/real_estate_listing/store/storetest"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type propertyFixture struct {
	svc   *PropertyService
	users *storetest.Users
	props *storetest.Properties
	agent Requester
	other Requester
	admin Requester
	user  Requester
}

func newPropertyFixture(t *testing.T) *propertyFixture {
	t.Helper()
	users := storetest.NewUsers()
	props := storetest.NewProperties(users)

	seed := func(name, role string) Requester {
		u := models.User{ID: primitive.NewObjectID(), Name: name, Email: name + "@example.com", Phone: "555", Role: role}
		users.Put(u)
		return RequesterOf(&u)
	}

	f := &propertyFixture{
		svc:   NewPropertyService(props),
		users: users,
		props: props,
		agent: seed("agent", models.RoleAgent),
		other: seed("other", models.RoleAgent),
		admin: seed("admin", models.RoleAdmin),
		user:  seed("user", models.RoleUser),
	}

	// distinct, increasing createdAt values
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	f.svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return f
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func boolPtr(v bool) *bool        { return &v }

func listing(title string, price float64) CreatePropertyInput {
	return CreatePropertyInput{
		Title:       title,
		Description: "A place",
		Type:        "house",
		Status:      models.StatusForSale,
		Price:       floatPtr(price),
		Area:        floatPtr(120),
		Bedrooms:    3,
		Bathrooms:   2,
		Address:     models.Address{Street: "1 Main St", City: "Pune", State: "MH", ZipCode: "411001"},
	}
}

func (f *propertyFixture) create(t *testing.T, req Requester, in CreatePropertyInput) *models.Property {
	t.Helper()
	p, err := f.svc.Create(context.Background(), req, in)
	if err != nil {
		t.Fatalf("Create(%s): %v", in.Title, err)
	}
	return p
}

func TestCreatePropertyDefaults(t *testing.T) {
	f := newPropertyFixture(t)
	p := f.create(t, f.agent, listing("Cottage", 100))

	if p.Owner != f.agent.ID {
		t.Fatalf("owner not set to requester")
	}
	if p.Furnishing != models.FurnishingUnfurnished || p.Address.Country != models.DefaultCountry {
		t.Fatalf("defaults not applied: %q %q", p.Furnishing, p.Address.Country)
	}
	if p.Views != 0 || p.Featured {
		t.Fatalf("unexpected views/featured: %d %v", p.Views, p.Featured)
	}
	if c := p.Location.Coordinates; len(c) != 2 || c[0] != 0 || c[1] != 0 {
		t.Fatalf("location default: %v", c)
	}
	if f.props.Len() != 1 {
		t.Fatalf("expected 1 stored property, got %d", f.props.Len())
	}
}

func TestCreatePropertyRequiresAgent(t *testing.T) {
	f := newPropertyFixture(t)
	_, err := f.svc.Create(context.Background(), f.user, listing("Nope", 1))
	expectKind(t, err, KindUnauthorized)
	if f.props.Len() != 0 {
		t.Fatalf("property stored despite rejection")
	}
}

func TestCreatePropertyValidation(t *testing.T) {
	f := newPropertyFixture(t)
	cases := []struct {
		name string
		edit func(*CreatePropertyInput)
		msg  string
	}{
		{"missing title", func(in *CreatePropertyInput) { in.Title = "  " }, "Property title is required"},
		{"missing price", func(in *CreatePropertyInput) { in.Price = nil }, "Property price is required"},
		{"missing city", func(in *CreatePropertyInput) { in.Address.City = "" }, "City is required"},
		{"bad type", func(in *CreatePropertyInput) { in.Type = "castle" }, "`castle` is not a valid enum value for path `type`"},
		{"negative area", func(in *CreatePropertyInput) { in.Area = floatPtr(-1) }, "Property area must not be negative"},
		{"bad coordinates", func(in *CreatePropertyInput) { in.Coordinates = []float64{200, 0} }, "Coordinates are out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := listing("Valid", 10)
			tc.edit(&in)
			_, err := f.svc.Create(context.Background(), f.agent, in)
			expectKind(t, err, KindValidation)
			if err.Error() != tc.msg {
				t.Fatalf("message %q, want %q", err.Error(), tc.msg)
			}
		})
	}
}

func TestListPriceRange(t *testing.T) {
	f := newPropertyFixture(t)
	for _, price := range []float64{50, 100, 150, 200, 250} {
		f.create(t, f.agent, listing(fmt.Sprintf("p%v", price), price))
	}

	page, err := f.svc.List(context.Background(), models.PropertyFilter{MinPrice: floatPtr(100), MaxPrice: floatPtr(200)}, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalProperties != 3 || len(page.Properties) != 3 {
		t.Fatalf("expected 3 matches, got %d/%d", page.TotalProperties, len(page.Properties))
	}
	for _, p := range page.Properties {
		if p.Price < 100 || p.Price > 200 {
			t.Fatalf("price %v outside range", p.Price)
		}
		if p.OwnerInfo == nil || p.OwnerInfo.Email == "" {
			t.Fatalf("owner not populated: %#v", p.OwnerInfo)
		}
	}
}

func TestListFiltersAndTogether(t *testing.T) {
	f := newPropertyFixture(t)
	a := listing("Pune villa", 100)
	a.Type = "villa"
	f.create(t, f.agent, a)

	b := listing("Mumbai villa", 100)
	b.Type = "villa"
	b.Address.City = "Navi Mumbai"
	f.create(t, f.agent, b)

	c := listing("Mumbai flat", 100)
	c.Type = "apartment"
	c.Address.City = "Mumbai"
	c.Bedrooms = 1
	f.create(t, f.agent, c)

	page, err := f.svc.List(context.Background(), models.PropertyFilter{Type: "villa", City: "mumbai"}, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Properties) != 1 || page.Properties[0].Title != "Mumbai villa" {
		t.Fatalf("unexpected results: %#v", page.Properties)
	}

	page, err = f.svc.List(context.Background(), models.PropertyFilter{MinBedrooms: intPtr(2)}, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalProperties != 2 {
		t.Fatalf("bedrooms threshold: expected 2, got %d", page.TotalProperties)
	}
}

func TestListPagination(t *testing.T) {
	f := newPropertyFixture(t)
	for i := 0; i < 25; i++ {
		f.create(t, f.agent, listing("p"+strconv.Itoa(i), float64(i)))
	}

	first, err := f.svc.List(context.Background(), models.PropertyFilter{}, 1)
	if err != nil {
		t.Fatalf("List page 1: %v", err)
	}
	if len(first.Properties) != PageSize || first.Pages != 3 || first.TotalProperties != 25 || first.Page != 1 {
		t.Fatalf("page 1: %d items, pages=%d total=%d", len(first.Properties), first.Pages, first.TotalProperties)
	}
	if first.Properties[0].Title != "p24" {
		t.Fatalf("expected newest first, got %q", first.Properties[0].Title)
	}

	last, err := f.svc.List(context.Background(), models.PropertyFilter{}, 3)
	if err != nil {
		t.Fatalf("List page 3: %v", err)
	}
	if len(last.Properties) != 1 || last.Pages != 3 || last.Properties[0].Title != "p0" {
		t.Fatalf("page 3: %d items, pages=%d", len(last.Properties), last.Pages)
	}

	zero, err := f.svc.List(context.Background(), models.PropertyFilter{}, 0)
	if err != nil {
		t.Fatalf("List page 0: %v", err)
	}
	if zero.Page != 1 {
		t.Fatalf("page 0 should clamp to 1, got %d", zero.Page)
	}
}

func TestListPageBeyondLast(t *testing.T) {
	f := newPropertyFixture(t)
	for i := 0; i < 3; i++ {
		f.create(t, f.agent, listing("p"+strconv.Itoa(i), float64(i)))
	}

	for _, page := range []int{2, 768614336404564653} {
		got, err := f.svc.List(context.Background(), models.PropertyFilter{}, page)
		if err != nil {
			t.Fatalf("List page %d: %v", page, err)
		}
		if got.Properties == nil || len(got.Properties) != 0 {
			t.Fatalf("page %d: want empty list, got %#v", page, got.Properties)
		}
		if got.Page != page || got.Pages != 1 || got.TotalProperties != 3 {
			t.Fatalf("page %d: page=%d pages=%d total=%d", page, got.Page, got.Pages, got.TotalProperties)
		}
	}
}

func TestListEmptyStore(t *testing.T) {
	f := newPropertyFixture(t)
	got, err := f.svc.List(context.Background(), models.PropertyFilter{}, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got.Properties == nil || len(got.Properties) != 0 || got.Pages != 0 {
		t.Fatalf("unexpected page: %#v", got)
	}
}

func TestGetByIDCountsViews(t *testing.T) {
	f := newPropertyFixture(t)
	p := f.create(t, f.agent, listing("Viewed", 10))

	for i := 1; i <= 3; i++ {
		got, err := f.svc.GetByID(context.Background(), p.ID.Hex())
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Views != i {
			t.Fatalf("read %d: expected views %d, got %d", i, i, got.Views)
		}
		if got.OwnerInfo == nil || got.OwnerInfo.Name != "agent" {
			t.Fatalf("owner not populated: %#v", got.OwnerInfo)
		}
	}
}

func TestGetByIDErrors(t *testing.T) {
	f := newPropertyFixture(t)
	_, err := f.svc.GetByID(context.Background(), "zzz")
	expectKind(t, err, KindBadRequest)
	_, err = f.svc.GetByID(context.Background(), primitive.NewObjectID().Hex())
	expectKind(t, err, KindNotFound)
}

func TestUpdateAuthorization(t *testing.T) {
	f := newPropertyFixture(t)
	p := f.create(t, f.agent, listing("Mine", 10))

	_, err := f.svc.Update(context.Background(), f.other, p.ID.Hex(), UpdatePropertyInput{Title: strPtr("Stolen")})
	expectKind(t, err, KindUnauthorized)

	stored, _ := f.props.FindByID(context.Background(), p.ID)
	if stored.Title != "Mine" {
		t.Fatalf("unauthorized update was applied")
	}

	updated, err := f.svc.Update(context.Background(), f.agent, p.ID.Hex(), UpdatePropertyInput{
		Price:   floatPtr(42),
		Address: &AddressInput{City: strPtr("Nashik")},
	})
	if err != nil {
		t.Fatalf("owner Update: %v", err)
	}
	if updated.Price != 42 || updated.Address.City != "Nashik" || updated.Address.Street != "1 Main St" || updated.Title != "Mine" {
		t.Fatalf("partial update wrong: %#v", updated)
	}

	if _, err := f.svc.Update(context.Background(), f.admin, p.ID.Hex(), UpdatePropertyInput{Title: strPtr("Admin edit")}); err != nil {
		t.Fatalf("admin Update: %v", err)
	}
}

func TestUpdateFeaturedAdminOnly(t *testing.T) {
	f := newPropertyFixture(t)
	p := f.create(t, f.agent, listing("Feature me", 10))

	_, err := f.svc.Update(context.Background(), f.agent, p.ID.Hex(), UpdatePropertyInput{Featured: boolPtr(true)})
	expectKind(t, err, KindUnauthorized)

	got, err := f.svc.Update(context.Background(), f.admin, p.ID.Hex(), UpdatePropertyInput{Featured: boolPtr(true)})
	if err != nil {
		t.Fatalf("admin Update: %v", err)
	}
	if !got.Featured {
		t.Fatalf("featured not set")
	}

	featured, err := f.svc.Featured(context.Background())
	if err != nil {
		t.Fatalf("Featured: %v", err)
	}
	if len(featured) != 1 || featured[0].ID != p.ID {
		t.Fatalf("unexpected featured list: %#v", featured)
	}
	if featured[0].OwnerInfo == nil || featured[0].OwnerInfo.Email != "" {
		t.Fatalf("featured owner should carry name only: %#v", featured[0].OwnerInfo)
	}
}

func TestUpdateUnchangedFeaturedAllowed(t *testing.T) {
	f := newPropertyFixture(t)
	p := f.create(t, f.agent, listing("Echo", 10))

	got, err := f.svc.Update(context.Background(), f.agent, p.ID.Hex(), UpdatePropertyInput{Title: strPtr("Echo 2"), Featured: boolPtr(false)})
	if err != nil {
		t.Fatalf("agent Update with unchanged featured: %v", err)
	}
	if got.Title != "Echo 2" || got.Featured {
		t.Fatalf("unexpected result: %q featured=%v", got.Title, got.Featured)
	}

	if _, err := f.svc.Update(context.Background(), f.admin, p.ID.Hex(), UpdatePropertyInput{Featured: boolPtr(true)}); err != nil {
		t.Fatalf("admin Update: %v", err)
	}
	if _, err := f.svc.Update(context.Background(), f.agent, p.ID.Hex(), UpdatePropertyInput{Featured: boolPtr(true)}); err != nil {
		t.Fatalf("agent resending featured=true: %v", err)
	}
	_, err = f.svc.Update(context.Background(), f.agent, p.ID.Hex(), UpdatePropertyInput{Featured: boolPtr(false)})
	expectKind(t, err, KindUnauthorized)
}

func TestUpdateRejectsInvalidEnum(t *testing.T) {
	f := newPropertyFixture(t)
	p := f.create(t, f.agent, listing("Enum", 10))
	_, err := f.svc.Update(context.Background(), f.agent, p.ID.Hex(), UpdatePropertyInput{Status: strPtr("sold")})
	expectKind(t, err, KindValidation)
}

func TestDelete(t *testing.T) {
	f := newPropertyFixture(t)
	p := f.create(t, f.agent, listing("Gone", 10))

	expectKind(t, f.svc.Delete(context.Background(), f.other, p.ID.Hex()), KindUnauthorized)
	if err := f.svc.Delete(context.Background(), f.agent, p.ID.Hex()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	expectKind(t, f.svc.Delete(context.Background(), f.agent, p.ID.Hex()), KindNotFound)

	_, err := f.svc.GetByID(context.Background(), p.ID.Hex())
	expectKind(t, err, KindNotFound)
}

func TestNearby(t *testing.T) {
	f := newPropertyFixture(t)
	origin := listing("Origin", 10)
	origin.Coordinates = []float64{0, 0}
	f.create(t, f.agent, origin)

	far := listing("Far", 10)
	far.Coordinates = []float64{50, 50}
	f.create(t, f.agent, far)

	got, err := f.svc.Nearby(context.Background(), "0", "0", "1")
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Origin" {
		t.Fatalf("unexpected nearby results: %#v", got)
	}
	if got[0].OwnerInfo != nil {
		t.Fatalf("nearby results should not populate owner")
	}

	_, err = f.svc.Nearby(context.Background(), "", "0", "")
	expectKind(t, err, KindBadRequest)
	_, err = f.svc.Nearby(context.Background(), "abc", "0", "")
	expectKind(t, err, KindBadRequest)
}

func TestByOwner(t *testing.T) {
	f := newPropertyFixture(t)
	f.create(t, f.agent, listing("A1", 1))
	f.create(t, f.other, listing("O1", 1))
	f.create(t, f.agent, listing("A2", 1))

	got, err := f.svc.ByOwner(context.Background(), f.agent)
	if err != nil {
		t.Fatalf("ByOwner: %v", err)
	}
	if len(got) != 2 || got[0].Title != "A2" || got[1].Title != "A1" {
		t.Fatalf("unexpected owner listings: %#v", got)
	}

	none, err := f.svc.ByOwner(context.Background(), f.user)
	if err != nil {
		t.Fatalf("ByOwner: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %#v", none)
	}
}

func TestCanMutate(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	if !CanMutate(models.RoleAgent, owner, owner) {
		t.Fatalf("owner denied")
	}
	if CanMutate(models.RoleAgent, stranger, owner) {
		t.Fatalf("stranger allowed")
	}
	if !CanMutate(models.RoleAdmin, stranger, owner) {
		t.Fatalf("admin denied")
	}
}
