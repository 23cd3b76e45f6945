package services

import (
	"context"
	"testing"
	"time"

	"github.com/dcode-github/real_estate_listing/models"
	"github.com/dcode-github/real_estate_listing/store/storetest"
	"github.com/dcode-github/real_estate_listing/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) (*UserService, *storetest.Users, *utils.TokenManager) {
	t.Helper()
	users := storetest.NewUsers()
	tokens := utils.NewTokenManager("test-key", time.Hour)
	return NewUserService(users, tokens, bcrypt.MinCost), users, tokens
}

func expectKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func register(t *testing.T, svc *UserService, email string) *models.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), RegisterInput{Name: "Test", Email: email, Password: "secret1"})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return resp
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newUserService(t)
	first := register(t, svc, "dup@example.com")
	if first.Role != models.RoleUser {
		t.Fatalf("expected default role user, got %q", first.Role)
	}

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Other", Email: "DUP@example.com ", Password: "x"})
	expectKind(t, err, KindConflict)
	if err.Error() != "User already exists" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestRegisterRequiresFields(t *testing.T) {
	svc, _, _ := newUserService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "x"})
	expectKind(t, err, KindValidation)
	_, err = svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.c"})
	expectKind(t, err, KindValidation)
}

func TestRegisterTokenIdentifiesUser(t *testing.T) {
	svc, users, tokens := newUserService(t)
	resp := register(t, svc, "tok@example.com")

	id, err := tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != resp.ID.Hex() {
		t.Fatalf("token carries %q, want %q", id, resp.ID.Hex())
	}

	stored, err := users.FindByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Password == "secret1" || !utils.CheckPasswordHash("secret1", stored.Password) {
		t.Fatalf("password not stored as a hash")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newUserService(t)
	register(t, svc, "login@example.com")

	_, errUnknown := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "secret1"})
	_, errWrong := svc.Login(context.Background(), LoginInput{Email: "login@example.com", Password: "wrong"})
	expectKind(t, errUnknown, KindUnauthorized)
	expectKind(t, errWrong, KindUnauthorized)
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("messages differ: %q vs %q", errUnknown, errWrong)
	}

	resp, err := svc.Login(context.Background(), LoginInput{Email: "Login@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected token")
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newUserService(t)
	a := register(t, svc, "a@example.com")
	register(t, svc, "b@example.com")

	_, err := svc.UpdateProfile(context.Background(), a.ID, UpdateProfileInput{Email: "b@example.com"})
	expectKind(t, err, KindConflict)

	resp, err := svc.UpdateProfile(context.Background(), a.ID, UpdateProfileInput{Name: "Renamed", Password: "newpass"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if resp.Name != "Renamed" || resp.Email != "a@example.com" {
		t.Fatalf("unexpected profile: %#v", resp)
	}
	if _, err := svc.Login(context.Background(), LoginInput{Email: "a@example.com", Password: "newpass"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestProfileUnknownUser(t *testing.T) {
	svc, _, _ := newUserService(t)
	_, err := svc.Profile(context.Background(), primitive.NewObjectID())
	expectKind(t, err, KindNotFound)
}

func TestFavorites(t *testing.T) {
	svc, _, _ := newUserService(t)
	u := register(t, svc, "fav@example.com")
	pid := primitive.NewObjectID()

	favs, err := svc.AddFavorite(context.Background(), u.ID, pid.Hex())
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if len(favs) != 1 || favs[0] != pid {
		t.Fatalf("unexpected favorites: %v", favs)
	}

	_, err = svc.AddFavorite(context.Background(), u.ID, pid.Hex())
	expectKind(t, err, KindConflict)

	profile, err := svc.Profile(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(profile.Favorites) != 1 {
		t.Fatalf("duplicate add changed favorites: %v", profile.Favorites)
	}

	favs, err = svc.RemoveFavorite(context.Background(), u.ID, pid.Hex())
	if err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if len(favs) != 0 {
		t.Fatalf("expected empty favorites, got %v", favs)
	}

	_, err = svc.RemoveFavorite(context.Background(), u.ID, pid.Hex())
	expectKind(t, err, KindBadRequest)

	_, err = svc.AddFavorite(context.Background(), u.ID, "not-an-id")
	expectKind(t, err, KindBadRequest)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	svc, users, _ := newUserService(t)
	register(t, svc, "u1@example.com")
	users.Put(models.User{ID: primitive.NewObjectID(), Name: "Agent", Email: "agent@example.com", Password: "h", Role: models.RoleAgent})

	_, err := svc.ListUsers(context.Background(), models.RoleUser)
	expectKind(t, err, KindUnauthorized)

	all, err := svc.ListUsers(context.Background(), models.RoleAdmin)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
	for _, u := range all {
		if u.Password != "" {
			t.Fatalf("password returned for %s", u.Email)
		}
	}

	agents, err := svc.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(agents) != 1 || agents[0].Email != "agent@example.com" {
		t.Fatalf("unexpected agents: %#v", agents)
	}
}
