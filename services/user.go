package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dcode-github/real_estate_listing/models"
	"github.com/dcode-github/real_estate_listing/store"
	"github.com/dcode-github/real_estate_listing/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const invalidCredentials = "Invalid email or password"

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	SetFavorites(ctx context.Context, id primitive.ObjectID, favorites []primitive.ObjectID) error
	List(ctx context.Context, role string) ([]models.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileInput fields left empty keep their stored value.
type UpdateProfileInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	ProfilePicture string `json:"profilePicture"`
	Password       string `json:"password"`
}

type UserService struct {
	store      UserStore
	tokens     TokenIssuer
	bcryptCost int
	now        func() time.Time
}

func NewUserService(s UserStore, tokens TokenIssuer, bcryptCost int) *UserService {
	return &UserService{store: s, tokens: tokens, bcryptCost: bcryptCost, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.AuthResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.Name == "":
		return nil, newError(KindValidation, "Name is required")
	case in.Email == "":
		return nil, newError(KindValidation, "Email is required")
	case in.Password == "":
		return nil, newError(KindValidation, "Password is required")
	}

	if _, err := s.store.FindByEmail(ctx, in.Email); err == nil {
		return nil, newError(KindConflict, "User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internal("find user", err)
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, internal("hash password", err)
	}

	now := s.now().UTC()
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Phone:     in.Phone,
		Role:      models.RoleUser,
		Favorites: []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(KindConflict, "User already exists")
		}
		return nil, internal("create user", err)
	}
	return s.authResponse(u)
}

// Login answers unknown email and wrong password with the same message.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.AuthResponse, error) {
	u, err := s.store.FindByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindUnauthorized, invalidCredentials)
		}
		return nil, internal("find user", err)
	}
	if !utils.CheckPasswordHash(in.Password, u.Password) {
		return nil, newError(KindUnauthorized, invalidCredentials)
	}
	return s.authResponse(u)
}

func (s *UserService) Profile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in UpdateProfileInput) (*models.AuthResponse, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if email := normalizeEmail(in.Email); email != "" {
		u.Email = email
	}
	if in.Phone != "" {
		u.Phone = in.Phone
	}
	if in.ProfilePicture != "" {
		u.ProfilePicture = in.ProfilePicture
	}
	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, internal("hash password", err)
		}
		u.Password = hash
	}
	u.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, newError(KindConflict, "Email already in use")
		case errors.Is(err, store.ErrNotFound):
			return nil, newError(KindNotFound, "User not found")
		}
		return nil, internal("update user", err)
	}
	return s.authResponse(u)
}

func (s *UserService) AddFavorite(ctx context.Context, id primitive.ObjectID, rawPropertyID string) ([]primitive.ObjectID, error) {
	pid, err := parsePropertyID(rawPropertyID)
	if err != nil {
		return nil, err
	}
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, fav := range u.Favorites {
		if fav == pid {
			return nil, newError(KindConflict, "Property already in favorites")
		}
	}

	favs := append(u.Favorites, pid)
	if err := s.store.SetFavorites(ctx, id, favs); err != nil {
		return nil, notFoundOr(err, "User not found", "save favorites")
	}
	return favs, nil
}

func (s *UserService) RemoveFavorite(ctx context.Context, id primitive.ObjectID, rawPropertyID string) ([]primitive.ObjectID, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	pid, err := primitive.ObjectIDFromHex(rawPropertyID)
	if err != nil {
		return nil, newError(KindBadRequest, "Property not in favorites")
	}

	favs := make([]primitive.ObjectID, 0, len(u.Favorites))
	for _, fav := range u.Favorites {
		if fav != pid {
			favs = append(favs, fav)
		}
	}
	if len(favs) == len(u.Favorites) {
		return nil, newError(KindBadRequest, "Property not in favorites")
	}

	if err := s.store.SetFavorites(ctx, id, favs); err != nil {
		return nil, notFoundOr(err, "User not found", "save favorites")
	}
	return favs, nil
}

func (s *UserService) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	if !IsAdmin(role) {
		return nil, newError(KindUnauthorized, "Not authorized as an admin")
	}
	return s.list(ctx, "")
}

func (s *UserService) ListAgents(ctx context.Context) ([]models.User, error) {
	return s.list(ctx, models.RoleAgent)
}

func (s *UserService) list(ctx context.Context, role string) ([]models.User, error) {
	users, err := s.store.List(ctx, role)
	if err != nil {
		return nil, internal("list users", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

func (s *UserService) find(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found", "find user")
	}
	return u, nil
}

func (s *UserService) authResponse(u *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Issue(u.ID.Hex())
	if err != nil {
		return nil, internal("issue token", err)
	}
	resp := u.AuthResponse(token)
	return &resp, nil
}
