package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name           string               `bson:"name" json:"name"`
	Email          string               `bson:"email" json:"email"`
	Password       string               `bson:"password" json:"-"`
	Phone          string               `bson:"phone" json:"phone"`
	Role           string               `bson:"role" json:"role"`
	ProfilePicture string               `bson:"profilePicture" json:"profilePicture"`
	Favorites      []primitive.ObjectID `bson:"favorites" json:"favorites"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AuthResponse is the public profile returned by register, login and profile update.
type AuthResponse struct {
	ID             primitive.ObjectID `json:"_id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Role           string             `json:"role"`
	ProfilePicture string             `json:"profilePicture"`
	Token          string             `json:"token"`
}

// Profile is the authenticated caller's own view, including favorites.
type Profile struct {
	ID             primitive.ObjectID   `json:"_id"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Role           string               `json:"role"`
	ProfilePicture string               `json:"profilePicture"`
	Favorites      []primitive.ObjectID `json:"favorites"`
}

func (u *User) AuthResponse(token string) AuthResponse {
	return AuthResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		Token:          token,
	}
}

func (u *User) Profile() Profile {
	favs := u.Favorites
	if favs == nil {
		favs = []primitive.ObjectID{}
	}
	return Profile{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Phone:          u.Phone,
		Role:           u.Role,
		ProfilePicture: u.ProfilePicture,
		Favorites:      favs,
	}
}
