package services

import (
	"github.com/dcode-github/real_estate_listing/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Requester is the authenticated caller of a mutating operation.
type Requester struct {
	ID   primitive.ObjectID
	Role string
}

func RequesterOf(u *models.User) Requester {
	return Requester{ID: u.ID, Role: u.Role}
}

// CanMutate allows the resource owner or any admin.
func CanMutate(role string, requesterID, ownerID primitive.ObjectID) bool {
	return requesterID == ownerID || role == models.RoleAdmin
}

func CanCreateProperty(role string) bool {
	return role == models.RoleAgent || role == models.RoleAdmin
}

func IsAdmin(role string) bool {
	return role == models.RoleAdmin
}
