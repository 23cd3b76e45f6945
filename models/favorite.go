package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type FavoriteRequest struct {
	PropertyID string `json:"propertyId"`
}

type FavoritesResponse struct {
	Message   string               `json:"message"`
	Favorites []primitive.ObjectID `json:"favorites"`
}
