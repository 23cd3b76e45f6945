package controllers

import (
	"net/http"

	"github.com/dcode-github/real_estate_listing/middleware"
	"github.com/dcode-github/real_estate_listing/models"
	"github.com/dcode-github/real_estate_listing/services"
	"github.com/gorilla/mux"
)

func AddFavorite(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		var fav models.FavoriteRequest
		if err := decodeJSON(r, &fav); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request data")
			return
		}
		if fav.PropertyID == "" {
			writeError(w, http.StatusBadRequest, "PropertyID is required")
			return
		}

		favorites, err := users.AddFavorite(r.Context(), user.ID, fav.PropertyID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.FavoritesResponse{
			Message:   "Property added to favorites",
			Favorites: favorites,
		})
	}
}

func RemoveFavorite(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		favorites, err := users.RemoveFavorite(r.Context(), user.ID, mux.Vars(r)["id"])
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, models.FavoritesResponse{
			Message:   "Property removed from favorites",
			Favorites: favorites,
		})
	}
}
