package controllers

import (
	"net/http"

	"github.com/dcode-github/real_estate_listing/cache"
	"github.com/dcode-github/real_estate_listing/middleware"
	"github.com/dcode-github/real_estate_listing/services"
)

func RegisterUser(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.RegisterInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}

		resp, err := users.Register(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func LoginUser(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.LoginInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		resp, err := users.Login(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func GetUserProfile(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		profile, err := users.Profile(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// UpdateUserProfile also invalidates the listing cache, since cached pages
// embed owner contact details.
func UpdateUserProfile(users *services.UserService, c *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		var in services.UpdateProfileInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request payload")
			return
		}

		resp, err := users.UpdateProfile(r.Context(), user.ID, in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		invalidate(r, c)
		writeJSON(w, http.StatusOK, resp)
	}
}

func GetUsers(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Not authorized")
			return
		}

		list, err := users.ListUsers(r.Context(), user.Role)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetAgents(users *services.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.ListAgents(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
