package routes

import (
	"net/http"

	"github.com/dcode-github/real_estate_listing/cache"
	"github.com/dcode-github/real_estate_listing/controllers"
	"github.com/dcode-github/real_estate_listing/metrics"
	"github.com/dcode-github/real_estate_listing/middleware"
	"github.com/dcode-github/real_estate_listing/services"
	"github.com/dcode-github/real_estate_listing/uploads"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Users      *services.UserService
	Properties *services.PropertyService
	Tokens     middleware.TokenVerifier
	UserLoader middleware.UserLoader
	Cache      *cache.PropertyCache
	Redis      *redis.Client
	RateLimit  middleware.RateLimitConfig
	Storage    uploads.Storage
	UploadDir  string
	MaxUpload  int64
	DB         controllers.Pinger
}

func Routes(router *mux.Router, d Deps) {
	router.Use(middleware.RequestID, middleware.AccessLog, middleware.Metrics)

	protect := middleware.Protect(d.Tokens, d.UserLoader)
	auth := func(h http.HandlerFunc) http.Handler { return protect(h) }
	agentOnly := middleware.Authorize(services.CanCreateProperty, "Not authorized as an agent or admin")
	adminOnly := middleware.Authorize(services.IsAdmin, "Not authorized as an admin")
	limited := middleware.RateLimit(d.RateLimit, d.Redis)

	router.HandleFunc("/healthz", controllers.Health(d.DB)).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.PathPrefix(uploads.PublicPrefix).Handler(
		http.StripPrefix(uploads.PublicPrefix, http.FileServer(http.Dir(d.UploadDir)))).Methods("GET")

	// User routes
	router.Handle("/api/users", limited(controllers.RegisterUser(d.Users))).Methods("POST")
	router.Handle("/api/users/login", limited(controllers.LoginUser(d.Users))).Methods("POST")
	router.HandleFunc("/api/users/agents", controllers.GetAgents(d.Users)).Methods("GET")
	router.Handle("/api/users/profile", auth(controllers.GetUserProfile(d.Users))).Methods("GET")
	router.Handle("/api/users/profile", auth(controllers.UpdateUserProfile(d.Users, d.Cache))).Methods("PUT")
	router.Handle("/api/users/favorites", auth(controllers.AddFavorite(d.Users))).Methods("POST")
	router.Handle("/api/users/favorites/{id}", auth(controllers.RemoveFavorite(d.Users))).Methods("DELETE")
	router.Handle("/api/users", protect(adminOnly(controllers.GetUsers(d.Users)))).Methods("GET")

	// Property routes; the {id} routes go last so they cannot shadow the fixed paths.
	router.HandleFunc("/api/properties", controllers.GetProperties(d.Properties, d.Cache)).Methods("GET")
	router.HandleFunc("/api/properties/featured", controllers.GetFeaturedProperties(d.Properties, d.Cache)).Methods("GET")
	router.HandleFunc("/api/properties/nearby", controllers.GetNearbyProperties(d.Properties)).Methods("GET")
	router.Handle("/api/properties", protect(agentOnly(controllers.CreateProperty(d.Properties, d.Cache)))).Methods("POST")
	router.Handle("/api/properties/user/properties", auth(controllers.GetUserProperties(d.Properties))).Methods("GET")
	router.Handle("/api/properties/{id}", auth(controllers.UpdateProperty(d.Properties, d.Cache))).Methods("PUT")
	router.Handle("/api/properties/{id}", auth(controllers.DeleteProperty(d.Properties, d.Cache))).Methods("DELETE")
	router.HandleFunc("/api/properties/{id}", controllers.GetPropertyByID(d.Properties)).Methods("GET")

	// Upload routes
	router.Handle("/api/uploads/single", auth(controllers.UploadSingle(d.Storage, d.MaxUpload))).Methods("POST")
	router.Handle("/api/uploads/multiple", auth(controllers.UploadMultiple(d.Storage, d.MaxUpload))).Methods("POST")
}
