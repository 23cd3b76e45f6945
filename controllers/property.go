package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dcode-github/real_estate_listing/cache"
	"github.com/dcode-github/real_estate_listing/logger"
	"github.com/dcode-github/real_estate_listing/middleware"
	"github.com/dcode-github/real_estate_listing/models"
	"github.com/dcode-github/real_estate_listing/services"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const invalidateTimeout = 5 * time.Second

func requester(w http.ResponseWriter, r *http.Request) (services.Requester, bool) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return services.Requester{}, false
	}
	return services.RequesterOf(user), true
}

func CreateProperty(props *services.PropertyService, c *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := requester(w, r)
		if !ok {
			return
		}

		var in services.CreatePropertyInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		p, err := props.Create(r.Context(), req, in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		invalidate(r, c)
		writeJSON(w, http.StatusCreated, p)
	}
}

func GetProperties(props *services.PropertyService, c *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		key, cacheable := c.KeyFor(r.Context(), "list", query)
		if cacheable {
			if data, ok := c.Get(r.Context(), key); ok {
				writeCached(w, data)
				return
			}
		}

		page, err := props.List(r.Context(), ParsePropertyFilter(query), parsePage(query.Get("page")))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeAndCache(w, r, c, key, page)
	}
}

func GetPropertyByID(props *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := props.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func UpdateProperty(props *services.PropertyService, c *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := requester(w, r)
		if !ok {
			return
		}

		var in services.UpdatePropertyInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		p, err := props.Update(r.Context(), req, mux.Vars(r)["id"], in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		invalidate(r, c)
		writeJSON(w, http.StatusOK, p)
	}
}

func DeleteProperty(props *services.PropertyService, c *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := requester(w, r)
		if !ok {
			return
		}

		if err := props.Delete(r.Context(), req, mux.Vars(r)["id"]); err != nil {
			writeServiceError(w, r, err)
			return
		}

		invalidate(r, c)
		writeJSON(w, http.StatusOK, Response{Message: "Property removed"})
	}
}

func GetFeaturedProperties(props *services.PropertyService, c *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, cacheable := c.KeyFor(r.Context(), "featured", nil)
		if cacheable {
			if data, ok := c.Get(r.Context(), key); ok {
				writeCached(w, data)
				return
			}
		}

		list, err := props.Featured(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeAndCache(w, r, c, key, list)
	}
}

func GetNearbyProperties(props *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := props.Nearby(r.Context(), q.Get("lat"), q.Get("lng"), q.Get("radius"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetUserProperties(props *services.PropertyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := requester(w, r)
		if !ok {
			return
		}

		list, err := props.ByOwner(r.Context(), req)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// ParsePropertyFilter reads listing filters from a query string. Malformed
// numeric values are ignored rather than rejected.
func ParsePropertyFilter(q url.Values) models.PropertyFilter {
	f := models.PropertyFilter{
		Type:       q.Get("type"),
		Status:     q.Get("status"),
		Furnishing: q.Get("furnishing"),
		City:       q.Get("city"),
	}
	f.MinPrice = parseFloat(q.Get("minPrice"))
	f.MaxPrice = parseFloat(q.Get("maxPrice"))
	f.MinBedrooms = parseInt(q.Get("bedrooms"))
	f.MinBathrooms = parseInt(q.Get("bathrooms"))
	return f
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(raw string) *int {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func writeCached(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// writeAndCache writes v and stores it under key. An empty key skips the cache.
func writeAndCache(w http.ResponseWriter, r *http.Request, c *cache.PropertyCache, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to encode response", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if key != "" {
		c.Set(r.Context(), key, data)
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// invalidate moves the listing cache to a new generation before the write's
// response is sent. Entries of older generations are purged in the background.
func invalidate(r *http.Request, c *cache.PropertyCache) {
	if !c.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), invalidateTimeout)
	defer cancel()

	log := logger.FromContext(r.Context())
	gen, err := c.Invalidate(ctx)
	if err != nil {
		log.Warn("Failed to invalidate property cache", zap.Error(err))
		return
	}
	log.Debug("Property cache invalidated", zap.Int64("generation", gen))
	go purge(c)
}

func purge(c *cache.PropertyCache) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	n, err := c.Purge(ctx)
	if err != nil {
		logger.Get().Warn("Failed to purge property cache", zap.Error(err))
		return
	}
	logger.Get().Debug("Property cache purged", zap.Int("keys", n))
}
