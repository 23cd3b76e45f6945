package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dcode-github/real_estate_listing/logger"
	"github.com/dcode-github/real_estate_listing/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Protect requires a valid bearer token whose user still exists and attaches
// that user, without its password hash, to the request context.
func Protect(tokens TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context())

			tokenHeader := r.Header.Get("Authorization")
			if tokenHeader == "" {
				log.Info("Missing Authorization header", zap.String("method", r.Method), zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			tokenParts := strings.Split(tokenHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				log.Info("Invalid Authorization header format", zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			userID, err := tokens.Verify(tokenParts[1])
			if err != nil {
				log.Info("Invalid or expired token", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			oid, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			user, err := users.FindByID(r.Context(), oid)
			if err != nil {
				log.Info("Token user could not be loaded", zap.String("user_id", userID), zap.Error(err))
				writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			user.Password = ""

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
