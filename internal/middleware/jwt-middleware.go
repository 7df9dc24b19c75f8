package middleware

import (
	"context"
	"crypto/rsa"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/utils"
)

type claimsKey string

const UserClaimsKey claimsKey = "userClaims"

// CurrentUser is the authenticated principal extracted from the access
// token. Tokens are issued by the platform auth service; this layer
// only verifies the RSA signature.
type CurrentUser struct {
	ID          string
	DisplayName string
	Role        room.Role
	AreaScope   string
}

func JWTAuth(publicKey *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Missing Authorization header", "auth"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Invalid Authorization header format", "auth"))
				return
			}

			claims, err := utils.ParseAndVerifySign(parts[1], publicKey)
			if err != nil {
				log.Error().Err(err).Msg("jwt verify failed")
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Invalid or expired token", "auth"))
				return
			}

			user := &CurrentUser{
				ID:          claims.Sub,
				DisplayName: claims.Username,
				Role:        room.Role(claims.Role),
				AreaScope:   claims.Scope,
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user, or nil outside a
// JWTAuth-protected route.
func UserFromContext(ctx context.Context) *CurrentUser {
	user, ok := ctx.Value(UserClaimsKey).(*CurrentUser)
	if !ok {
		return nil
	}
	return user
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	appErr.JSON(w)
}
