package websocket

import (
	"crypto/rsa"
	"net/http"
	"strings"

	"github.com/thira3721-ai/roomhy/internal/room"
	"github.com/thira3721-ai/roomhy/internal/utils"
)

// JWTWebSocketAuth verifies the handshake token issued by the platform
// auth service. Tokens are not refreshed here - an expired token means
// the client refreshes over HTTP and reconnects.
func JWTWebSocketAuth(publicKey *rsa.PublicKey) AuthenticatorFunc {
	return func(r *http.Request) (*Identity, error) {
		token := getTokenFromRequest(r)
		if token == "" {
			return nil, &AuthError{Message: "missing token"}
		}

		claims, err := utils.ParseAndVerifySign(token, publicKey)
		if err != nil {
			return nil, &AuthError{Message: "invalid or expired token, refresh and reconnect"}
		}

		identityRole := room.Role(claims.Role)
		if !validRole(identityRole) {
			identityRole = room.RoleAnonymous
		}

		return &Identity{
			UserID:      claims.Sub,
			DisplayName: claims.Username,
			Role:        identityRole,
		}, nil
	}
}

func validRole(r room.Role) bool {
	switch r {
	case room.RoleTenant, room.RoleOwner, room.RoleAreaManager, room.RoleSuperAdmin, room.RoleAnonymous:
		return true
	}
	return false
}

func getTokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	cookie, err := r.Cookie("access_token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
