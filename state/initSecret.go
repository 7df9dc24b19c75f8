package state

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// InitSecret loads the auth service's public key. This service only
// verifies tokens, so no private key is needed here.
func InitSecret() (*JwtSecret, error) {
	pubKeyBytes, err := os.ReadFile("public.pem")
	if err != nil {
		return nil, err
	}

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	log.Info().Msg("JWT public key initialized successfully")
	return &JwtSecret{
		Public: pubKey,
	}, nil
}
