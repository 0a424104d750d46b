package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
)

const (
	apiKeyEnv       = "INTERNAL_API_KEY"
	apiKeyHeader    = "X-API-Key"
	timeTokenHeader = "X-Time-Token"

	// timeTokenTTL is how long a generated time token is accepted.
	timeTokenTTL = 5 * time.Minute
)

// APIKeyMiddleware protects write and admin endpoints. Requests must carry
// the INTERNAL_API_KEY value in X-API-Key and a fresh token from
// GenerateTimeToken in X-Time-Token, which limits replay of captured requests.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := os.Getenv(apiKeyEnv)
		if apiKey == "" {
			log.Error().Msg("INTERNAL_API_KEY is not set, rejecting protected request")
			response.RespondError(w, http.StatusInternalServerError, "server misconfiguration", "Authentication not loaded")
			return
		}

		provided := r.Header.Get(apiKeyHeader)
		if provided == "" {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
			return
		}

		token := r.Header.Get(timeTokenHeader)
		if token == "" {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
			return
		}
		if !validTimeToken(token, apiKey) {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GenerateTimeToken returns a token accepted by APIKeyMiddleware for the
// next five minutes. It is signed with apiKey.
func GenerateTimeToken(apiKey string) string {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(timeTokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiKey))
	if err != nil {
		// HMAC signing only fails on a key of the wrong type
		log.Error().Err(err).Msg("failed to sign time token")
		return ""
	}
	return signed
}

func validTimeToken(token, apiKey string) bool {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) {
			return []byte(apiKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	return err == nil && parsed.Valid
}
