package auth

import (
	"fmt"
	"time"

	"github.com/docarchive/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "docarchive"

// Claims identify the officer or admin behind a request.
type Claims struct {
	ActorID    uuid.UUID         `json:"actor_id"`
	ActorModel models.ActorModel `json:"actor_model"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token for the given actor. A non-positive expiration
// falls back to 24h.
func GenerateJWT(secret string, actorID uuid.UUID, model models.ActorModel, expiration time.Duration) (string, error) {
	if !model.Valid() {
		return "", fmt.Errorf("unknown actor model %q", model)
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	now := time.Now()
	claims := Claims{
		ActorID:    actorID,
		ActorModel: model,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if !claims.ActorModel.Valid() {
		return nil, fmt.Errorf("invalid token: unknown actor model %q", claims.ActorModel)
	}
	return claims, nil
}
