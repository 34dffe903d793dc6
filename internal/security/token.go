package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	RoleKiosk       = "kiosk"
	RoleAdmin       = "admin"
	RoleMaintenance = "maintenance"
)

// ActorClaims identify whoever drives an engine call. The actor id is
// opaque to the engine; roles only gate staff endpoints.
type ActorClaims struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// IsStaff reports an admin or maintenance role
func (c *ActorClaims) IsStaff() bool {
	for _, r := range c.Roles {
		if r == RoleAdmin || r == RoleMaintenance {
			return true
		}
	}
	return false
}

type TokenManager interface {
	GenerateActorToken(actorID string, roles []string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*ActorClaims, error)
}

type tokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) TokenManager {
	return &tokenManager{
		secret: []byte(secret),
	}
}

func (m *tokenManager) GenerateActorToken(actorID string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		ActorID: actorID,
		Roles:   roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "kiosk-identity",
			Audience:  jwt.ClaimStrings{"inventory-engine"},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*ActorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithAudience("inventory-engine"))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*ActorClaims); ok && token.Valid {
		if claims.ActorID == "" {
			claims.ActorID = claims.Subject
		}
		if claims.ActorID == "" {
			return nil, ErrInvalidToken
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}
