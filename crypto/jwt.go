package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spexcher/Pictionary/domain"
)

type jwtCustomClaims struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Identity struct {
	Id       string
	Username string
}

type JWTManager struct {
	secretKey []byte
	ttl       time.Duration
}

func NewJWTManager(secretKey string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

// Generate issues a token for the identity, valid for the manager's ttl from now.
func (m *JWTManager) Generate(id, username string, now time.Time) (string, error) {
	claims := jwtCustomClaims{
		Id:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}
	return signedToken, nil
}

func (m *JWTManager) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSigningAlg):
			return Identity{}, domain.ErrInvalidSigningAlg
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, domain.ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Identity{}, domain.ErrCorruptedToken
		default:
			return Identity{}, fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
		}
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid || claims.Id == "" {
		return Identity{}, domain.ErrCorruptedToken
	}
	return Identity{Id: claims.Id, Username: claims.Username}, nil
}
