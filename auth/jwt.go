package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// guestClaims is an unexported struct used for claims.
// Fields must be exported for JSON serialization.
type guestClaims struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Guest is the identity carried by a guest session token.
type Guest struct {
	Id   string
	Name string
}

type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *JWTManager) Generate(guest Guest, now time.Time) (string, error) {
	claims := guestClaims{
		Id:   guest.Id,
		Name: guest.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)

	if err != nil {
		return "", fmt.Errorf("%w: %w", UnexpectedTokenGenerationError, err)
	}

	return signedToken, nil
}

func (m *JWTManager) Verify(tokenString string) (Guest, error) {
	token, err := jwt.ParseWithClaims(tokenString, &guestClaims{}, func(token *jwt.Token) (any, error) {
		// Validate the signing method is what we expect (HMAC)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSigningAlg):
			return Guest{}, err
		case errors.Is(err, jwt.ErrTokenExpired):
			return Guest{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return Guest{}, ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Guest{}, ErrCorruptedToken
		default:
			return Guest{}, fmt.Errorf("%w: %w", UnexpectedTokenVerificationError, err)
		}
	}

	if claims, ok := token.Claims.(*guestClaims); ok && token.Valid {
		return Guest{Id: claims.Id, Name: claims.Name}, nil
	}

	return Guest{}, ErrCorruptedToken
}
