package utils

import (
	"time"

	"kawanchat/server/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims. The identity service that issues tokens owns
// these fields; they are read-only here.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// User returns the identity carried by the claims
func (c *Claims) User() models.User {
	return models.User{
		ID:    c.UserID,
		Email: c.Email,
		Name:  c.Name,
	}
}

// GenerateToken generates a JWT token for a user
func GenerateToken(secret []byte, user models.User, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses a JWT token
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return claims, nil
}
