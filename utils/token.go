package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"relief-claims-api/models"
)

// TokenClaims is the JWT payload issued at login.
type TokenClaims struct {
	OfficerID string      `json:"officer_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the role-bearing identity carried by the token.
func (c *TokenClaims) Identity() models.Identity {
	return models.Identity{ID: c.OfficerID, Role: c.Role}
}

// IssueToken signs an HS256 token for officer valid for ttl.
func IssueToken(officer models.Officer, secret string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	claims := TokenClaims{
		OfficerID: officer.OfficerID,
		Email:     officer.Email,
		Role:      officer.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   officer.OfficerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates signature and expiry.
func ParseToken(tokenString, secret string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
