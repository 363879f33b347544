package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const UserClaimsKey = "user"

type UserClaims struct {
	UserID string `json:"user_id"`
	// Workspaces the user may open dashboards in; empty means any.
	Workspaces []string `json:"workspaces,omitempty"`
	jwt.RegisteredClaims
}

// CanAccess reports whether the claims allow working in workspace.
func (c *UserClaims) CanAccess(workspace string) bool {
	if len(c.Workspaces) == 0 {
		return true
	}
	for _, ws := range c.Workspaces {
		if ws == workspace {
			return true
		}
	}
	return false
}

func GenerateToken(secret, userID string, workspaces []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID:     userID,
		Workspaces: workspaces,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		if claims.UserID == "" {
			return nil, errors.New("token has no user")
		}
		return claims, nil
	}

	return nil, jwt.ErrTokenSignatureInvalid
}
