// internal/utils/jwt.go
package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// WalletClaims carries only the proven address. Admin status is never
// encoded in the token; it is recomputed per request.
type WalletClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func GenerateJWT(address string, ttlHours int) (string, error) {
	now := time.Now()
	address = strings.ToLower(address)
	claims := WalletClaims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "licensechain",
			Subject:   address,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*WalletClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WalletClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*WalletClaims); ok && token.Valid && claims.Address != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// IsTokenExpired reports whether err came from an expired token.
func IsTokenExpired(err error) bool {
	var validationErr *jwt.ValidationError
	return errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0
}
