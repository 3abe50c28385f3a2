package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

var ErrUnauthorized = errors.New("unauthorized")

func appendRoleChar(token string, role Role) string {
	switch role {
	case RoleUser:
		return token + "1"
	}
	return token
}

func expectedRoleChar(role Role) string {
	switch role {
	case RoleUser:
		return "1"
	}
	return ""
}

func CreateToken(user User, role Role, validUntil int64) (string, error) {
	secret, ok := secretFor(role)
	if !ok {
		return "", fmt.Errorf("invalid role specified")
	}

	if validUntil == 0 {
		validUntil = time.Now().Add(AccessTokenTTL).Unix()
	}

	claims := jwt.MapClaims{
		"id":    user.Id,
		"email": user.Email,
		"exp":   validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return appendRoleChar(tokenString, role), nil
}

// ParseToken validates an access token issued for role, including the
// trailing role character and the expiry claim.
func ParseToken(tokenString string, role Role) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("%w: token string is empty", ErrUnauthorized)
	}

	if tokenString[len(tokenString)-1:] != expectedRoleChar(role) {
		return nil, fmt.Errorf("%w: invalid role character in token", ErrUnauthorized)
	}
	tokenString = tokenString[:len(tokenString)-1]

	secret, ok := secretFor(role)
	if !ok {
		return nil, fmt.Errorf("invalid role specified")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is not valid", ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: claims of unexpected type", ErrUnauthorized)
	}

	return claims, nil
}

// UserFromAuthorizationHeader parses a "Bearer <token>" header into the
// token's subject.
func UserFromAuthorizationHeader(header string, role Role) (User, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return User{}, fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}

	claims, err := ParseToken(strings.TrimSpace(header[len(prefix):]), role)
	if err != nil {
		return User{}, err
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return User{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	email, _ := claims["email"].(string)
	return User{Id: id, Email: email}, nil
}
