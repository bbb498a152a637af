// Package jwt emite y valida los tokens HS256 de la frontera HTTP. El UserID del token es
// el actor que queda registrado en cada movimiento del libro y en cada transición de pedido.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken token mal formado, con firma incorrecta, expirado o sin actor.
var ErrInvalidToken = errors.New("jwt: token inválido")

// Claims claims estándar más el actor, la empresa y el rol usado por RequireRole.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id,omitempty"`
	Role      string `json:"role"` // admin | bodeguero | vendedor
}

// Generate firma un token para userID con el rol indicado. expMinutes puede ser negativo (tests).
func Generate(secret, userID, companyID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", errors.New("jwt: secret vacío")
	}
	if userID == "" {
		return "", errors.New("jwt: userID vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve el actor. Solo acepta HS256.
func Parse(secret, tokenString string) (userID, companyID, role string, err error) {
	if secret == "" {
		return "", "", "", errors.New("jwt: secret vacío")
	}
	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID = claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", "", "", fmt.Errorf("%w: sin actor", ErrInvalidToken)
	}
	return userID, claims.CompanyID, claims.Role, nil
}
