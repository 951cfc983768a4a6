// Package token issues and validates the signed tokens that guard the
// directory's administrative and staff endpoints.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	derrors "caredex/pkg/domain-errors"
)

// Roles carried in token claims.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Claims are the JWT claims for operator tokens. Subject identifies the
// operator; Role decides which routes the token unlocks.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service creates and validates operator tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Generate signs a token for an operator with the given role.
func (s *Service) Generate(subject, role string, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	return newToken.SignedString(s.signingKey)
}

// Validate parses and verifies a token string.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, derrors.New(derrors.CodeUnauthorized, "token has expired")
		}
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, derrors.New(derrors.CodeUnauthorized, "invalid token claims")
	}

	return claims, nil
}
