package service

import (
	"errors"
	"fmt"
	"time"

	"card-terminal/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenService implements ports.TokenService using HS256 JWT. Tokens are
// bound to one terminal and rejected by every other terminal.
type JWTTokenService struct {
	secret     []byte
	expiry     time.Duration
	issuer     string
	terminalID string
}

type operatorClaims struct {
	TerminalID string `json:"terminal_id"`
	jwt.RegisteredClaims
}

var _ ports.TokenService = (*JWTTokenService)(nil)

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer, terminalID string) *JWTTokenService {
	return &JWTTokenService{
		secret:     []byte(secret),
		expiry:     expiry,
		issuer:     issuer,
		terminalID: terminalID,
	}
}

// Generate creates a signed JWT for the given operator.
func (s *JWTTokenService) Generate(operatorID string) (string, time.Time, error) {
	if operatorID == "" {
		return "", time.Time{}, errors.New("operator ID is required")
	}

	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := operatorClaims{
		TerminalID: s.terminalID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   operatorID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate parses and validates a JWT token, returning the claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	var claims operatorClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject claim")
	}
	if claims.TerminalID != s.terminalID {
		return nil, fmt.Errorf("token issued for terminal %q", claims.TerminalID)
	}

	return &ports.TokenClaims{
		OperatorID: claims.Subject,
		TerminalID: claims.TerminalID,
	}, nil
}
