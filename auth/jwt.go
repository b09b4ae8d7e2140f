package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "ecg-viewer"

var ErrInvalidToken = errors.New("invalid token")

type JWTService struct {
	secretKey []byte
	tokenTTL  time.Duration
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewJWTService signs reviewer tokens with secret. An empty secret falls back to a development
// key and logs a warning.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if secret == "" {
		secret = "ecg-viewer-development-secret"
		slog.Warn("Using default JWT secret - set auth.jwtsecret in production")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &JWTService{secretKey: []byte(secret), tokenTTL: ttl}
}

func (s *JWTService) TTL() time.Duration {
	return s.tokenTTL
}

func (s *JWTService) GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
