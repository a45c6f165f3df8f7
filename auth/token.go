package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tmf.evalgo.org/model"
)

// ErrInvalidToken and ErrExpiredToken are returned by TokenService.ValidateToken.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the bearer-token payload the request surface (C11) reads to
// learn which Principal is making a call. The token itself is issued by
// whatever upstream login flow the Identity Directory's owning system
// runs; this engine only verifies and reads it.
type Claims struct {
	PrincipalID string     `json:"principal_id"`
	Username    string     `json:"username"`
	Role        model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService verifies HS256 bearer tokens presented on incoming
// requests. Grounded on the donor's JWT token service; trimmed of
// refresh-token issuance and password hashing, neither of which this
// engine performs — principal accounts and credentials are owned by
// the external Identity Directory (C2).
type TokenService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewTokenService builds a TokenService around a shared HMAC secret.
func NewTokenService(secret string, expiration time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     "tmf.evalgo.org/auth",
	}
}

// IssueToken mints a bearer token for p, for use by local development
// tooling and tests standing in for the external login flow.
func (s *TokenService) IssueToken(p model.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		PrincipalID: p.ID,
		Username:    p.Username,
		Role:        p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   p.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies tokenString's signature and expiry and returns
// its claims.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}
