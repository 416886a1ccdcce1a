package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/demetriomjr/real-state-crm/errors"
)

const issuer = "real-state-crm"

// CustomClaims defines the structure of the data stored inside the JWT.
// TenantID scopes every downstream query; a token without it is useless.
type CustomClaims struct {
	UserID   string   `json:"user_id"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates the staff session tokens. The secret
// comes from configuration; credential handling itself lives with the
// external identity provider.
type TokenManager struct {
	key      []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{key: []byte(secret), duration: duration}
}

// Generate creates a signed JWT for a staff member of one tenant.
func (m *TokenManager) Generate(userID, tenantID string, roles []string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   userID,
		TenantID: tenantID,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// HS256 (HMAC with SHA256), signed with the server's secret key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Validate parses and checks the signature and expiration of a JWT string.
func (m *TokenManager) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.TenantID == "" {
		return nil, errors.ErrMissingTenant
	}
	return claims, nil
}
