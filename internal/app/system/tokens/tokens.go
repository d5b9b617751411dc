// Package tokens signs and verifies the HS256 bearer tokens that identify
// console callers.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails parsing or
// signature, issuer, or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// RoleClaim is an organization membership carried in a token. Only honored
// when overrides are enabled.
type RoleClaim struct {
	Org      string `json:"org"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
}

// Claims is the verified token payload. The user id travels as the JWT
// subject. UserType and Roles are optional overrides of the stored values.
type Claims struct {
	jwt.RegisteredClaims
	UserType string      `json:"userType,omitempty"`
	Roles    []RoleClaim `json:"roles,omitempty"`
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string { return c.Subject }

// Manager issues and verifies tokens with a shared secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// New returns a Manager. An empty issuer disables issuer checks.
func New(secret, issuer string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue signs a token for userID. Overrides in extra are copied verbatim.
func (m *Manager) Issue(userID string, extra Claims) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserType: extra.UserType,
		Roles:    extra.Roles,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses raw and returns its claims.
func (m *Manager) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
