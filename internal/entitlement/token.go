package entitlement

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/converter-service/internal/domain"
)

const tokenVersion = 1

var (
	// ErrTokenExpired reports a token past its expiry.
	ErrTokenExpired = errors.New("entitlement token expired")
	// ErrTokenInvalid reports a malformed, tampered or foreign token.
	ErrTokenInvalid = errors.New("invalid entitlement token")
)

// TokenManager handles issuing and validating entitlement JWTs.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager. The TTL defaults to 24 hours.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Scope mirrors the per-feature grant map carried by tokens.
type Scope struct {
	Converter domain.Plan `json:"converter"`
}

// Claims describes the entitlement JWT payload.
type Claims struct {
	Plan      domain.Plan `json:"plan"`
	LicenseID string      `json:"license_id,omitempty"`
	Scope     Scope       `json:"scope"`
	Version   int         `json:"ver"`
	jwt.RegisteredClaims
}

// Entitlement converts claims into the domain grant they assert.
func (c *Claims) Entitlement() domain.Entitlement {
	ent := domain.Entitlement{Subject: c.Subject, Plan: c.Plan, LicenseID: c.LicenseID}
	if c.IssuedAt != nil {
		ent.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		ent.ExpiresAt = c.ExpiresAt.Time
	}
	return ent
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs an entitlement token for the subject.
func (tm *TokenManager) Issue(subject string, plan domain.Plan, licenseID string) (string, time.Time, error) {
	if subject == "" {
		subject = domain.AnonymousSubject
	}
	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Plan:      plan,
		LicenseID: licenseID,
		Scope:     Scope{Converter: plan},
		Version:   tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates signature and expiry and returns claims.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, true)
}

// VerifyIgnoreExpiry checks the signature but accepts expired tokens; the
// refresh flow re-checks the license with the provider instead.
func (tm *TokenManager) VerifyIgnoreExpiry(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, false)
}

func (tm *TokenManager) parse(tokenStr string, validateExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(tm.now)}
	if !validateExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if !claims.Plan.Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
