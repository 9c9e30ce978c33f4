package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an issued session token.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and claims
	// that fail validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token is at or past its expiry.
	ErrTokenExpired = errors.New("token expired")

	errEmptySecret = errors.New("token secret is required")
)

// TokenManager issues and verifies HS256 session tokens. Tokens are
// stateless: validity depends only on the signature and the expiry claim.
type TokenManager struct {
	secret   []byte
	previous [][]byte
	ttl      time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(m *TokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithPreviousSecrets lets Verify accept tokens signed by retired secrets.
func WithPreviousSecrets(secrets ...string) TokenOption {
	return func(m *TokenManager) {
		for _, s := range secrets {
			if s = strings.TrimSpace(s); s != "" {
				m.previous = append(m.previous, []byte(s))
			}
		}
	}
}

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewTokenManager constructs a manager signing with secret.
func NewTokenManager(secret string, opts ...TokenOption) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errEmptySecret
	}
	m := &TokenManager{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the lifetime applied to issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for userID expiring TTL from now.
func (m *TokenManager) Issue(userID int) (string, error) {
	if userID < 1 {
		return "", errors.New("invalid subject")
	}
	now := m.now()
	return m.sign(jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	})
}

func (m *TokenManager) sign(claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks the signature and expiry of tokenString and returns the
// user id it was issued for.
func (m *TokenManager) Verify(tokenString string) (int, error) {
	var lastErr error
	for _, key := range m.keys() {
		id, err := m.verifyWith(tokenString, key)
		if err == nil {
			return id, nil
		}
		// An expired token with a good signature is final; other keys
		// cannot make it valid.
		if errors.Is(err, ErrTokenExpired) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

func (m *TokenManager) keys() [][]byte {
	keys := make([][]byte, 0, 1+len(m.previous))
	keys = append(keys, m.secret)
	return append(keys, m.previous...)
}

func (m *TokenManager) verifyWith(tokenString string, key []byte) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return key, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || id < 1 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
