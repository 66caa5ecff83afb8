package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrMalformed        = errors.New("token is malformed")
	ErrExpired          = errors.New("token is expired")
	ErrMissingSubject   = errors.New("token has no subject")
)

// Claims is the whole claim set: the subject (user email), exp and iat.
type Claims struct {
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	Algorithm     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager issues and validates access and refresh tokens. Each kind has its own
// secret, so a leaked refresh secret cannot forge access tokens and vice versa.
//
// There is no revocation list: a token stays valid until it expires.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	algorithm     string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Algorithm == "" {
		cfg.Algorithm = jwt.SigningMethodHS256.Alg()
	}

	if _, err := hmacMethod(cfg.Algorithm); err != nil {
		return nil, err
	}

	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("token ttl must not be negative")
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		algorithm:     cfg.Algorithm,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// WithClock returns a copy of the manager that reads the current time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) Algorithm() string {
	return m.algorithm
}

func (m *Manager) IssueAccess(subject string, now time.Time, ttl time.Duration) (string, error) {
	return issue(subject, now, ttl, m.accessSecret, m.algorithm)
}

func (m *Manager) IssueRefresh(subject string, now time.Time, ttl time.Duration) (string, error) {
	return issue(subject, now, ttl, m.refreshSecret, m.algorithm)
}

func (m *Manager) NewAccessToken(subject string) (string, error) {
	return m.IssueAccess(subject, m.now().UTC(), m.accessTTL)
}

func (m *Manager) NewRefreshToken(subject string) (string, error) {
	return m.IssueRefresh(subject, m.now().UTC(), m.refreshTTL)
}

func (m *Manager) ValidateAccess(tokenStr string) (string, error) {
	return m.Validate(tokenStr, m.accessSecret, m.algorithm)
}

func (m *Manager) ValidateRefresh(tokenStr string) (string, error) {
	return m.Validate(tokenStr, m.refreshSecret, m.algorithm)
}

// Validate checks the signature first and the expiry second, then returns the subject.
// Failures wrap exactly one of ErrInvalidSignature, ErrMalformed, ErrExpired or ErrMissingSubject.
func (m *Manager) Validate(tokenStr string, secret []byte, algorithm string) (string, error) {
	method, err := hmacMethod(algorithm)
	if err != nil {
		return "", err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return secret, nil
	})

	if err != nil {
		return "", classify(token, err)
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return "", ErrMalformed
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}

	return claims.Subject, nil
}

func issue(subject string, now time.Time, ttl time.Duration, secret []byte, algorithm string) (string, error) {
	method, err := hmacMethod(algorithm)
	if err != nil {
		return "", err
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(method, claims)
	return token.SignedString(secret)
}

func hmacMethod(name string) (*jwt.SigningMethodHMAC, error) {
	method, ok := jwt.GetSigningMethod(name).(*jwt.SigningMethodHMAC)

	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", name)
	}

	return method, nil
}

// classify maps jwt parser errors onto the package sentinels.
// The parser verifies the signature before it looks at any claim. A token
// whose header and claims parsed (Method is set) but which is still reported
// as malformed failed on its signature segment, so that counts as a bad signature.
func classify(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed) && token != nil && token.Method != nil:
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
