// Package jwt signs and verifies author tokens.
package jwt

import (
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// Issuer iss of every token
	Issuer = "laisky-blog-search"
	// DefaultTTL token lifetime
	DefaultTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken token is malformed, expired or signed with another key
var ErrInvalidToken = errors.New("invalid token")

// JWT hs256 signer and verifier
type JWT struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
}

// Option jwt option
type Option func(*JWT) error

// WithTTL set token lifetime
func WithTTL(ttl time.Duration) Option {
	return func(j *JWT) error {
		if ttl <= 0 {
			return errors.Errorf("ttl must be positive, got %s", ttl)
		}

		j.ttl = ttl
		return nil
	}
}

// WithClock set time source
func WithClock(clock func() time.Time) Option {
	return func(j *JWT) error {
		if clock == nil {
			return errors.New("clock is nil")
		}

		j.clock = clock
		return nil
	}
}

// New new jwt with hmac secret
func New(secret []byte, opts ...Option) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}

	j := &JWT{
		secret: secret,
		ttl:    DefaultTTL,
		clock:  gutils.Clock.GetUTCNow,
	}
	for _, opt := range opts {
		if err := opt(j); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	return j, nil
}

// Sign issue token for user
func (j *JWT) Sign(userID uint, username string) (string, error) {
	now := j.clock()
	claims := &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		Username: username,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// Parse verify token and return its claims
func (j *JWT) Parse(token string) (*UserClaims, error) {
	claims := &UserClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
			}

			return j.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.clock),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidToken, "parse: %v", err)
	}

	if _, err = claims.UserID(); err != nil {
		return nil, err
	}

	return claims, nil
}
