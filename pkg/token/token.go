// Package token issues and validates the HS256 session tokens handed out at
// signin. Tokens are stateless: downstream services validate them with the
// shared secret and nothing is persisted.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/golang-jwt/jwt/v5"
)

const DefaultTTL = 30 * time.Minute

// Claims carry the subject email, numeric user id and resolved roles.
type Claims struct {
	ID    int64    `json:"id"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type Identity struct {
	Subject string
	UserID  int64
	Roles   []string
}

type Status int

const (
	Valid Status = iota
	ExpiredSignature
	MalformedOrInvalidSignature
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case ExpiredSignature:
		return "expired"
	default:
		return "invalid"
	}
}

type Result struct {
	Status Status
	Claims *Claims
}

// Err maps the result onto the errs taxonomy, nil when valid.
func (r Result) Err() error {
	switch r.Status {
	case Valid:
		return nil
	case ExpiredSignature:
		return errs.ErrExpiredToken
	default:
		return errs.ErrMalformedToken
	}
}

type Issuer struct {
	secret []byte
	kid    string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock replaces time.Now for both issuance and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func WithKeyID(kid string) Option {
	return func(i *Issuer) {
		i.kid = kid
	}
}

func NewIssuer(secret []byte, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) Issue(identity Identity) (string, error) {
	return i.IssueWithTTL(identity, i.ttl)
}

func (i *Issuer) IssueWithTTL(identity Identity, ttl time.Duration) (string, error) {
	now := i.now()
	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}

	claims := Claims{
		ID:    identity.UserID,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if i.kid != "" {
		t.Header["kid"] = i.kid
	}

	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry. It never panics or errors; every
// failure is folded into the returned Status.
func (i *Issuer) Validate(tokenString string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: MalformedOrInvalidSignature}
		}
	}()

	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Result{Status: ExpiredSignature}
		}
		return Result{Status: MalformedOrInvalidSignature}
	}

	if !t.Valid {
		return Result{Status: MalformedOrInvalidSignature}
	}

	return Result{Status: Valid, Claims: claims}
}
