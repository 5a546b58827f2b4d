// Package auth issues and verifies the credentials used by the storefront:
// bcrypt password digests, signed access/refresh/activation tokens and
// random password-reset secrets.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind names a token family. It doubles as the JWT audience so that a token
// of one kind never verifies as another.
type Kind string

const (
	KindAccess     Kind = "access"
	KindRefresh    Kind = "refresh"
	KindActivation Kind = "activation"
	KindReset      Kind = "reset"
)

const (
	ActivationTTL = 5 * time.Minute
	ResetTTL      = 15 * time.Minute

	resetSecretBytes = 20
)

type Reason int

const (
	ReasonMalformed Reason = iota
	ReasonExpired
	ReasonSignatureMismatch
	ReasonKeyUnset
)

func (r Reason) String() string {
	switch r {
	case ReasonExpired:
		return "expired"
	case ReasonSignatureMismatch:
		return "signature_mismatch"
	case ReasonKeyUnset:
		return "key_unset"
	default:
		return "malformed"
	}
}

// TokenError is returned by every Issue and Verify method.
type TokenError struct {
	Kind   Kind
	Reason Reason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s token %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s token %s", e.Kind, e.Reason)
}

func (e *TokenError) Unwrap() error { return e.Err }

// IsExpired reports whether err is a TokenError caused by expiry.
func IsExpired(err error) bool {
	var te *TokenError
	return errors.As(err, &te) && te.Reason == ReasonExpired
}

type KeyConfig struct {
	Secret string
	TTL    time.Duration
}

type IssuerConfig struct {
	Access     KeyConfig
	Refresh    KeyConfig
	Activation KeyConfig
	ResetTTL   time.Duration
}

// AccessClaims identify the caller of a single request.
type AccessClaims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	FullName string `json:"name"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// PendingUser is a registration that exists only inside an activation token.
type PendingUser struct {
	FullName     string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"pwd_hash"`
	AvatarRef    string `json:"avatar"`
}

type ActivationClaims struct {
	PendingUser
	jwt.RegisteredClaims
}

// ResetSecret is handed to the user as Secret; only Hash is stored.
type ResetSecret struct {
	Secret    string
	Hash      string
	ExpiresAt time.Time
}

// Issuer holds the signing keys and lifetimes for all token kinds. It is built
// once at startup and never mutated.
type Issuer struct {
	keys     map[Kind]KeyConfig
	resetTTL time.Duration
	now      func() time.Time
}

func NewIssuer(cfg IssuerConfig) *Issuer {
	if cfg.Activation.TTL <= 0 {
		cfg.Activation.TTL = ActivationTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = ResetTTL
	}
	return &Issuer{
		keys: map[Kind]KeyConfig{
			KindAccess:     cfg.Access,
			KindRefresh:    cfg.Refresh,
			KindActivation: cfg.Activation,
		},
		resetTTL: cfg.ResetTTL,
		now:      time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) IssueAccess(userID, email, fullName string) (string, error) {
	claims := &AccessClaims{UserID: userID, Email: email, FullName: fullName}
	return i.sign(KindAccess, userID, claims, &claims.RegisteredClaims)
}

func (i *Issuer) IssueRefresh(userID string) (string, error) {
	claims := &RefreshClaims{UserID: userID}
	return i.sign(KindRefresh, userID, claims, &claims.RegisteredClaims)
}

func (i *Issuer) IssueActivation(p PendingUser) (string, error) {
	claims := &ActivationClaims{PendingUser: p}
	return i.sign(KindActivation, p.Email, claims, &claims.RegisteredClaims)
}

func (i *Issuer) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(KindAccess, token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(KindRefresh, token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (i *Issuer) VerifyActivation(token string) (*PendingUser, error) {
	claims := &ActivationClaims{}
	if err := i.parse(KindActivation, token, claims); err != nil {
		return nil, err
	}
	return &claims.PendingUser, nil
}

// IssueReset generates a fresh reset secret and its storable digest.
func (i *Issuer) IssueReset() (*ResetSecret, error) {
	b := make([]byte, resetSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, &TokenError{Kind: KindReset, Reason: ReasonMalformed, Err: err}
	}
	secret := hex.EncodeToString(b)
	return &ResetSecret{
		Secret:    secret,
		Hash:      HashResetSecret(secret),
		ExpiresAt: i.now().Add(i.resetTTL),
	}, nil
}

// HashResetSecret is the one-way function applied to reset secrets both at
// issuance and at verification.
func HashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func (i *Issuer) sign(kind Kind, subject string, claims jwt.Claims, reg *jwt.RegisteredClaims) (string, error) {
	key := i.keys[kind]
	if key.Secret == "" {
		return "", &TokenError{Kind: kind, Reason: ReasonKeyUnset}
	}
	now := i.now()
	*reg = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Audience:  jwt.ClaimStrings{string(kind)},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(key.TTL)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key.Secret))
	if err != nil {
		return "", &TokenError{Kind: kind, Reason: ReasonMalformed, Err: err}
	}
	return s, nil
}

func (i *Issuer) parse(kind Kind, token string, claims jwt.Claims) error {
	key := i.keys[kind]
	if key.Secret == "" {
		return &TokenError{Kind: kind, Reason: ReasonKeyUnset}
	}
	if token == "" {
		return &TokenError{Kind: kind, Reason: ReasonMalformed}
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(key.Secret), nil
	},
		jwt.WithAudience(string(kind)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return &TokenError{Kind: kind, Reason: classify(err), Err: err}
	}
	if !parsed.Valid {
		return &TokenError{Kind: kind, Reason: ReasonMalformed}
	}
	return nil
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignatureMismatch
	default:
		return ReasonMalformed
	}
}
