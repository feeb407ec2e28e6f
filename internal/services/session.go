package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession covers every reason a token is rejected: bad signature,
// wrong algorithm, expiry, wrong issuer, malformed claims and revocation.
var ErrInvalidSession = errors.New("invalid session")

// RevocationStore keeps revoked session ids until the given time.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type Session struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type SessionConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type SessionManager struct {
	secret      []byte
	issuer      string
	ttl         time.Duration
	now         func() time.Time
	revocations RevocationStore
}

// NewSessionManager builds a manager signing HS256 tokens. revocations may be
// nil, in which case Revoke is a no-op and tokens stay valid until expiry.
func NewSessionManager(cfg SessionConfig, revocations RevocationStore) *SessionManager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SessionManager{
		secret:      cfg.Secret,
		issuer:      cfg.Issuer,
		ttl:         cfg.TTL,
		now:         now,
		revocations: revocations,
	}
}

func (m *SessionManager) Issue(userID uuid.UUID) (*Session, error) {
	sessionID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)

	claims := SessionClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (m *SessionManager) parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidSession)
	}
	return claims, nil
}

// Verify returns the user id carried by a valid, unrevoked token. Errors from
// the revocation store are returned as-is and do not match ErrInvalidSession.
func (m *SessionManager) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := m.parse(token)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.FromString(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("verify session: %w", err)
		}
		if revoked {
			return uuid.Nil, fmt.Errorf("%w: revoked", ErrInvalidSession)
		}
	}

	return userID, nil
}

// Revoke denylists the token until it expires. Tokens that do not verify are
// ignored.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if m.revocations == nil || token == "" {
		return nil
	}

	claims, err := m.parse(token)
	if err != nil {
		return nil
	}

	return m.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
