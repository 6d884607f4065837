package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultTokenTTL = 8 * time.Hour
	issuer          = "medai"
)

// TokenGate signs users in against a fixed set of credentials and issues
// HS256 tokens. Signed-out token ids are remembered until they expire.
type TokenGate struct {
	secret []byte
	ttl    time.Duration
	users  map[string]string

	lock    sync.Mutex
	revoked map[string]time.Time
}

var _ Gate = &TokenGate{}

func NewTokenGate(secret string, users map[string]string, ttl time.Duration) (*TokenGate, error) {
	if secret == "" {
		return nil, errors.New("token secret cannot be empty")
	}
	if len(users) == 0 {
		return nil, errors.New("at least one user must be configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenGate{
		secret:  []byte(secret),
		ttl:     ttl,
		users:   users,
		revoked: make(map[string]time.Time),
	}, nil
}

func (g *TokenGate) SignIn(ctx context.Context, username, password string) (string, User, error) {
	expected, ok := g.users[username]
	if !ok || subtle.ConstantTimeCompare([]byte(expected), []byte(password)) != 1 {
		slog.Info("rejected sign in", "username", username)
		return "", User{}, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", User{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, User{Username: username}, nil
}

func (g *TokenGate) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing id or subject", ErrInvalidToken)
	}
	return claims, nil
}

func (g *TokenGate) Authenticate(ctx context.Context, token string) (User, error) {
	claims, err := g.parse(token)
	if err != nil {
		return User{}, err
	}

	g.lock.Lock()
	_, revoked := g.revoked[claims.ID]
	g.lock.Unlock()
	if revoked {
		return User{}, fmt.Errorf("%w: signed out", ErrInvalidToken)
	}

	if _, ok := g.users[claims.Subject]; !ok {
		return User{}, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}

	return User{Username: claims.Subject}, nil
}

func (g *TokenGate) SignOut(ctx context.Context, token string) error {
	claims, err := g.parse(token)
	if err != nil {
		return err
	}

	g.lock.Lock()
	defer g.lock.Unlock()

	now := time.Now()
	for id, expiry := range g.revoked {
		if expiry.Before(now) {
			delete(g.revoked, id)
		}
	}
	g.revoked[claims.ID] = claims.ExpiresAt.Time

	slog.Info("signed out", "username", claims.Subject)
	return nil
}
