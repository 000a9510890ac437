// Package session keeps one Redis entry per issued access token so logout
// can revoke a token before its JWT expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var errBlankAccessID = errors.New("access id is required")

// Store is the slice of the Redis client the manager uses.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// OwnerLookup is the read side used by the auth middleware.
type OwnerLookup interface {
	Owner(ctx context.Context, accessID string) (uuid.UUID, bool, error)
}

// Manager stores admin id by access id with the token lifetime as TTL.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// NewAccessID mints the value used both as JWT jti and session key.
func NewAccessID() string {
	return uuid.NewString()
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", errBlankAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

func (m *Manager) Open(ctx context.Context, accessID string, adminID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, key, adminID.String(), m.ttl)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Owner returns the admin that opened accessID; ok is false once the
// session was revoked or expired.
func (m *Manager) Owner(ctx context.Context, accessID string) (adminID uuid.UUID, ok bool, err error) {
	key, err := m.key(accessID)
	if err != nil {
		return uuid.Nil, false, err
	}
	raw, err := m.store.Get(ctx, key)
	switch {
	case errors.Is(err, redislib.Nil):
		return uuid.Nil, false, nil
	case err != nil:
		return uuid.Nil, false, err
	}
	adminID, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt session %s: %w", accessID, err)
	}
	return adminID, true, nil
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	_, ok, err := m.Owner(ctx, accessID)
	return ok, err
}
