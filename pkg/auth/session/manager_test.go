package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	redisclient "github.com/angelmondragon/vidrobox-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	manager, err := NewManager(redisclient.NewFromRaw(raw), config.JWTConfig{ExpirationMinutes: 60})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager, mr
}

func TestManagerOpenAndRevoke(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()
	accessID := NewAccessID()
	adminID := uuid.New()

	if err := manager.Open(ctx, accessID, adminID); err != nil {
		t.Fatalf("open: %v", err)
	}
	owner, ok, err := manager.Owner(ctx, accessID)
	if err != nil || !ok || owner != adminID {
		t.Fatalf("expected live session for %s, owner=%s ok=%v err=%v", adminID, owner, ok, err)
	}
	if ttl := mr.TTL("vb:session:access:" + accessID); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	if err := manager.Revoke(ctx, accessID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, accessID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
}

func TestManagerSessionExpires(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()
	accessID := NewAccessID()
	if err := manager.Open(ctx, accessID, uuid.New()); err != nil {
		t.Fatalf("open: %v", err)
	}
	mr.FastForward(61 * time.Minute)
	ok, err := manager.HasSession(ctx, accessID)
	if err != nil || ok {
		t.Fatalf("expected expired session, ok=%v err=%v", ok, err)
	}
}

func TestManagerRejectsBlankAccessID(t *testing.T) {
	manager, _ := newTestManager(t)
	if _, err := manager.HasSession(context.Background(), " "); err == nil {
		t.Fatal("expected blank access id to fail")
	}
	if err := manager.Open(context.Background(), "", uuid.New()); err == nil {
		t.Fatal("expected blank access id to fail")
	}
}

func TestManagerFlagsCorruptSession(t *testing.T) {
	manager, mr := newTestManager(t)
	accessID := NewAccessID()
	if err := mr.Set("vb:session:access:"+accessID, "not-a-uuid"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := manager.HasSession(context.Background(), accessID); err == nil {
		t.Fatal("expected corrupt session to fail")
	}
}

func TestNewManagerRequiresTTL(t *testing.T) {
	if _, err := NewManager(&redisclient.Client{}, config.JWTConfig{}); err == nil {
		t.Fatal("expected zero ttl to fail")
	}
	if _, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 1}); err == nil {
		t.Fatal("expected nil store to fail")
	}
}
