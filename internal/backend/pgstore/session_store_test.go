package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

type mockRedisSessionClient struct {
	values  map[string]interface{}
	sets    map[string][]string
	expires map[string]time.Duration

	lastDel []string
	setErr  error
}

func newMockRedisSessionClient() *mockRedisSessionClient {
	return &mockRedisSessionClient{
		values:  make(map[string]interface{}),
		sets:    make(map[string][]string),
		expires: make(map[string]time.Duration),
	}
}

func (m *mockRedisSessionClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.values[key] = value
	m.expires[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisSessionClient) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (m *mockRedisSessionClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			delete(m.values, k)
			n++
		}
		if _, ok := m.sets[k]; ok {
			delete(m.sets, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (m *mockRedisSessionClient) SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	for _, member := range members {
		m.sets[key] = append(m.sets[key], member.(string))
	}
	cmd.SetVal(int64(len(members)))
	return cmd
}

func (m *mockRedisSessionClient) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetVal(append([]string(nil), m.sets[key]...))
	return cmd
}

func (m *mockRedisSessionClient) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	m.expires[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	_ = s.Store(ctx, "j1", "u1", time.Hour)
	_ = s.Store(ctx, "j2", "u1", time.Hour)
	_ = s.Store(ctx, "j3", "u2", time.Hour)
	_ = s.Store(ctx, "old", "u2", -time.Second)

	if ok, _ := s.Exists(ctx, "old"); ok {
		t.Fatalf("expired entry must not exist")
	}
	if err := s.Revoke(ctx, "j1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := s.Exists(ctx, "j1"); ok {
		t.Fatalf("revoked entry must not exist")
	}
	if err := s.RevokeUser(ctx, "u1"); err != nil {
		t.Fatalf("revoke user: %v", err)
	}
	if ok, _ := s.Exists(ctx, "j2"); ok {
		t.Fatalf("expected all sessions of u1 revoked")
	}
	if ok, _ := s.Exists(ctx, "j3"); !ok {
		t.Fatalf("expected u2 session kept")
	}
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("store indexes jti per user", func(t *testing.T) {
		client := newMockRedisSessionClient()
		s := &redisSessionStore{client: client, prefix: "session:", timeout: time.Second}

		if err := s.Store(ctx, "j1", "u1", time.Hour); err != nil {
			t.Fatalf("store: %v", err)
		}
		if client.values["session:j1"] != "u1" || client.expires["session:j1"] != time.Hour {
			t.Fatalf("unexpected value/ttl: %v %v", client.values, client.expires)
		}
		if got := client.sets["session:user:u1"]; len(got) != 1 || got[0] != "j1" {
			t.Fatalf("expected user index, got %v", got)
		}
		if client.expires["session:user:u1"] != time.Hour {
			t.Fatalf("expected index ttl refreshed")
		}
		ok, err := s.Exists(ctx, "j1")
		if err != nil || !ok {
			t.Fatalf("expected session to exist, got %v %v", ok, err)
		}
	})

	t.Run("revoke user deletes every jti and the index", func(t *testing.T) {
		client := newMockRedisSessionClient()
		s := &redisSessionStore{client: client, prefix: "session:", timeout: time.Second}
		_ = s.Store(ctx, "j1", "u1", time.Hour)
		_ = s.Store(ctx, "j2", "u1", time.Hour)
		_ = s.Store(ctx, "j3", "u2", time.Hour)

		if err := s.RevokeUser(ctx, "u1"); err != nil {
			t.Fatalf("revoke user: %v", err)
		}
		if len(client.lastDel) != 3 || client.lastDel[2] != "session:user:u1" {
			t.Fatalf("unexpected deleted keys %v", client.lastDel)
		}
		if ok, _ := s.Exists(ctx, "j2"); ok {
			t.Fatalf("expected j2 revoked")
		}
		if ok, _ := s.Exists(ctx, "j3"); !ok {
			t.Fatalf("expected j3 kept")
		}
	})

	t.Run("store error propagates", func(t *testing.T) {
		client := newMockRedisSessionClient()
		client.setErr = errors.New("redis down")
		s := &redisSessionStore{client: client, prefix: "session:", timeout: time.Second}
		if err := s.Store(ctx, "j1", "u1", time.Hour); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("blank keys are no-ops", func(t *testing.T) {
		client := newMockRedisSessionClient()
		s := &redisSessionStore{client: client, prefix: "session:", timeout: time.Second}
		if err := s.Store(ctx, " ", "u1", time.Hour); err != nil || len(client.values) != 0 {
			t.Fatalf("expected blank jti ignored")
		}
		if ok, err := s.Exists(ctx, ""); ok || err != nil {
			t.Fatalf("expected blank jti to not exist")
		}
		if err := s.RevokeUser(ctx, ""); err != nil || client.lastDel != nil {
			t.Fatalf("expected blank user ignored")
		}
	})

	if NewRedisSessionStore(nil) != nil {
		t.Fatalf("expected nil store without client")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("expected unique violation detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) || isUniqueViolation(errors.New("x")) {
		t.Fatalf("unexpected unique violation")
	}
}
