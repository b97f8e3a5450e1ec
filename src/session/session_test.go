package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestManagerResolveKeepsLedger(t *testing.T) {
	m := NewManager(time.Hour, 0)
	s := m.Create()
	if s.ID == "" {
		t.Fatal("expected session id")
	}
	again := m.Resolve(s.ID)
	if again != s {
		t.Fatal("resolve returned a different session")
	}
	if again.Ledger != s.Ledger {
		t.Fatal("ledger replaced on resolve")
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d", m.Len())
	}
}

func TestManagerResolveUnknownStartsEmpty(t *testing.T) {
	m := NewManager(time.Hour, 0)
	s := m.Resolve("after-restart")
	if s.Ledger.Len() != 0 {
		t.Fatalf("new session ledger len = %d", s.Ledger.Len())
	}
	if _, ok := m.Lookup("after-restart"); !ok {
		t.Fatal("session not stored")
	}
	if _, ok := m.Lookup("missing"); ok {
		t.Fatal("lookup created a session")
	}
}

func TestManagerSweepDropsIdleSessions(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, 0)
	m.now = func() time.Time { return now }

	idle := m.Create()
	now = now.Add(50 * time.Minute)
	active := m.Create()
	now = now.Add(20 * time.Minute)

	if n := m.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok := m.Lookup(idle.ID); ok {
		t.Fatal("idle session survived")
	}
	if _, ok := m.Lookup(active.ID); !ok {
		t.Fatal("active session removed")
	}
}

func TestIssuerRoundTrip(t *testing.T) {
	iss := NewIssuer([]byte("secret"), time.Hour)
	tok, exp, err := iss.Issue("abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("expiry %v not in the future", exp)
	}
	sid, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sid != "abc" {
		t.Fatalf("sid = %q", sid)
	}
}

func TestIssuerRejectsForeignAndExpired(t *testing.T) {
	iss := NewIssuer([]byte("secret"), time.Hour)
	other := NewIssuer([]byte("other"), time.Hour)

	tok, _, err := other.Issue("abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := iss.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token err = %v", err)
	}

	past := NewIssuer([]byte("secret"), time.Minute)
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := past.Issue("abc")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := iss.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token err = %v", err)
	}

	if _, err := iss.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage err = %v", err)
	}
}

func TestMemoryGateSingleFlight(t *testing.T) {
	g := NewMemoryGate()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := g.Acquire(ctx, "s1"); !errors.Is(err, ErrBusy) {
		t.Fatalf("second acquire err = %v, want ErrBusy", err)
	}
	other, err := g.Acquire(ctx, "s2")
	if err != nil {
		t.Fatalf("other key: %v", err)
	}
	other()

	release()
	release()

	again, err := g.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestRedisGate(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	ctx := context.Background()
	g := NewRedisGate(rdb, time.Minute)
	key := "test-" + time.Now().Format("150405.000000000")

	release, err := g.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := g.Acquire(ctx, key); !errors.Is(err, ErrBusy) {
		t.Fatalf("second acquire err = %v, want ErrBusy", err)
	}
	release()

	again, err := g.Acquire(ctx, key)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}
