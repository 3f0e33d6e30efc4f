package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusassist/internal/session"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestRegistry(t *testing.T, clock *fakeClock) *Registry {
	t.Helper()
	r := New(func(id string) *session.Session {
		return session.New(session.Options{ID: id, Now: clock.now})
	}, time.Hour, nil)
	r.now = clock.now
	return r
}

func TestCreateGetDelete(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	r := newTestRegistry(t, clock)

	first := r.Create()
	second := r.Create()
	if first.ID() == second.ID() {
		t.Fatalf("expected distinct session ids")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", r.Len())
	}
	got, err := r.Get(first.ID())
	if err != nil || got != first {
		t.Fatalf("get: %v", err)
	}
	if !r.Delete(first.ID()) {
		t.Fatalf("expected delete to report existing session")
	}
	if r.Delete(first.ID()) {
		t.Fatalf("second delete should report missing session")
	}
	if _, err := r.Get(first.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEvictIdleSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	r := newTestRegistry(t, clock)

	idle := r.Create()
	clock.t = clock.t.Add(45 * time.Minute)
	active := r.Create()
	if _, err := active.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	clock.t = clock.t.Add(30 * time.Minute)
	if n := r.evictIdle(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, err := r.Get(idle.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("idle session should be gone")
	}
	if _, err := r.Get(active.ID()); err != nil {
		t.Fatalf("active session should survive: %v", err)
	}
}

func TestJanitorStopsWithContext(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	r := newTestRegistry(t, clock)
	r.Create()
	clock.t = clock.t.Add(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	r.StartJanitor(ctx, 5*time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor did not evict the idle session")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
