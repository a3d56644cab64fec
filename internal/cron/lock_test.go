package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestLockAcquireAndRelease(t *testing.T) {
	store := newMemoryStore()
	lock, err := NewRedisLock(store, "adsdir:cron:lock", time.Minute)
	if err != nil {
		t.Fatalf("building lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("acquire = %v, %v; want true, nil", ok, err)
	}
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.values["adsdir:cron:lock"]; ok {
		t.Error("lock key still present after release")
	}
}

func TestLockSecondAcquireBlocked(t *testing.T) {
	store := newMemoryStore()
	first, _ := NewRedisLock(store, "adsdir:cron:lock", time.Minute)
	second, _ := NewRedisLock(store, "adsdir:cron:lock", time.Minute)

	if ok, _ := first.Acquire(context.Background()); !ok {
		t.Fatal("first acquire failed")
	}
	if ok, _ := second.Acquire(context.Background()); ok {
		t.Error("second replica acquired a held lock")
	}
}

func TestLockReleaseDoesNotStealForeignLease(t *testing.T) {
	store := newMemoryStore()
	lock, _ := NewRedisLock(store, "adsdir:cron:lock", time.Minute)

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("acquire failed")
	}
	// TTL expiry followed by another replica taking the lease.
	store.values["adsdir:cron:lock"] = "someone-else"

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["adsdir:cron:lock"] != "someone-else" {
		t.Error("release deleted another replica's lease")
	}
}

func TestLockReleaseAfterKeyExpired(t *testing.T) {
	store := newMemoryStore()
	lock, _ := NewRedisLock(store, "adsdir:cron:lock", time.Minute)

	if ok, _ := lock.Acquire(context.Background()); !ok {
		t.Fatal("acquire failed")
	}
	delete(store.values, "adsdir:cron:lock")

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release after expiry: %v", err)
	}
}

func TestLockReleaseWithoutAcquireIsNoop(t *testing.T) {
	store := newMemoryStore()
	lock, _ := NewRedisLock(store, "adsdir:cron:lock", time.Minute)
	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release without acquire: %v", err)
	}
}
