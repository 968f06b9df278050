package project

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCacheGetFetchesThenServesSnapshot(t *testing.T) {
	store := newFakeStore()
	store.projects["p1"] = &Project{ID: "p1", Name: "Tower A"}
	cache := NewCache(store, nil)
	defer cache.Close()

	for i := 0; i < 3; i++ {
		p, err := cache.Get(context.Background(), "p1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if p.Name != "Tower A" {
			t.Fatalf("unexpected project %+v", p)
		}
	}
	if store.callCount() != 1 {
		t.Fatalf("expected one backend fetch, got %d", store.callCount())
	}
}

func TestCacheGetNotFound(t *testing.T) {
	store := newFakeStore()
	cache := NewCache(store, nil)
	defer cache.Close()

	_, err := cache.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Cached not-found does not refetch.
	_, _ = cache.Get(context.Background(), "missing")
	if store.callCount() != 1 {
		t.Fatalf("expected one backend fetch, got %d", store.callCount())
	}
}

func TestCacheInvalidateRefetches(t *testing.T) {
	store := newFakeStore()
	store.projects["p1"] = &Project{ID: "p1", Name: "v1"}
	cache := NewCache(store, nil)
	defer cache.Close()

	if _, err := cache.Get(context.Background(), "p1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	store.mu.Lock()
	store.projects["p1"] = &Project{ID: "p1", Name: "v2"}
	store.mu.Unlock()
	cache.Invalidate("p1")

	p, err := cache.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if p.Name != "v2" {
		t.Fatalf("expected refreshed record, got %+v", p)
	}
	if store.callCount() != 2 {
		t.Fatalf("expected two backend fetches, got %d", store.callCount())
	}
}

func TestCacheGetHonorsContext(t *testing.T) {
	store := newFakeStore()
	store.projects["p1"] = &Project{ID: "p1"}
	store.blocks["p1"] = make(chan struct{}) // held open

	cache := NewCache(store, nil)
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cache.Get(ctx, "p1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCacheConcurrentGetsShareOneFetch(t *testing.T) {
	store := newFakeStore()
	store.projects["p1"] = &Project{ID: "p1", Name: "Tower A"}
	block := make(chan struct{})
	store.blocks["p1"] = block

	cache := NewCache(store, nil)
	defer cache.Close()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(context.Background(), "p1")
			errs <- err
		}()
	}

	// Give the goroutines a moment to pile onto the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(block)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent get: %v", err)
		}
	}
	if store.callCount() != 1 {
		t.Fatalf("expected one shared backend fetch, got %d", store.callCount())
	}
}

func TestCacheFailedFetchRetriesOnNextRequest(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("backend down")
	cache := NewCache(store, nil)
	defer cache.Close()

	if _, err := cache.Get(context.Background(), "p1"); err == nil {
		t.Fatal("expected error from failing backend")
	}

	store.mu.Lock()
	store.err = nil
	store.projects["p1"] = &Project{ID: "p1", Name: "recovered"}
	store.mu.Unlock()

	p, err := cache.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get after recovery: %v", err)
	}
	if p.Name != "recovered" {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestCacheClosedGetFails(t *testing.T) {
	cache := NewCache(newFakeStore(), nil)
	cache.Close()

	if _, err := cache.Get(context.Background(), "p1"); err == nil {
		t.Fatal("expected error from closed cache")
	}
}
