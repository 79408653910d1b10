package storage

import (
	"testing"
	"time"
)

func TestLRUCache_SetGet(t *testing.T) {
	cache := NewLRUCache(10, time.Minute)

	cache.Set("key-1", "value-1")

	value, found := cache.Get("key-1")
	if !found {
		t.Fatal("Expected key-1 to be cached")
	}
	if value.(string) != "value-1" {
		t.Errorf("Expected value-1, got %v", value)
	}

	if _, found := cache.Get("missing"); found {
		t.Error("Expected miss for unknown key")
	}
}

func TestLRUCache_EvictsOldest(t *testing.T) {
	cache := NewLRUCache(2, time.Minute)

	cache.Set("a", 1)
	cache.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate
	cache.Get("a")
	cache.Set("c", 3)

	if _, found := cache.Get("b"); found {
		t.Error("Expected b to be evicted")
	}
	if _, found := cache.Get("a"); !found {
		t.Error("Expected a to survive")
	}
	if _, found := cache.Get("c"); !found {
		t.Error("Expected c to be cached")
	}
}

func TestLRUCache_TTLExpiry(t *testing.T) {
	cache := NewLRUCache(10, 10*time.Millisecond)

	cache.Set("key", "value")
	time.Sleep(20 * time.Millisecond)

	if _, found := cache.Get("key"); found {
		t.Error("Expected key to be expired")
	}
}

func TestLRUCache_Delete(t *testing.T) {
	cache := NewLRUCache(10, time.Minute)

	cache.Set("key", "value")
	cache.Delete("key")

	if _, found := cache.Get("key"); found {
		t.Error("Expected key to be deleted")
	}
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache, got %d items", cache.Len())
	}
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	cache := NewLRUCache(10, 10*time.Millisecond)

	cache.Set("a", 1)
	cache.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	cache.Set("c", 3)

	removed := cache.CleanupExpired()
	if removed != 2 {
		t.Errorf("Expected 2 expired items removed, got %d", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 item left, got %d", cache.Len())
	}
}
