package cache

import (
	"testing"
	"time"
)

func newTestPages() (*MemoryPages, *time.Time) {
	pages := NewMemoryPages()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pages.Now = func() time.Time { return now }
	return pages, &now
}

func TestMemoryPagesExpiry(t *testing.T) {
	pages, now := newTestPages()

	pages.Set("index_page:/", []byte("body"), 20*time.Second)

	if value, ok := pages.Get("index_page:/"); !ok || string(value) != "body" {
		t.Fatalf("expected cached body, got %q (ok=%v)", value, ok)
	}

	*now = now.Add(19 * time.Second)
	if _, ok := pages.Get("index_page:/"); !ok {
		t.Error("entry expired before its TTL")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := pages.Get("index_page:/"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestMemoryPagesInvalidatePrefix(t *testing.T) {
	pages, _ := newTestPages()

	pages.Set("index_page:/", []byte("a"), time.Minute)
	pages.Set("index_page:/?page=2", []byte("b"), time.Minute)
	pages.Set("other:/", []byte("c"), time.Minute)

	pages.InvalidatePrefix(IndexPagePrefix)

	if _, ok := pages.Get("index_page:/"); ok {
		t.Error("index_page:/ survived invalidation")
	}
	if _, ok := pages.Get("index_page:/?page=2"); ok {
		t.Error("index_page:/?page=2 survived invalidation")
	}
	if _, ok := pages.Get("other:/"); !ok {
		t.Error("unrelated key was invalidated")
	}
}

func TestMemoryPagesMissingKey(t *testing.T) {
	pages, _ := newTestPages()
	if _, ok := pages.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}
