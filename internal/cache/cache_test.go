package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/realitycheck/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("ab", "c")
	b := CacheKey("a", "bc")
	if a == b {
		t.Error("Expected length-delimited parts to produce different keys")
	}
	if a != CacheKey("ab", "c") {
		t.Error("Expected stable keys")
	}
	if !strings.HasPrefix(a, "realitycheck:v1:") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatal("Expected miss on empty cache")
	}
	_ = c.Set("k", []byte("v"), 0)
	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Errorf("Expected hit, got %q %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry, got %d", c.Len())
	}
	_ = c.Clear()
	if c.Len() != 0 {
		t.Error("Expected empty cache after Clear")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("claim", "evidence")

	if err := c.Set(key, []byte(`{"verdict":"contradicted"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := c.Get(key); !ok || string(v) != `{"verdict":"contradicted"}` {
		t.Fatalf("Expected hit, got %q %v", v, ok)
	}

	// No temp files are left behind
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".entry-") {
			t.Errorf("Leftover temp file %s", e.Name())
		}
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestDiskCache_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := CacheKey("x")

	if err := os.WriteFile(c.path(key), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("Expected corrupt entry to miss")
	}
}

func TestDiskCache_ClearKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	_ = c.Set(CacheKey("a"), []byte("1"), 0)

	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get(CacheKey("a")); ok {
		t.Error("Expected entry removed")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Expected unrelated file to survive Clear")
	}
	if err := c.Delete(CacheKey("missing")); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := CacheKey("judgment")

	_ = NewDiskCache(dir, time.Hour).Set(key, []byte("v"), 0)

	c := NewLayeredCache(time.Minute, dir, time.Hour)
	if v, ok := c.Get(key); !ok || string(v) != "v" {
		t.Fatalf("Expected disk hit, got %q %v", v, ok)
	}
	if _, ok := c.memory.Get(key); !ok {
		t.Error("Expected value promoted to memory")
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	type payload struct{ Verdict string }

	if err := SetJSON(c, "k", payload{Verdict: "supported"}, 0); err != nil {
		t.Fatal(err)
	}
	var got payload
	if !GetJSON(c, "k", &got) || got.Verdict != "supported" {
		t.Errorf("Unexpected payload %+v", got)
	}

	_ = c.Set("bad", []byte("{"), 0)
	if GetJSON(c, "bad", &got) {
		t.Error("Expected corrupt JSON to miss")
	}
}

func TestNew(t *testing.T) {
	if New(model.CacheConfig{Enabled: false}) != nil {
		t.Error("Expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}).(*MemoryCache); !ok {
		t.Error("Expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("Expected layered cache with a directory")
	}
}
