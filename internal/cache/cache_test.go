package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	a := Key("remote", "model", "the cat sat")
	b := Key("remote", "model", "the cat sat")
	c := Key("remote", "model", "the cat sat down")

	if a != b {
		t.Error("expected identical parts to produce identical keys")
	}
	if a == c {
		t.Error("expected different window text to produce different keys")
	}
	if !strings.HasPrefix(a, "punctuate:v1:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
	// part boundaries matter
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("expected part boundaries to be part of the key")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}
	if err := c.Set("k", []byte("O O."), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "O O." {
		t.Errorf("expected hit with %q, got %q (found=%v)", "O O.", val, found)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expected entry to expire")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	key := Key("remote", "m", "hello world")

	if err := c.Set(key, []byte("u O!"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get(key)
	if !found || string(val) != "u O!" {
		t.Errorf("expected hit with %q, got %q (found=%v)", "u O!", val, found)
	}

	// entries survive a new instance
	again := NewDiskCache(dir, time.Hour)
	if _, found := again.Get(key); !found {
		t.Error("expected entry to persist on disk")
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("expected deleting a missing entry to succeed, got %v", err)
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("expired")
	if err := c.Set(key, []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(c.path(key)); !os.IsNotExist(err) {
		t.Error("expected expired entry to be removed")
	}

	corrupt := Key("corrupt")
	if err := os.MkdirAll(filepath.Dir(c.path(corrupt)), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.path(corrupt), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get(corrupt); found {
		t.Error("expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := Key("layered")

	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set(key, []byte("O."), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	memory := NewMemoryCache(time.Hour, time.Minute)
	c := &LayeredCache{memory: memory, disk: disk}

	if val, found := c.Get(key); !found || string(val) != "O." {
		t.Fatalf("expected disk hit, got %q (found=%v)", val, found)
	}
	if _, found := memory.Get(key); !found {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected miss after clear")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New("", time.Minute, time.Hour).(*MemoryCache); !ok {
		t.Error("expected memory cache without a directory")
	}
	if _, ok := New(t.TempDir(), time.Minute, time.Hour).(*LayeredCache); !ok {
		t.Error("expected layered cache with a directory")
	}
}
