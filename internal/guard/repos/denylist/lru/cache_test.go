package lru

import (
	"errors"
	"testing"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/haukened/callguard/internal/guard/domain"
	"github.com/haukened/callguard/internal/guard/repos/denylist"
)

func TestDecisionCache_HitMissAndPut(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	d := denylist.Decision{Listed: true, Entry: domain.ListedNumber{Number: "0330000000", Label: "test"}}

	if _, ok := c.Get("0330000000"); ok {
		t.Fatalf("expected miss before put")
	}

	c.Put("0330000000", d)

	got, ok := c.Get("0330000000")
	if !ok || !got.Listed || got.Entry.Label != "test" {
		t.Fatalf("unexpected get: ok=%v got=%+v", ok, got)
	}
	hits, misses, _ := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d want 1/1", hits, misses)
	}
}

func TestDecisionCache_EvictionAndLen(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Put("1", denylist.Decision{Listed: true})
	c.Put("2", denylist.Decision{Listed: true})
	if got := c.Len(); got != 2 {
		t.Fatalf("len=%d want=2", got)
	}
	c.Put("3", denylist.Decision{})
	if got := c.Len(); got != 2 {
		t.Fatalf("len=%d want=2 after eviction", got)
	}
	if _, _, ev := c.Stats(); ev != 1 {
		t.Fatalf("evictions=%d want=1", ev)
	}
}

func TestDecisionCache_PurgeCountsEvictions(t *testing.T) {
	c, err := New(3)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	c.Put("1", denylist.Decision{Listed: true})
	c.Put("2", denylist.Decision{Listed: true})
	c.Put("3", denylist.Decision{Listed: true})

	c.Purge()
	if got := c.Len(); got != 0 {
		t.Fatalf("len=%d want=0 after purge", got)
	}
	if _, _, ev := c.Stats(); ev != 3 {
		t.Fatalf("evictions=%d want=3 after purge", ev)
	}
}

func TestDecisionCache_Disabled(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := c.Get("x"); ok {
		t.Fatalf("expected miss in disabled cache")
	}
	c.Put("x", denylist.Decision{Listed: true})
	if got := c.Len(); got != 0 {
		t.Fatalf("len=%d want=0 for disabled", got)
	}
	c.Purge()
	if h, m, e := c.Stats(); h != 0 || m != 0 || e != 0 {
		t.Fatalf("disabled cache should report zero stats")
	}
}

func TestNewLRU_Error(t *testing.T) {
	originalLRU := newLRU
	defer func() { newLRU = originalLRU }()
	newLRU = func(int, func(string, denylist.Decision)) (*lru.Cache[string, denylist.Decision], error) {
		return nil, errors.New("cache creation error")
	}
	if _, err := New(1); err == nil {
		t.Fatalf("expected error but got nil")
	}
}
