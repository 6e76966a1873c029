package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

func testRecord(pair, venue string, price float64, observed time.Time) domain.PriceRecord {
	return domain.PriceRecord{
		Pair:       pair,
		Venue:      venue,
		Price:      price,
		Liquidity:  100_000,
		Slot:       1000,
		ObservedAt: observed,
		FeeRate:    0.0025,
	}
}

func TestUpdateAndGet(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	now := time.Now().UTC()

	if err := c.Update(testRecord("SOL/USDC", "orca", 100, now)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec, ok := c.Get("SOL/USDC", "orca")
	if !ok {
		t.Fatal("Get: record not found")
	}
	if rec.Price != 100 {
		t.Errorf("price = %v, want 100", rec.Price)
	}
	if _, ok := c.Get("SOL/USDC", "raydium"); ok {
		t.Error("Get returned a record for an unknown venue")
	}
	if _, ok := c.Get("ETH/USDC", "orca"); ok {
		t.Error("Get returned a record for an unknown pair")
	}
}

func TestUpdateLastWriteWins(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	now := time.Now().UTC()

	if err := c.Update(testRecord("SOL/USDC", "orca", 100, now)); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(testRecord("SOL/USDC", "orca", 105, now.Add(time.Second))); err != nil {
		t.Fatal(err)
	}

	rec, _ := c.Get("SOL/USDC", "orca")
	if rec.Price != 105 {
		t.Errorf("price = %v, want 105 (last write wins)", rec.Price)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestUpdateRejectsInvalid(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	now := time.Now().UTC()

	bad := []domain.PriceRecord{
		testRecord("", "orca", 100, now),
		testRecord("SOL/USDC", "", 100, now),
		testRecord("SOL/USDC", "orca", 0, now),
		testRecord("SOL/USDC", "orca", -5, now),
	}
	for _, rec := range bad {
		if err := c.Update(rec); err == nil {
			t.Errorf("Update(%+v) accepted an invalid record", rec)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after rejected updates, want 0", c.Len())
	}
}

func TestSnapshotSortedCopy(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	now := time.Now().UTC()

	for _, v := range []string{"raydium", "orca", "meteora"} {
		if err := c.Update(testRecord("SOL/USDC", v, 100, now)); err != nil {
			t.Fatal(err)
		}
	}

	snap := c.Snapshot("SOL/USDC")
	if len(snap) != 3 {
		t.Fatalf("snapshot size = %d, want 3", len(snap))
	}
	want := []string{"meteora", "orca", "raydium"}
	for i, vr := range snap {
		if vr.Venue != want[i] {
			t.Errorf("snapshot[%d].Venue = %q, want %q", i, vr.Venue, want[i])
		}
	}

	// Mutating the snapshot must not affect the cache.
	snap[0].Record.Price = 1
	rec, _ := c.Get("SOL/USDC", "meteora")
	if rec.Price != 100 {
		t.Errorf("cache mutated through snapshot: price = %v", rec.Price)
	}

	if got := c.Snapshot("UNKNOWN"); len(got) != 0 {
		t.Errorf("snapshot of unknown pair = %v, want empty", got)
	}
}

func TestCleanupExpired(t *testing.T) {
	c := New(Config{TTL: 60 * time.Second})
	now := time.Now().UTC()

	if err := c.Update(testRecord("SOL/USDC", "orca", 100, now.Add(-90*time.Second))); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(testRecord("SOL/USDC", "raydium", 101, now.Add(-30*time.Second))); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(testRecord("ETH/USDC", "orca", 3000, now.Add(-2*time.Minute))); err != nil {
		t.Fatal(err)
	}

	removed := c.CleanupExpired(now)
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, ok := c.Get("SOL/USDC", "orca"); ok {
		t.Error("expired record survived cleanup")
	}
	if _, ok := c.Get("SOL/USDC", "raydium"); !ok {
		t.Error("fresh record was evicted")
	}

	// The ETH/USDC bucket lost its only entry and must be gone entirely.
	pairs := c.Pairs()
	if len(pairs) != 1 || pairs[0] != "SOL/USDC" {
		t.Errorf("Pairs = %v, want [SOL/USDC]", pairs)
	}

	// Idempotent: a second run with the same now removes nothing.
	if again := c.CleanupExpired(now); again != 0 {
		t.Errorf("second cleanup removed %d, want 0", again)
	}
}

func TestCleanupEvictionHook(t *testing.T) {
	var evicted int
	c := New(Config{TTL: time.Minute, OnEvict: func(n int) { evicted += n }})
	now := time.Now().UTC()

	if err := c.Update(testRecord("SOL/USDC", "orca", 100, now.Add(-2*time.Minute))); err != nil {
		t.Fatal(err)
	}

	c.CleanupExpired(now)
	if evicted != 1 {
		t.Errorf("hook saw %d evictions, want 1", evicted)
	}

	// Nothing left to remove: the hook must not fire again.
	c.CleanupExpired(now)
	if evicted != 1 {
		t.Errorf("hook fired on empty cleanup, total %d", evicted)
	}
}

func TestHealth(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	now := time.Now().UTC()

	if err := c.Update(testRecord("SOL/USDC", "orca", 100, now.Add(-5*time.Second))); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(testRecord("SOL/USDC", "raydium", 100, now)); err != nil {
		t.Fatal(err)
	}

	entries, pairs := c.Health(now, 2*time.Second)
	if entries != 2 {
		t.Errorf("entries = %d, want 2", entries)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	if pairs[0].Stale != 1 {
		t.Errorf("stale = %d, want 1", pairs[0].Stale)
	}
	if !pairs[0].LastUpdate.Equal(now) {
		t.Errorf("last update = %v, want %v", pairs[0].LastUpdate, now)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New(Config{TTL: time.Minute})
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pair := fmt.Sprintf("PAIR%d/USDC", n%4)
			for j := 0; j < 200; j++ {
				_ = c.Update(testRecord(pair, "orca", float64(j+1), now))
				c.Snapshot(pair)
				c.Get(pair, "orca")
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			c.CleanupExpired(now)
			c.Len()
			c.Pairs()
		}
	}()
	wg.Wait()

	if got := len(c.Pairs()); got != 4 {
		t.Errorf("pairs after concurrent updates = %d, want 4", got)
	}
}
