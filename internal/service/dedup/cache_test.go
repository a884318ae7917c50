package dedup

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestShouldAccept_FirstWins(t *testing.T) {
	c := New(120 * time.Second)
	now := time.Now()

	if !c.ShouldAccept("XAUUSD|1m|1buy|2050", now) {
		t.Fatalf("first signal must be accepted")
	}
	if c.ShouldAccept("XAUUSD|1m|1buy|2050", now.Add(time.Second)) {
		t.Fatalf("duplicate inside window must be suppressed")
	}
	if c.ShouldAccept("XAUUSD|1m|1buy|2050", now.Add(119*time.Second)) {
		t.Fatalf("duplicate at window edge must be suppressed")
	}
}

func TestShouldAccept_WindowElapsed(t *testing.T) {
	c := New(120 * time.Second)
	now := time.Now()

	if !c.ShouldAccept("k", now) {
		t.Fatalf("first accept failed")
	}
	if !c.ShouldAccept("k", now.Add(120*time.Second)) {
		t.Fatalf("signal after window must be accepted again")
	}
}

func TestShouldAccept_DistinctKeys(t *testing.T) {
	c := New(120 * time.Second)
	now := time.Now()

	if !c.ShouldAccept("XAUUSD|1m|1buy|2050", now) {
		t.Fatalf("accept failed")
	}
	if !c.ShouldAccept("XAUUSD|5m|1buy|2050", now) {
		t.Fatalf("different level is a different identity")
	}
	if !c.ShouldAccept("XAUUSD|1m|1buy|2051", now) {
		t.Fatalf("different price bucket is a different identity")
	}
}

func TestShouldAccept_PurgesExpired(t *testing.T) {
	c := New(time.Minute)
	now := time.Now()

	for i := 0; i < 50; i++ {
		c.ShouldAccept(fmt.Sprintf("k%d", i), now)
	}
	if c.Len() != 50 {
		t.Fatalf("Len=%d, want 50", c.Len())
	}

	// any call after expiry sweeps the whole map
	c.ShouldAccept("fresh", now.Add(2*time.Minute))
	if c.Len() != 1 {
		t.Fatalf("Len=%d, want 1 after purge", c.Len())
	}
}

func TestShouldAccept_ConcurrentBurst(t *testing.T) {
	c := New(120 * time.Second)
	now := time.Now()

	const n = 64
	var wg sync.WaitGroup
	accepted := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.ShouldAccept("same-key", now) {
				accepted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(accepted)

	count := 0
	for range accepted {
		count++
	}
	if count != 1 {
		t.Fatalf("accepted=%d, want exactly 1 from a concurrent burst", count)
	}
}
