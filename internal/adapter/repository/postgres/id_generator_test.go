package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorMonotonic(t *testing.T) {
	g := NewULIDGenerator()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	prev := g.Generate()
	for i := 0; i < 1000; i++ {
		next := g.Generate()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		if _, err := ulid.Parse(next); err != nil {
			t.Fatalf("invalid ulid %s: %v", next, err)
		}
		prev = next
	}
}

func TestULIDGeneratorConcurrentUnique(t *testing.T) {
	g := NewULIDGenerator()
	seen := sync.Map{}
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				if _, dup := seen.LoadOrStore(g.Generate(), struct{}{}); dup {
					t.Error("duplicate id")
				}
			}
		}()
	}
	wg.Wait()
}
