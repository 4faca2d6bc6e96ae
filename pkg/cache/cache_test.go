package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jldupont/goprolog/pkg/cache"
	"github.com/jldupont/goprolog/pkg/types"
)

func query(n int) *types.Clause {
	return &types.Clause{
		F:    types.QueryFunctor,
		Code: map[string][]types.Instruction{types.LabelBody: {{Op: types.OpEnd}}, "n": make([]types.Instruction, n)},
	}
}

func TestGetSet(t *testing.T) {
	c := cache.New(2)
	q := query(1)
	c.Set("a.", q)

	got, ok := c.Get("a.")
	if !ok || got != q {
		t.Fatalf("expected cached clause, got %v %v", got, ok)
	}
	if _, ok := c.Get("b."); ok {
		t.Fatalf("expected a miss")
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}
}

func TestEviction(t *testing.T) {
	c := cache.New(2)
	c.Set("a.", query(1))
	c.Set("b.", query(2))
	c.Get("a.") // b. is now least recently used
	c.Set("c.", query(3))

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get("b."); ok {
		t.Fatalf("expected b. to be evicted")
	}
	for _, key := range []string{"a.", "c."} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("expected %s to be kept", key)
		}
	}
}

func TestReplaceKeepsSize(t *testing.T) {
	c := cache.New(2)
	first, second := query(1), query(2)
	c.Set("a.", first)
	c.Set("a.", second)
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	if got, _ := c.Get("a."); got != second {
		t.Fatalf("expected the replacement clause")
	}
}

func TestGetOrCompile(t *testing.T) {
	c := cache.New(0)
	if c.Capacity() != cache.DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", cache.DefaultCapacity, c.Capacity())
	}

	calls := 0
	compile := func() (*types.Clause, error) {
		calls++
		return query(1), nil
	}
	a, err := c.GetOrCompile("a.", compile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := c.GetOrCompile("a.", compile)
	if a != b || calls != 1 {
		t.Fatalf("expected one compilation, got %d", calls)
	}

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		if _, err := c.GetOrCompile("bad", func() (*types.Clause, error) { return nil, boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("expected errors not to be cached, got %d entries", c.Len())
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	c.Set("a.", query(1))
	c.Set("b.", query(2))
	c.Invalidate("a.")
	if _, ok := c.Get("a."); ok {
		t.Fatalf("expected a. to be removed")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected an empty cache, got %d", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := cache.New(8)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("q%d.", (g+i)%16)
				_, _ = c.GetOrCompile(key, func() (*types.Clause, error) { return query(i), nil })
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 8 {
		t.Fatalf("expected at most 8 entries, got %d", c.Len())
	}
}
