package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New[int](Options{DefaultExpiration: time.Minute})
	defer c.Close()

	c.Set("alice", 1)
	v, ok := c.Get("alice")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("bob")
	assert.False(t, ok)
}

func TestExpiration(t *testing.T) {
	c := New[int](Options{})
	defer c.Close()

	c.SetWithExpiration("short", 1, time.Millisecond)
	c.SetWithExpiration("forever", 2, 0)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	_, ok = c.Get("forever")
	assert.True(t, ok)
}

func TestEvictsOldestWhenFull(t *testing.T) {
	c := New[int](Options{MaxItems: 2})
	defer c.Close()

	var evicted []string
	c.SetOnEvicted(func(k string, _ int) { evicted = append(evicted, k) })

	c.Set("a", 1)
	time.Sleep(time.Millisecond)
	c.Set("b", 2)
	time.Sleep(time.Millisecond)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Count())
	assert.Equal(t, []string{"a"}, evicted)
	_, ok := c.Get("a")
	assert.False(t, ok)

	// Overwriting an existing key does not evict
	c.Set("c", 4)
	assert.Equal(t, 2, c.Count())
}

func TestDelete(t *testing.T) {
	c := New[int](Options{})
	defer c.Close()

	c.Set("a", 1)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestJanitorPurges(t *testing.T) {
	c := New[int](Options{CleanupInterval: 2 * time.Millisecond})
	defer c.Close()

	c.SetWithExpiration("a", 1, time.Millisecond)
	assert.Eventually(t, func() bool { return c.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStatsCountHitsAndMisses(t *testing.T) {
	c := New[string](Options{})
	defer c.Close()

	c.Set("alice", "Alice")
	_, _ = c.Get("alice")
	_, _ = c.Get("alice")
	_, _ = c.Get("bob")

	st := c.Stats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, 1, st.Items)
}

func TestExpiryUsesClock(t *testing.T) {
	c := New[string](Options{DefaultExpiration: time.Minute})
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("alice", "Alice")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("alice")
	assert.False(t, ok)
}
