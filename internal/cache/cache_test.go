package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests step time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	s := New(ttl)
	s.now = clock.now
	return s, clock
}

func TestStore_HitWithinTTL(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(15 * time.Second)
	s.Set("IDX:BBCA:quote:1D:2", 42)

	clock.advance(14 * time.Second)
	v, ok := s.Get("IDX:BBCA:quote:1D:2")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// Two reads without an intervening write return the same payload.
	v2, ok := s.Get("IDX:BBCA:quote:1D:2")
	require.True(t, ok)
	assert.Equal(t, v, v2)
}

func TestStore_ExpiredReadEvicts(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(15 * time.Second)
	s.Set("k", "v")

	clock.advance(16 * time.Second)
	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_BoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(15 * time.Second)
	s.Set("k", "v")

	// Exactly at TTL the entry is still valid.
	clock.advance(15 * time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok)
}

func TestStore_MissOnUnknownKey(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(time.Second)
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestStore_SetRefreshesTimestamp(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(10 * time.Second)
	s.Set("k", 1)
	clock.advance(8 * time.Second)
	s.Set("k", 2)
	clock.advance(8 * time.Second)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestStore_Sweep(t *testing.T) {
	t.Parallel()

	s, clock := newTestStore(10 * time.Second)
	s.Set("old", 1)
	clock.advance(11 * time.Second)
	s.Set("fresh", 2)

	removed := s.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get("fresh")
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "IDX:BBCA:quote:1D:2", Key("IDX", "BBCA", "quote", "1D", "2"))
	// Any parameter change must change the key.
	assert.NotEqual(t, Key("IDX", "BBCA", "quote", "1D", "2"), Key("IDX", "BBCA", "sr", "1D", "2"))
}
