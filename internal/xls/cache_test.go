package xls

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/criteria-extractor/internal/entity"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("f.xlsx@01", "Foglio1", "A", 1, 10)
	assert.Len(t, a, 40)
	assert.Equal(t, a, CacheKey("f.xlsx@01", "Foglio1", "A", 1, 10))
	assert.NotEqual(t, a, CacheKey("f.xlsx@01", "Foglio1", "B", 1, 10))
	assert.NotEqual(t, a, CacheKey("f.xlsx@01", "Foglio1", "A", 1, 11))
	assert.NotEqual(t, a, CacheKey("f.xlsx@02", "Foglio1", "A", 1, 10))
}

func TestCache_Load(t *testing.T) {
	c := NewCache()
	calls := 0
	compute := func() ([]entity.Record, error) {
		calls++
		return []entity.Record{{Code: "A1", Text: fmt.Sprint(calls)}}, nil
	}

	recs, hit, err := c.Load("s", "k1", false, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "1", recs[0].Text)

	recs, hit, err = c.Load("s", "k1", false, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "1", recs[0].Text)
	assert.Equal(t, 1, calls)

	// explicit refresh recomputes under the same key
	recs, hit, err = c.Load("s", "k1", true, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "2", recs[0].Text)

	// key change replaces the slot
	_, hit, err = c.Load("s", "k2", false, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	key, ok := c.Key("s")
	require.True(t, ok)
	assert.Equal(t, "k2", key)
	assert.Equal(t, 3, calls)

	// sessions are independent
	_, hit, err = c.Load("other", "k2", false, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, c.Len())
}

func TestCache_ComputeErrorClearsSession(t *testing.T) {
	c := NewCache()
	_, _, err := c.Load("s", "k1", false, func() ([]entity.Record, error) { return nil, nil })
	require.NoError(t, err)

	boom := errors.New("boom")
	_, _, err = c.Load("s", "k2", false, func() ([]entity.Record, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := c.Key("s")
	assert.False(t, ok)
}

func TestCache_EvictsOldestSession(t *testing.T) {
	c := NewCache()
	c.maxSessions = 2
	noop := func() ([]entity.Record, error) { return nil, nil }

	for _, s := range []string{"a", "b", "c"} {
		_, _, err := c.Load(s, "k", false, noop)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())
}

func TestCache_SlowParseDoesNotBlockOtherSessions(t *testing.T) {
	c := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, _, err := c.Load("slow", "k", false, func() ([]entity.Record, error) {
			close(started)
			<-release
			return []entity.Record{{Code: "A1"}}, nil
		})
		done <- err
	}()
	<-started

	fast := make(chan error, 1)
	go func() {
		_, _, err := c.Load("fast", "k", false, func() ([]entity.Record, error) { return nil, nil })
		fast <- err
	}()
	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("load on another session waited for a running parse")
	}

	// a hit on a different session is also served while the parse runs
	_, hit, err := c.Load("fast", "k", false, nil)
	require.NoError(t, err)
	assert.True(t, hit)

	close(release)
	require.NoError(t, <-done)
	key, ok := c.Key("slow")
	require.True(t, ok)
	assert.Equal(t, "k", key)
}
