package recurrence

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
)

func cacheTestEvent(id string) *event.BaseEvent {
	return &event.BaseEvent{
		ID:         id,
		OriginDate: civil.Date{Year: 2026, Month: time.January, Day: 1},
		Content:    event.Content{Title: "Cached"},
		Rule:       &event.RecurrenceRule{Frequency: event.Daily, Interval: 1},
	}
}

func TestCache_BasicOperations(t *testing.T) {
	cache := NewCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      100,
		CleanupInterval: 1 * time.Minute,
	})
	defer cache.Stop()

	ev := cacheTestEvent("basic")
	from := civil.Date{Year: 2026, Month: time.January, Day: 1}
	to := civil.Date{Year: 2026, Month: time.January, Day: 31}

	_, found := cache.Get(ev, from, to)
	assert.False(t, found, "expected cache miss")

	want := []event.Occurrence{{EventID: ev.ID, Date: from, OriginalDate: from}}
	cache.Set(ev, from, to, want)

	got, found := cache.Get(ev, from, to)
	require.True(t, found, "expected cache hit")
	assert.Equal(t, want, got)

	// A different range is a different key.
	_, found = cache.Get(ev, from, to.AddDays(1))
	assert.False(t, found)
}

func TestCache_GetReturnsCopy(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Stop()

	ev := cacheTestEvent("copy")
	from := civil.Date{Year: 2026, Month: time.January, Day: 1}
	to := civil.Date{Year: 2026, Month: time.January, Day: 31}

	cache.Set(ev, from, to, []event.Occurrence{
		{EventID: ev.ID, Date: from, OriginalDate: from, Content: event.Content{Title: "original"}},
	})

	got, found := cache.Get(ev, from, to)
	require.True(t, found)
	got[0].Content.Title = "mutated"

	again, found := cache.Get(ev, from, to)
	require.True(t, found)
	assert.Equal(t, "original", again[0].Content.Title)
}

func TestCache_KeyCoversEventDefinition(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Stop()

	from := civil.Date{Year: 2026, Month: time.January, Day: 1}
	to := civil.Date{Year: 2026, Month: time.January, Day: 31}

	ev := cacheTestEvent("edit")
	cache.Set(ev, from, to, []event.Occurrence{})

	// Editing the rule must invalidate the lookup.
	edited := cacheTestEvent("edit")
	edited.Rule.Interval = 2
	_, found := cache.Get(edited, from, to)
	assert.False(t, found)

	// Adding an exception must invalidate the lookup.
	excepted := cacheTestEvent("edit")
	excepted.Exceptions = []event.RecurrenceException{
		{OriginalDate: from, IsDeleted: true},
	}
	_, found = cache.Get(excepted, from, to)
	assert.False(t, found)

	// The unedited event still hits.
	_, found = cache.Get(cacheTestEvent("edit"), from, to)
	assert.True(t, found)
}

func TestCache_TTLExpiration(t *testing.T) {
	cache := NewCache(CacheConfig{
		TTL:             50 * time.Millisecond,
		MaxEntries:      100,
		CleanupInterval: time.Minute,
	})
	defer cache.Stop()

	ev := cacheTestEvent("ttl")
	from := civil.Date{Year: 2026, Month: time.January, Day: 1}
	to := civil.Date{Year: 2026, Month: time.January, Day: 31}

	cache.Set(ev, from, to, []event.Occurrence{})
	_, found := cache.Get(ev, from, to)
	require.True(t, found)

	time.Sleep(80 * time.Millisecond)

	_, found = cache.Get(ev, from, to)
	assert.False(t, found, "entry should have expired")
}

func TestCache_EvictsOverLimit(t *testing.T) {
	cache := NewCache(CacheConfig{
		TTL:             5 * time.Minute,
		MaxEntries:      10,
		CleanupInterval: time.Minute,
	})
	defer cache.Stop()

	from := civil.Date{Year: 2026, Month: time.January, Day: 1}
	to := civil.Date{Year: 2026, Month: time.January, Day: 31}

	for i := 0; i < 25; i++ {
		cache.Set(cacheTestEvent(fmt.Sprintf("ev-%d", i)), from, to, []event.Occurrence{})
	}

	assert.LessOrEqual(t, cache.Len(), 10)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache(DefaultCacheConfig)
	defer cache.Stop()

	from := civil.Date{Year: 2026, Month: time.January, Day: 1}
	to := civil.Date{Year: 2026, Month: time.January, Day: 31}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ev := cacheTestEvent(fmt.Sprintf("conc-%d", n))
			for j := 0; j < 100; j++ {
				cache.Set(ev, from, to, []event.Occurrence{})
				cache.Get(ev, from, to)
			}
		}(i)
	}
	wg.Wait()
}
