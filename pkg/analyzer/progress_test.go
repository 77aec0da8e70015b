package analyzer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressCall struct {
	current, total int
	path           string
}

func TestTrackerReportsEveryTemplate(t *testing.T) {
	var calls []progressCall
	tracker := NewTracker(func(current, total int, path string) {
		calls = append(calls, progressCall{current, total, path})
	})

	tracker.Add(2)
	tracker.Tick("layouts/base.html")
	tracker.Add(1) // a second root discovered mid-run
	tracker.Tick("partials/nav.html")
	tracker.Tick("blog/list.html")

	require.Len(t, calls, 3)
	assert.Equal(t, progressCall{1, 2, "layouts/base.html"}, calls[0])
	assert.Equal(t, progressCall{2, 3, "partials/nav.html"}, calls[1])
	assert.Equal(t, progressCall{3, 3, "blog/list.html"}, calls[2])
	assert.Equal(t, 3, tracker.Current())
	assert.Equal(t, 3, tracker.Total())
}

func TestTrackerWithoutCallback(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.Add(1)

	assert.NotPanics(t, func() { tracker.Tick("page.html") })
	assert.Equal(t, 1, tracker.Current())
}

func TestTrackerCountsConcurrentTicks(t *testing.T) {
	const workers = 64

	var mu sync.Mutex
	seen := make(map[int]bool)
	tracker := NewTracker(func(current, _ int, _ string) {
		mu.Lock()
		seen[current] = true
		mu.Unlock()
	})
	tracker.Add(workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Tick("page.html")
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, tracker.Current())
	assert.Len(t, seen, workers, "every tick should see a distinct count")
}

func TestTrackerContext(t *testing.T) {
	assert.Nil(t, TrackerFromContext(context.Background()))

	tracker := NewTracker(nil)
	ctx := WithTracker(context.Background(), tracker)
	assert.Same(t, tracker, TrackerFromContext(ctx))

	child, cancel := context.WithCancel(ctx)
	defer cancel()
	assert.Same(t, tracker, TrackerFromContext(child), "derived contexts keep the tracker")
}
