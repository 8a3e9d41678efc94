package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/menu-catalog/pkg/cache"
	"github.com/plateful/menu-catalog/pkg/catalog"
)

// ---- fakes ----

type fakeStore struct {
	mu       sync.Mutex
	entries  map[string]*cache.Entry
	sets     int
	clears   int
	getErr   error
	setErr   error
	clearErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*cache.Entry)}
}

func (s *fakeStore) Get(ctx context.Context, key cache.Key) (*cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[key.String()]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return entry, nil
}

func (s *fakeStore) Set(ctx context.Context, key cache.Key, entry *cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key.String()] = entry
	s.sets++
	return nil
}

func (s *fakeStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.entries = make(map[string]*cache.Entry)
	s.clears++
	return nil
}

func (s *fakeStore) Stats() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]int64{"sets": int64(s.sets), "clears": int64(s.clears)}
}

func (s *fakeStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *fakeStore) entryFor(key cache.Key) *cache.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key.String()]
}

type remoteCall struct {
	limit  int
	cursor string
	filter catalog.Filter
}

type fakeRemote struct {
	mu    sync.Mutex
	calls []remoteCall
	page  *catalog.Page
	err   error
	delay time.Duration
}

func (r *fakeRemote) FetchItems(ctx context.Context, limit int, cursor string, filter catalog.Filter) (*catalog.Page, error) {
	r.mu.Lock()
	r.calls = append(r.calls, remoteCall{limit: limit, cursor: cursor, filter: filter})
	page, err, delay := r.page, r.err, r.delay
	r.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	copied := *page
	return &copied, nil
}

func (r *fakeRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRemote) lastCall() remoteCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

type fakeFallback struct {
	mu    sync.Mutex
	calls int
	page  *catalog.Page
	err   error
}

func (f *fakeFallback) Items(ctx context.Context, limit int) (*catalog.Page, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.page
	return &copied, nil
}

func (f *fakeFallback) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func page(names ...string) *catalog.Page {
	items := make([]catalog.MenuItem, len(names))
	for i, name := range names {
		items[i] = catalog.MenuItem{ID: uuid.New(), Name: name, Available: true}
	}
	return &catalog.Page{Items: items}
}

func itemNames(p *catalog.Page) []string {
	names := make([]string, len(p.Items))
	for i, item := range p.Items {
		names[i] = item.Name
	}
	return names
}

// ---- tests ----

func TestNew_RequiresCollaborators(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{page: page("x")}
	fb := &fakeFallback{page: page("x")}

	_, err := New(nil, remote, fb, Config{})
	require.Error(t, err)

	_, err = New(store, nil, fb, Config{})
	require.Error(t, err)

	_, err = New(store, remote, nil, Config{})
	require.Error(t, err)

	repo, err := New(store, remote, fb, Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, repo.ttl)
	assert.Equal(t, DefaultRefreshTimeout, repo.refreshTimeout)
}

func TestFetch_RejectsNonPositiveLimit(t *testing.T) {
	repo, err := New(newFakeStore(), &fakeRemote{page: page("x")}, &fakeFallback{page: page("x")}, Config{})
	require.NoError(t, err)

	_, err = repo.Fetch(context.Background(), Params{Limit: 0})
	require.Error(t, err)
}

func TestFetch_CacheMissPopulatesStore(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{page: page("Margherita", "Diavola")}
	repo, err := New(store, remote, &fakeFallback{page: page("stale")}, Config{})
	require.NoError(t, err)

	filter := catalog.Filter{Query: "pizza", Categories: []string{"fast-food"}}
	got, err := repo.Fetch(context.Background(), Params{Limit: 20, Filter: filter})
	require.NoError(t, err)
	assert.Equal(t, []string{"Margherita", "Diavola"}, itemNames(got))

	// Exactly one synchronous remote call, cursor empty.
	require.Equal(t, 1, remote.callCount())
	assert.Equal(t, "", remote.lastCall().cursor)
	assert.Equal(t, 20, remote.lastCall().limit)

	// The store now holds the returned page under the filter's key.
	entry := store.entryFor(cache.KeyForFilter(filter))
	require.NotNil(t, entry)
	assert.True(t, entry.IsValid())
	assert.Equal(t, []string{"Margherita", "Diavola"}, itemNames(&entry.Page))
}

func TestFetch_CacheHitReturnsCachedAndRefreshes(t *testing.T) {
	store := newFakeStore()
	filter := catalog.Filter{Query: "pizza"}
	key := cache.KeyForFilter(filter)
	require.NoError(t, store.Set(context.Background(), key, cache.NewEntry(*page("Cached"), time.Hour)))
	baseline := store.setCount()

	// The remote answers slowly with different content; a hit must not
	// wait for it.
	remote := &fakeRemote{page: page("Fresh"), delay: 150 * time.Millisecond}
	repo, err := New(store, remote, &fakeFallback{page: page("fallback")}, Config{})
	require.NoError(t, err)

	start := time.Now()
	got, err := repo.Fetch(context.Background(), Params{Limit: 10, Filter: filter})
	require.NoError(t, err)

	assert.Equal(t, []string{"Cached"}, itemNames(got), "hit must serve the cached page")
	assert.Less(t, time.Since(start), 100*time.Millisecond, "hit must not block on the remote")

	// The background refresh eventually overwrites the entry.
	require.Eventually(t, func() bool {
		return store.setCount() > baseline
	}, 2*time.Second, 10*time.Millisecond, "background refresh never wrote")

	refreshed := store.entryFor(key)
	require.NotNil(t, refreshed)
	assert.Equal(t, []string{"Fresh"}, itemNames(&refreshed.Page))
	assert.Equal(t, "", remote.lastCall().cursor, "refresh always re-fetches the first page")
}

func TestFetch_CacheHitReturnsDetachedPage(t *testing.T) {
	store := newFakeStore()
	filter := catalog.Filter{Query: "pizza"}
	key := cache.KeyForFilter(filter)
	require.NoError(t, store.Set(context.Background(), key, cache.NewEntry(*page("Margherita"), time.Hour)))

	repo, err := New(store, &fakeRemote{page: page("Margherita")}, &fakeFallback{page: page("fallback")}, Config{})
	require.NoError(t, err)

	got, err := repo.Fetch(context.Background(), Params{Limit: 10, Filter: filter})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	// Mutating the returned page must not reach the stored snapshot.
	got.Items[0].Name = "Mutated"
	got.Items[0].Available = false

	entry := store.entryFor(key)
	require.NotNil(t, entry)
	assert.Equal(t, []string{"Margherita"}, itemNames(&entry.Page), "cached entry mutated through a returned page")
	assert.True(t, entry.Page.Items[0].Available)
}

func TestFetch_StaleEntryBehavesAsMiss(t *testing.T) {
	store := newFakeStore()
	filter := catalog.Filter{Query: "sushi"}
	key := cache.KeyForFilter(filter)
	stale := &cache.Entry{
		Page:      *page("Old"),
		CachedAt:  time.Now().Add(-20 * time.Minute),
		ExpiresAt: time.Now().Add(-5 * time.Minute),
	}
	store.entries[key.String()] = stale

	remote := &fakeRemote{page: page("New")}
	repo, err := New(store, remote, &fakeFallback{page: page("fallback")}, Config{})
	require.NoError(t, err)

	got, err := repo.Fetch(context.Background(), Params{Limit: 10, Filter: filter})
	require.NoError(t, err)

	assert.Equal(t, []string{"New"}, itemNames(got))
	assert.Equal(t, 1, remote.callCount(), "stale entry must trigger a synchronous remote fetch")

	refreshed := store.entryFor(key)
	require.NotNil(t, refreshed)
	assert.True(t, refreshed.IsValid(), "stale entry must be replaced by a fresh one")
}

func TestFetch_CursorBypassesCache(t *testing.T) {
	store := newFakeStore()
	filter := catalog.Filter{Query: "pizza"}
	key := cache.KeyForFilter(filter)
	require.NoError(t, store.Set(context.Background(), key, cache.NewEntry(*page("Cached"), time.Hour)))
	baseline := store.setCount()

	remote := &fakeRemote{page: page("PageTwo")}
	repo, err := New(store, remote, &fakeFallback{page: page("fallback")}, Config{})
	require.NoError(t, err)

	got, err := repo.Fetch(context.Background(), Params{Limit: 10, Cursor: "opaque-cursor", Filter: filter})
	require.NoError(t, err)

	assert.Equal(t, []string{"PageTwo"}, itemNames(got), "cursor requests must come from the remote")
	assert.Equal(t, "opaque-cursor", remote.lastCall().cursor)

	// No cache write, no background refresh.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, baseline, store.setCount(), "cursor requests must never write the cache")
	assert.Equal(t, 1, remote.callCount(), "cursor requests must not spawn refreshes")
}

func TestFetch_FallbackOnRemoteFailure(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{err: errors.New("backend down")}
	fb := &fakeFallback{page: page("Snapshot")}
	repo, err := New(store, remote, fb, Config{})
	require.NoError(t, err)

	got, err := repo.Fetch(context.Background(), Params{Limit: 10, Filter: catalog.Filter{Query: "pizza"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Snapshot"}, itemNames(got))
	assert.Equal(t, 1, fb.callCount())
	assert.Equal(t, 0, store.setCount(), "fallback results are never cached")
}

func TestFetch_FallbackExhaustionPropagates(t *testing.T) {
	fallbackErr := errors.New("sqlite: disk I/O error")
	remote := &fakeRemote{err: errors.New("backend down")}
	fb := &fakeFallback{err: fallbackErr}
	repo, err := New(newFakeStore(), remote, fb, Config{})
	require.NoError(t, err)

	_, err = repo.Fetch(context.Background(), Params{Limit: 10})
	require.ErrorIs(t, err, fallbackErr, "the fallback error must surface unchanged")
}

func TestFetch_BackgroundRefreshFailureIsSwallowed(t *testing.T) {
	store := newFakeStore()
	filter := catalog.Filter{Query: "pizza"}
	key := cache.KeyForFilter(filter)
	require.NoError(t, store.Set(context.Background(), key, cache.NewEntry(*page("Cached"), time.Hour)))
	baseline := store.setCount()

	remote := &fakeRemote{err: errors.New("backend down")}
	repo, err := New(store, remote, &fakeFallback{page: page("fallback")}, Config{})
	require.NoError(t, err)

	got, err := repo.Fetch(context.Background(), Params{Limit: 10, Filter: filter})
	require.NoError(t, err, "the caller must never see a refresh failure")
	assert.Equal(t, []string{"Cached"}, itemNames(got))

	// The failed refresh must not retry or touch the store.
	require.Eventually(t, func() bool {
		return remote.callCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, remote.callCount(), "failed refreshes are never retried")
	assert.Equal(t, baseline, store.setCount())
}

func TestClearCache_ForcesRemoteFetch(t *testing.T) {
	store := newFakeStore()
	remote := &fakeRemote{page: page("Margherita")}
	repo, err := New(store, remote, &fakeFallback{page: page("fallback")}, Config{})
	require.NoError(t, err)

	filter := catalog.Filter{Query: "pizza"}
	ctx := context.Background()

	_, err = repo.Fetch(ctx, Params{Limit: 10, Filter: filter})
	require.NoError(t, err)
	require.Equal(t, 1, remote.callCount())

	require.NoError(t, repo.ClearCache(ctx))

	_, err = repo.Fetch(ctx, Params{Limit: 10, Filter: filter})
	require.NoError(t, err)
	assert.Equal(t, 2, remote.callCount(), "post-clear fetch must behave as a fresh miss")
}

func TestCacheStats_PassesThrough(t *testing.T) {
	store := newFakeStore()
	repo, err := New(store, &fakeRemote{page: page("x")}, &fakeFallback{page: page("x")}, Config{})
	require.NoError(t, err)

	_, err = repo.Fetch(context.Background(), Params{Limit: 5})
	require.NoError(t, err)

	stats := repo.CacheStats()
	assert.Equal(t, int64(1), stats["sets"])
}

// TestFetch_StaleWhileRevalidateScenario runs the full lifecycle:
// populate at T=0, serve from cache while fresh, miss again after the
// freshness window elapses.
func TestFetch_StaleWhileRevalidateScenario(t *testing.T) {
	store := cache.NewMemoryStore()
	remote := &fakeRemote{page: page("Margherita")}
	repo, err := New(store, remote, &fakeFallback{page: page("fallback")}, Config{TTL: 100 * time.Millisecond})
	require.NoError(t, err)

	filter := catalog.Filter{Query: "pizza", Categories: []string{"fast-food"}}
	ctx := context.Background()

	// T=0: miss, synchronous remote fetch populates the key.
	_, err = repo.Fetch(ctx, Params{Limit: 10, Filter: filter})
	require.NoError(t, err)
	require.Equal(t, 1, remote.callCount())

	// Within the freshness window: served from cache, refresh spawned.
	got, err := repo.Fetch(ctx, Params{Limit: 10, Filter: filter})
	require.NoError(t, err)
	assert.Equal(t, []string{"Margherita"}, itemNames(got))
	require.Eventually(t, func() bool {
		return remote.callCount() >= 2
	}, 2*time.Second, 10*time.Millisecond, "cache hit must spawn a background refresh")

	// Past the freshness window (the refresh restamped it, so wait out
	// a full TTL): stale entry, synchronous remote fetch again.
	time.Sleep(150 * time.Millisecond)
	before := remote.callCount()
	_, err = repo.Fetch(ctx, Params{Limit: 10, Filter: filter})
	require.NoError(t, err)
	assert.Equal(t, before+1, remote.callCount(), "stale read must hit the remote synchronously")
}
