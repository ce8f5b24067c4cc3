package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mod-hub/mod-hub/internal/catalog"
	"github.com/mod-hub/mod-hub/internal/logging"
)

// fakeSource 记录每类查询的调用次数，并支持注入失败与阻塞。
type fakeSource struct {
	mu       sync.Mutex
	entries  []catalog.CatalogEntry
	details  []catalog.DetailInfo
	versions []catalog.VersionEntry

	catalogErr error
	detailErr  error
	gate       chan struct{}
	hang       bool

	catalogCalls atomic.Int32
	detailCalls  atomic.Int32
	versionCalls atomic.Int32
}

func (f *fakeSource) ListCatalog(ctx context.Context) ([]catalog.CatalogEntry, error) {
	f.catalogCalls.Add(1)
	f.mu.Lock()
	gate, hang, err := f.gate, f.hang, f.catalogErr
	entries := append([]catalog.CatalogEntry(nil), f.entries...)
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *fakeSource) ListDetails(ctx context.Context) ([]catalog.DetailInfo, error) {
	f.detailCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return append([]catalog.DetailInfo(nil), f.details...), nil
}

func (f *fakeSource) ListVersions(ctx context.Context) ([]catalog.VersionEntry, error) {
	f.versionCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.VersionEntry(nil), f.versions...), nil
}

func (f *fakeSource) set(fn func(*fakeSource)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// newAlphaBetaSource 构造 Alpha{1,2}、Beta{1} 的数据，Alpha 的版本 2 最新。
func newAlphaBetaSource() *fakeSource {
	return &fakeSource{
		entries: []catalog.CatalogEntry{
			{Name: "Alpha", Author: "ann", ShortDesc: "first"},
			{Name: "Beta", Author: "bob", ShortDesc: "second"},
		},
		details: []catalog.DetailInfo{
			{Name: "Alpha", Author: "ann", LongDesc: "alpha long"},
			{Name: "Beta", Author: "bob", LongDesc: "beta long"},
		},
		versions: []catalog.VersionEntry{
			{Name: "Alpha", Version: "1", Link: "a1", Sequence: 1},
			{Name: "Beta", Version: "1", Link: "b1", Sequence: 2},
			{Name: "Alpha", Version: "2", Link: "a2", Sequence: 3},
		},
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	refreshes atomic.Int32
	failures  atomic.Int32
	shared    atomic.Int32
	hits      atomic.Int32
	misses    atomic.Int32
}

func (o *recordingObserver) ObserveRefresh(_ Region, _ time.Duration, err error) {
	o.refreshes.Add(1)
	if err != nil {
		o.failures.Add(1)
	}
}

func (o *recordingObserver) ObserveShared(Region) { o.shared.Add(1) }

func (o *recordingObserver) ObserveLookup(hit bool) {
	if hit {
		o.hits.Add(1)
		return
	}
	o.misses.Add(1)
}

type testHarness struct {
	ctrl     *Controller
	source   *fakeSource
	clock    *fakeClock
	observer *recordingObserver
}

func newHarness(t *testing.T, source *fakeSource, opts ...func(*Options)) *testHarness {
	t.Helper()
	clock := newFakeClock()
	observer := &recordingObserver{}
	options := Options{
		Source:   source,
		Logger:   logging.Discard(),
		Policy:   NewPolicy(DefaultRefreshInterval, clock.Now),
		Observer: observer,
	}
	for _, opt := range opts {
		opt(&options)
	}
	ctrl, err := NewController(options)
	if err != nil {
		t.Fatalf("构造 Controller 失败: %v", err)
	}
	return &testHarness{ctrl: ctrl, source: source, clock: clock, observer: observer}
}
