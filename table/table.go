// Package table binds a view controller to the API call that fills it.
package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/homy/homyadmin/bus"
	"github.com/homy/homyadmin/view"
)

var ErrBusy = errors.New("refresh already in progress")

const lockKeepAlive = 5 * time.Second

// Batch is what one fetch returned. For LocalPaging tables Records is the whole
// collection and the totals are ignored.
type Batch[R any] struct {
	Records    []R
	TotalPages int
	TotalCount int
}

// Loader fetches records. page and size are the 1-based server page for ServerPaging
// tables and zero for LocalPaging tables, which load everything.
type Loader[R any] func(ctx context.Context, page, size int) (Batch[R], error)

type Options[R any] struct {
	Name   string
	View   view.Options[R]
	Loader Loader[R]

	// Bus, when set, single-flights refreshes of tables sharing a name.
	Bus    bus.Bus
	Logger *slog.Logger
}

type request struct {
	page, size int
}

type Table[R any] struct {
	name string
	load Loader[R]
	bs   bus.Bus
	log  *slog.Logger

	// one refresh at a time
	refreshing chan struct{}

	// guards everything below, including every call into ctl
	mu        sync.Mutex
	ctl       *view.Controller[R]
	err       error
	loaded    bool
	fetched   request
	fetchedAt time.Time
	stale     bool
}

func New[R any](opts Options[R]) *Table[R] {
	t := &Table[R]{
		name: opts.Name,
		load: opts.Loader,
		bs:   opts.Bus,
		log:  opts.Logger,
		ctl:  view.New(opts.View),

		refreshing: make(chan struct{}, 1),
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	t.log = t.log.With("table", t.name)

	t.ctl.Subscribe(func(v view.View[R]) {
		if v.Mode != view.ServerPaging || !t.loaded {
			return
		}
		t.stale = v.CurrentPage != t.fetched.page || v.PageSize != t.fetched.size
	})
	return t
}

func (t *Table[R]) Name() string {
	return t.name
}

func (t *Table[R]) View() view.View[R] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctl.View()
}

func (t *Table[R]) State() view.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctl.State()
}

// Err is the error of the last refresh, nil once a refresh succeeds again.
func (t *Table[R]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Table[R]) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

func (t *Table[R]) FetchedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fetchedAt
}

// Refresh fetches and replaces the records. Query and sort are kept. On failure the
// last successful records stay in place and the error is also kept for Err.
func (t *Table[R]) Refresh(ctx context.Context) error {
	select {
	case t.refreshing <- struct{}{}:
	default:
		return ErrBusy
	}
	defer func() { <-t.refreshing }()
	return t.refresh(ctx)
}

// wait takes the refresh slot, blocking until an in-flight refresh is done.
func (t *Table[R]) wait(ctx context.Context) error {
	select {
	case t.refreshing <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// refresh runs with the refresh slot held. A ServerPaging fetch can report fewer
// pages than the one it was asked for; the controller then clamps the index and the
// clamped page is fetched once more.
func (t *Table[R]) refresh(ctx context.Context) error {
	if t.bs != nil {
		lock, err := t.bs.Lock(ctx, "refresh/"+t.name, lockKeepAlive)
		if errors.Is(err, bus.ErrLocked) {
			return ErrBusy
		}
		if err != nil {
			return fmt.Errorf("lock %s: %w", t.name, err)
		}
		defer lock.Unlock()
		go keepAlive(lock)
		ctx = lock
	}

	for attempt := 0; ; attempt++ {
		stale, err := t.fetch(ctx)
		if err != nil || !stale || attempt > 0 {
			return err
		}
		t.log.Debug("page shrank under the index, fetching clamped page")
	}
}

func (t *Table[R]) fetch(ctx context.Context) (stale bool, err error) {
	t.mu.Lock()
	req := request{}
	if t.ctl.Mode() == view.ServerPaging {
		st := t.ctl.State()
		req = request{page: st.PageIndex, size: st.PageSize}
	}
	t.mu.Unlock()

	start := time.Now()
	b, err := t.load(ctx, req.page, req.size)
	took := time.Since(start)
	fetchDuration.WithLabelValues(t.name).Observe(took.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		fetchFailures.WithLabelValues(t.name).Inc()
		t.err = err
		t.log.Warn("refresh failed", "page", req.page, "err", err)
		return false, err
	}

	t.err = nil
	t.loaded = true
	t.fetched = req
	t.fetchedAt = time.Now()
	t.stale = false
	if t.ctl.Mode() == view.ServerPaging {
		t.ctl.ReplacePage(b.Records, b.TotalPages, b.TotalCount)
	} else {
		t.ctl.ReplaceRecords(b.Records)
	}
	tableRecords.WithLabelValues(t.name).Set(float64(len(b.Records)))
	t.log.Debug("refreshed", "records", len(b.Records), "page", req.page, "took", took)
	return t.stale, nil
}

func keepAlive(lock bus.Lock) {
	tick := time.NewTicker(lockKeepAlive / 3)
	defer tick.Stop()
	for {
		select {
		case <-lock.Done():
			return
		case <-tick.C:
			if lock.KeepAlive() != nil {
				return
			}
		}
	}
}

// EnsureLoaded refreshes a table that never loaded successfully. A refresh already
// in flight is waited for instead of started twice.
func (t *Table[R]) EnsureLoaded(ctx context.Context) error {
	if t.Loaded() {
		return nil
	}
	if err := t.wait(ctx); err != nil {
		return err
	}
	defer func() { <-t.refreshing }()
	if t.Loaded() {
		return nil
	}
	err := t.refresh(ctx)
	if errors.Is(err, ErrBusy) {
		return nil
	}
	return err
}

// Do runs fn against the controller while holding the table. If the table ends up
// on a ServerPaging page or page size that was not fetched, it refetches before
// returning, after any refresh already in flight. The returned view reflects both.
func (t *Table[R]) Do(ctx context.Context, fn func(c *view.Controller[R])) (view.View[R], error) {
	t.mu.Lock()
	fn(t.ctl)
	v := t.ctl.View()
	refetch := t.stale
	t.mu.Unlock()

	if !refetch {
		return v, nil
	}
	if err := t.wait(ctx); err != nil {
		return v, err
	}
	defer func() { <-t.refreshing }()

	t.mu.Lock()
	refetch = t.stale
	t.mu.Unlock()
	if refetch {
		if err := t.refresh(ctx); err != nil {
			return t.View(), err
		}
	}
	return t.View(), nil
}

// Reset tears the view down to its defaults and forgets the records.
func (t *Table[R]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = false
	t.stale = false
	t.err = nil
	t.fetched = request{}
	t.ctl.Reset()
}

// Watch subscribes to topic and refreshes the table whenever something is published
// there, until ctx is done or the bus closes. The subscription is in place when Watch
// returns; the returned channel closes when watching stops.
func (t *Table[R]) Watch(ctx context.Context, b bus.Bus, topic string) <-chan struct{} {
	ch, unsub := b.Subscribe(topic)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer unsub()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				if err := t.Refresh(ctx); err != nil && !errors.Is(err, ErrBusy) {
					t.log.Warn("refresh on change failed", "topic", topic, "err", err)
				}
			}
		}
	}()
	return done
}
