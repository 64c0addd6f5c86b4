package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/homy/homyadmin/session"
	"github.com/homy/homyadmin/table"
	"github.com/homy/homyadmin/view"
	"github.com/maypok86/otter"
)

var ErrUnknownView = errors.New("unknown view")

// handle is a type-erased live table as the HTTP layer sees it.
type handle interface {
	Name() string
	Apply(ctx context.Context, p params) error
	Snapshot() viewResponse
	Refresh(ctx context.Context) error
	Close()
}

type viewResponse struct {
	Name      string     `json:"name"`
	View      any        `json:"view"`
	Error     string     `json:"error,omitempty"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
}

// params are the view events carried by a request, applied in field order.
type params struct {
	query *string
	// exactly one of toggle and sort is set when the request carries a sort
	toggle *string
	sort   *view.SortSpec
	size   *int
	page   *int
}

func parseParams(q url.Values) (params, error) {
	var p params
	if q.Has("q") {
		v := q.Get("q")
		p.query = &v
	}
	if q.Has("sort") {
		v := strings.TrimSpace(q.Get("sort"))
		if strings.Contains(v, ":") {
			spec, err := view.ParseSortSpec(v)
			if err != nil {
				return p, err
			}
			p.sort = &spec
		} else {
			p.toggle = &v
		}
	}
	for _, kv := range []struct {
		key string
		dst **int
	}{{"size", &p.size}, {"page", &p.page}} {
		if !q.Has(kv.key) {
			continue
		}
		n, err := strconv.Atoi(q.Get(kv.key))
		if err != nil {
			return p, fmt.Errorf("%s: %w", kv.key, err)
		}
		*kv.dst = &n
	}
	return p, nil
}

func (p params) empty() bool {
	return p.query == nil && p.toggle == nil && p.sort == nil && p.size == nil && p.page == nil
}

// apply runs the events against c. A bare sort field toggles like a header click,
// field:asc and field:desc set the direction explicitly. Query and size are only
// applied when they change, so repeating a request does not jump back to page 1.
func (p params) apply(c interface {
	State() view.State
	SetQuery(string)
	SetSort(string)
	SetSortSpec(view.SortSpec)
	SetPageSize(int)
	SetPageIndex(int)
}) {
	if p.query != nil && *p.query != c.State().Query {
		c.SetQuery(*p.query)
	}
	switch {
	case p.toggle != nil:
		c.SetSort(*p.toggle)
	case p.sort != nil:
		c.SetSortSpec(*p.sort)
	}
	if p.size != nil && *p.size != c.State().PageSize {
		c.SetPageSize(*p.size)
	}
	if p.page != nil {
		c.SetPageIndex(*p.page)
	}
}

type entry[R any] struct {
	srv    *server
	tbl    *table.Table[R]
	cancel context.CancelFunc
}

func newEntry[R any](s *server, name, topic string, opts table.Options[R]) *entry[R] {
	opts.Name = name
	opts.Bus = s.bs
	opts.Logger = s.log
	if opts.View.DefaultPageSize == 0 {
		opts.View.DefaultPageSize = s.cfg.PageSize
	}

	e := &entry[R]{srv: s, tbl: table.New(opts)}

	if st, ok, err := session.LoadPrefs(context.Background(), s.kv, name); err != nil {
		s.log.Warn("loading view preferences", "view", name, "err", err)
	} else if ok {
		e.tbl.Do(context.Background(), func(c *view.Controller[R]) { c.Restore(st) })
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.tbl.Watch(ctx, s.bs, topic)
	return e
}

func (e *entry[R]) Name() string {
	return e.tbl.Name()
}

func (e *entry[R]) Refresh(ctx context.Context) error {
	return e.tbl.Refresh(ctx)
}

func (e *entry[R]) Apply(ctx context.Context, p params) error {
	if err := e.tbl.EnsureLoaded(ctx); err != nil {
		return err
	}
	// a plain read still goes through Do so a page left unfetched gets fetched
	_, err := e.tbl.Do(ctx, func(c *view.Controller[R]) {
		p.apply(c)
	})
	if p.empty() {
		return err
	}

	if serr := session.SavePrefs(ctx, e.srv.kv, e.Name(), e.tbl.State()); serr != nil {
		e.srv.log.Warn("saving view preferences", "view", e.Name(), "err", serr)
	}
	return err
}

func (e *entry[R]) Snapshot() viewResponse {
	rsp := viewResponse{Name: e.Name(), View: e.tbl.View()}
	if err := e.tbl.Err(); err != nil {
		rsp.Error = err.Error()
	}
	if at := e.tbl.FetchedAt(); !at.IsZero() {
		rsp.FetchedAt = &at
	}
	return rsp
}

func (e *entry[R]) Close() {
	e.cancel()
	e.tbl.Reset()
}

func newViewCache(ttl time.Duration) (otter.Cache[string, handle], error) {
	return otter.MustBuilder[string, handle](64).
		WithTTL(ttl).
		DeletionListener(func(name string, h handle, cause otter.DeletionCause) {
			if cause == otter.Replaced {
				return
			}
			h.Close()
		}).
		Build()
}

// view returns the live handle for name, creating it on first use. Every access
// pushes the expiry out again.
func (s *server) view(name string) (handle, error) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if h, ok := s.views.Get(name); ok {
		s.views.Set(name, h)
		return h, nil
	}

	mk, ok := viewDefs[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownView, name)
	}
	h := mk(s)
	s.views.Set(name, h)
	return h, nil
}

// dropView tears the view down. Its preferences stay saved.
func (s *server) dropView(name string) bool {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	if _, ok := s.views.Get(name); !ok {
		return false
	}
	s.views.Delete(name)
	return true
}
