package view

import (
	"fmt"
	"strings"
)

const DefaultPageSize = 10

// Mode tells whether the record store holds the whole collection (LocalPaging) or a
// single page fetched with server-side page parameters (ServerPaging).
type Mode int

const (
	LocalPaging Mode = iota
	ServerPaging
)

func (m Mode) String() string {
	if m == ServerPaging {
		return "server"
	}
	return "local"
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "local":
		*m = LocalPaging
	case "server":
		*m = ServerPaging
	default:
		return fmt.Errorf("invalid paging mode %q", b)
	}
	return nil
}

type Options[R any] struct {
	Accessor        Accessor[R]
	SearchFields    []string
	DefaultSort     SortSpec
	DefaultPageSize int
	Mode            Mode
}

// State is the user-controlled part of a view: everything except the records.
type State struct {
	Query     string   `json:"query"`
	Sort      SortSpec `json:"sort"`
	PageSize  int      `json:"pageSize"`
	PageIndex int      `json:"pageIndex"`
}

// View is the derived output handed to the presentation layer.
type View[R any] struct {
	Items       []R      `json:"items"`
	Query       string   `json:"query"`
	Sort        SortSpec `json:"sort"`
	CurrentPage int      `json:"currentPage"`
	TotalPages  int      `json:"totalPages"`
	TotalCount  int      `json:"totalCount"`
	PageSize    int      `json:"pageSize"`
	Mode        Mode     `json:"mode"`
}

// Controller owns the query, sort and page window of one table and recomputes the
// visible rows synchronously whenever any of them or the records change.
//
// A Controller is not safe for concurrent use.
type Controller[R any] struct {
	opts    Options[R]
	records []R
	state   State

	// ServerPaging only: what the API reported for the fetched page.
	remotePages int
	remoteCount int

	view View[R]

	subs    map[int]func(View[R])
	nextSub int
}

func New[R any](opts Options[R]) *Controller[R] {
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.Accessor == nil {
		opts.Accessor = func(R, string) (any, bool) { return nil, false }
	}
	c := &Controller[R]{
		opts: opts,
		subs: make(map[int]func(View[R])),
	}
	c.state = c.defaults()
	c.recompute()
	return c
}

func (c *Controller[R]) defaults() State {
	return State{
		Sort:      c.opts.DefaultSort,
		PageSize:  c.opts.DefaultPageSize,
		PageIndex: 1,
	}
}

func (c *Controller[R]) Mode() Mode {
	return c.opts.Mode
}

func (c *Controller[R]) State() State {
	return c.state
}

func (c *Controller[R]) View() View[R] {
	return c.view
}

// Records returns a copy of the current record store.
func (c *Controller[R]) Records() []R {
	return append([]R(nil), c.records...)
}

func (c *Controller[R]) SetQuery(text string) {
	c.state.Query = text
	c.state.PageIndex = 1
	c.recompute()
}

// SetSort toggles the direction when field is already the sort field, otherwise it
// switches to field in ascending order.
func (c *Controller[R]) SetSort(field string) {
	if field == c.state.Sort.Field {
		c.state.Sort.Direction = c.state.Sort.Direction.Flip()
	} else {
		c.state.Sort = SortSpec{Field: field, Direction: Ascending}
	}
	c.recompute()
}

// SetSortSpec sets field and direction explicitly, without toggling.
func (c *Controller[R]) SetSortSpec(spec SortSpec) {
	c.state.Sort = spec
	c.recompute()
}

func (c *Controller[R]) SetPageSize(size int) {
	if size < 1 {
		size = c.opts.DefaultPageSize
	}
	c.state.PageSize = size
	c.state.PageIndex = 1
	c.recompute()
}

func (c *Controller[R]) SetPageIndex(index int) {
	c.state.PageIndex = index
	c.recompute()
}

// ReplaceRecords swaps the record store. Query and sort survive, the page index is
// re-clamped in case the new collection is smaller.
func (c *Controller[R]) ReplaceRecords(records []R) {
	c.records = append([]R(nil), records...)
	if c.opts.Mode == ServerPaging {
		c.remotePages = TotalPages(len(records), c.state.PageSize)
		c.remoteCount = len(records)
	}
	c.recompute()
}

// ReplacePage stores one server-side page together with the totals the API reported.
// In LocalPaging mode the totals are ignored and records are treated as the whole set.
func (c *Controller[R]) ReplacePage(records []R, totalPages, totalCount int) {
	c.records = append([]R(nil), records...)
	c.remotePages = max(totalPages, 1)
	c.remoteCount = max(totalCount, len(records))
	c.recompute()
}

// Restore applies saved query, sort and page size and goes back to the first page.
func (c *Controller[R]) Restore(s State) {
	c.state.Query = s.Query
	c.state.Sort = s.Sort
	if s.PageSize > 0 {
		c.state.PageSize = s.PageSize
	}
	c.state.PageIndex = 1
	c.recompute()
}

// Reset drops the records and returns every parameter to its default.
func (c *Controller[R]) Reset() {
	c.records = nil
	c.remotePages = 0
	c.remoteCount = 0
	c.state = c.defaults()
	c.recompute()
}

// Subscribe registers fn to be called after every recomputation.
func (c *Controller[R]) Subscribe(fn func(View[R])) (unsubscribe func()) {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		delete(c.subs, id)
	}
}

func (c *Controller[R]) recompute() {
	rows := Filter(c.records, c.state.Query, c.opts.SearchFields, c.opts.Accessor)
	rows = Sort(rows, c.state.Sort, c.opts.Accessor)

	v := View[R]{
		Query:    c.state.Query,
		Sort:     c.state.Sort,
		PageSize: c.state.PageSize,
		Mode:     c.opts.Mode,
	}

	switch c.opts.Mode {
	case ServerPaging:
		v.TotalPages = max(c.remotePages, 1)
		v.TotalCount = c.remoteCount
		c.state.PageIndex = clamp(c.state.PageIndex, v.TotalPages)
		v.Items = rows
		if v.Items == nil {
			v.Items = []R{}
		}
	default:
		total := TotalPages(len(rows), c.state.PageSize)
		c.state.PageIndex = clamp(c.state.PageIndex, total)
		page := Paginate(rows, c.state.PageSize, c.state.PageIndex)
		v.Items = page.Items
		v.TotalPages = page.TotalPages
		v.TotalCount = page.TotalCount
	}
	v.CurrentPage = c.state.PageIndex

	c.view = v
	for _, fn := range c.subs {
		fn(v)
	}
}
