package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/homy/homyadmin/api"
	"github.com/homy/homyadmin/homy"
	"github.com/homy/homyadmin/table"
	"github.com/homy/homyadmin/view"
	"sigs.k8s.io/yaml"
)

const maxCell = 48

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	footerStyle = lipgloss.NewStyle().Faint(true)
)

type listOptions struct {
	query string
	sort  string
	desc  bool
	page  int
	size  int
}

// listing is one rendered page of a view.
type listing struct {
	name    string
	view    any
	columns []string
	rows    [][]string
	page    int
	pages   int
	count   int
}

func (l *listing) footer() string {
	return footerStyle.Render(fmt.Sprintf("page %d of %d, %d %s", l.page, l.pages, l.count, l.name))
}

type lister func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error)

var listers = map[string]lister{
	"orders": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "orders", api.OrderLayout, view.ServerPaging, opts,
			func(ctx context.Context, page, size int) (table.Batch[api.Order], error) {
				p, err := c.ListOrders(ctx, page, size)
				return table.Batch[api.Order]{Records: p.Orders, TotalPages: p.TotalPages, TotalCount: p.TotalOrders}, err
			})
	},
	"users": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "users", api.UserLayout, view.ServerPaging, opts,
			func(ctx context.Context, page, size int) (table.Batch[api.User], error) {
				p, err := c.ListUsers(ctx, page, size)
				return table.Batch[api.User]{Records: p.Users, TotalPages: p.TotalPages, TotalCount: p.TotalUsers}, err
			})
	},
	"chefs": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "chefs", api.ChefLayout, view.ServerPaging, opts,
			func(ctx context.Context, page, size int) (table.Batch[api.Chef], error) {
				p, err := c.ListChefs(ctx, page, size)
				return table.Batch[api.Chef]{Records: p.Chefs, TotalPages: p.TotalPages, TotalCount: p.TotalChefs}, err
			})
	},
	"posts": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "posts", api.PostLayout, view.ServerPaging, opts,
			func(ctx context.Context, page, size int) (table.Batch[api.Post], error) {
				p, err := c.ListPosts(ctx, page, size)
				return table.Batch[api.Post]{Records: p.Posts, TotalPages: p.TotalPages, TotalCount: p.TotalPosts}, err
			})
	},
	"plans": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "plans", api.PlanLayout, view.LocalPaging, opts, whole(c.ListPlans))
	},
	"coupons": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "coupons", api.CouponLayout, view.LocalPaging, opts, whole(c.ListCoupons))
	},
	"tickets": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "tickets", api.TicketLayout, view.LocalPaging, opts, whole(c.ListTickets))
	},
	"queries": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "queries", api.QueryLayout, view.LocalPaging, opts, whole(c.ListQueries))
	},
	"images": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "images", api.ImageLayout, view.LocalPaging, opts, whole(c.ListImages))
	},
	"notifications": func(ctx context.Context, c *homy.Client, opts listOptions) (*listing, error) {
		return listView(ctx, "notifications", api.NotificationLayout, view.LocalPaging, opts, whole(c.ListNotifications))
	},
}

func viewNames() []string {
	names := make([]string, 0, len(listers))
	for n := range listers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func runList(ctx context.Context, c *homy.Client, name string, opts listOptions) (*listing, error) {
	l, ok := listers[name]
	if !ok {
		return nil, fmt.Errorf("unknown view %q, one of: %s", name, strings.Join(viewNames(), ", "))
	}
	return l(ctx, c, opts)
}

func whole[R any](list func(context.Context) ([]R, error)) table.Loader[R] {
	return func(ctx context.Context, _, _ int) (table.Batch[R], error) {
		rows, err := list(ctx)
		return table.Batch[R]{Records: rows}, err
	}
}

// sortSpec resolves --sort and --desc. --desc alone reverses the view's default sort.
func (o listOptions) sortSpec(def view.SortSpec) (view.SortSpec, bool, error) {
	if o.sort == "" {
		if !o.desc {
			return view.SortSpec{}, false, nil
		}
		if def.Field == "" {
			return def, false, errors.New("--desc needs --sort, this view has no default sort")
		}
		return view.SortSpec{Field: def.Field, Direction: view.Descending}, true, nil
	}
	spec, err := view.ParseSortSpec(o.sort)
	if err != nil {
		return spec, false, err
	}
	if o.desc {
		spec.Direction = view.Descending
	}
	return spec, true, nil
}

// listView fetches and runs the result through the same controller the server uses.
// The page index is only known to be valid once the first page reported the totals,
// so a server-paged view past page 1 costs a second fetch.
func listView[R view.Fielder](ctx context.Context, name string, layout api.Layout, mode view.Mode, opts listOptions, load table.Loader[R]) (*listing, error) {
	spec, sorted, err := opts.sortSpec(layout.DefaultSort)
	if err != nil {
		return nil, err
	}

	t := table.New(table.Options[R]{
		Name: name,
		View: view.Options[R]{
			Accessor:        view.FieldAccessor[R](),
			SearchFields:    layout.SearchFields,
			DefaultSort:     layout.DefaultSort,
			DefaultPageSize: opts.size,
			Mode:            mode,
		},
		Loader: load,
	})

	if err := t.Refresh(ctx); err != nil {
		return nil, err
	}

	v, err := t.Do(ctx, func(c *view.Controller[R]) {
		if opts.query != "" {
			c.SetQuery(opts.query)
		}
		if sorted {
			c.SetSortSpec(spec)
		}
		c.SetPageIndex(max(opts.page, 1))
	})
	if err != nil {
		return nil, err
	}

	acc := view.FieldAccessor[R]()
	rows := make([][]string, 0, len(v.Items))
	for _, rec := range v.Items {
		row := make([]string, len(layout.Columns))
		for i, col := range layout.Columns {
			if val, ok := acc(rec, col); ok && val != nil {
				row[i] = truncate(view.Stringify(val))
			}
		}
		rows = append(rows, row)
	}

	return &listing{
		name:    name,
		view:    v,
		columns: layout.Columns,
		rows:    rows,
		page:    v.CurrentPage,
		pages:   v.TotalPages,
		count:   v.TotalCount,
	}, nil
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxCell {
		return s
	}
	r := []rune(s)
	return string(r[:maxCell-1]) + "…"
}

func renderTable(w io.Writer, columns []string, rows [][]string) error {
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeOut(w io.Writer, format string, v any, tableFn func(io.Writer) error) error {
	switch format {
	case "", "table":
		return tableFn(w)
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		return fmt.Errorf("unknown output format %q, use table, yaml or json", format)
	}
}
