package server

import (
	"context"

	"github.com/homy/homyadmin/api"
	"github.com/homy/homyadmin/table"
	"github.com/homy/homyadmin/view"
)

// bus topics an action publishes on after it succeeded
const (
	topicOrders        = "orders.changed"
	topicUsers         = "users.changed"
	topicChefs         = "chefs.changed"
	topicPlans         = "plans.changed"
	topicCoupons       = "coupons.changed"
	topicTickets       = "tickets.changed"
	topicQueries       = "queries.changed"
	topicImages        = "images.changed"
	topicPosts         = "posts.changed"
	topicNotifications = "notifications.changed"
)

func layoutOptions[R view.Fielder](l api.Layout, mode view.Mode) view.Options[R] {
	return view.Options[R]{
		Accessor:     view.FieldAccessor[R](),
		SearchFields: l.SearchFields,
		DefaultSort:  l.DefaultSort,
		Mode:         mode,
	}
}

// whole loads a collection the API returns in one piece.
func whole[R any](list func(context.Context) ([]R, error)) table.Loader[R] {
	return func(ctx context.Context, _, _ int) (table.Batch[R], error) {
		rows, err := list(ctx)
		if err != nil {
			return table.Batch[R]{}, err
		}
		return table.Batch[R]{Records: rows}, nil
	}
}

var viewDefs = map[string]func(s *server) handle{
	"orders": func(s *server) handle {
		return newEntry(s, "orders", topicOrders, table.Options[api.Order]{
			View: layoutOptions[api.Order](api.OrderLayout, view.ServerPaging),
			Loader: func(ctx context.Context, page, size int) (table.Batch[api.Order], error) {
				p, err := s.api.ListOrders(ctx, page, size)
				return table.Batch[api.Order]{Records: p.Orders, TotalPages: p.TotalPages, TotalCount: p.TotalOrders}, err
			},
		})
	},
	"users": func(s *server) handle {
		return newEntry(s, "users", topicUsers, table.Options[api.User]{
			View: layoutOptions[api.User](api.UserLayout, view.ServerPaging),
			Loader: func(ctx context.Context, page, size int) (table.Batch[api.User], error) {
				p, err := s.api.ListUsers(ctx, page, size)
				return table.Batch[api.User]{Records: p.Users, TotalPages: p.TotalPages, TotalCount: p.TotalUsers}, err
			},
		})
	},
	"chefs": func(s *server) handle {
		return newEntry(s, "chefs", topicChefs, table.Options[api.Chef]{
			View: layoutOptions[api.Chef](api.ChefLayout, view.ServerPaging),
			Loader: func(ctx context.Context, page, size int) (table.Batch[api.Chef], error) {
				p, err := s.api.ListChefs(ctx, page, size)
				return table.Batch[api.Chef]{Records: p.Chefs, TotalPages: p.TotalPages, TotalCount: p.TotalChefs}, err
			},
		})
	},
	"posts": func(s *server) handle {
		return newEntry(s, "posts", topicPosts, table.Options[api.Post]{
			View: layoutOptions[api.Post](api.PostLayout, view.ServerPaging),
			Loader: func(ctx context.Context, page, size int) (table.Batch[api.Post], error) {
				p, err := s.api.ListPosts(ctx, page, size)
				return table.Batch[api.Post]{Records: p.Posts, TotalPages: p.TotalPages, TotalCount: p.TotalPosts}, err
			},
		})
	},
	"plans": func(s *server) handle {
		return newEntry(s, "plans", topicPlans, table.Options[api.Plan]{
			View:   layoutOptions[api.Plan](api.PlanLayout, view.LocalPaging),
			Loader: whole(s.api.ListPlans),
		})
	},
	"coupons": func(s *server) handle {
		return newEntry(s, "coupons", topicCoupons, table.Options[api.Coupon]{
			View:   layoutOptions[api.Coupon](api.CouponLayout, view.LocalPaging),
			Loader: whole(s.api.ListCoupons),
		})
	},
	"tickets": func(s *server) handle {
		return newEntry(s, "tickets", topicTickets, table.Options[api.Ticket]{
			View:   layoutOptions[api.Ticket](api.TicketLayout, view.LocalPaging),
			Loader: whole(s.api.ListTickets),
		})
	},
	"queries": func(s *server) handle {
		return newEntry(s, "queries", topicQueries, table.Options[api.SupportQuery]{
			View:   layoutOptions[api.SupportQuery](api.QueryLayout, view.LocalPaging),
			Loader: whole(s.api.ListQueries),
		})
	},
	"images": func(s *server) handle {
		return newEntry(s, "images", topicImages, table.Options[api.Image]{
			View:   layoutOptions[api.Image](api.ImageLayout, view.LocalPaging),
			Loader: whole(s.api.ListImages),
		})
	},
	"notifications": func(s *server) handle {
		return newEntry(s, "notifications", topicNotifications, table.Options[api.Notification]{
			View:   layoutOptions[api.Notification](api.NotificationLayout, view.LocalPaging),
			Loader: whole(s.api.ListNotifications),
		})
	},
}
