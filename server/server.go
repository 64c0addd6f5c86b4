package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/homy/homyadmin/bus"
	"github.com/homy/homyadmin/config"
	"github.com/homy/homyadmin/homy"
	"github.com/homy/homyadmin/kv"
	"github.com/homy/homyadmin/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/maypok86/otter"
)

type server struct {
	cfg  config.Config
	kv   kv.KV
	bs   bus.Bus
	sess *session.Session
	api  *homy.Client
	log  *slog.Logger

	viewMu sync.Mutex
	views  otter.Cache[string, handle]
}

func newServer(cfg config.Config, store kv.KV, bs bus.Bus, sess *session.Session, client *homy.Client, log *slog.Logger) (*server, error) {
	views, err := newViewCache(cfg.ViewTTL.D())
	if err != nil {
		return nil, fmt.Errorf("view cache: %w", err)
	}
	return &server{
		cfg:   cfg,
		kv:    store,
		bs:    bs,
		sess:  sess,
		api:   client,
		log:   log,
		views: views,
	}, nil
}

func (s *server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Binder = &Binder{
		defaultBinder: &echo.DefaultBinder{},
	}
	e.HTTPErrorHandler = s.errorHandler(e)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "took", v.Latency}
			if v.Error != nil {
				s.log.Warn("request", append(attrs, "err", v.Error)...)
			} else {
				s.log.Info("request", attrs...)
			}
			return nil
		},
	}))
	e.Use(PrometheusMiddleware)
	e.Use(TracingMiddleware)

	e.POST("/login", s.handleLogin)
	e.POST("/logout", s.handleLogout)

	auth := s.requireSession
	e.GET("/dashboard", s.handleDashboard, auth)

	e.GET("/views/:name", s.handleGetView, auth)
	e.POST("/views/:name/refresh", s.handleRefreshView, auth)
	e.DELETE("/views/:name", s.handleDropView, auth)

	e.POST("/orders/:id/assign-chef", s.handleAssignChef, auth)
	e.GET("/users/:id", s.handleGetUser, auth)
	e.GET("/users/:id/meals", s.handleMeals, auth)
	e.GET("/chefs/:id", s.handleGetChef, auth)
	e.POST("/chefs", s.handleCreateChef, auth)
	e.DELETE("/chefs/:id", s.handleDeleteChef, auth)
	e.POST("/chefs/:id/verification", s.handleChefVerification, auth)
	e.POST("/plans", s.handleCreatePlan, auth)
	e.PUT("/plans/:id", s.handleUpdatePlan, auth)
	e.DELETE("/plans/:id", s.handleDeletePlan, auth)
	e.POST("/coupons", s.handleCreateCoupon, auth)
	e.POST("/coupons/:id/deactivate", s.handleDeactivateCoupon, auth)
	e.PATCH("/tickets/:id/status", s.handleTicketStatus, auth)
	e.POST("/queries/:id/respond", s.handleRespondQuery, auth)
	e.DELETE("/queries/:id", s.handleDeleteQuery, auth)
	e.DELETE("/images/:id", s.handleDeleteImage, auth)
	e.POST("/posts", s.handleCreatePost, auth)
	e.DELETE("/posts/:id", s.handleDeletePost, auth)
	e.POST("/notifications", s.handleSendNotification, auth)
	e.DELETE("/notifications/:id", s.handleDeleteNotification, auth)

	return e
}

func (s *server) close() {
	s.views.Range(func(name string, h handle) bool {
		h.Close()
		return true
	})
	s.views.Close()
}

func Main(ctx context.Context, cfg config.Config) error {
	log := cfg.Logger()
	slog.SetDefault(log)

	shutdownTracing, err := initTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	store, err := kv.NewPebble(filepath.Join(cfg.StateDir, "state"))
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := session.Open(ctx, store)
	if err != nil {
		return err
	}

	bs, err := bus.NewSolo()
	if err != nil {
		return err
	}
	defer bs.Close()

	client := homy.New(cfg.APIURL, sess, homy.WithTimeout(cfg.Timeout.D()), homy.WithLogger(log))

	s, err := newServer(cfg, store, bs, sess, client, log)
	if err != nil {
		return err
	}
	defer s.close()

	go s.statsd(cfg.MetricsListen)

	e := s.routes()
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Listen, "api", cfg.APIURL)
		errc <- e.Start(cfg.Listen)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}
