package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/faceofmind/admin-sync/internal/api"
	"github.com/faceofmind/admin-sync/internal/auth"
	"github.com/faceofmind/admin-sync/internal/cache"
	"github.com/faceofmind/admin-sync/internal/config"
	"github.com/faceofmind/admin-sync/internal/connection"
	"github.com/faceofmind/admin-sync/internal/coordinator"
	"github.com/faceofmind/admin-sync/internal/observer"
	"github.com/faceofmind/admin-sync/internal/output"
	"github.com/faceofmind/admin-sync/internal/router"
	"github.com/faceofmind/admin-sync/internal/store"
)

// app is the per-invocation dependency graph shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	session *auth.Session
	client  *api.Client
	cache   *cache.Cache
	printer *output.Printer
}

func newApp(ctx context.Context, g *globals, cmd *cobra.Command) (*app, error) {
	cfg := g.cfg
	logger := g.logger

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	opts := []api.ClientOption{
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, api.DefaultRetryBackoff),
		api.WithLogger(logger),
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, api.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.API.RateLimit), max(cfg.API.RateBurst, 1))))
	}

	// The session needs the client as its login backend, and the client
	// needs the session for bearer tokens.
	tokens := &lazyTokens{}
	opts = append(opts, api.WithTokenSource(tokens))
	client := api.NewClient(cfg.API.BaseURL, opts...)

	session, err := auth.NewSession(ctx, st, client, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading session: %w", err)
	}
	tokens.session = session

	theme, err := session.Theme(ctx)
	if err != nil {
		logger.Warn("reading theme", "error", err)
	}
	printer, err := g.printer(cmd, string(theme))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		session: session,
		client:  client,
		cache:   cache.New(st, logger),
		printer: printer,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}

type lazyTokens struct {
	session *auth.Session
}

func (t *lazyTokens) AccessToken() string {
	if t.session == nil {
		return ""
	}
	return t.session.AccessToken()
}

func (a *app) requireLogin() error {
	if !a.session.IsLoggedIn() {
		a.printer.Error("not logged in; run `adminsync login` first")
		return errReported
	}
	return nil
}

// live bundles the channel side of the graph.
type live struct {
	errs    *observer.Behavior[string]
	router  router.Router
	channel *connection.Channel
}

func (a *app) newLive() *live {
	errs := observer.NewBehavior("")
	r := router.NewRouter(router.DefaultRouterConfig(), errs, a.logger)

	ch := connection.NewChannel(connection.ChannelConfig{
		URL:               a.cfg.API.WSURL,
		BaseDelay:         a.cfg.Channel.ReconnectBaseDelay,
		MaxAttempts:       a.cfg.Channel.MaxAttempts,
		PingTimeout:       a.cfg.Channel.PingTimeout,
		HeartbeatInterval: a.cfg.Channel.PingInterval,
		WriteTimeout:      a.cfg.Channel.WriteTimeout,
		BufferSize:        a.cfg.Channel.BufferSize,
	}, r, errs, a.logger, connection.WithSession(a.session))

	return &live{errs: errs, router: r, channel: ch}
}

func (a *app) newCoordinator(l *live, renderer coordinator.Renderer) *coordinator.Coordinator {
	cfg := coordinator.Config{
		Freshness:   a.cfg.Cache.Freshness,
		LiveTimeout: a.cfg.Channel.LiveTimeout,
	}
	return coordinator.New(cfg, l.channel, l.router, a.client, a.cache, renderer, a.logger)
}
