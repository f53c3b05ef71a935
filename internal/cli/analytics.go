package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/faceofmind/admin-sync/internal/coordinator"
	"github.com/faceofmind/admin-sync/internal/health"
	"github.com/faceofmind/admin-sync/internal/model"
	"github.com/faceofmind/admin-sync/internal/output"
	"github.com/faceofmind/admin-sync/internal/poller"
	"github.com/faceofmind/admin-sync/internal/router"
)

const stopTimeout = 5 * time.Second

func periodArg(args []string) (model.Period, error) {
	if len(args) == 0 {
		return model.PeriodWeek, nil
	}
	return model.ParsePeriod(args[0])
}

func newFetchCommand(g *globals) *cobra.Command {
	var useLive bool

	cmd := &cobra.Command{
		Use:   "fetch [week|month|year|all]",
		Short: "Show analytics for a period",
		Long: `Show analytics for a period (default: week). A cached copy is shown
first when one exists, followed by a fresh copy from the backend.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"week", "month", "year", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := periodArg(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := newApp(ctx, g, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(); err != nil {
				return err
			}

			l := a.newLive()
			co := a.newCoordinator(l, output.NewAnalyticsRenderer(a.printer))
			if useLive {
				stop := a.startLive(ctx, l)
				defer stop()
			}
			co.Attach(ctx)
			defer co.Detach()

			if err := co.FetchAnalytics(ctx, period); err != nil {
				if coordinator.IsLoadError(err) {
					return errReported
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&useLive, "live", false, "request the data over the live channel")
	return cmd
}

func newRefreshCommand(g *globals) *cobra.Command {
	var useLive bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Clear the cache and reload every period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, g, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(); err != nil {
				return err
			}

			l := a.newLive()
			co := a.newCoordinator(l, output.NewAnalyticsRenderer(a.printer))
			if useLive {
				stop := a.startLive(ctx, l)
				defer stop()
			}
			co.Attach(ctx)
			defer co.Detach()

			if err := co.RefreshAll(ctx); err != nil {
				a.printer.Error("%s", coordinator.LoadErrorMessage)
				a.logger.Debug("refresh failed", "error", err)
				return errReported
			}
			return a.printCacheSummary(ctx)
		},
	}

	cmd.Flags().BoolVar(&useLive, "live", false, "request the data over the live channel")
	return cmd
}

func (a *app) printCacheSummary(ctx context.Context) error {
	now := a.cache.Now()
	t := output.NewTable(a.printer.Out(), []string{"Period", "Total", "New", "Admins", "Professionals", "Cached"})
	for _, p := range model.CachedPeriods {
		e, ok := a.cache.Read(ctx, p)
		if !ok {
			t.AddRow(string(p), "-", "-", "-", "-", "missing")
			continue
		}
		t.AddRow(string(p),
			fmt.Sprint(e.Data.TotalUsers),
			fmt.Sprint(e.Data.NewUsers),
			fmt.Sprint(e.Data.AdminCount),
			fmt.Sprint(e.Data.ProfessionalCount),
			e.Age(now).Round(time.Second).String()+" ago",
		)
	}
	a.printer.Header("Cached analytics")
	return t.Render()
}

func newWatchCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [week|month|year|all]",
		Short: "Follow live analytics until interrupted",
		Long: `Show a period and keep it current from server pushes. When refresh is
enabled in the config every period is reloaded on its schedule, and when
health.addr is set the health and metrics endpoints are served.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"week", "month", "year", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := periodArg(args)
			if err != nil {
				return err
			}
			return runWatch(cmd, g, period)
		},
	}
}

func runWatch(cmd *cobra.Command, g *globals, period model.Period) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, g, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireLogin(); err != nil {
		return err
	}

	l := a.newLive()
	co := a.newCoordinator(l, output.NewAnalyticsRenderer(a.printer))

	unsubNotes := l.router.Notifications().Subscribe(func(n router.Notification) {
		a.printer.Info("%s %s", a.printer.Dim(time.Now().Format("15:04:05")), n.Message)
	})
	defer unsubNotes()
	unsubErrs := l.errs.Subscribe(func(msg string) {
		if msg != "" {
			a.printer.Warning("%s", msg)
		}
	})
	defer unsubErrs()

	stopLive := a.startLive(ctx, l)
	defer stopLive()

	co.Attach(ctx)
	defer co.Detach()

	if err := co.FetchAnalytics(ctx, period); err != nil {
		a.logger.Debug("initial fetch failed", "period", period, "error", err)
	}

	grp, gctx := errgroup.WithContext(ctx)

	if a.cfg.Refresh.Enabled {
		p := poller.New(poller.Config{
			Schedule: a.cfg.Refresh.Schedule,
			Timeout:  a.cfg.Refresh.Timeout,
		}, co, a.session, a.logger)
		if err := p.Start(gctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if err := p.Stop(stopCtx); err != nil {
				a.logger.Warn("poller stop", "error", err)
			}
		}()
	}

	if a.cfg.Health.Addr != "" {
		h := health.NewHandler(a.store, l.channel, a.session)
		grp.Go(func() error {
			return health.Serve(gctx, a.cfg.Health.Addr, h.Routes(a.cfg.Health.MetricsPath), a.logger)
		})
	}

	grp.Go(func() error {
		<-gctx.Done()
		return nil
	})

	a.logger.Info("watching analytics", "period", period)
	if err := grp.Wait(); err != nil {
		return err
	}
	a.printer.Info("")
	a.printer.Success("stopped")
	return nil
}

// startLive starts the router and opens the channel. A failed dial is
// reported and the commands continue over REST.
func (a *app) startLive(ctx context.Context, l *live) (stop func()) {
	if err := l.router.Start(ctx); err != nil {
		a.logger.Warn("router start", "error", err)
	}
	if err := l.channel.Connect(ctx); err != nil {
		a.printer.Warning("live channel unavailable, using the REST API")
		a.logger.Debug("channel connect failed", "error", err)
	}

	return func() {
		l.channel.Disconnect()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := l.router.Stop(stopCtx); err != nil {
			a.logger.Warn("router stop", "error", err)
		}
	}
}
