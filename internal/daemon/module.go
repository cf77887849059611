package daemon

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/identity"
	"github.com/matheus3301/huddle/internal/lock"
	"github.com/matheus3301/huddle/internal/logging"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/status"
	intsync "github.com/matheus3301/huddle/internal/sync"
	"github.com/matheus3301/huddle/internal/transport"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// inboxSize bounds undrained arrivals per peer.
const inboxSize = 1024

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	Config      *config.Config
	SocketPath  string // optional override for testing; empty = use default
	ChannelDir  string // optional override for testing; empty = derived from Config.Channel
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideIdentity,
			provideLogger,
			provideClock,
			provideBus,
			provideStateMachine,
			provideLock,
			provideTransport,
			provideCoordinator,
			provideSessionService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideIdentity(p Params) identity.Identity {
	return identity.Generate(p.Config.DisplayName)
}

func provideLogger(p Params, self identity.Identity) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName, self.ID, p.Config.LogLevel)
}

func provideClock() clock.Clock {
	return clock.New()
}

func provideBus(clk clock.Clock) *bus.Bus {
	return bus.NewWithClock(clk.Now)
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, self identity.Identity, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName), self.ID)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideTransport depends on the lock so a second daemon for the same
// session never joins the channel.
func provideTransport(p Params, _ *lock.Lock, logger *zap.Logger) (transport.Transport, error) {
	dir := p.ChannelDir
	if dir == "" {
		dir = session.ChannelDir(p.Config.Channel)
	}
	return transport.ListenUnixgram(dir, inboxSize, logger.Named("transport"))
}

func provideCoordinator(p Params, self identity.Identity, tr transport.Transport, b *bus.Bus, m *status.Machine, clk clock.Clock, logger *zap.Logger) *intsync.Coordinator {
	return intsync.New(intsync.Params{
		Self:      self,
		Transport: tr,
		Bus:       b,
		Machine:   m,
		Clock:     clk,
		Timing:    p.Config.Timing,
		Logger:    logger.Named("sync"),
	})
}

func provideSessionService(p Params, coord *intsync.Coordinator, b *bus.Bus, clk clock.Clock) *api.SessionService {
	return api.NewSessionService(api.ServiceParams{
		SessionName:  p.SessionName,
		Channel:      p.Config.Channel,
		OnlineWithin: p.Config.Timing.OnlineWithin,
		Clock:        clk,
	}, coord, b)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, svc *api.SessionService, lk *lock.Lock, coord *intsync.Coordinator, tr transport.Transport, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The loop outlives the start context; Stop ends it.
			if err := coord.Start(context.Background()); err != nil {
				return err
			}

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			svc.Shutdown()
			srv.Stop(ctx)
			if err := coord.Stop(ctx); err != nil {
				logger.Warn("error stopping session", zap.Error(err))
			}
			if err := tr.Close(); err != nil {
				logger.Warn("error closing transport", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
