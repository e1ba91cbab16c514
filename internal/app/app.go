// Package app wires the stores, services and transports into one server.
package app

import (
	"context"
	"fmt"
	"time"

	"kawanchat/server/internal/cache"
	"kawanchat/server/internal/chat"
	"kawanchat/server/internal/chatroom"
	"kawanchat/server/internal/config"
	"kawanchat/server/internal/database"
	"kawanchat/server/internal/friends"
	"kawanchat/server/internal/handlers"
	"kawanchat/server/internal/lifecycle"
	"kawanchat/server/internal/middleware"
	"kawanchat/server/internal/models"
	"kawanchat/server/internal/notify"
	"kawanchat/server/internal/presence"
	"kawanchat/server/internal/routes"
	"kawanchat/server/internal/store"
	"kawanchat/server/internal/store/memory"
	"kawanchat/server/internal/store/postgres"
	ws "kawanchat/server/internal/websocket"

	"github.com/go-redis/redis"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App is a fully wired server
type App struct {
	cfg *config.Config
	log *zap.Logger

	Fiber     *fiber.App
	Hub       *ws.Hub
	Presence  *presence.Tracker
	Lifecycle *lifecycle.Handler

	closers []func()
}

// New builds every component from cfg. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	s, onAuthenticated, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	friendsCache, err := a.openCache()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Hub = ws.NewHub(nil, log.Named("hub"))
	pushers := []notify.Pusher{a.Hub}

	mirror, err := a.openNATS()
	if err != nil {
		a.Close()
		return nil, err
	}
	if mirror != nil {
		pushers = append(pushers, mirror)
	}

	fanout := notify.NewFanout(log.Named("notify"), cfg.Fanout.Timeout, pushers...)

	a.Presence = presence.NewTracker()
	a.Lifecycle = lifecycle.NewHandler(a.Presence, s, fanout, cfg.Fanout.Timeout, log.Named("lifecycle"))
	a.Hub.SetObserver(a.Lifecycle)

	ledger := friends.NewLedger(s, a.Presence, friendsCache, fanout, log.Named("friends"))
	relay := chat.NewRelay(s, chatroom.NewResolver(s))
	chatService := chat.NewService(relay, s, ledger, fanout, log.Named("chat"))
	dispatcher := ws.NewDispatcher(chatService, ledger, a.Hub, cfg.Fanout.Timeout, log.Named("dispatcher"))

	h := handlers.New(ledger, chatService, a.Presence, a.Hub, dispatcher, log.Named("http"))

	a.Fiber = fiber.New(fiber.Config{
		AppName: "Kawanchat API v1.0",
	})
	a.Fiber.Use(recover.New())
	a.Fiber.Use(logger.New())
	a.Fiber.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowCredentials: true,
	}))

	routes.SetupRoutes(a.Fiber, h, middleware.AuthMiddleware([]byte(cfg.JWT.Secret), onAuthenticated))

	return a, nil
}

// openStore returns the configured store. The memory store has no identity
// service behind it, so it learns users from their tokens.
func (a *App) openStore(ctx context.Context) (store.Store, func(models.User), error) {
	if a.cfg.Database.Driver == config.StoreDriverMemory {
		a.log.Warn("using in-memory store, data is lost on restart")
		s := memory.New()
		return s, func(u models.User) { s.PutUser(u) }, nil
	}

	pool, err := database.Connect(ctx, a.cfg.Database.URL, a.log)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, pool.Close)

	if a.cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			return nil, nil, err
		}
		a.log.Info("database schema applied")
	}
	return postgres.New(pool), nil, nil
}

func (a *App) openCache() (cache.FriendsCache, error) {
	c := a.cfg.Cache
	if c.RedisAddr == "" {
		return cache.NewLRU(c.Size, c.TTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { client.Close() })

	a.log.Info("friends cache backed by redis", zap.String("addr", c.RedisAddr))
	return cache.NewRedis(client, c.TTL), nil
}

// openNATS connects the notification mirror, or returns nil when disabled
func (a *App) openNATS() (*notify.NATSPublisher, error) {
	if a.cfg.NATS.URL == "" {
		return nil, nil
	}

	nc, err := nats.Connect(a.cfg.NATS.URL,
		nats.Name("kawanchat"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	a.closers = append(a.closers, func() { _ = nc.Drain() })

	a.log.Info("notification mirror enabled",
		zap.String("url", a.cfg.NATS.URL),
		zap.String("subject_prefix", a.cfg.NATS.SubjectPrefix),
	)
	return notify.NewNATSPublisher(nc, a.cfg.NATS.SubjectPrefix), nil
}

// Run serves until ctx is done or a component fails, then shuts down the
// HTTP server and waits for in-flight presence fan-outs.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	hubDone := make(chan struct{})
	g.Go(func() error {
		defer close(hubDone)
		return a.Hub.Run(ctx)
	})

	g.Go(func() error {
		a.log.Info("server starting", zap.String("port", a.cfg.Server.Port))
		if err := a.Fiber.Listen(":" + a.cfg.Server.Port); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		err := a.Fiber.ShutdownWithTimeout(shutdownTimeout)
		<-hubDone
		a.Lifecycle.Wait()
		return err
	})

	return g.Wait()
}

// Close releases connections in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
