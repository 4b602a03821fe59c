package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/kvstore"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/reservation"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yml", "optional YAML config file")
	flag.Parse()

	logger := log.New("event-ticketing")
	logger.SetHeader(`${time_rfc3339} ${level} ${prefix}`)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	logger.SetLevel(parseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	store := kvstore.NewRedisStore(rdb)
	defer func() { _ = store.Close() }()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("mysql: %v", err)
	}
	defer func() { _ = db.Close() }()
	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Fatalf("mysql: %v", err)
	}

	seats := reservation.NewManager(store, cfg.Lease.Duration, logger)
	publisher := &service.Publisher{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue, Log: logger}
	tickets := handler.NewTicketHandler(seats, repository.NewTicketRepo(db), publisher, logger)
	listing := middleware.NewResponseCache(cfg.Cache, rdb)
	tickets.Listing = listing

	consumer := &queue.Consumer{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue, LogDir: cfg.RabbitMQ.LogDir, Log: logger}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("ticket-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e, handler.Health(map[string]handler.Pinger{
		"redis": handler.PingFunc(store.Ping),
		"mysql": db,
	}))
	router.RegisterTickets(e, tickets, cfg.JWTSecret,
		middleware.NewTokenBucket(cfg.RateLimit, rdb),
		listing.Middleware(),
	)

	addr := ":" + cfg.Port
	logger.Infof("listening on %s (env=%s, lease=%s)", addr, cfg.Env, seats.Lease())
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	logger.Info("server stopped")
}

func parseLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
