package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/gatekeeper/gatekeeper/internal/config"
	"github.com/gatekeeper/gatekeeper/internal/events"
	"github.com/gatekeeper/gatekeeper/internal/httpserver"
	"github.com/gatekeeper/gatekeeper/internal/logging"
	"github.com/gatekeeper/gatekeeper/internal/mailer"
	"github.com/gatekeeper/gatekeeper/internal/middleware"
	"github.com/gatekeeper/gatekeeper/internal/repo"
	"github.com/gatekeeper/gatekeeper/internal/revocation"
	"github.com/gatekeeper/gatekeeper/internal/service"
	"github.com/gatekeeper/gatekeeper/internal/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg.DatabaseDSN())
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	gormRepo := repo.GormRepo{DB: db}
	if err := gormRepo.SeedRoles(context.Background()); err != nil {
		log.Fatalf("role seeding error: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("redis init error: %v", err)
	}
	cancel()

	codec := &tokens.Codec{
		JWTSecret:     cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
	}

	dispatcher := mailer.NewDispatcher(cfg.RedisAddr)
	defer dispatcher.Close()

	worker := mailer.NewWorker(cfg.RedisAddr, gormRepo, codec,
		cfg.ActivationExpires, cfg.ResetExpires, cfg.MailSender, logger)
	worker.Start()
	defer worker.Shutdown()

	var publisher service.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		publisher = producer
	}

	svc := &service.AuthService{
		Repo:        gormRepo,
		Codec:       codec,
		Cache:       revocation.NewCache(rdb),
		Mail:        dispatcher,
		Events:      publisher,
		AccessTTL:   cfg.AccessExpires,
		RefreshTTL:  cfg.RefreshExpires,
		AdminEmails: cfg.AdminEmails,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		Guard:       middleware.NewGuard(svc),
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
