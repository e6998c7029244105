package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Skotchmaster/tokenauth/internal/config"
	"github.com/Skotchmaster/tokenauth/internal/db"
	"github.com/Skotchmaster/tokenauth/internal/events"
	"github.com/Skotchmaster/tokenauth/internal/hash"
	"github.com/Skotchmaster/tokenauth/internal/httpserver"
	"github.com/Skotchmaster/tokenauth/internal/logging"
	"github.com/Skotchmaster/tokenauth/internal/metrics"
	authmw "github.com/Skotchmaster/tokenauth/internal/middleware/auth"
	"github.com/Skotchmaster/tokenauth/internal/repo"
	"github.com/Skotchmaster/tokenauth/internal/service"
	"github.com/Skotchmaster/tokenauth/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	hasher, err := hash.New(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}

	issuer, err := tokens.NewIssuer([]byte(cfg.SecretKey), cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	svc := service.NewAuthService(&repo.GormRepo{DB: gdb}, hasher, issuer, publisher, collector)

	e := httpserver.New(logger)
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		Bearer:      authmw.NewBearer(svc),
		Ready:       func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		Metrics:     metrics.Handler(reg),
	})

	go func() {
		logger.Info("server_start", "addr", cfg.ListenAddr, "db_driver", cfg.DBDriver, "kafka", len(cfg.KafkaBrokers) > 0)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}
}
