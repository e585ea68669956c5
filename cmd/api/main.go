package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wasteroutes/internal/api"
	"wasteroutes/internal/config"
	"wasteroutes/internal/directory"
	"wasteroutes/internal/metrics"
	"wasteroutes/internal/model"
	"wasteroutes/internal/notify"
	"wasteroutes/internal/planner"
	"wasteroutes/internal/store"
)

// multiSink fans a generated plan out to every registered sink.
type multiSink []planner.Sink

func (m multiSink) PlanGenerated(plan model.DailyPlan) {
	for _, s := range m {
		s.PlanGenerated(plan)
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if os.Getenv("APP_ENV") == "development" {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	metrics.RegisterDefault()

	var st store.Store
	var dir directory.Directory
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		st = pg
		dir = directory.NewPostgres(pg.DB())
	} else {
		st = store.NewMemory()
		mem := directory.NewMemory()
		if cfg.SeedPath != "" {
			if err := directory.LoadSeed(mem, cfg.SeedPath); err != nil {
				logger.Fatal("failed to load seed", zap.Error(err))
			}
			logger.Info("loaded seed data", zap.String("path", cfg.SeedPath))
		}
		dir = mem
	}
	defer func() { _ = st.Close() }()

	var broker api.EventBroker
	if cfg.RedisURL != "" {
		rb, err := api.NewRedisBroker(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis broker unavailable, using in-memory", zap.Error(err))
			broker = api.NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = api.NewBroker()
	}

	notifier := notify.New(cfg.Notify, logger)
	notifier.Start()
	defer notifier.Close()

	p := planner.New(cfg, dir, st, logger)
	p.Sink = multiSink{api.PlanEvents{Broker: broker}, notifier}

	server := api.NewServer(cfg, p, st, broker, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("API listening", zap.String("addr", srv.Addr), zap.String("hub", cfg.Hub.Name))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
