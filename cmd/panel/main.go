package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dropDatabas3/userpanel/internal/config"
	"github.com/dropDatabas3/userpanel/internal/http/server"
	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env opcional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not load .env: %v", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "userpanel",
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := server.Build(ctx, cfg)
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Warn("cleanup error", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("userpanel listening", logger.String("addr", cfg.Server.Addr), logger.Upstream(cfg.IAM.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		lg.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Error("server stopped with error", logger.Err(err))
	}
}
