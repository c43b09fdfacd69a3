package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claim-assistant/internal/app"
	"claim-assistant/internal/devserver"
	"claim-assistant/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	b, err := app.NewBuilder(cfg, log)
	if err != nil {
		log.Error("failed to create builder", "err", err)
		os.Exit(1)
	}
	defer b.Close()

	router, err := b.DevRouter(ctx)
	if err != nil {
		log.Error("failed to create router", "err", err)
		os.Exit(1)
	}

	srv := devserver.NewHTTPServer(cfg.DevAddr, router)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("dev server listening", "addr", cfg.DevAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("dev server stopped", "err", err)
		os.Exit(1)
	}
}
