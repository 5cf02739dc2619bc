// Package main запускает HTTP-сервер сервиса заказов поставщикам.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/inventory-orders/internal/app"
	"github.com/mmeshcher/inventory-orders/internal/config"
	"github.com/mmeshcher/inventory-orders/internal/handler"
	"github.com/mmeshcher/inventory-orders/internal/middleware"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		sugar.Fatalw("initialization error", "error", err.Error())
	}
	defer a.Close()

	// Первичная загрузка каталога; при ошибке каталог подгрузится при первом обращении.
	if err := a.Service.RefreshCatalog(ctx); err != nil {
		sugar.Warnw("initial catalog load failed", "error", err.Error())
	}

	if err := a.Service.StartCatalogRefresh(ctx, cfg.RefreshSchedule()); err != nil {
		sugar.Fatalw("catalog refresh schedule error", "error", err.Error())
	}

	session := middleware.NewSession(cfg.SessionSecret)
	h := handler.NewHandler(a.Service, logger, session, a.Metrics)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting inventory orders server",
			"addr", cfg.RunAddress,
			"backend", cfg.StoreBackend,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
