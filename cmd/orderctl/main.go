// Package main содержит консольную утилиту оператора для работы с каталогом и заказами.
package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/app"
	"github.com/mmeshcher/inventory-orders/internal/config"
)

func main() {
	root := newRootCmd(openService)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// openService собирает сервис по переменным окружения.
func openService(ctx context.Context) (orderService, func() error, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return a.Service, func() error {
		_ = logger.Sync()
		return a.Close()
	}, nil
}
