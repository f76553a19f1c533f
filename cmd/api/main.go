package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"flowershop/internal/bootstrap"
	"flowershop/internal/config"
	"flowershop/internal/handler"
	"flowershop/internal/logging"
	"flowershop/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// .env は無くてもよい（本番は環境変数だけ）
	_ = godotenv.Load()

	path := os.Getenv("FLOWERS_CONFIG")
	if path == "" {
		path = "configs/base.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		logging.Base().Error("config", "err", err)
		os.Exit(1)
	}

	log := logging.Init("api", cfg.App.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.Init(ctx, cfg)
	if err != nil {
		log.Error("bootstrap", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	//Handler生成
	h := server.Handlers{
		Auth:         handler.NewAuthHandler(app.Auth),
		Account:      handler.NewAccountHandler(app.Auth, app.Accounts),
		Product:      handler.NewProductHandler(app.Products, app.Reviews),
		Cart:         handler.NewCartHandler(app.Cart),
		Order:        handler.NewOrderHandler(app.Orders, app.Reviews),
		AdminProduct: handler.NewAdminProductHandler(app.Products),
		AdminOrder:   handler.NewAdminOrderHandler(app.AdminOrders),
		AdminReport:  handler.NewAdminReportHandler(app.Reports),
		AdminUser:    handler.NewAdminUserHandler(cfg, app.UserRepo, app.Auth),
	}

	e := server.New(cfg, logging.New("http"), app.UserRepo, h)

	log.Info("api listening", "addr", cfg.App.HTTPAddr, "env", cfg.App.Env)
	if err := server.Start(ctx, cfg.App.HTTPAddr, e); err != nil {
		log.Error("server", "err", err)
		os.Exit(1)
	}
	log.Info("api stopped")
}
