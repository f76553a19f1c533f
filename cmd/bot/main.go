package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"flowershop/internal/bootstrap"
	"flowershop/internal/bot"
	"flowershop/internal/config"
	"flowershop/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	path := os.Getenv("FLOWERS_CONFIG")
	if path == "" {
		path = "configs/base.yaml"
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.ValidateBot()
	}
	if err != nil {
		logging.Base().Error("config", "err", err)
		os.Exit(1)
	}

	log := logging.Init("bot", cfg.App.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.Init(ctx, cfg)
	if err != nil {
		log.Error("bootstrap", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	h := bot.NewHandler(app.Accounts, app.Orders, app.Reports, cfg.Telegram.AdminChatID, cfg.App.PublicURL, nil)
	app.Telegram.Run(ctx, h)
}
