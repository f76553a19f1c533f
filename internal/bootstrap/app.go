package bootstrap

import (
	"context"
	"fmt"
	"time"

	"flowershop/internal/config"
	"flowershop/internal/infra/cache"
	"flowershop/internal/infra/db"
	"flowershop/internal/infra/events"
	infraRepo "flowershop/internal/infra/repository"
	"flowershop/internal/infra/telegram"
	"flowershop/internal/logging"
	"flowershop/internal/notify"
	"flowershop/internal/repository"
	"flowershop/internal/usecase"
	"flowershop/internal/validator"

	"gorm.io/gorm"
)

// App はプロセスで1回だけ組み立てるサービス一式（api と bot で共有）
type App struct {
	DB       *gorm.DB
	UserRepo repository.UserRepository
	Bus      *usecase.OrderEventBus
	// token未設定ならnil
	Telegram *telegram.Client

	Auth        *usecase.AuthUsecase
	Accounts    *usecase.AccountUsecase
	Products    *usecase.ProductUsecase
	Cart        *usecase.CartUsecase
	Orders      *usecase.OrderUsecase
	AdminOrders *usecase.AdminOrderUsecase
	Reviews     *usecase.ReviewUsecase
	Reports     *usecase.ReportUsecase
}

// Init は依存を組み立てる。戻り値の cleanup で接続を閉じる。
func Init(ctx context.Context, cfg config.Config) (*App, func(), error) {
	log := logging.New("bootstrap")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	gormDB, err := db.Connect(cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetMaxOpenConns(16)
		closers = append(closers, func() { _ = sqlDB.Close() })
	}
	if err := db.Migrate(gormDB); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("db migrate: %w", err)
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartLineRepo := infraRepo.NewCartLineGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	bus := usecase.NewOrderEventBus()

	// 注文ステータスのキャッシュ（任意）
	var statusCache usecase.OrderStatusCache
	if cfg.Redis.URL != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })

		c := cache.NewOrderStatusCache(rdb, cfg.Redis.StatusTTL)
		statusCache = c
		bus.Subscribe(c)
	} else {
		log.Info("redis disabled: order status served from db")
	}

	// Kafkaへのイベント配信（任意）
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = pub.Close() })
		bus.Subscribe(pub)
	}

	reviews := usecase.NewReviewUsecase(txm)

	app := &App{
		DB:          gormDB,
		UserRepo:    userRepo,
		Bus:         bus,
		Auth:        usecase.NewAuthUsecase(cfg.JWT, userRepo, validator.NewAuthValidator(userRepo), nil),
		Accounts:    usecase.NewAccountUsecase(txm),
		Products:    usecase.NewProductUsecase(productRepo, reviewRepo, auditRepo),
		Cart:        usecase.NewCartUsecase(cartLineRepo, productRepo, txm),
		Orders:      usecase.NewOrderUsecase(txm, bus, statusCache, nil),
		AdminOrders: usecase.NewAdminOrderUsecase(txm, bus, nil),
		Reviews:     reviews,
		Reports:     usecase.NewReportUsecase(txm, nil),
	}

	// Telegram通知
	if cfg.Telegram.Token != "" {
		tg, err := telegram.New(cfg.Telegram)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		app.Telegram = tg
		bus.Subscribe(notify.NewDispatcher(tg, reviews, cfg.App.PublicURL))
	} else {
		log.Warn("telegram token not set: notifications disabled")
	}

	return app, cleanup, nil
}
