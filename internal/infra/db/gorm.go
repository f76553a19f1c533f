package db

import (
	"flowershop/internal/config"
	"flowershop/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
// 一意制約違反を gorm.ErrDuplicatedKey に変換させる（TranslateError）。
func Connect(cfg config.Postgres) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.ConnString()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// Migrate はテーブルを作成・更新する。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.CartLine{},
		&model.Order{},
		&model.OrderProduct{},
		&model.Review{},
		&model.AuditLog{},
	)
}
