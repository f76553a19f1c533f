package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文に含まれる商品。idの小さい順が注文内の並び順。
type OrderProduct struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	ProductID           int64           `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string          `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	PriceSnapshot       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_snapshot"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
