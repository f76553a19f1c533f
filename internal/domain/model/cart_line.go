package model

import "time"

// カートの明細。追加するたびに1行（同じ商品でもまとめない）。
// 価格は持たない（表示時に商品の現在価格を使う）。
type CartLine struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	Address   string    `gorm:"type:text" json:"address"`
	CardText  string    `gorm:"type:text" json:"card_text"`
	Signature string    `gorm:"type:varchar(255)" json:"signature"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
