package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// レビュー。1ユーザー・1注文につき1件まで。
type Review struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:ux_reviews_user_order" json:"user_id"`
	OrderID   int64     `gorm:"not null;uniqueIndex:ux_reviews_user_order;index" json:"order_id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	Text      string    `gorm:"type:text" json:"text"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
